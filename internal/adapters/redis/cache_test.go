package redisad_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "roomledger/internal/adapters/redis"
	"roomledger/internal/domain"
)

func newCache(t *testing.T) *redisad.Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	return redisad.New(srv.Addr(), "", 0)
}

func TestCache_SetGetDel(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	var miss []domain.Row
	ok, err := c.Get(ctx, "rows:Solbeach:g0", &miss)
	if err != nil || ok {
		t.Fatalf("get on empty cache = %v, %v", ok, err)
	}

	rows := []domain.Row{{Hotel: "Solbeach", Product: "Deluxe", Price: 100000, Stock: 3}}
	if err := c.Set(ctx, "rows:Solbeach:g0", rows, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got []domain.Row
	ok, err = c.Get(ctx, "rows:Solbeach:g0", &got)
	if err != nil || !ok {
		t.Fatalf("get = %v, %v", ok, err)
	}
	if len(got) != 1 || got[0].Product != "Deluxe" || got[0].Price != 100000 {
		t.Fatalf("got = %+v", got)
	}

	if err := c.Del(ctx, "rows:Solbeach:g0"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, _ = c.Get(ctx, "rows:Solbeach:g0", &got)
	if ok {
		t.Fatal("key still present after del")
	}
}

func TestCache_GenerationStampedKeysAreIndependent(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	for g := 0; g < 3; g++ {
		key := "cal:Solbeach:g" + strconv.Itoa(g) + ":2025-03:1"
		if err := c.Set(ctx, key, domain.MonthGrid{Mode: "stock"}, 60); err != nil {
			t.Fatalf("set g%d: %v", g, err)
		}
	}
	var grid domain.MonthGrid
	ok, err := c.Get(ctx, "cal:Solbeach:g2:2025-03:1", &grid)
	if err != nil || !ok || grid.Mode != "stock" {
		t.Fatalf("get = %v, %v, %+v", ok, err, grid)
	}
}
