package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "roomledger/internal/adapters/http_server"
	"roomledger/internal/adapters/observability"
	redisad "roomledger/internal/adapters/redis"
	"roomledger/internal/app"
	"roomledger/internal/domain"
	"roomledger/internal/shared"
	mysqlstore "roomledger/internal/storage/mysql"
	"roomledger/internal/storage/xlsxstore"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	store := openStore(cfg)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	session := app.NewSession(store, cache, app.Options{
		WeekStart: cfg.WeekStart,
		CacheTTL:  cfg.CacheTTL,
		SaveRPS:   cfg.SaveRPS,
	})
	if err := session.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("hydrate session from store failed")
	}
	log.Info().Int("hotels", len(session.Hotels())).Msg("session hydrated")

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: session})

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func openStore(cfg shared.Config) domain.TableStore {
	if cfg.StoreDriver == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return mysqlstore.New(db)
	}
	log.Info().Str("path", cfg.XLSXPath).Msg("using workbook store")
	return xlsxstore.New(cfg.XLSXPath)
}
