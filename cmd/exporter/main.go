// Batch export: hydrates the catalog and ledger from the store and
// writes one channel upload workbook per hotel into EXPORT_DIR.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"roomledger/internal/adapters/observability"
	"roomledger/internal/app"
	"roomledger/internal/domain"
	"roomledger/internal/shared"
	mysqlstore "roomledger/internal/storage/mysql"
	"roomledger/internal/storage/xlsxstore"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().
		Str("store", cfg.StoreDriver).
		Str("dir", cfg.ExportDir).
		Int("workers", cfg.ExportWorkers).
		Msg("exporter starting")

	store := openStore(cfg)
	session := app.NewSession(store, nil, app.Options{WeekStart: cfg.WeekStart})
	if err := session.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("hydrate session from store failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.ExportWorkers))
	var wg sync.WaitGroup

	for _, hotel := range session.Hotels() {
		hotel := hotel

		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			f, err := session.Export(hotel)
			if err != nil {
				log.Warn().Str("hotel", hotel).Err(err).Msg("export failed")
				return
			}
			defer f.Close()
			name := fmt.Sprintf("[%s]_upload_%s.xlsx", hotel, time.Now().Format("2006-01-02"))
			path := filepath.Join(cfg.ExportDir, name)
			if err := f.SaveAs(path); err != nil {
				log.Warn().Str("hotel", hotel).Err(err).Msg("write workbook failed")
				return
			}
			log.Info().Str("hotel", hotel).Str("path", path).Msg("export ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("export completed")
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
		return mysqlstore.New(db)
	}
	return xlsxstore.New(cfg.XLSXPath)
}
