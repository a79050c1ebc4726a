package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hoteldesk/internal/adapters/observability"
	"hoteldesk/internal/app"
	"hoteldesk/internal/shared"
	mysqlstore "hoteldesk/internal/storage/mysql"
)

// seedFile is the bulk-import fixture shape: one array of wizard payloads
// per aggregate. Hotels are composed first so rooms and events can
// reference them by id.
type seedFile struct {
	Hotels []map[string]any `json:"hotels"`
	Rooms  []map[string]any `json:"rooms"`
	Events []map[string]any `json:"events"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("file", cfg.ImportFile).
		Int("workers", cfg.Workers).
		Msg("importer starting")

	raw, err := os.ReadFile(cfg.ImportFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read import file failed")
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Msg("parse import file failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	composer := app.NewComposer(mysqlstore.New(db), nil)
	sem := semaphore.NewWeighted(int64(cfg.Workers))

	// parents first: rooms and events carry hotel_id foreign keys
	importBatch(ctx, composer, sem, app.Hotels, seed.Hotels)
	importBatch(ctx, composer, sem, app.Rooms, seed.Rooms)
	importBatch(ctx, composer, sem, app.Events, seed.Events)

	log.Info().Msg("import completed")
}

func importBatch(ctx context.Context, composer *app.Composer, sem *semaphore.Weighted, agg app.Aggregate, payloads []map[string]any) {
	var wg sync.WaitGroup
	for i, payload := range payloads {
		i, payload := i, payload

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := composer.Create(ctx, agg, payload); err != nil {
				log.Warn().Str("aggregate", agg.Key).Int("item", i).Err(err).Msg("import failed")
				return
			}
			log.Info().Str("aggregate", agg.Key).Int("item", i).Msg("import ok")
		}()
	}
	wg.Wait()
}
