package app

import (
	"database/sql"

	"github.com/guttosm/econpulse/config"
	"github.com/guttosm/econpulse/internal/extractor"
	"github.com/guttosm/econpulse/internal/ingestion"
	"github.com/guttosm/econpulse/internal/loader"
	"github.com/guttosm/econpulse/internal/storage"
)

// NewPipeline wires the upstream client and a PostgreSQL-backed loader
// into an ingestion pipeline.
func NewPipeline(cfg config.Config, db *sql.DB) *ingestion.Pipeline {
	client := extractor.New(extractor.Config{
		BaseURL:         cfg.Indicators.BaseURL,
		Timeout:         cfg.Indicators.Timeout,
		RateLimitPerSec: cfg.Indicators.RateLimit,
		RateLimitBurst:  cfg.Indicators.RateLimit,
	})
	ld := loader.New(storage.NewPostgresSessions(db))

	return ingestion.NewPipeline(client, ld, ingestion.Options{
		Codes:       cfg.ETL.Codes,
		HistoryDays: cfg.ETL.HistoryDays,
	})
}
