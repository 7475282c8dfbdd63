package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"zonaprop_scraper/models"
)

// PostgresStore is an optional export sink: every run's rows are inserted
// under a batch id so downstream consumers can query the latest export.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listing_exports (
		id BIGSERIAL PRIMARY KEY,
		batch_id UUID NOT NULL,
		site_id TEXT NOT NULL,
		link TEXT NOT NULL,
		title TEXT,
		location TEXT,
		price_value TEXT,
		price_type TEXT,
		expenses_value TEXT,
		expenses_type TEXT,
		m2_total DOUBLE PRECISION,
		m2_covered DOUBLE PRECISION,
		m2_land DOUBLE PRECISION,
		precio_por_m2 DOUBLE PRECISION,
		rooms DOUBLE PRECISION,
		bedrooms DOUBLE PRECISION,
		bathrooms DOUBLE PRECISION,
		parking DOUBLE PRECISION,
		description TEXT,
		detail_error TEXT,
		exported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_listing_exports_batch ON listing_exports (batch_id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// SaveRows inserts one export batch.
func (s *PostgresStore) SaveRows(ctx context.Context, batchID uuid.UUID, siteID string, rows []models.ExportRow) error {
	query := `
		INSERT INTO listing_exports (
			batch_id, site_id, link, title, location,
			price_value, price_type, expenses_value, expenses_type,
			m2_total, m2_covered, m2_land, precio_por_m2,
			rooms, bedrooms, bathrooms, parking,
			description, detail_error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)`

	for _, r := range rows {
		var detailErr *string
		if r.DetailError != "" {
			detailErr = &r.DetailError
		}
		_, err := s.pool.Exec(ctx, query,
			batchID, siteID, r.Link, r.Title, r.Location,
			r.PriceValue, r.PriceType, r.ExpensesValue, r.ExpensesType,
			r.M2Total, r.M2Covered, r.M2Land, r.PrecioPorM2,
			r.Rooms, r.Bedrooms, r.Bathrooms, r.Parking,
			r.Description, detailErr,
		)
		if err != nil {
			return fmt.Errorf("insert row %s: %w", r.Link, err)
		}
	}
	return nil
}
