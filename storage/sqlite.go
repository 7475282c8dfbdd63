package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"zonaprop_scraper/models"
)

// SQLiteStore keeps operational bookkeeping: one record per export run plus
// its log lines. It holds no crawl state; runs are independent.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		site_id TEXT,
		search_url TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER DEFAULT 0,
		rows_exported INTEGER DEFAULT 0,
		detail_errors INTEGER DEFAULT 0,
		output_path TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO scrape_runs (site_id, search_url, started_at, status, output_path)
		VALUES (?, ?, ?, ?, ?)`,
		run.SiteID, run.SearchURL, run.StartedAt, run.Status, run.OutputPath)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET
			finished_at = ?, status = ?, listings_found = ?,
			rows_exported = ?, detail_errors = ?, output_path = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound,
		run.RowsExported, run.DetailErrors, run.OutputPath, run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	return err
}

// LastRun returns the most recent run for a site, or nil when none exists.
func (s *SQLiteStore) LastRun(siteID string) (*models.ScrapeRun, error) {
	row := s.db.QueryRow(`
		SELECT id, site_id, search_url, started_at, finished_at, status,
			listings_found, rows_exported, detail_errors, output_path
		FROM scrape_runs WHERE site_id = ? ORDER BY started_at DESC LIMIT 1`, siteID)

	var run models.ScrapeRun
	err := row.Scan(&run.ID, &run.SiteID, &run.SearchURL, &run.StartedAt, &run.FinishedAt,
		&run.Status, &run.ListingsFound, &run.RowsExported, &run.DetailErrors, &run.OutputPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
