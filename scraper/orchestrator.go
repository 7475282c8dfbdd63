package scraper

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"zonaprop_scraper/config"
	"zonaprop_scraper/models"
	"zonaprop_scraper/storage"
)

// Orchestrator drives one export: paginate the search results until the
// advertised listing count is reached, resolve each card's detail page, and
// merge both into export rows. Fetches are strictly sequential with a fixed
// delay per outbound request.
type Orchestrator struct {
	cfg     *config.Config
	site    *config.SiteConfig
	fetcher Fetcher
	store   *storage.SQLiteStore

	pgStore  *storage.PostgresStore
	uploader *storage.S3Uploader
}

func NewOrchestrator(cfg *config.Config, site *config.SiteConfig, fetcher Fetcher, store *storage.SQLiteStore) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		site:    site,
		fetcher: fetcher,
		store:   store,
	}
}

// SetSinks registers the optional Postgres and S3 output sinks.
func (o *Orchestrator) SetSinks(pgStore *storage.PostgresStore, uploader *storage.S3Uploader) {
	o.pgStore = pgStore
	o.uploader = uploader
}

// Run executes the full pipeline: crawl, merge, write CSV, feed the optional
// sinks, with run bookkeeping around it. A listing-page fetch failure or an
// unreadable listing count aborts the run; per-listing detail failures do
// not.
func (o *Orchestrator) Run(ctx context.Context, searchURL, outputPath string, maxListings int) error {
	base := BaseSearchURL(searchURL, o.site.HTMLExtension)
	if outputPath == "" {
		outputPath = storage.DefaultOutputPath(o.cfg.OutputDir, base, time.Now())
	}

	run := &models.ScrapeRun{
		SiteID:     o.site.ID,
		SearchURL:  searchURL,
		StartedAt:  time.Now(),
		Status:     models.RunStatusRunning,
		OutputPath: outputPath,
	}
	if o.store != nil {
		if id, err := o.store.CreateRun(run); err != nil {
			log.Printf("Warning: could not record run: %v", err)
		} else {
			run.ID = id
		}
	}
	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if o.store != nil {
			o.store.UpdateRun(run)
		}
	}()

	rows, err := o.Export(ctx, searchURL, maxListings)
	if err != nil {
		run.Status = models.RunStatusFailed
		o.log(run, models.LogLevelError, fmt.Sprintf("Export failed: %v", err))
		return err
	}

	run.ListingsFound = len(rows)
	for _, row := range rows {
		if row.DetailError != "" {
			run.DetailErrors++
		}
	}

	if err := o.writeCSV(outputPath, rows); err != nil {
		run.Status = models.RunStatusFailed
		o.log(run, models.LogLevelError, fmt.Sprintf("Write output: %v", err))
		return err
	}
	run.RowsExported = len(rows)

	if o.pgStore != nil {
		batchID := uuid.New()
		if err := o.pgStore.SaveRows(ctx, batchID, o.site.ID, rows); err != nil {
			o.log(run, models.LogLevelWarn, fmt.Sprintf("Postgres sink: %v", err))
		} else {
			o.log(run, models.LogLevelInfo, fmt.Sprintf("Saved %d rows to Postgres (batch %s)", len(rows), batchID))
		}
	}

	if o.uploader != nil {
		key := "exports/" + filepath.Base(outputPath)
		if err := o.uploader.UploadFile(ctx, key, outputPath, "text/csv"); err != nil {
			o.log(run, models.LogLevelWarn, fmt.Sprintf("S3 upload: %v", err))
		} else {
			o.log(run, models.LogLevelInfo, fmt.Sprintf("Uploaded %s", key))
		}
	}

	run.Status = models.RunStatusCompleted
	o.log(run, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d rows (%d detail errors) -> %s", len(rows), run.DetailErrors, outputPath))
	return nil
}

// Export crawls the search results and returns one merged row per usable
// card, in discovery order.
func (o *Orchestrator) Export(ctx context.Context, searchURL string, maxListings int) ([]models.ExportRow, error) {
	base := BaseSearchURL(searchURL, o.site.HTMLExtension)

	cards, err := o.crawlCards(ctx, base)
	if err != nil {
		return nil, err
	}
	if maxListings > 0 && len(cards) > maxListings {
		cards = cards[:maxListings]
	}

	rows := make([]models.ExportRow, 0, len(cards))
	for i, card := range cards {
		link := CanonicalURL(card.URL(), o.site.Host)
		if link == "" {
			log.Printf("Skipping card %d: empty url after normalization", i+1)
			continue
		}

		detail, detailErr := o.resolveDetail(ctx, link)
		if detailErr != nil {
			log.Printf("Detail error for %s: %v", link, detailErr)
		}

		row := buildRow(card, detail, detailErr)
		rows = append(rows, row)
		log.Printf("[%d/%d] %s", i+1, len(cards), row.Link)

		if err := sleep(ctx, o.cfg.Crawl.DetailDelay); err != nil {
			return rows, err
		}
	}

	return rows, nil
}

// crawlCards fetches page 1, reads the advertised listing count from it, and
// keeps fetching subsequent pages until the accumulated card count reaches
// the target. The last page may overshoot the target; the overshoot is kept.
func (o *Orchestrator) crawlCards(ctx context.Context, base string) ([]models.ListingCard, error) {
	pageURL := PageURL(base, o.site.PageSuffix, o.site.HTMLExtension, 1)
	log.Printf("URL: %s", pageURL)

	first, err := o.fetcher.GetText(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}

	target, err := ParseListingCount(first)
	if err != nil {
		return nil, err
	}
	log.Printf("Listing count target: %d", target)

	cards, err := ParseSearchPage(first)
	if err != nil {
		return nil, err
	}
	log.Printf("Page 1: %d cards (total: %d)", len(cards), len(cards))

	for page := 2; len(cards) < target; page++ {
		if err := sleep(ctx, o.cfg.Crawl.PageDelay); err != nil {
			return nil, err
		}

		pageURL := PageURL(base, o.site.PageSuffix, o.site.HTMLExtension, page)
		log.Printf("URL: %s", pageURL)

		html, err := o.fetcher.GetText(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		pageCards, err := ParseSearchPage(html)
		if err != nil {
			return nil, err
		}
		if len(pageCards) == 0 {
			log.Printf("Page %d: no cards, stopping short of target %d", page, target)
			break
		}

		cards = append(cards, pageCards...)
		log.Printf("Page %d: %d cards (total: %d)", page, len(pageCards), len(cards))
	}

	return cards, nil
}

// resolveDetail fetches and parses one detail page. Failures are returned to
// the caller for per-listing recovery, never propagated up the crawl.
func (o *Orchestrator) resolveDetail(ctx context.Context, link string) (models.ListingDetail, error) {
	html, err := o.fetcher.GetText(ctx, link)
	if err != nil {
		return models.ListingDetail{Link: link}, err
	}
	detail, err := ParseDetail(html, link)
	if err != nil {
		return models.ListingDetail{Link: link}, err
	}
	return detail, nil
}

// buildRow merges a card with its resolved detail record. The detail page's
// total area is preferred; the card's own total-area feature is the
// fallback. precio_por_m2 is derived only when the price parsed numerically
// and the chosen denominator is strictly positive.
func buildRow(card models.ListingCard, detail models.ListingDetail, detailErr error) models.ExportRow {
	row := models.ExportRow{
		Link:          detail.Link,
		Title:         detail.Title,
		Location:      card["location"],
		PriceValue:    card["price_value"],
		PriceType:     card["price_type"],
		ExpensesValue: card["expenses_value"],
		ExpensesType:  card["expenses_type"],
		M2Covered:     detail.Areas.M2Covered,
		M2Land:        detail.Areas.M2Land,
		Rooms:         CleanNumber(card[models.FieldRooms+"_0"]),
		Bedrooms:      CleanNumber(card[models.FieldBedrooms+"_0"]),
		Bathrooms:     CleanNumber(card[models.FieldBathrooms+"_0"]),
		Parking:       CleanNumber(card[models.FieldParking+"_0"]),
		Description:   card["description"],
	}
	if detailErr != nil {
		row.DetailError = detailErr.Error()
	}

	row.M2Total = detail.Areas.M2Total
	if row.M2Total == nil {
		row.M2Total = CleanNumber(card[models.FieldSquareMetersTotal+"_0"])
	}

	var price *float64
	if row.PriceValue != "" {
		if f, err := strconv.ParseFloat(row.PriceValue, 64); err == nil {
			price = &f
		}
	}
	denom := row.M2Covered
	if denom == nil {
		denom = row.M2Total
	}
	if price != nil && denom != nil && *denom > 0 {
		perM2 := *price / *denom
		row.PrecioPorM2 = &perM2
	}

	return row
}

func (o *Orchestrator) writeCSV(path string, rows []models.ExportRow) error {
	writer, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := writer.WriteRows(rows); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func (o *Orchestrator) log(run *models.ScrapeRun, level models.LogLevel, message string) {
	log.Printf("[%s] %s: %s", level, o.site.ID, message)
	if o.store != nil {
		o.store.Log(&run.ID, level, message, o.site.ID)
	}
}

// sleep waits out one politeness delay, honoring context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
