package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zonaprop_scraper/config"
	"zonaprop_scraper/httputil"
	"zonaprop_scraper/logging"
	"zonaprop_scraper/scheduler"
	"zonaprop_scraper/scraper"
	"zonaprop_scraper/storage"
)

var (
	output      = flag.String("output", "", "Output .csv path (default: <output-dir>/<search>_<timestamp>.csv)")
	maxListings = flag.Int("max", 0, "Max listings to export, 0 = all")
	sleepDetail = flag.Float64("sleep-detail", -1, "Seconds to sleep between detail pages (overrides DETAIL_DELAY_MS)")
	daemon      = flag.Bool("daemon", false, "Keep running and re-export on SCRAPE_CRON / SCRAPE_INTERVAL")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <search-url>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export a Zonaprop search result to CSV, e.g.\n")
		fmt.Fprintf(os.Stderr, "  %s https://www.zonaprop.com.ar/casas-venta-talar-del-lago-i.html\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	searchURL := flag.Arg(0)
	if searchURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	logFile, err := logging.Setup("scraper.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *sleepDetail >= 0 {
		cfg.Crawl.DetailDelay = time.Duration(*sleepDetail * float64(time.Second))
	}

	site, err := cfg.Site()
	if err != nil {
		log.Fatalf("Failed to resolve site: %v", err)
	}
	log.Printf("Site: %s (%s fetcher)", site.Name, site.Fetcher)

	client := httputil.NewScrapingClient(&cfg.Proxy)
	fetcher := scraper.NewFetcher(site, client)
	if bf, ok := fetcher.(*scraper.BrowserFetcher); ok {
		defer bf.Close()
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	orch := scraper.NewOrchestrator(cfg, site, fetcher, store)

	var pgStore *storage.PostgresStore
	var uploader *storage.S3Uploader
	if cfg.Postgres.DBURL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.Postgres.DBURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		log.Println("Postgres sink enabled")
	}
	if cfg.S3.Bucket != "" {
		uploader, err = storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Failed to configure S3: %v", err)
		}
		log.Printf("S3 sink enabled: %s", cfg.S3.Bucket)
	}
	orch.SetSinks(pgStore, uploader)

	if !*daemon {
		if err := orch.Run(ctx, searchURL, *output, *maxListings); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	if last, err := store.LastRun(site.ID); err != nil {
		log.Printf("Warning: could not read last run: %v", err)
	} else if last != nil {
		log.Printf("Last run: %s at %s (%d rows, %d detail errors)",
			last.Status, last.StartedAt.Format(time.RFC3339), last.RowsExported, last.DetailErrors)
	}

	job := &exportJob{orch: orch, searchURL: searchURL, output: *output, max: *maxListings}
	sched := scheduler.New(cfg, job)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
}

// exportJob binds the orchestrator to one search so the scheduler can
// re-run it.
type exportJob struct {
	orch      *scraper.Orchestrator
	searchURL string
	output    string
	max       int
}

func (j *exportJob) RunOnce(ctx context.Context) error {
	return j.orch.Run(ctx, j.searchURL, j.output, j.max)
}
