package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SiteID    string
	OutputDir string
	DBPath    string
	LogLevel  string
	Proxy     ProxyConfig
	Postgres  PostgresConfig
	S3        S3Config
	Scheduler SchedulerConfig
	Crawl     CrawlConfig
	Sites     map[string]*SiteConfig
}

type ProxyConfig struct {
	URL string
}

type PostgresConfig struct {
	DBURL string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// CrawlConfig holds the politeness delays. Both apply per outbound request,
// never per batch.
type CrawlConfig struct {
	PageDelay   time.Duration
	DetailDelay time.Duration
}

// SiteConfig is one site profile loaded from config/sites/*.yaml.
type SiteConfig struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Host          string `yaml:"host"`
	Fetcher       string `yaml:"fetcher"` // "http" (default) or "browser"
	PageSuffix    string `yaml:"page_suffix"`
	HTMLExtension string `yaml:"html_extension"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SiteID:    getEnv("SITE_ID", "zonaprop"),
		OutputDir: getEnv("OUTPUT_DIR", "data"),
		DBPath:    getEnv("DB_PATH", "scraper.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Proxy: ProxyConfig{
			URL: os.Getenv("SCRAPE_PROXY_URL"),
		},
		Postgres: PostgresConfig{
			DBURL: os.Getenv("POSTGRES_DB_URL"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Crawl: CrawlConfig{
			PageDelay:   time.Duration(getEnvInt("PAGE_DELAY_MS", 3000)) * time.Millisecond,
			DetailDelay: time.Duration(getEnvInt("DETAIL_DELAY_MS", 1000)) * time.Millisecond,
		},
		Sites: make(map[string]*SiteConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}
	if len(cfg.Sites) == 0 {
		site := DefaultSite()
		cfg.Sites[site.ID] = site
	}

	return cfg, nil
}

// Site returns the active site profile with defaults applied.
func (c *Config) Site() (*SiteConfig, error) {
	site, ok := c.Sites[c.SiteID]
	if !ok {
		return nil, fmt.Errorf("unknown site: %s", c.SiteID)
	}
	return site.withDefaults(), nil
}

// DefaultSite is the built-in Zonaprop profile, used when no YAML profiles
// are present.
func DefaultSite() *SiteConfig {
	return (&SiteConfig{
		ID:   "zonaprop",
		Name: "Zonaprop",
	}).withDefaults()
}

func (s *SiteConfig) withDefaults() *SiteConfig {
	if s.Host == "" {
		s.Host = "https://www.zonaprop.com.ar"
	}
	if s.Fetcher == "" {
		s.Fetcher = "http"
	}
	if s.PageSuffix == "" {
		s.PageSuffix = "-pagina-"
	}
	if s.HTMLExtension == "" {
		s.HTMLExtension = ".html"
	}
	return s
}

func (c *Config) loadSiteConfigs() error {
	configDir := "config/sites"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
