package httputil

import (
	"net/http"
	"net/url"
	"time"

	"zonaprop_scraper/config"
)

// NewScrapingClient builds the client used for all target-site fetches,
// routed through the optional proxy.
func NewScrapingClient(proxyCfg *config.ProxyConfig) *http.Client {
	transport := &http.Transport{}
	if proxyCfg.URL != "" {
		if proxyURL, err := url.Parse(proxyCfg.URL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
