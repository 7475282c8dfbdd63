package scraper

import (
	"html"
	"net/url"
	"strconv"
	"strings"
)

// CanonicalURL rewrites a card's posting URL into its canonical absolute
// form against the site host: entities unescaped, protocol-relative and
// relative forms resolved, and the query string and fragment (tracking
// parameters) dropped.
func CanonicalURL(raw, host string) string {
	s := strings.TrimSpace(html.UnescapeString(raw))
	if s == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "//"):
		s = "https:" + s
	case strings.HasPrefix(s, "/"):
		s = host + s
	case !strings.HasPrefix(s, "http"):
		s = host + "/" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// PageURL builds the fetch URL for one search-results page. Page 1 is the
// bare search URL; later pages insert the site's page suffix before the
// extension ("...-pagina-3.html").
func PageURL(baseURL, pageSuffix, extension string, page int) string {
	if page == 1 {
		return baseURL + extension
	}
	return baseURL + pageSuffix + strconv.Itoa(page) + extension
}

// BaseSearchURL strips the extension off a full search URL so the
// pagination suffix can be inserted.
func BaseSearchURL(searchURL, extension string) string {
	return strings.TrimSuffix(strings.TrimSpace(searchURL), extension)
}
