package scraper

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"zonaprop_scraper/models"
)

var countToken = regexp.MustCompile(`\d+(?:\.\d+)*`)

// ParseSearchPage extracts all listing cards from one search-results page.
// Cards missing their posting URL are excluded: without the URL the card can
// never be merged with its detail page.
func ParseSearchPage(html string) ([]models.ListingCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var cards []models.ListingCard
	doc.Find("div[data-posting-type]").Each(func(_ int, s *goquery.Selection) {
		card, err := ParseCard(s)
		if err != nil {
			log.Printf("Skipping card: %v", err)
			return
		}
		cards = append(cards, card)
	})

	return cards, nil
}

// ParseListingCount reads the advertised total listing count from the first
// <h1> of a search-results page. The count may carry a grouping dot
// ("1.234"). An unreadable count is fatal: the crawl cannot determine its
// termination condition without it.
func ParseListingCount(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse search page: %w", err)
	}

	heading := doc.Find("h1").First().Text()
	raw := countToken.FindString(heading)
	if raw == "" {
		return 0, fmt.Errorf("no listing count in heading %q", ParseText(heading))
	}

	count, err := strconv.Atoi(strings.ReplaceAll(raw, ".", ""))
	if err != nil {
		return 0, fmt.Errorf("parse listing count %q: %w", raw, err)
	}
	return count, nil
}
