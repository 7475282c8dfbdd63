package scraper

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"zonaprop_scraper/models"
)

// ErrMissingCardURL marks a card without its data-to-posting attribute. Such
// a card cannot be merged with a detail page and is unusable.
var ErrMissingCardURL = errors.New("card has no posting url")

// cardLabels maps the site's data-qa labels to our field names.
var cardLabels = map[string]string{
	"POSTING_CARD_PRICE":       "price",
	"expensas":                 "expenses",
	"POSTING_CARD_LOCATION":    "location",
	"POSTING_CARD_DESCRIPTION": "description",
}

var (
	currencyValuePattern = regexp.MustCompile(`\d+(?:\.\d+)*`)
	currencyTypePattern  = regexp.MustCompile(`USD|ARS|\$`)
)

// ParseCard walks one search-result card and routes each data-qa labeled
// child to its typed extractor. Zonaprop moved many fields from <div> to
// <h2>/<h3> over time, so children are selected by attribute only, never by
// tag.
func ParseCard(card *goquery.Selection) (models.ListingCard, error) {
	url, ok := card.Attr("data-to-posting")
	if !ok || strings.TrimSpace(url) == "" {
		return nil, ErrMissingCardURL
	}

	estate := models.ListingCard{"url": url}

	card.Find("[data-qa]").Each(func(_ int, s *goquery.Selection) {
		label, _ := s.Attr("data-qa")

		// Card chrome and publisher blocks carry no listing data.
		if strings.HasPrefix(label, "CARD_") || label == "POSTING_CARD_PUBLISHER" {
			return
		}

		switch label {
		case "POSTING_CARD_PRICE", "expensas":
			name := cardLabels[label]
			if value, currency, ok := ParseCurrencyValue(s.Text()); ok {
				estate[name+"_value"] = strconv.Itoa(value)
				estate[name+"_type"] = currency
			} else {
				// Degrade to the raw text instead of dropping the field.
				estate[name+"_value"] = s.Text()
			}
		case "POSTING_CARD_LOCATION", "POSTING_CARD_DESCRIPTION":
			estate[cardLabels[label]] = ParseText(s.Text())
		case "POSTING_CARD_FEATURES":
			for k, v := range ParseFeatures(s.Text()) {
				estate[k] = v
			}
		default:
			// Unrecognized site field; store verbatim under its own label.
			estate[label] = s.Text()
		}
	})

	return estate, nil
}

// ParseCurrencyValue extracts an integer amount and a currency marker from a
// price-like string such as "USD 150.000". The amount is the first
// grouped-thousands numeric token; the marker is whichever of USD, ARS or a
// bare sigil appears first. When multiple currency hints appear in one
// string the first match wins, even if a later one looks more specific.
func ParseCurrencyValue(text string) (int, string, bool) {
	raw := currencyValuePattern.FindString(text)
	if raw == "" {
		return 0, "", false
	}
	value, err := strconv.Atoi(strings.ReplaceAll(raw, ".", ""))
	if err != nil {
		return 0, "", false
	}
	currency := currencyTypePattern.FindString(text)
	if currency == "" {
		return 0, "", false
	}
	return value, currency, true
}

// ParseText strips embedded newlines and tabs and surrounding whitespace.
func ParseText(text string) string {
	text = strings.ReplaceAll(text, "\n", "")
	text = strings.ReplaceAll(text, "\t", "")
	return strings.TrimSpace(text)
}
