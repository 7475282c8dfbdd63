package scraper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"zonaprop_scraper/models"
)

// The three area extractors below each produce a partial AreaRecord from a
// detail page and never fail on absence. ResolveAreas merges them field-wise,
// first non-nil wins, in this fixed priority order. The order encodes the
// observed reliability of the three representations on the site and must not
// be reordered.
var areaExtractors = []func(doc *goquery.Document) models.AreaRecord{
	extractIconAreas,
	extractLabeledAreas,
	extractStructuredAreas,
}

// labeledScanLimit bounds how many text blocks the labeled-text extractor
// inspects per page.
const labeledScanLimit = 2000

var areaValuePattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)*)\s*(m²|m2)`)

// ParseDetail parses one listing detail page: the page title and the three
// area metrics resolved across all extractors.
func ParseDetail(html, url string) (models.ListingDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.ListingDetail{}, fmt.Errorf("parse detail page: %w", err)
	}

	return models.ListingDetail{
		Link:  url,
		Title: compactText(doc.Find("h1").First()),
		Areas: ResolveAreas(doc),
	}, nil
}

// ResolveAreas runs the extractors in priority order and keeps, per field,
// the first value found.
func ResolveAreas(doc *goquery.Document) models.AreaRecord {
	var merged models.AreaRecord
	for _, extract := range areaExtractors {
		rec := extract(doc)
		if merged.M2Total == nil {
			merged.M2Total = rec.M2Total
		}
		if merged.M2Covered == nil {
			merged.M2Covered = rec.M2Covered
		}
		if merged.M2Land == nil {
			merged.M2Land = rec.M2Land
		}
		if merged.Complete() {
			break
		}
	}
	return merged
}

// extractIconAreas reads the icon-feature list items the site renders as
// e.g. `<i class="icon-stotal"></i> 771 m² tot.`. One marker class per area
// kind; the first element of each class wins.
func extractIconAreas(doc *goquery.Document) models.AreaRecord {
	var out models.AreaRecord

	doc.Find("li.icon-feature").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		icon := li.Find("i").First()
		if icon.Length() == 0 {
			return true
		}
		val := areaNumber(compactText(li))
		if val == nil {
			return true
		}

		classes := icon.AttrOr("class", "")
		switch {
		case hasClass(classes, "icon-scubierta"):
			if out.M2Covered == nil {
				out.M2Covered = val
			}
		case hasClass(classes, "icon-stotal"):
			if out.M2Total == nil {
				out.M2Total = val
			}
		case hasClass(classes, "icon-sterreno"):
			if out.M2Land == nil {
				out.M2Land = val
			}
		}

		return !out.Complete()
	})

	return out
}

// detailLabelMap lists the known Spanish label phrases in precedence order:
// within one text block the first phrase that matches claims the block.
var detailLabelMap = []struct {
	label string
	field string
}{
	{"superficie total", "m2_total"},
	{"superficie cubierta", "m2_covered"},
	{"superficie del terreno", "m2_land"},
	{"superficie terreno", "m2_land"},
	{"terreno", "m2_land"},
	{"lote", "m2_land"},
}

// extractLabeledAreas scans bounded-size text blocks for known label phrases
// and, on a hit, takes the first "<number> m²" pattern inside that block.
// The scan limit bounds parse cost, not correctness.
func extractLabeledAreas(doc *goquery.Document) models.AreaRecord {
	var out models.AreaRecord

	blocks := doc.Find("li, div, section")
	if blocks.Length() > labeledScanLimit {
		blocks = blocks.Slice(0, labeledScanLimit)
	}

	blocks.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		txt := compactText(el)
		if txt == "" {
			return true
		}
		low := strings.ToLower(txt)

		for _, lm := range detailLabelMap {
			field := areaField(&out, lm.field)
			if *field != nil {
				continue
			}
			if !strings.Contains(low, lm.label) {
				continue
			}
			if m := areaValuePattern.FindStringSubmatch(txt); m != nil {
				*field = areaNumber(m[1])
			}
		}

		return !out.Complete()
	})

	return out
}

// extractStructuredAreas walks the page's JSON-LD blocks looking for the
// schema.org area properties (floorSize, lotSize, area) and the generic
// additionalProperty list, whose entries are matched by substring on the
// lower-cased property name. First value found per field wins.
func extractStructuredAreas(doc *goquery.Document) models.AreaRecord {
	var out models.AreaRecord

	for _, block := range extractJSONLD(doc) {
		walkJSON(block, func(d map[string]interface{}) {
			for _, p := range []struct {
				key   string
				field string
			}{
				{"floorSize", "m2_covered"},
				{"lotSize", "m2_land"},
				{"area", "m2_total"},
			} {
				field := areaField(&out, p.field)
				if *field != nil {
					continue
				}
				v, present := d[p.key]
				if !present {
					continue
				}
				if q, ok := v.(map[string]interface{}); ok {
					// QuantitativeValue: {"value": ...} or {"@value": ...}
					if inner, ok := q["value"]; ok && inner != nil {
						*field = jsonNumber(inner)
					} else if inner, ok := q["@value"]; ok {
						*field = jsonNumber(inner)
					}
				} else {
					*field = jsonNumber(v)
				}
			}

			props, ok := d["additionalProperty"].([]interface{})
			if !ok {
				return
			}
			for _, item := range props {
				entry, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				name := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", entry["name"])))
				value := jsonNumber(entry["value"])
				if out.M2Total == nil && strings.Contains(name, "superficie") && strings.Contains(name, "total") {
					out.M2Total = value
				}
				if out.M2Covered == nil && (strings.Contains(name, "cubierta") || strings.Contains(name, "cubiertos")) {
					out.M2Covered = value
				}
				if out.M2Land == nil && (strings.Contains(name, "terreno") || strings.Contains(name, "lote")) {
					out.M2Land = value
				}
			}
		})
	}

	return out
}

// extractJSONLD decodes every application/ld+json script block on the page,
// skipping any that fail to parse.
func extractJSONLD(doc *goquery.Document) []interface{} {
	var blocks []interface{}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return
		}
		var v interface{}
		if err := json.Unmarshal([]byte(txt), &v); err != nil {
			return
		}
		blocks = append(blocks, v)
	})
	return blocks
}

// walkJSON visits every object in an arbitrarily nested structured-data
// document, depth first. Sibling objects are visited in sorted key order so
// first-value-wins resolution is deterministic.
func walkJSON(v interface{}, visit func(map[string]interface{})) {
	switch t := v.(type) {
	case map[string]interface{}:
		visit(t)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkJSON(t[k], visit)
		}
	case []interface{}:
		for _, inner := range t {
			walkJSON(inner, visit)
		}
	}
}

// jsonNumber coerces a JSON-LD value (number or locale-formatted string)
// into a positive area number.
func jsonNumber(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return &t
		}
		return nil
	case string:
		return areaNumber(t)
	default:
		return nil
	}
}

// areaNumber parses the first numeric token in s, rejecting non-positive
// values: an area field stays nil unless a positive number was reported.
func areaNumber(s string) *float64 {
	v := CleanNumber(s)
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func areaField(rec *models.AreaRecord, key string) **float64 {
	switch key {
	case "m2_total":
		return &rec.M2Total
	case "m2_covered":
		return &rec.M2Covered
	default:
		return &rec.M2Land
	}
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

// compactText returns the selection's text with all whitespace runs
// collapsed to single spaces.
func compactText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
