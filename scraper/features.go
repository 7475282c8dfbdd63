package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"zonaprop_scraper/models"
)

// featureUnitFields maps a canonical unit token to its semantic field key.
var featureUnitFields = map[string]string{
	"amb":   models.FieldRooms,
	"dorm":  models.FieldBedrooms,
	"baños": models.FieldBathrooms,
	"coch":  models.FieldParking,
}

// featurePattern matches one "<number> <unit> [qualifier]" token. Cards
// render "|" between tokens but that is cosmetic; tokens are matched
// wherever they occur in the string, left to right.
var featurePattern = regexp.MustCompile(
	`(?i)(\d+(?:[.,]\d+)*)\s*(m²|m2|amb\.?|dorm\.?|baños?|coch\.?)(?:\s*(tot\.?|totales|cub\.?|cubiertos|terr\.?|terreno))?`)

// ParseFeatures tokenizes a composite feature string like
// "771 m² tot. | 8 amb. | 4 dorm. | 3 baños | 1 coch." into a flat mapping
// from suffixed field key to normalized numeric string. Occurrence counters
// are created fresh per call: the first rooms token becomes rooms_0, a
// second one rooms_1, and so on in appearance order. Counters are keyed by
// the base field name, so rooms_N never collides with bedrooms_N.
func ParseFeatures(text string) map[string]string {
	occurrences := map[string]int{
		models.FieldSquareMetersArea:    0,
		models.FieldSquareMetersTotal:   0,
		models.FieldSquareMetersCovered: 0,
		models.FieldSquareMetersLand:    0,
		models.FieldRooms:               0,
		models.FieldBedrooms:            0,
		models.FieldBathrooms:           0,
		models.FieldParking:             0,
	}

	features := make(map[string]string)
	for _, m := range featurePattern.FindAllStringSubmatch(text, -1) {
		value := NormalizeNumber(m[1])
		unit := NormalizeUnit(m[2])

		var baseKey string
		if unit == "m²" {
			baseKey = areaKind(m[3])
		} else {
			baseKey = featureUnitFields[unit]
		}
		if baseKey == "" {
			// Unknown unit; keep something usable.
			features[unit] = value
			continue
		}

		idx := occurrences[baseKey]
		features[fmt.Sprintf("%s_%d", baseKey, idx)] = value
		occurrences[baseKey] = idx + 1
	}

	return features
}

// areaKind disambiguates an m² token by its qualifier: "tot..." is total
// area, "cub..." covered, "terr..." land. Without a recognized qualifier the
// token reports the generic area field.
func areaKind(qualifier string) string {
	q := strings.TrimRight(strings.ToLower(strings.TrimSpace(qualifier)), ".")
	switch {
	case strings.HasPrefix(q, "tot"):
		return models.FieldSquareMetersTotal
	case strings.HasPrefix(q, "cub"):
		return models.FieldSquareMetersCovered
	case strings.HasPrefix(q, "terr"):
		return models.FieldSquareMetersLand
	}
	return models.FieldSquareMetersArea
}
