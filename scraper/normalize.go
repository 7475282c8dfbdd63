package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var numberToken = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// NormalizeNumber canonicalizes a locale-formatted numeric token: grouping
// dots are removed and a decimal comma becomes a decimal point, so
// "1.234,56" -> "1234.56". The digit sequence is returned verbatim; callers
// decide the numeric type.
func NormalizeNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ".", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	return raw
}

// NormalizeUnit lower-cases, trims whitespace and trailing periods, and folds
// spelling variants onto one canonical token per unit. Unknown units pass
// through unchanged so the caller can still key on them.
func NormalizeUnit(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.TrimRight(u, ".")
	switch u {
	case "m²", "m2":
		return "m²"
	case "amb", "ambs":
		return "amb"
	case "dorm", "dorms":
		return "dorm"
	case "baño", "baños":
		return "baños"
	case "coch", "cocheras":
		return "coch"
	}
	return u
}

// CleanNumber extracts the first numeric token from s and parses it as a
// float, tolerating grouped thousands and a decimal comma. Returns nil when
// s holds no parseable number.
func CleanNumber(s string) *float64 {
	m := numberToken.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(NormalizeNumber(m), 64)
	if err != nil {
		return nil
	}
	return &f
}
