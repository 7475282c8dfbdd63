package scraper

import "testing"

func TestParseFeatures_FullCard(t *testing.T) {
	got := ParseFeatures("771 m² tot. | 8 amb. | 4 dorm. | 3 baños | 1 coch.")

	want := map[string]string{
		"square_meters_total_0": "771",
		"rooms_0":               "8",
		"bedrooms_0":            "4",
		"bathrooms_0":           "3",
		"parking_0":             "1",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d: %v", len(want), len(got), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected %s=%q, got %q", k, v, got[k])
		}
	}
}

func TestParseFeatures_AreaQualifiers(t *testing.T) {
	got := ParseFeatures("267 m² cub. 1.200 m² terr. 90 m2")

	if got["square_meters_covered_0"] != "267" {
		t.Fatalf("expected covered 267, got %q", got["square_meters_covered_0"])
	}
	if got["square_meters_land_0"] != "1200" {
		t.Fatalf("expected land 1200, got %q", got["square_meters_land_0"])
	}
	if got["square_meters_area_0"] != "90" {
		t.Fatalf("expected unqualified area 90, got %q", got["square_meters_area_0"])
	}
}

func TestParseFeatures_RepeatedUnitsIndexed(t *testing.T) {
	got := ParseFeatures("2 amb. en planta baja, 3 amb. en planta alta, 1 baño, 2 baños")

	if got["rooms_0"] != "2" || got["rooms_1"] != "3" {
		t.Fatalf("expected rooms_0=2 rooms_1=3, got %v", got)
	}
	if got["bathrooms_0"] != "1" || got["bathrooms_1"] != "2" {
		t.Fatalf("expected bathrooms_0=1 bathrooms_1=2, got %v", got)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 keys, got %d: %v", len(got), got)
	}
}

func TestParseFeatures_DecimalComma(t *testing.T) {
	got := ParseFeatures("55,5 m2 cub. | 2 amb.")

	if got["square_meters_covered_0"] != "55.5" {
		t.Fatalf("expected covered 55.5, got %q", got["square_meters_covered_0"])
	}
	if got["rooms_0"] != "2" {
		t.Fatalf("expected rooms 2, got %q", got["rooms_0"])
	}
}

func TestParseFeatures_NoMatches(t *testing.T) {
	got := ParseFeatures("consultar por superficies")
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %v", got)
	}
}

func TestParseFeatures_IndependentCalls(t *testing.T) {
	// Occurrence counters must reset between calls.
	ParseFeatures("3 amb.")
	got := ParseFeatures("4 amb.")
	if got["rooms_0"] != "4" {
		t.Fatalf("expected fresh rooms_0=4, got %v", got)
	}
	if _, ok := got["rooms_1"]; ok {
		t.Fatalf("counter leaked across calls: %v", got)
	}
}
