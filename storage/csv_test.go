package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"zonaprop_scraper/models"
)

func TestCSVWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	total := 120.0
	perM2 := 2000.0
	rooms := 3.0
	rows := []models.ExportRow{
		{
			Link:        "https://example.test/propiedades/casa-a.html",
			Title:       "Casa A",
			Location:    "General Pacheco",
			PriceValue:  "100000",
			PriceType:   "USD",
			M2Total:     &total,
			PrecioPorM2: &perM2,
			Rooms:       &rooms,
		},
		{
			Link:        "https://example.test/propiedades/casa-b.html",
			PriceValue:  "Consultar precio",
			DetailError: "fetch detail: 404",
		},
	}
	if err := writer.WriteRows(rows); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	header := records[0]
	if len(header) != len(models.ExportColumns) {
		t.Fatalf("expected %d columns, got %d", len(models.ExportColumns), len(header))
	}
	for i, col := range models.ExportColumns {
		if header[i] != col {
			t.Fatalf("column %d = %q, want %q", i, header[i], col)
		}
	}

	first := records[1]
	if first[0] != rows[0].Link || first[1] != "Casa A" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if first[7] != "120" || first[10] != "2000" || first[11] != "3" {
		t.Fatalf("unexpected numeric cells: %v", first)
	}

	// Absent metrics serialize as empty cells, never zero.
	second := records[2]
	if second[7] != "" || second[8] != "" || second[10] != "" {
		t.Fatalf("expected empty cells for nil metrics: %v", second)
	}
	if second[3] != "Consultar precio" {
		t.Fatalf("raw price text lost: %v", second)
	}
	if second[16] != "fetch detail: 404" {
		t.Fatalf("detail error lost: %v", second)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)

	got := DefaultOutputPath("data", "https://example.test/casas-venta-talar-del-lago-i", now)
	want := filepath.Join("data", "casas-venta-talar-del-lago-i_20260824_153000.csv")
	if got != want {
		t.Fatalf("DefaultOutputPath = %q, want %q", got, want)
	}

	got = DefaultOutputPath("data", "https://example.test/", now)
	want = filepath.Join("data", "export_20260824_153000.csv")
	if got != want {
		t.Fatalf("DefaultOutputPath for bare host = %q, want %q", got, want)
	}
}
