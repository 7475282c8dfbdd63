package storage

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zonaprop_scraper/models"
)

// CSVWriter serializes export rows to a CSV file with the fixed column set.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the file at path and writes the header
// row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(models.ExportColumns); err != nil {
		f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

func (c *CSVWriter) WriteRows(rows []models.ExportRow) error {
	for _, r := range rows {
		record := []string{
			r.Link, r.Title, r.Location,
			r.PriceValue, r.PriceType, r.ExpensesValue, r.ExpensesType,
			formatFloat(r.M2Total), formatFloat(r.M2Covered), formatFloat(r.M2Land),
			formatFloat(r.PrecioPorM2),
			formatFloat(r.Rooms), formatFloat(r.Bedrooms), formatFloat(r.Bathrooms), formatFloat(r.Parking),
			r.Description, r.DetailError,
		}
		if err := c.writer.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}

// formatFloat renders an optional number; nil means "not reported" and stays
// an empty cell, never zero.
func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// DefaultOutputPath derives an output filename from the search URL and a
// timestamp, e.g. data/casas-venta-talar-del-lago-i_20260824_153000.csv.
func DefaultOutputPath(dir, baseURL string, now time.Time) string {
	slug := "export"
	if u, err := url.Parse(baseURL); err == nil {
		if base := filepath.Base(u.Path); base != "" && base != "." && base != "/" {
			slug = base
		}
	}
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, slug)

	name := fmt.Sprintf("%s_%s.csv", slug, now.Format("20060102_150405"))
	return filepath.Join(dir, name)
}
