package scraper

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"zonaprop_scraper/config"
	"zonaprop_scraper/models"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) GetText(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no response for %s", url)
	}
	return html, nil
}

func testSite() *config.SiteConfig {
	return &config.SiteConfig{
		ID:            "zonaprop",
		Host:          "https://example.test",
		PageSuffix:    "-pagina-",
		HTMLExtension: ".html",
	}
}

func newTestOrchestrator(fetcher Fetcher) *Orchestrator {
	// Zero delays keep the tests instant.
	return NewOrchestrator(&config.Config{}, testSite(), fetcher, nil)
}

// searchPage renders a results page advertising `count` total listings and
// carrying one card per id.
func searchPage(count int, ids ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><h1>Venta de casas: %d avisos</h1>", count)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div data-posting-type="PROPERTY" data-to-posting="/propiedades/casa-%s.html">`, id)
		b.WriteString(`<h2 data-qa="POSTING_CARD_PRICE">USD 100.000</h2>`)
		b.WriteString(`<h3 data-qa="POSTING_CARD_FEATURES">50 m² tot. | 3 amb.</h3>`)
		b.WriteString(`</div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func cardIDs(page, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d-%d", page, i)
	}
	return ids
}

func TestCrawlCards_StopsAtTarget(t *testing.T) {
	base := "https://example.test/casas-venta"
	fetcher := &fakeFetcher{pages: map[string]string{
		base + ".html":           searchPage(45, cardIDs(1, 20)...),
		base + "-pagina-2.html":  searchPage(45, cardIDs(2, 20)...),
		base + "-pagina-3.html":  searchPage(45, cardIDs(3, 20)...),
		base + "-pagina-4.html":  searchPage(45, cardIDs(4, 20)...),
	}}
	o := newTestOrchestrator(fetcher)

	cards, err := o.crawlCards(context.Background(), base)
	if err != nil {
		t.Fatalf("crawlCards: %v", err)
	}

	// 45 wanted at 20 per page: pages 1-3 and never page 4. Page 1 is
	// fetched once, serving both the count and its cards.
	if len(fetcher.calls) != 3 {
		t.Fatalf("expected 3 page fetches, got %d: %v", len(fetcher.calls), fetcher.calls)
	}
	if last := fetcher.calls[2]; last != base+"-pagina-3.html" {
		t.Fatalf("unexpected last fetch %s", last)
	}
	// The overshoot past the target is kept.
	if len(cards) != 60 {
		t.Fatalf("expected 60 cards, got %d", len(cards))
	}
}

func TestCrawlCards_EmptyPageStopsShort(t *testing.T) {
	base := "https://example.test/casas-venta"
	fetcher := &fakeFetcher{pages: map[string]string{
		base + ".html":          searchPage(45, cardIDs(1, 20)...),
		base + "-pagina-2.html": searchPage(45),
	}}
	o := newTestOrchestrator(fetcher)

	cards, err := o.crawlCards(context.Background(), base)
	if err != nil {
		t.Fatalf("crawlCards: %v", err)
	}
	if len(cards) != 20 {
		t.Fatalf("expected the 20 cards of page 1, got %d", len(cards))
	}
}

func TestExport_UnreadableCountIsFatal(t *testing.T) {
	base := "https://example.test/casas-venta"
	fetcher := &fakeFetcher{pages: map[string]string{
		base + ".html": `<html><body><h1>Venta de casas</h1></body></html>`,
	}}
	o := newTestOrchestrator(fetcher)

	if _, err := o.Export(context.Background(), base+".html", 0); err == nil {
		t.Fatal("expected an error when the listing count is unreadable")
	}
}

func TestExport_MergesCardAndDetail(t *testing.T) {
	base := "https://example.test/casas-venta"
	detailA := `<html><body><h1>Casa A</h1><ul>
	<li class="icon-feature"><i class="icon-stotal"></i> 120 m²</li>
	<li class="icon-feature"><i class="icon-scubierta"></i> 50 m²</li>
	</ul></body></html>`

	fetcher := &fakeFetcher{pages: map[string]string{
		base + ".html": searchPage(2, "a", "b"),
		"https://example.test/propiedades/casa-a.html": detailA,
		// casa-b has no response: its detail fetch fails.
	}}
	o := newTestOrchestrator(fetcher)

	rows, err := o.Export(context.Background(), base+".html", 0)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	a := rows[0]
	if a.Link != "https://example.test/propiedades/casa-a.html" {
		t.Fatalf("unexpected link %q", a.Link)
	}
	if a.Title != "Casa A" {
		t.Fatalf("unexpected title %q", a.Title)
	}
	if a.DetailError != "" {
		t.Fatalf("unexpected detail error %q", a.DetailError)
	}
	if a.M2Total == nil || *a.M2Total != 120 {
		t.Fatalf("expected detail total 120, got %v", a.M2Total)
	}
	if a.PrecioPorM2 == nil || *a.PrecioPorM2 != 2000 {
		t.Fatalf("expected 100000/50 = 2000, got %v", a.PrecioPorM2)
	}

	// The failed detail still yields a row, falling back to card data.
	b := rows[1]
	if b.DetailError == "" {
		t.Fatal("expected a detail error on the second row")
	}
	if b.M2Total == nil || *b.M2Total != 50 {
		t.Fatalf("expected card fallback total 50, got %v", b.M2Total)
	}
	if b.M2Covered != nil {
		t.Fatalf("expected nil covered, got %v", *b.M2Covered)
	}
	// precio_por_m2 falls back to the total when covered is absent.
	if b.PrecioPorM2 == nil || *b.PrecioPorM2 != 2000 {
		t.Fatalf("expected 100000/50 = 2000, got %v", b.PrecioPorM2)
	}
}

func TestExport_MaxListingsCap(t *testing.T) {
	base := "https://example.test/casas-venta"
	fetcher := &fakeFetcher{pages: map[string]string{
		base + ".html": searchPage(3, "a", "b", "c"),
	}}
	o := newTestOrchestrator(fetcher)

	rows, err := o.Export(context.Background(), base+".html", 2)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows under the cap, got %d", len(rows))
	}
}

func TestBuildRow_NoPricePerM2WithoutNumericPrice(t *testing.T) {
	card := models.ListingCard{
		"url":         "/propiedades/casa-x.html",
		"price_value": "Consultar precio",
	}
	covered := 50.0
	detail := models.ListingDetail{
		Link:  "https://example.test/propiedades/casa-x.html",
		Areas: models.AreaRecord{M2Covered: &covered},
	}

	row := buildRow(card, detail, nil)
	if row.PriceValue != "Consultar precio" {
		t.Fatalf("raw price text must survive, got %q", row.PriceValue)
	}
	if row.PrecioPorM2 != nil {
		t.Fatalf("expected nil precio_por_m2, got %v", *row.PrecioPorM2)
	}
}
