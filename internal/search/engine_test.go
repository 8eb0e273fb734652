package search

import (
	"context"
	"strings"
	"testing"

	"ovidio_backend/internal/catalog/transport"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"
)

// fakeStore matches a term as a case-insensitive substring of name, brand
// or code, like the snapshot repository's ILIKE query.
type fakeStore struct {
	items []transport.CatalogItem
	err   error
	calls []string
}

func (s *fakeStore) SearchTerm(_ context.Context, term string) ([]transport.CatalogItem, error) {
	s.calls = append(s.calls, term)
	if s.err != nil {
		return nil, s.err
	}
	needle := strings.ToLower(term)
	var out []transport.CatalogItem
	for _, it := range s.items {
		if strings.Contains(strings.ToLower(it.Name), needle) ||
			strings.Contains(strings.ToLower(it.Brand), needle) ||
			strings.Contains(strings.ToLower(it.Code), needle) {
			out = append(out, it)
		}
	}
	return out, nil
}

func testCatalog() []transport.CatalogItem {
	return []transport.CatalogItem{
		{Code: "DH-B2M", Name: "Camara Bullet Dahua 2MP IP67", Brand: "Dahua", Category: "Camaras", PriceARS: 85000, Stock: 4, TaxRate: 21},
		{Code: "DH-D2M", Name: "Camara Domo Dahua 2MP Interior", Brand: "Dahua", Category: "Camaras", PriceARS: 78000, Stock: 0, TaxRate: 21},
		{Code: "DH-B4M", Name: "Camara Bullet Dahua 4MP IP67", Brand: "Dahua", Category: "Camaras", PriceARS: 120000, Stock: 2, TaxRate: 21},
		{Code: "HK-B2M", Name: "Camara Bullet Hikvision 2MP Exterior", Brand: "Hikvision", Category: "Camaras", PriceARS: 92000, Stock: 6, TaxRate: 21},
		{Code: "HK-NVR8", Name: "NVR Hikvision 8 Canales PoE", Brand: "Hikvision", Category: "Grabadores", PriceARS: 210000, Stock: 3, TaxRate: 21},
		{Code: "AJ-HUB2", Name: "Central Ajax Hub 2 Plus", Brand: "Ajax", Category: "Alarmas", PriceARS: 450000, Stock: 1, TaxRate: 21},
	}
}

func newTestEngine(store, live Store) *Engine {
	return NewEngine(store, live, nil, logger.New("test"))
}

func TestResolveMisspelledBrandWithAttributes(t *testing.T) {
	store := &fakeStore{items: testCatalog()}
	e := newTestEngine(store, nil)

	res, err := e.Resolve(context.Background(), "camara daua 2mp exterior", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Query.Attributes.Brand != "dahua" {
		t.Fatalf("brand = %q, want dahua", res.Query.Attributes.Brand)
	}
	if res.Kind != Single {
		t.Fatalf("kind = %v, want Single (options %v)", res.Kind, res.Options)
	}
	if res.Item.Code != "DH-B2M" {
		t.Errorf("item = %s, want DH-B2M", res.Item.Code)
	}
}

func TestResolveNotFound(t *testing.T) {
	store := &fakeStore{items: testCatalog()}
	e := newTestEngine(store, nil)

	res, err := e.Resolve(context.Background(), "heladera samsung", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != NotFound {
		t.Fatalf("kind = %v, want NotFound", res.Kind)
	}
}

func TestResolveMultipleCapsOptions(t *testing.T) {
	items := testCatalog()
	for i := 0; i < 10; i++ {
		items = append(items, transport.CatalogItem{
			Code: "DH-X" + string(rune('A'+i)), Name: "Camara Dahua Generica", Brand: "Dahua",
			Category: "Camaras", Stock: 1, TaxRate: 21,
		})
	}
	store := &fakeStore{items: items}
	e := newTestEngine(store, nil)

	res, err := e.Resolve(context.Background(), "dahua", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != Multiple {
		t.Fatalf("kind = %v, want Multiple", res.Kind)
	}
	if len(res.Options) > maxOptions {
		t.Fatalf("options = %d, want at most %d", len(res.Options), maxOptions)
	}
	if res.TotalMatches <= maxOptions {
		t.Fatalf("TotalMatches = %d, want the uncapped count", res.TotalMatches)
	}
}

func TestResolveStockFirstOrdering(t *testing.T) {
	store := &fakeStore{items: testCatalog()}
	e := newTestEngine(store, nil)

	res, err := e.Resolve(context.Background(), "camara dahua", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != Multiple {
		t.Fatalf("kind = %v, want Multiple", res.Kind)
	}
	sawOutOfStock := false
	for _, opt := range res.Options {
		if !opt.InStock() {
			sawOutOfStock = true
		} else if sawOutOfStock {
			t.Fatalf("in-stock item after out-of-stock one: %v", res.Options)
		}
	}
}

func TestResolvePreferInStock(t *testing.T) {
	store := &fakeStore{items: testCatalog()}
	e := newTestEngine(store, nil)

	res, err := e.Resolve(context.Background(), "camara dahua 2mp", true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Both 2MP dahuas match but only the bullet has stock.
	if res.Kind != Single || res.Item.Code != "DH-B2M" {
		t.Fatalf("got kind %v item %s, want Single DH-B2M", res.Kind, res.Item.Code)
	}

	// The only domo is out of stock; preferInStock must keep it rather than
	// answer NotFound.
	res, err = e.Resolve(context.Background(), "domo dahua", true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != Single || res.Item.Code != "DH-D2M" {
		t.Fatalf("got kind %v item %s, want Single DH-D2M", res.Kind, res.Item.Code)
	}
}

func TestNarrowingNeverEmptiesSet(t *testing.T) {
	items := []transport.CatalogItem{
		{Code: "DH-D2M", Name: "Camara Domo Dahua 2MP", Brand: "Dahua", Stock: 2, TaxRate: 21},
		{Code: "DH-D4M", Name: "Camara Domo Dahua 4MP", Brand: "Dahua", Stock: 1, TaxRate: 21},
	}
	store := &fakeStore{items: items}
	e := newTestEngine(store, nil)

	// No 8MP wifi domo exists; the attribute filters must leave the broad
	// matches standing rather than return nothing.
	res, err := e.Resolve(context.Background(), "camara domo dahua 8mp wifi", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != Multiple || res.TotalMatches != 2 {
		t.Fatalf("got kind %v total %d, want both candidates kept", res.Kind, res.TotalMatches)
	}
}

func TestFindAlternatives(t *testing.T) {
	store := &fakeStore{items: testCatalog()}
	e := newTestEngine(store, nil)

	outOfStock := transport.CatalogItem{
		Code: "DH-D2M", Name: "Camara Domo Dahua 2MP Interior", Brand: "Dahua",
		Category: "Camaras", Stock: 0, TaxRate: 21,
	}
	alts, err := e.FindAlternatives(context.Background(), outOfStock, 2)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(alts) == 0 {
		t.Fatal("no alternatives for an out-of-stock item with in-stock siblings")
	}
	for _, alt := range alts {
		if !alt.InStock() {
			t.Errorf("out-of-stock alternative %s", alt.Code)
		}
		if alt.Code == outOfStock.Code {
			t.Errorf("original item offered as its own alternative")
		}
	}
}

func TestResolveFallsBackToLiveOnStoreOutage(t *testing.T) {
	down := &fakeStore{err: apperr.Unavailable("catalog unavailable", nil)}
	live := &fakeStore{items: testCatalog()}
	e := newTestEngine(down, live)

	res, err := e.Resolve(context.Background(), "camara hikvision 2mp", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind == NotFound {
		t.Fatal("live fallback produced no result")
	}
	if len(live.calls) == 0 {
		t.Fatal("live store was never queried")
	}
}

func TestResolvePropagatesNonOutageErrors(t *testing.T) {
	down := &fakeStore{err: apperr.Internal("boom")}
	live := &fakeStore{items: testCatalog()}
	e := newTestEngine(down, live)

	if _, err := e.Resolve(context.Background(), "camara", false); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(live.calls) != 0 {
		t.Fatal("live store queried for a non-outage error")
	}
}
