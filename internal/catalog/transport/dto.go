// Package transport defines the catalog data contracts.
package transport

import "time"

// CatalogItem is the canonical product record. Remote responses are mapped
// into this struct at the ingestion boundary; the mixed field names of the
// upstream APIs never travel past it.
type CatalogItem struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	PriceUSD    float64 `json:"priceUsd"`
	PriceARS    float64 `json:"priceArs"`
	Stock       int     `json:"stock"`
	TaxRate     float64 `json:"taxRate"`
	Description string  `json:"description"`
}

// InStock reports whether the item can be sold right now.
func (i CatalogItem) InStock() bool {
	return i.Stock > 0
}

// SnapshotInfo describes the currently active catalog snapshot.
type SnapshotInfo struct {
	Generation int64      `json:"generation"`
	ItemCount  int        `json:"itemCount"`
	SyncedAt   *time.Time `json:"syncedAt"`
}
