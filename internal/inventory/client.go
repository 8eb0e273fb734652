// Package inventory is the client for the remote inventory API. It is used
// by the catalog sync job and, when the local snapshot is unavailable, as a
// live search fallback.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ovidio_backend/internal/catalog/transport"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"
)

// Client queries the remote inventory API.
type Client struct {
	baseURL  string
	branchID int
	http     *http.Client
	log      *logger.Logger
}

// NewClient builds an inventory client, or nil when no API is configured.
func NewClient(cfg config.InventoryConfig, log *logger.Logger) *Client {
	if cfg.GetInventoryBaseURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  cfg.GetInventoryBaseURL(),
		branchID: cfg.GetInventoryBranchID(),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// remoteItem mirrors the API's own field names. They are inconsistent with
// the rest of the system and must not leak past this package.
type remoteItem struct {
	Producto      string  `json:"producto"`
	CodigoInterno string  `json:"codigoInterno"`
	Marca         string  `json:"marca"`
	Categoria     string  `json:"categoria"`
	PrecioUSD     float64 `json:"precioUSD"`
	PrecioARS     float64 `json:"precioARS"`
	Disponible    int     `json:"disponible"`
	IVA           float64 `json:"iva"`
	Descripcion   string  `json:"descripcion"`
}

type searchResponse struct {
	Producto []remoteItem `json:"producto"`
}

// Search queries the API by free term. An empty term returns the full
// catalog, which is what the sync job uses.
func (c *Client) Search(ctx context.Context, term string) ([]transport.CatalogItem, error) {
	if c == nil {
		return nil, apperr.Unavailable("inventory API not configured", nil)
	}

	params := url.Values{}
	params.Set("Producto", term)
	params.Set("CategoriaId", "0")
	params.Set("MarcaId", "0")
	params.Set("OrdenId", "2")
	params.Set("SucursalId", strconv.Itoa(c.branchID))
	params.Set("Oferta", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Unavailable("inventory API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable(fmt.Sprintf("inventory API returned %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Unavailable("inventory API returned malformed payload", err)
	}

	items := make([]transport.CatalogItem, 0, len(payload.Producto))
	for _, p := range payload.Producto {
		items = append(items, mapItem(p))
	}
	return items, nil
}

func mapItem(p remoteItem) transport.CatalogItem {
	taxRate := p.IVA
	if taxRate != 10.5 && taxRate != 21 {
		taxRate = 21
	}

	name := p.Producto
	if name == "" {
		name = p.CodigoInterno
	}

	return transport.CatalogItem{
		Code:        p.CodigoInterno,
		Name:        name,
		Brand:       p.Marca,
		Category:    p.Categoria,
		PriceUSD:    p.PrecioUSD,
		PriceARS:    p.PrecioARS,
		Stock:       p.Disponible,
		TaxRate:     taxRate,
		Description: p.Descripcion,
	}
}

// SearchTerm adapts Search to the resolution engine's store contract, so
// the live API can serve as fallback when the local snapshot is down.
func (c *Client) SearchTerm(ctx context.Context, term string) ([]transport.CatalogItem, error) {
	return c.Search(ctx, term)
}
