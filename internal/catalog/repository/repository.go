// Package repository implements the catalog snapshot store on Postgres.
//
// Snapshots are generation-based: a sync writes the whole catalog under a
// fresh generation number and flips the active-generation pointer in the
// same transaction. Readers always join against the active generation, so a
// running sync is never observed as a partially-empty catalog.
package repository

import (
	"context"
	"fmt"
	"time"

	"ovidio_backend/internal/catalog/transport"
	"ovidio_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for the catalog snapshot.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `code, name, brand, category, price_usd, price_ars, stock, tax_rate, description`

// ReplaceSnapshot atomically replaces the whole catalog with the given items.
func (r *Repository) ReplaceSnapshot(ctx context.Context, items []transport.CatalogItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Unavailable("catalog store unreachable", err)
	}
	defer tx.Rollback(ctx)

	var current int64
	if err := tx.QueryRow(ctx, `SELECT active_generation FROM catalog_meta WHERE id = 1 FOR UPDATE`).Scan(&current); err != nil {
		return fmt.Errorf("read active generation: %w", err)
	}
	next := current + 1

	rows := make([][]interface{}, len(items))
	for i, item := range items {
		rows[i] = []interface{}{
			next, item.Code, item.Name, item.Brand, item.Category,
			item.PriceUSD, item.PriceARS, item.Stock, item.TaxRate, item.Description,
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"catalog_items"},
		[]string{"generation", "code", "name", "brand", "category", "price_usd", "price_ars", "stock", "tax_rate", "description"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("write snapshot generation %d: %w", next, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE catalog_meta SET active_generation = $1, synced_at = $2 WHERE id = 1`,
		next, time.Now(),
	); err != nil {
		return fmt.Errorf("flip active generation: %w", err)
	}

	// Old generations are invisible once the pointer flips; dropping them
	// inside the same transaction keeps the table from growing.
	if _, err := tx.Exec(ctx, `DELETE FROM catalog_items WHERE generation < $1`, next); err != nil {
		return fmt.Errorf("prune old generations: %w", err)
	}

	return tx.Commit(ctx)
}

// SearchTerm returns active-snapshot items whose name, brand or code
// contains the term (case-insensitive).
func (r *Repository) SearchTerm(ctx context.Context, term string) ([]transport.CatalogItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_items
		WHERE generation = (SELECT active_generation FROM catalog_meta WHERE id = 1)
		  AND (name ILIKE '%%' || $1 || '%%'
		       OR brand ILIKE '%%' || $1 || '%%'
		       OR code ILIKE '%%' || $1 || '%%')
		ORDER BY name`, itemColumns)

	rows, err := r.pool.Query(ctx, query, term)
	if err != nil {
		return nil, apperr.Unavailable("catalog store unreachable", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Info returns metadata about the active snapshot.
func (r *Repository) Info(ctx context.Context) (transport.SnapshotInfo, error) {
	var info transport.SnapshotInfo
	err := r.pool.QueryRow(ctx, `
		SELECT m.active_generation,
		       (SELECT count(*) FROM catalog_items WHERE generation = m.active_generation),
		       m.synced_at
		FROM catalog_meta m WHERE m.id = 1`,
	).Scan(&info.Generation, &info.ItemCount, &info.SyncedAt)
	if err != nil {
		return transport.SnapshotInfo{}, apperr.Unavailable("catalog store unreachable", err)
	}
	return info, nil
}

func scanItems(rows pgx.Rows) ([]transport.CatalogItem, error) {
	var items []transport.CatalogItem
	for rows.Next() {
		var it transport.CatalogItem
		if err := rows.Scan(&it.Code, &it.Name, &it.Brand, &it.Category,
			&it.PriceUSD, &it.PriceARS, &it.Stock, &it.TaxRate, &it.Description); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
