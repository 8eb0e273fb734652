// Package repository implements quotation persistence on Postgres.
//
// Two invariants live here rather than in the service: the quotation number
// is generated from a single counter row (gap-free under concurrency), and
// a customer can hold at most one pending quotation, enforced by a partial
// unique index plus cancel-before-insert in one transaction.
package repository

import (
	"context"
	"errors"
	"fmt"

	"ovidio_backend/internal/quotes/transport"
	"ovidio_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for quotations.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quotationColumns = `id, number, customer_id, state, subtotal, tax_total, total,
	validity_days, valid_until, COALESCE(document_url, ''), created_at, updated_at`

// NextNumber atomically advances the quotation counter and returns the new
// number. Numbers are global, monotonic and never reused.
func (r *Repository) NextNumber(ctx context.Context) (int64, error) {
	var next int64
	query := `
		INSERT INTO quotation_counter (id, last_number)
		VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET last_number = quotation_counter.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query).Scan(&next); err != nil {
		return 0, apperr.Unavailable("generate quotation number", err)
	}
	return next, nil
}

// CreateWithItems inserts a quotation and its line items, cancelling any
// pending quotation the customer already holds, all in one transaction.
func (r *Repository) CreateWithItems(ctx context.Context, q *transport.Quotation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Unavailable("quotation store unreachable", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE quotations SET state = $1, updated_at = now()
		WHERE customer_id = $2 AND state = $3`,
		transport.StateCancelled, q.CustomerID, transport.StatePending,
	); err != nil {
		return fmt.Errorf("cancel previous pending quotation: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO quotations (id, number, customer_id, state, subtotal, tax_total, total,
			validity_days, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.Number, q.CustomerID, q.State, q.Subtotal, q.TaxTotal, q.Total,
		q.ValidityDays, q.ValidUntil,
	); err != nil {
		return fmt.Errorf("insert quotation %d: %w", q.Number, err)
	}

	for _, item := range q.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quotation_items (id, quotation_id, name, unit_price, quantity, tax_rate, tax_amount, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), q.ID, item.Name, item.UnitPrice, item.Quantity, item.TaxRate, item.TaxAmount, item.SortOrder,
		); err != nil {
			return fmt.Errorf("insert quotation item %q: %w", item.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// PendingForCustomer returns the customer's pending quotation, first
// transitioning it to expired if its validity window has passed. Expiry is
// a store predicate, not a background job, so a lapsed quotation is never
// observed as pending.
func (r *Repository) PendingForCustomer(ctx context.Context, customerID uuid.UUID) (transport.Quotation, error) {
	if _, err := r.pool.Exec(ctx, `
		UPDATE quotations SET state = $1, updated_at = now()
		WHERE customer_id = $2 AND state = $3 AND valid_until < now()`,
		transport.StateExpired, customerID, transport.StatePending,
	); err != nil {
		return transport.Quotation{}, apperr.Unavailable("quotation store unreachable", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM quotations
		WHERE customer_id = $1 AND state = $2`, quotationColumns)

	q, err := r.scanQuotation(r.pool.QueryRow(ctx, query, customerID, transport.StatePending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transport.Quotation{}, apperr.NotFound("no pending quotation")
		}
		return transport.Quotation{}, apperr.Unavailable("quotation store unreachable", err)
	}

	if q.Items, err = r.loadItems(ctx, q.ID); err != nil {
		return transport.Quotation{}, err
	}
	return q, nil
}

// GetByID returns one quotation with its items.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (transport.Quotation, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotations WHERE id = $1`, quotationColumns)

	q, err := r.scanQuotation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transport.Quotation{}, apperr.NotFound("quotation not found")
		}
		return transport.Quotation{}, apperr.Unavailable("quotation store unreachable", err)
	}

	if q.Items, err = r.loadItems(ctx, q.ID); err != nil {
		return transport.Quotation{}, err
	}
	return q, nil
}

// ListForCustomer returns the customer's quotations, newest first.
func (r *Repository) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]transport.Quotation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM quotations
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, quotationColumns)

	rows, err := r.pool.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, apperr.Unavailable("quotation store unreachable", err)
	}
	defer rows.Close()

	var list []transport.Quotation
	for rows.Next() {
		q, err := r.scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// MarkSent transitions a pending quotation to sent and records the stored
// document URL. A quotation in any other state is left untouched.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, documentURL string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET state = $1, document_url = $2, updated_at = now()
		WHERE id = $3 AND state = $4`,
		transport.StateSent, documentURL, id, transport.StatePending,
	)
	if err != nil {
		return apperr.Unavailable("quotation store unreachable", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("quotation is not pending")
	}
	return nil
}

// CountByState returns how many quotations sit in each state.
func (r *Repository) CountByState(ctx context.Context) (map[transport.State]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT state, count(*) FROM quotations GROUP BY state`)
	if err != nil {
		return nil, apperr.Unavailable("quotation store unreachable", err)
	}
	defer rows.Close()

	counts := make(map[transport.State]int)
	for rows.Next() {
		var state transport.State
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

func (r *Repository) loadItems(ctx context.Context, quotationID uuid.UUID) ([]transport.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, unit_price, quantity, tax_rate, tax_amount, sort_order
		FROM quotation_items
		WHERE quotation_id = $1
		ORDER BY sort_order`, quotationID)
	if err != nil {
		return nil, apperr.Unavailable("quotation store unreachable", err)
	}
	defer rows.Close()

	var items []transport.Item
	for rows.Next() {
		var it transport.Item
		if err := rows.Scan(&it.Name, &it.UnitPrice, &it.Quantity, &it.TaxRate, &it.TaxAmount, &it.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) scanQuotation(row pgx.Row) (transport.Quotation, error) {
	var q transport.Quotation
	err := row.Scan(&q.ID, &q.Number, &q.CustomerID, &q.State, &q.Subtotal, &q.TaxTotal, &q.Total,
		&q.ValidityDays, &q.ValidUntil, &q.DocumentURL, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}
