// Package repository implements customer identity persistence on Postgres.
// Customers are keyed by normalized phone number; the conversation
// transcript is append-only in its own table.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ovidio_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Customer is the database model for a chat customer.
type Customer struct {
	ID              uuid.UUID
	Phone           string
	DisplayName     string
	LegalName       string
	TaxID           string
	Email           string
	Location        string
	Sector          string
	PaymentMethod   string
	PreferredBrands []string
	KnownSuppliers  []string
	PersonalNotes   []string
	CRMLinked       bool
	CRMID           *int64
	PaymentScore    *int
	PaymentProfile  string
	Birthday        *time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Turn is one transcript entry.
type Turn struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Role       string
	Content    string
	CreatedAt  time.Time
}

// Stats summarizes the customer base for the back office.
type Stats struct {
	Total          int
	Today          int
	WithQuotations int
	MissingData    int
}

// Repository provides database operations for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new identity repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, phone, display_name, legal_name, tax_id, email, location, sector,
	payment_method, preferred_brands, known_suppliers, personal_notes,
	crm_linked, crm_id, payment_score, payment_profile, birthday, status,
	created_at, updated_at`

// FindByPhone returns the customer whose stored phone matches exactly, or
// failing that, suffix-wise. Numbers arrive with inconsistent area-code
// prefixes, so the suffix match catches the same line written both ways.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (Customer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE phone = $1
		   OR phone LIKE '%%' || $1
		   OR $1 LIKE '%%' || phone
		ORDER BY (phone = $1) DESC
		LIMIT 1`, customerColumns)

	c, err := r.scanCustomer(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, apperr.Unavailable("customer store unreachable", err)
	}
	return c, nil
}

// GetByID returns one customer.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	c, err := r.scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, apperr.Unavailable("customer store unreachable", err)
	}
	return c, nil
}

// Create inserts a new customer.
func (r *Repository) Create(ctx context.Context, c *Customer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, phone, display_name, legal_name, tax_id, email, location, sector,
			payment_method, preferred_brands, known_suppliers, personal_notes,
			crm_linked, crm_id, payment_score, payment_profile, birthday, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		c.ID, c.Phone, c.DisplayName, c.LegalName, c.TaxID, c.Email, c.Location, c.Sector,
		c.PaymentMethod, c.PreferredBrands, c.KnownSuppliers, c.PersonalNotes,
		c.CRMLinked, c.CRMID, c.PaymentScore, c.PaymentProfile, c.Birthday, c.Status,
	)
	if err != nil {
		return apperr.Unavailable("customer store unreachable", err)
	}
	return nil
}

// UpsertFromCRM inserts or refreshes the customer row from CRM data, keyed
// by phone. Locally accumulated fields (notes, preferred brands) are left
// untouched on update.
func (r *Repository) UpsertFromCRM(ctx context.Context, c *Customer) (Customer, error) {
	query := fmt.Sprintf(`
		INSERT INTO customers (id, phone, display_name, legal_name, tax_id, email, location, sector,
			payment_method, crm_linked, crm_id, payment_score, payment_profile, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11, $12, $13)
		ON CONFLICT (phone) DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			tax_id = EXCLUDED.tax_id,
			email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE customers.email END,
			location = EXCLUDED.location,
			crm_linked = TRUE,
			crm_id = EXCLUDED.crm_id,
			payment_score = COALESCE(EXCLUDED.payment_score, customers.payment_score),
			payment_profile = CASE WHEN EXCLUDED.payment_profile <> '' THEN EXCLUDED.payment_profile ELSE customers.payment_profile END,
			updated_at = now()
		RETURNING %s`, customerColumns)

	stored, err := r.scanCustomer(r.pool.QueryRow(ctx, query,
		c.ID, c.Phone, c.DisplayName, c.LegalName, c.TaxID, c.Email, c.Location, c.Sector,
		c.PaymentMethod, c.CRMID, c.PaymentScore, c.PaymentProfile, c.Status,
	))
	if err != nil {
		return Customer{}, apperr.Unavailable("customer store unreachable", err)
	}
	return stored, nil
}

// AppendTurns records a user message and the assistant reply as one
// transcript exchange.
func (r *Repository) AppendTurns(ctx context.Context, customerID uuid.UUID, userText, assistantText string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Unavailable("customer store unreachable", err)
	}
	defer tx.Rollback(ctx)

	const insert = `INSERT INTO conversation_turns (id, customer_id, role, content) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insert, uuid.New(), customerID, "user", userText); err != nil {
		return fmt.Errorf("append user turn: %w", err)
	}
	if _, err := tx.Exec(ctx, insert, uuid.New(), customerID, "assistant", assistantText); err != nil {
		return fmt.Errorf("append assistant turn: %w", err)
	}

	return tx.Commit(ctx)
}

// RecentTurns returns the customer's last transcript entries, oldest first.
func (r *Repository) RecentTurns(ctx context.Context, customerID uuid.UUID, limit int) ([]Turn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, role, content, created_at
		FROM (
			SELECT id, customer_id, role, content, created_at
			FROM conversation_turns
			WHERE customer_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) latest
		ORDER BY created_at`, customerID, limit)
	if err != nil {
		return nil, apperr.Unavailable("customer store unreachable", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// AddNote appends a personal-memory note to the customer.
func (r *Repository) AddNote(ctx context.Context, customerID uuid.UUID, note string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE customers SET personal_notes = array_append(personal_notes, $1), updated_at = now()
		WHERE id = $2`, note, customerID)
	if err != nil {
		return apperr.Unavailable("customer store unreachable", err)
	}
	return nil
}

// ListRecent returns the most recently active customers.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers ORDER BY updated_at DESC LIMIT $1`, customerColumns)
	return r.queryCustomers(ctx, query, limit)
}

// SearchAdmin finds customers by phone, name or email for the back office.
func (r *Repository) SearchAdmin(ctx context.Context, term string, limit int) ([]Customer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE phone LIKE '%%' || $1 || '%%'
		   OR display_name ILIKE '%%' || $1 || '%%'
		   OR legal_name ILIKE '%%' || $1 || '%%'
		   OR email ILIKE '%%' || $1 || '%%'
		ORDER BY updated_at DESC
		LIMIT $2`, customerColumns)
	return r.queryCustomers(ctx, query, term, limit)
}

// GetStats returns the back-office customer counters.
func (r *Repository) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE created_at >= date_trunc('day', now())),
		       count(*) FILTER (WHERE EXISTS (SELECT 1 FROM quotations q WHERE q.customer_id = customers.id)),
		       count(*) FILTER (WHERE NOT crm_linked OR email = '')
		FROM customers`,
	).Scan(&s.Total, &s.Today, &s.WithQuotations, &s.MissingData)
	if err != nil {
		return Stats{}, apperr.Unavailable("customer store unreachable", err)
	}
	return s, nil
}

// BirthdaysOn returns customers whose birthday falls on the given day.
func (r *Repository) BirthdaysOn(ctx context.Context, month time.Month, day int) ([]Customer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE birthday IS NOT NULL
		  AND EXTRACT(MONTH FROM birthday) = $1
		  AND EXTRACT(DAY FROM birthday) = $2`, customerColumns)
	return r.queryCustomers(ctx, query, int(month), day)
}

// LastContactBefore returns customers whose most recent transcript entry is
// older than the cutoff, for follow-up messages. Customers without any
// transcript are excluded.
func (r *Repository) LastContactBefore(ctx context.Context, cutoff time.Time, limit int) ([]Customer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM customers c
		WHERE (SELECT max(t.created_at) FROM conversation_turns t WHERE t.customer_id = c.id) < $1
		ORDER BY c.updated_at DESC
		LIMIT $2`, customerColumns)
	return r.queryCustomers(ctx, query, cutoff, limit)
}

func (r *Repository) queryCustomers(ctx context.Context, query string, args ...interface{}) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Unavailable("customer store unreachable", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *Repository) scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Phone, &c.DisplayName, &c.LegalName, &c.TaxID, &c.Email,
		&c.Location, &c.Sector, &c.PaymentMethod, &c.PreferredBrands, &c.KnownSuppliers,
		&c.PersonalNotes, &c.CRMLinked, &c.CRMID, &c.PaymentScore, &c.PaymentProfile,
		&c.Birthday, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
