// Package service implements customer identity resolution: local cache
// first, then the CRM by phone, then by CUIT or email mined from the
// message text.
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"ovidio_backend/internal/identity/crm"
	"ovidio_backend/internal/identity/repository"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"
	"ovidio_backend/platform/phone"

	"github.com/google/uuid"
)

// fullSyncPageSize is the CRM page size used by the nightly sync.
const fullSyncPageSize = 100

var (
	// cuitRe matches an 11-digit CUIT, optionally dash-separated
	// (XX-XXXXXXXX-X).
	cuitRe = regexp.MustCompile(`\b(\d{2})-?(\d{8})-?(\d)\b`)
	// emailRe is deliberately loose; the CRM does the real validation.
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// CRM is the remote customer directory.
type CRM interface {
	FindByPhone(ctx context.Context, phone string) (*crm.Customer, error)
	FindByTaxID(ctx context.Context, taxID string) (*crm.Customer, error)
	FindByEmail(ctx context.Context, email string) (*crm.Customer, error)
	ListCustomers(ctx context.Context, page, pageSize int) ([]crm.Customer, error)
	PaymentHistory(ctx context.Context, customerID int64) (crm.PaymentSummary, error)
}

// Service resolves chat channel identifiers to customers.
type Service struct {
	repo *repository.Repository
	crm  CRM // nil when the CRM is not configured
	log  *logger.Logger
}

// New creates a new identity service.
func New(repo *repository.Repository, remote CRM, log *logger.Logger) *Service {
	return &Service{repo: repo, crm: remote, log: log}
}

// ResolveCustomer returns the customer behind a chat channel, creating the
// local record on first contact. The CRM lookups are best-effort: an
// unreachable CRM degrades to an unlinked local customer, never to a
// failed turn.
func (s *Service) ResolveCustomer(ctx context.Context, channelID, displayName, messageText string) (repository.Customer, error) {
	normalized := phone.Normalize(channelID)
	if normalized == "" {
		return repository.Customer{}, apperr.Validation("channel id carries no phone number")
	}

	cached, err := s.repo.FindByPhone(ctx, normalized)
	if err == nil {
		if !cached.CRMLinked {
			// Unlinked customers get another CRM chance on every turn; the
			// message may contain the CUIT or email that links them.
			if linked, ok := s.tryLink(ctx, cached, messageText); ok {
				return linked, nil
			}
		}
		return cached, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return repository.Customer{}, err
	}

	if remote := s.lookupCRM(ctx, normalized, messageText); remote != nil {
		return s.storeFromCRM(ctx, normalized, displayName, remote)
	}

	customer := repository.Customer{
		ID:          uuid.New(),
		Phone:       normalized,
		DisplayName: displayName,
		Status:      "new",
	}
	if err := s.repo.Create(ctx, &customer); err != nil {
		return repository.Customer{}, err
	}
	s.log.Info("customer_created", "phone", normalized, "crm_linked", false)
	return customer, nil
}

// Repository exposes the store for collaborating modules.
func (s *Service) Repository() *repository.Repository {
	return s.repo
}

// RecordExchange appends a user/assistant pair to the transcript.
func (s *Service) RecordExchange(ctx context.Context, customerID uuid.UUID, userText, assistantText string) error {
	return s.repo.AppendTurns(ctx, customerID, userText, assistantText)
}

// FullSync pages the whole CRM customer base into the local cache and
// returns how many records were written.
func (s *Service) FullSync(ctx context.Context) (int, error) {
	if s.crm == nil {
		return 0, apperr.Unavailable("CRM not configured", nil)
	}

	synced := 0
	for page := 1; ; page++ {
		customers, err := s.crm.ListCustomers(ctx, page, fullSyncPageSize)
		if err != nil {
			return synced, err
		}
		if len(customers) == 0 {
			return synced, nil
		}

		for i := range customers {
			remote := &customers[i]
			normalized := phone.Normalize(remote.Mobile)
			if normalized == "" {
				continue
			}
			if _, err := s.repo.UpsertFromCRM(ctx, mapCustomer(normalized, "", remote, nil)); err != nil {
				return synced, err
			}
			synced++
		}
	}
}

// tryLink attempts to attach CRM identity to an existing unlinked customer.
func (s *Service) tryLink(ctx context.Context, cached repository.Customer, messageText string) (repository.Customer, bool) {
	remote := s.lookupCRM(ctx, cached.Phone, messageText)
	if remote == nil {
		return repository.Customer{}, false
	}

	linked, err := s.storeFromCRM(ctx, cached.Phone, cached.DisplayName, remote)
	if err != nil {
		s.log.DatabaseError("link_customer", err)
		return repository.Customer{}, false
	}
	return linked, true
}

// lookupCRM runs the remote cascade: phone, then CUIT, then email mined
// from the message. Any CRM failure is logged and treated as not-found.
func (s *Service) lookupCRM(ctx context.Context, normalizedPhone, messageText string) *crm.Customer {
	if s.crm == nil {
		return nil
	}

	remote, err := s.crm.FindByPhone(ctx, normalizedPhone)
	if err == nil {
		return remote
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		s.log.RemoteCallFailed("crm", "find_by_phone", err)
		return nil
	}

	if cuit := extractCUIT(messageText); cuit != "" {
		if remote, err := s.crm.FindByTaxID(ctx, cuit); err == nil {
			return remote
		} else if !apperr.Is(err, apperr.KindNotFound) {
			s.log.RemoteCallFailed("crm", "find_by_tax_id", err)
		}
	}

	if email := extractEmail(messageText); email != "" {
		if remote, err := s.crm.FindByEmail(ctx, email); err == nil {
			return remote
		} else if !apperr.Is(err, apperr.KindNotFound) {
			s.log.RemoteCallFailed("crm", "find_by_email", err)
		}
	}

	return nil
}

// storeFromCRM persists a CRM match, enriched with the payment snapshot
// when the history call succeeds.
func (s *Service) storeFromCRM(ctx context.Context, normalizedPhone, displayName string, remote *crm.Customer) (repository.Customer, error) {
	var payments *crm.PaymentSummary
	if summary, err := s.crm.PaymentHistory(ctx, remote.ID); err == nil {
		payments = &summary
	} else {
		s.log.RemoteCallFailed("crm", "payment_history", err)
	}

	stored, err := s.repo.UpsertFromCRM(ctx, mapCustomer(normalizedPhone, displayName, remote, payments))
	if err != nil {
		return repository.Customer{}, err
	}

	s.log.Info("customer_linked",
		"phone", normalizedPhone,
		"crm_id", remote.ID,
		"legal_name", remote.LegalName,
	)
	return stored, nil
}

// mapCustomer converts a CRM record into the local model.
func mapCustomer(normalizedPhone, displayName string, remote *crm.Customer, payments *crm.PaymentSummary) *repository.Customer {
	crmID := remote.ID
	c := &repository.Customer{
		ID:          uuid.New(),
		Phone:       normalizedPhone,
		DisplayName: displayName,
		LegalName:   remote.LegalName,
		TaxID:       remote.TaxID,
		Email:       strings.ToLower(strings.TrimSpace(remote.Email)),
		Location:    joinLocation(remote.City, remote.Province),
		CRMLinked:   true,
		CRMID:       &crmID,
		Status:      "identified",
	}
	if payments != nil {
		score := payments.Score
		c.PaymentScore = &score
		c.PaymentProfile = payments.Profile
	}
	return c
}

func joinLocation(city, province string) string {
	switch {
	case city == "":
		return province
	case province == "":
		return city
	default:
		return city + ", " + province
	}
}

// extractCUIT returns the first CUIT found in the text, digits only.
func extractCUIT(text string) string {
	m := cuitRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + m[2] + m[3]
}

// extractEmail returns the first email address found in the text.
func extractEmail(text string) string {
	return strings.ToLower(emailRe.FindString(text))
}

// LastContactCutoff translates "inactive for n days" into the repository's
// cutoff timestamp.
func LastContactCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
