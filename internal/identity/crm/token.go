package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/config"

	"golang.org/x/sync/singleflight"
)

// expirySkew renews tokens this long before the CRM's stated expiry so an
// in-flight request never straddles the deadline.
const expirySkew = 5 * time.Minute

// defaultExpirySeconds applies when the CRM omits expires_in.
const defaultExpirySeconds = 86400

// Grant is an issued token pair.
type Grant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Authorizer performs the CRM's two token-issuing calls.
type Authorizer interface {
	Credentials(ctx context.Context) (Grant, error)
	Refresh(ctx context.Context, refreshToken string) (Grant, error)
}

// Session holds the current token pair and renews it on demand. It is safe
// for concurrent use: readers share the cached token and concurrent renewal
// attempts collapse into a single upstream call.
type Session struct {
	auth Authorizer

	mu        sync.Mutex
	access    string
	refresh   string
	expiresAt time.Time

	flight singleflight.Group
}

// NewSession creates an empty session. The first Token call performs the
// credential exchange.
func NewSession(auth Authorizer) *Session {
	return &Session{auth: auth}
}

// Token returns a valid access token, renewing first when the cached one is
// missing or about to expire.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.access != "" && time.Now().Before(s.expiresAt) {
		token := s.access
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	return s.renew(ctx)
}

// ForceRenew discards a token the CRM has rejected and returns a fresh one.
// If another caller already replaced the stale token, the replacement is
// returned without a second renewal.
func (s *Session) ForceRenew(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	if s.access != "" && s.access != stale && time.Now().Before(s.expiresAt) {
		token := s.access
		s.mu.Unlock()
		return token, nil
	}
	if s.access == stale {
		// Stop Token callers from handing out the rejected value while the
		// renewal runs.
		s.expiresAt = time.Time{}
	}
	s.mu.Unlock()

	return s.renew(ctx)
}

// renew obtains a new token pair: refresh when possible, credentials as the
// fallback. Concurrent callers share one upstream call.
func (s *Session) renew(ctx context.Context) (string, error) {
	token, err, _ := s.flight.Do("renew", func() (interface{}, error) {
		s.mu.Lock()
		refreshToken := s.refresh
		s.mu.Unlock()

		var grant Grant
		var err error
		if refreshToken != "" {
			grant, err = s.auth.Refresh(ctx, refreshToken)
		}
		if refreshToken == "" || err != nil {
			grant, err = s.auth.Credentials(ctx)
		}
		if err != nil {
			return nil, err
		}
		if grant.AccessToken == "" {
			return nil, apperr.AuthExpired("CRM issued an empty token")
		}

		expiresIn := grant.ExpiresIn
		if expiresIn <= 0 {
			expiresIn = defaultExpirySeconds
		}

		s.mu.Lock()
		s.access = grant.AccessToken
		s.refresh = grant.RefreshToken
		s.expiresAt = time.Now().Add(time.Duration(expiresIn)*time.Second - expirySkew)
		s.mu.Unlock()

		return grant.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// credentialAuth implements Authorizer against the CRM's auth endpoints.
type credentialAuth struct {
	client *Client
	cfg    config.CRMConfig
}

func (a *credentialAuth) Credentials(ctx context.Context) (Grant, error) {
	if a.cfg.GetCRMUser() == "" || a.cfg.GetCRMPassword() == "" {
		return Grant{}, apperr.Unauthorized("CRM credentials not configured")
	}

	return a.post(ctx, "auth/credentials", map[string]string{
		"app_name": a.cfg.GetCRMAppName(),
		"app_code": a.cfg.GetCRMAppCode(),
		"user":     a.cfg.GetCRMUser(),
		"password": a.cfg.GetCRMPassword(),
	})
}

func (a *credentialAuth) Refresh(ctx context.Context, refreshToken string) (Grant, error) {
	return a.post(ctx, "auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (a *credentialAuth) post(ctx context.Context, endpoint string, payload map[string]string) (Grant, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Grant{}, err
	}

	reqURL := fmt.Sprintf("%s/%s", a.client.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return Grant{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.http.Do(req)
	if err != nil {
		return Grant{}, apperr.Unavailable("CRM auth unreachable", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Grant{}, apperr.Unavailable("CRM auth returned a malformed response", err)
	}
	if env.Status != "ok" {
		return Grant{}, apperr.Unauthorized(fmt.Sprintf("CRM %s: %s", endpoint, env.Message))
	}

	var grant Grant
	if err := json.Unmarshal(env.Body, &grant); err != nil {
		return Grant{}, apperr.Unavailable("CRM auth returned a malformed grant", err)
	}
	return grant, nil
}
