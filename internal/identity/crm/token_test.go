package crm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeAuth struct {
	mu               sync.Mutex
	credentialCalls  int32
	refreshCalls     int32
	refreshErr       error
	credentialsErr   error
	delay            time.Duration
	issued           int
	lastRefreshToken string
}

func (a *fakeAuth) Credentials(context.Context) (Grant, error) {
	atomic.AddInt32(&a.credentialCalls, 1)
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.credentialsErr != nil {
		return Grant{}, a.credentialsErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issued++
	return Grant{
		AccessToken:  grantName("cred", a.issued),
		RefreshToken: grantName("refresh", a.issued),
		ExpiresIn:    3600,
	}, nil
}

func (a *fakeAuth) Refresh(_ context.Context, refreshToken string) (Grant, error) {
	atomic.AddInt32(&a.refreshCalls, 1)
	if a.refreshErr != nil {
		return Grant{}, a.refreshErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastRefreshToken = refreshToken
	a.issued++
	return Grant{
		AccessToken:  grantName("refreshed", a.issued),
		RefreshToken: grantName("refresh", a.issued),
		ExpiresIn:    3600,
	}, nil
}

func grantName(prefix string, n int) string {
	return prefix + "-" + string(rune('0'+n))
}

func TestTokenFirstCallUsesCredentials(t *testing.T) {
	auth := &fakeAuth{}
	s := NewSession(auth)

	token, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if auth.credentialCalls != 1 || auth.refreshCalls != 0 {
		t.Fatalf("calls = %d credentials, %d refresh; want 1, 0", auth.credentialCalls, auth.refreshCalls)
	}
}

func TestTokenIsCachedWhileValid(t *testing.T) {
	auth := &fakeAuth{}
	s := NewSession(auth)

	first, _ := s.Token(context.Background())
	second, _ := s.Token(context.Background())

	if first != second {
		t.Fatalf("cached token changed: %q vs %q", first, second)
	}
	if auth.credentialCalls != 1 {
		t.Fatalf("credentials called %d times, want 1", auth.credentialCalls)
	}
}

func TestExpiredTokenRenewsViaRefresh(t *testing.T) {
	auth := &fakeAuth{}
	s := NewSession(auth)

	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}

	s.mu.Lock()
	firstRefresh := s.refresh
	s.expiresAt = s.expiresAt.AddDate(-1, 0, 0)
	s.mu.Unlock()

	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if auth.refreshCalls != 1 {
		t.Fatalf("refresh called %d times, want 1", auth.refreshCalls)
	}
	if auth.lastRefreshToken != firstRefresh {
		t.Fatalf("refresh used token %q, want %q", auth.lastRefreshToken, firstRefresh)
	}
}

func TestRefreshFailureFallsBackToCredentials(t *testing.T) {
	auth := &fakeAuth{refreshErr: errors.New("refresh token revoked")}
	s := NewSession(auth)

	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}

	s.mu.Lock()
	s.expiresAt = s.expiresAt.AddDate(-1, 0, 0)
	s.mu.Unlock()

	token, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token == "" {
		t.Fatal("empty token after fallback")
	}
	if auth.credentialCalls != 2 {
		t.Fatalf("credentials called %d times, want 2", auth.credentialCalls)
	}
}

func TestConcurrentRenewalCollapses(t *testing.T) {
	auth := &fakeAuth{delay: 50 * time.Millisecond}
	s := NewSession(auth)

	var wg sync.WaitGroup
	tokens := make([]string, 20)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = s.Token(context.Background())
		}(i)
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&auth.credentialCalls); calls != 1 {
		t.Fatalf("credentials called %d times under concurrency, want 1", calls)
	}
	for _, token := range tokens {
		if token != tokens[0] {
			t.Fatalf("callers got different tokens: %q vs %q", token, tokens[0])
		}
	}
}

func TestForceRenewSkipsWhenAlreadyReplaced(t *testing.T) {
	auth := &fakeAuth{}
	s := NewSession(auth)

	stale, _ := s.Token(context.Background())

	fresh, err := s.ForceRenew(context.Background(), stale)
	if err != nil {
		t.Fatalf("ForceRenew: %v", err)
	}
	if fresh == stale {
		t.Fatal("forced renewal returned the rejected token")
	}

	// The stale value was already replaced; a second forced renewal for it
	// must reuse the replacement instead of hitting the CRM again.
	again, err := s.ForceRenew(context.Background(), stale)
	if err != nil {
		t.Fatalf("ForceRenew: %v", err)
	}
	if again != fresh {
		t.Fatalf("second ForceRenew issued %q, want cached %q", again, fresh)
	}
	if total := auth.credentialCalls + auth.refreshCalls; total != 2 {
		t.Fatalf("auth calls = %d, want 2", total)
	}
}
