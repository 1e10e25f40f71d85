// Package auth manages the cloud access token lifecycle: logging in with
// stored credentials, refreshing ahead of token expiry, and reacting to
// reauthentication signals raised by the store.
package auth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// tokenLifetime is assumed when the vendor token carries no readable
	// expiry claim.
	tokenLifetime = 5 * 24 * time.Hour

	// refreshWindow is how long before expiry a token is refreshed.
	refreshWindow = time.Hour
)

// LoginService exchanges credentials for an access token.
type LoginService interface {
	Login(ctx context.Context, account, password string) (string, error)
}

// Manager caches an access token and logs in on demand. It implements
// cloud.TokenSource. Refreshes are single-flight under the mutex: a
// concurrent request waits for the in-progress login rather than issuing
// its own.
type Manager struct {
	login    LoginService
	account  string
	password string
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewManager creates a Manager for one account.
func NewManager(login LoginService, account, password string) *Manager {
	return &Manager{
		login:    login,
		account:  account,
		password: password,
		now:      time.Now,
	}
}

// AccessToken returns a valid token, logging in first if the cached token
// is missing, invalidated or close to expiry.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" && m.now().Before(m.expiry.Add(-refreshWindow)) {
		return m.token, nil
	}

	token, err := m.login.Login(ctx, m.account, m.password)
	if err != nil {
		return "", err
	}
	m.token = token
	m.expiry = tokenExpiry(token, m.now())
	log.Printf("[auth] obtained access token for %s, valid until %s", m.account, m.expiry.Format(time.RFC3339))
	return m.token, nil
}

// Invalidate discards the cached token so the next request logs in again.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

// Run consumes reauthentication signals until ctx is cancelled. Each
// signal invalidates the cached token; the next remote call re-runs the
// login handshake.
func (m *Manager) Run(ctx context.Context, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			log.Printf("[auth] reauthentication requested for %s", m.account)
			m.Invalidate()
		}
	}
}

// tokenExpiry reads the exp claim from the vendor token, which is a JWT.
// The signature is not verified; only the server can do that, and the
// claim is used purely to schedule refresh. Tokens without a readable
// claim get a fixed lifetime.
func tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(tokenLifetime)
}
