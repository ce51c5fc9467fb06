// Package session decides whether the user may proceed past the login screen.
//
// The accept rule is pluggable. FixedPair is a local placeholder that accepts
// one configured pair and is not a security mechanism; deployments talking to
// a real backend should use an Authenticator that verifies credentials
// remotely and returns a token. There is no lockout or rate limiting here.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/hackgods/hospital-records/internal/records"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	ErrAttemptInProgress    = errors.New("login attempt already in progress")
	ErrAttemptAborted       = errors.New("logged out while login attempt was in flight")
)

type Credentials struct {
	Username string
	Password string
}

// Token is an opaque bearer credential issued by an Authenticator. It may be
// empty when the rule is purely local.
type Token string

// Authenticator is the accept rule for a credential pair. Implementations
// return ErrInvalidCredentials (possibly wrapped) when the pair is rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Token, error)
}

type AuthenticatorFunc func(ctx context.Context, creds Credentials) (Token, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (Token, error) {
	return f(ctx, creds)
}

// FixedPair accepts exactly one username/password pair.
type FixedPair struct {
	Username string
	Password string
}

func (p FixedPair) Authenticate(_ context.Context, creds Credentials) (Token, error) {
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(p.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(p.Password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return "", nil
}

// Gate holds the credential input buffer and the authenticated flag.
type Gate struct {
	mu            sync.Mutex
	auth          Authenticator
	buffer        Credentials
	authenticated bool
	attempting    bool
	token         Token
	epoch         uint64 // bumped by Logout
}

func NewGate(auth Authenticator) *Gate {
	return &Gate{auth: auth}
}

func (g *Gate) SetUsername(v string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buffer.Username = v
}

func (g *Gate) SetPassword(v string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buffer.Password = v
}

// Buffer returns the current credential input.
func (g *Gate) Buffer() Credentials {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buffer
}

func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

// Token returns the bearer token of the current session, or "" when there is none.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.authenticated {
		return ""
	}
	return string(g.token)
}

// Login fills the credential buffer and attempts it.
func (g *Gate) Login(ctx context.Context, creds Credentials) error {
	g.mu.Lock()
	g.buffer = creds
	g.mu.Unlock()
	return g.Attempt(ctx)
}

// Attempt evaluates the buffered credentials. The buffer is cleared whatever
// the outcome. Blank fields fail with a *records.ValidationError before the
// accept rule is consulted.
func (g *Gate) Attempt(ctx context.Context) error {
	g.mu.Lock()
	if g.authenticated {
		g.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	if g.attempting {
		g.mu.Unlock()
		return ErrAttemptInProgress
	}
	creds := g.buffer
	g.buffer = Credentials{}

	if err := records.Required("username", creds.Username); err != nil {
		g.mu.Unlock()
		return err
	}
	if err := records.Required("password", creds.Password); err != nil {
		g.mu.Unlock()
		return err
	}
	g.attempting = true
	epoch := g.epoch
	g.mu.Unlock()

	token, err := g.auth.Authenticate(ctx, creds)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempting = false
	if g.epoch != epoch {
		return ErrAttemptAborted
	}
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("authenticate: %w", err)
	}
	g.authenticated = true
	g.token = token
	return nil
}

// Logout drops the session and any buffered input.
func (g *Gate) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authenticated = false
	g.token = ""
	g.buffer = Credentials{}
	g.epoch++
}
