// Package auth holds the signed-in user's token and what the client can
// learn from it. Verifying the token is the data service's job.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotSignedIn = errors.New("not signed in: set TADA_TOKEN or run `todo auth login`")
	ErrExpired     = errors.New("session expired: run `todo auth login`")
	ErrEnvToken    = errors.New("token is provided by TADA_TOKEN env var (nothing to delete)")
)

// Identity is read from the token's claims without verifying them.
type Identity struct {
	Subject   string
	LoginID   string
	ExpiresAt *time.Time
	Claims    map[string]any // nil for opaque tokens
}

// loginClaims are tried in order for the display name.
var loginClaims = []string{"email", "cognito:username", "preferred_username", "username"}

// ParseIdentity decodes a JWT's payload. Opaque tokens give an empty
// Identity.
func ParseIdentity(token string) Identity {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}
	}
	id := Identity{Claims: claims}
	id.Subject, _ = claims.GetSubject()
	for _, k := range loginClaims {
		if v, ok := claims[k].(string); ok && v != "" {
			id.LoginID = v
			break
		}
	}
	if id.LoginID == "" {
		id.LoginID = id.Subject
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		id.ExpiresAt = &t
	}
	return id
}

// Session is the signed-in state handed to the view.
type Session struct {
	Identity
	Token *TokenInfo
	store *Store
	now   func() time.Time
}

// Load reads the current session; a signed-out user gets a Session with a
// nil Token.
func Load(store *Store) (*Session, error) {
	ti, err := store.Token()
	if err != nil {
		return nil, err
	}
	s := &Session{Token: ti, store: store, now: time.Now}
	if ti != nil {
		s.Identity = ParseIdentity(ti.Token)
		if s.ExpiresAt == nil {
			s.ExpiresAt = ti.ExpiresAt
		}
	}
	return s, nil
}

// Require fails unless there is a usable token.
func (s *Session) Require() error {
	if s.Token == nil || s.Token.Token == "" {
		return ErrNotSignedIn
	}
	if s.Expired() {
		return ErrExpired
	}
	return nil
}

func (s *Session) Expired() bool {
	return s.ExpiresAt != nil && !s.now().Before(*s.ExpiresAt)
}

// Owner scopes the user's collection: the token subject, else the login id.
func (s *Session) Owner() string {
	if s.Subject != "" {
		return s.Subject
	}
	return s.LoginID
}

// SignOut forgets the stored token.
func (s *Session) SignOut() error {
	if s.Token != nil && s.Token.Source == "env" {
		return ErrEnvToken
	}
	if err := s.store.DeleteToken(); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.Token = nil
	s.Identity = Identity{}
	return nil
}
