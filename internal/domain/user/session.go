package user

import (
	"context"
	"errors"
	"sync"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
)

// Session holds the single authenticated identity of one storefront context.
type Session interface {
	CurrentUser(ctx context.Context) (*User, error)
	SetCurrentUser(ctx context.Context, u *User) error
	Clear(ctx context.Context) error
}

// PersistentSession keeps a copy of the logged-in user under the
// currentUser key, so it survives restarts of the process.
type PersistentSession struct {
	value *kv.Value[User]
}

func NewPersistentSession(store kv.Store) *PersistentSession {
	return &PersistentSession{value: kv.NewValue[User](store, CurrentUserKey)}
}

func (s *PersistentSession) CurrentUser(ctx context.Context) (*User, error) {
	return s.value.Load(ctx)
}

func (s *PersistentSession) SetCurrentUser(ctx context.Context, u *User) error {
	return s.value.Save(ctx, u)
}

func (s *PersistentSession) Clear(ctx context.Context) error {
	return s.value.Save(ctx, nil)
}

// TokenSession carries the identity in a signed token instead of the store.
// Setting a user issues a new token; Token returns it for the caller to hand
// back on the next invocation.
type TokenSession struct {
	jwt *auth.JWTService

	mu    sync.Mutex
	token string
}

func NewTokenSession(jwt *auth.JWTService, token string) *TokenSession {
	return &TokenSession{jwt: jwt, token: token}
}

// CurrentUser returns the identity in the token, or nil without a token.
// An expired or forged token is an error.
func (s *TokenSession) CurrentUser(ctx context.Context) (*User, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return nil, nil
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &User{ID: claims.UserID, Username: claims.Username, Role: Role(claims.Role)}, nil
}

func (s *TokenSession) SetCurrentUser(ctx context.Context, u *User) error {
	if u == nil {
		return s.Clear(ctx)
	}
	token, _, err := s.jwt.GenerateToken(u.ID, u.Username, string(u.Role))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *TokenSession) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

func (s *TokenSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsTokenError reports whether err came from an unusable session token.
func IsTokenError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken)
}

// Compile-time interface compliance checks
var (
	_ Session = (*PersistentSession)(nil)
	_ Session = (*TokenSession)(nil)
)
