package user

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

// RegisterInput is the data a visitor supplies when signing up.
type RegisterInput struct {
	Username string
	Password string
	Phone    string
	Email    string
	Address  string
}

// Service owns the allUsers collection and the session of one context.
type Service struct {
	mu         sync.Mutex
	users      *kv.Collection[User]
	session    Session
	hasher     auth.PasswordHasher
	eventStore store.EventStoreInterface
}

// NewService creates a user service. seed supplies the accounts used while
// allUsers has never been written; it may be nil.
func NewService(st kv.Store, es store.EventStoreInterface, session Session, hasher auth.PasswordHasher, seed func() []User) *Service {
	if hasher == nil {
		hasher = auth.PlaintextHasher{}
	}
	return &Service{
		users:      kv.NewCollection(st, UsersKey, seed),
		session:    session,
		hasher:     hasher,
		eventStore: es,
	}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.Load(ctx)
}

// Get returns the user with id; ok is false when there is none.
func (s *Service) Get(ctx context.Context, id string) (*User, bool, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u, true, nil
		}
	}
	return nil, false, nil
}

// FindByCredentials returns the user whose username matches exactly and
// whose stored password matches, or nil.
func (s *Service) FindByCredentials(ctx context.Context, username, password string) (*User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username && s.hasher.Matches(password, users[i].Password) {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// Register creates an account with role user. A taken username fails with
// ErrDuplicateUsername and leaves the collection untouched.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, ErrInvalidUsername
	}
	if in.Password == "" {
		return nil, ErrInvalidPassword
	}
	if in.Email != "" && !isValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == in.Username {
			return nil, ErrDuplicateUsername
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	password, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := User{
		ID:       id.String(),
		Username: in.Username,
		Password: password,
		Role:     RoleUser,
		Phone:    in.Phone,
		Email:    in.Email,
		Address:  in.Address,
	}
	if err := s.users.Save(ctx, append(users, u)); err != nil {
		return nil, err
	}

	s.record(ctx, u.ID, EventUserRegistered, UserRegistered{
		UserID:       u.ID,
		Username:     u.Username,
		Role:         u.Role,
		RegisteredAt: time.Now().UTC(),
	})
	log.Printf("[User] Registered %s (%s)", u.Username, u.ID)
	return &u, nil
}

// Update replaces the record with the same id. An empty password keeps the
// stored one; a new password goes through the hasher. Updating the logged-in
// user refreshes the session copy. A missing id is a no-op.
func (s *Service) Update(ctx context.Context, updated User) error {
	if strings.TrimSpace(updated.Username) == "" {
		return ErrInvalidUsername
	}
	if updated.Email != "" && !isValidEmail(updated.Email) {
		return ErrInvalidEmail
	}
	if !validRole(updated.Role) {
		return ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(users, updated.ID)
	if idx < 0 {
		return nil
	}
	for i, u := range users {
		if i != idx && u.Username == updated.Username {
			return ErrDuplicateUsername
		}
	}

	switch {
	case updated.Password == "" || updated.Password == users[idx].Password:
		updated.Password = users[idx].Password
	default:
		hashed, err := s.hasher.Hash(updated.Password)
		if err != nil {
			return err
		}
		updated.Password = hashed
	}

	users[idx] = updated
	if err := s.users.Save(ctx, users); err != nil {
		return err
	}

	current, err := s.session.CurrentUser(ctx)
	if err != nil && !IsTokenError(err) {
		return err
	}
	if current != nil && current.ID == updated.ID {
		if err := s.session.SetCurrentUser(ctx, &updated); err != nil {
			return err
		}
	}

	s.record(ctx, updated.ID, EventUserUpdated, UserUpdated{
		UserID:    updated.ID,
		Username:  updated.Username,
		Role:      updated.Role,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

// Delete removes the user. Deleting the logged-in user logs them out.
// Orders that reference the user are kept. A missing id is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load(ctx)
	if err != nil {
		return err
	}

	kept := make([]User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return nil
	}
	if err := s.users.Save(ctx, kept); err != nil {
		return err
	}

	current, err := s.session.CurrentUser(ctx)
	if err != nil && !IsTokenError(err) {
		return err
	}
	if current != nil && current.ID == id {
		if err := s.session.Clear(ctx); err != nil {
			return err
		}
	}

	s.record(ctx, id, EventUserDeleted, UserDeleted{UserID: id, DeletedAt: time.Now().UTC()})
	log.Printf("[User] Deleted %s", id)
	return nil
}

// Login sets the session to the matching user.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.FindByCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.session.SetCurrentUser(ctx, u); err != nil {
		return nil, err
	}
	s.record(ctx, u.ID, EventUserLoggedIn, UserLoggedIn{UserID: u.ID, LoggedAt: time.Now().UTC()})
	return u, nil
}

func (s *Service) Logout(ctx context.Context) error {
	current, err := s.session.CurrentUser(ctx)
	if err != nil && !IsTokenError(err) {
		return err
	}
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	if current != nil {
		s.record(ctx, current.ID, EventUserLoggedOut, UserLoggedOut{UserID: current.ID, LoggedAt: time.Now().UTC()})
	}
	return nil
}

// CurrentUser returns the stored record of the session's user, or nil when
// nobody is logged in or the account no longer exists.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	current, err := s.session.CurrentUser(ctx)
	if err != nil || current == nil {
		return nil, err
	}
	u, ok, err := s.Get(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return u, nil
}

func indexOf(users []User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// record appends an audit event. The collection write already happened, so
// a failure here is only logged.
func (s *Service) record(ctx context.Context, userID, eventType string, data any) {
	if s.eventStore == nil {
		return
	}
	if _, err := s.eventStore.Append(ctx, userID, AggregateType, eventType, data); err != nil {
		log.Printf("[User] Failed to record %s for %s: %v", eventType, userID, err)
	}
}
