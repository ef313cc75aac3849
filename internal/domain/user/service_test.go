package user

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedAdmin() []User {
	return []User{{ID: "admin-1", Username: "admin", Password: "admin", Role: RoleAdmin}}
}

type testEnv struct {
	service    *Service
	backend    *kv.MemoryBackend
	eventStore *mocks.MockEventStore
	session    *PersistentSession
}

func newTestUserService() testEnv {
	backend := kv.NewMemoryBackend()
	eventStore := mocks.NewMockEventStore()
	session := NewPersistentSession(backend)
	service := NewService(backend, eventStore, session, auth.PlaintextHasher{}, seedAdmin)
	return testEnv{service: service, backend: backend, eventStore: eventStore, session: session}
}

// ============================================
// Email Validation Tests
// ============================================

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"test@example.com", true},
		{"user.name+tag@sub.example.org", true},
		{"USER@EXAMPLE.COM", true},
		{"", false},
		{"notanemail", false},
		{"@example.com", false},
		{"user@", false},
		{"user@domain", false},
		{"user space@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidEmail(tt.email))
		})
	}
}

// ============================================
// Register Tests
// ============================================

func TestService_Register_Success(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	u, err := env.service.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "wonderland",
		Phone:    "555-0100",
		Email:    "alice@example.com",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "555-0100", u.Phone)

	users, err := env.service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2, "seed admin plus alice")

	require.Len(t, env.eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserRegistered, env.eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, env.eventStore.AppendCalls[0].AggregateType)
}

func TestService_Register_DoesNotLogIn(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	_, err := env.service.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	current, err := env.service.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestService_Register_IDsAreUnique(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	seen := map[string]bool{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		u, err := env.service.Register(ctx, RegisterInput{Username: name, Password: "pw"})
		require.NoError(t, err)
		assert.False(t, seen[u.ID])
		seen[u.ID] = true
	}
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	_, err := env.service.Register(ctx, RegisterInput{Username: "alice", Password: "one"})
	require.NoError(t, err)
	before := env.backend.Snapshot()

	u, err := env.service.Register(ctx, RegisterInput{Username: "alice", Password: "two"})

	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Nil(t, u)
	assert.Equal(t, before, env.backend.Snapshot())

	users, err := env.service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestService_Register_DuplicateOfSeededAccount(t *testing.T) {
	env := newTestUserService()

	_, err := env.service.Register(context.Background(), RegisterInput{Username: "admin", Password: "x"})

	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestService_Register_UsernameIsCaseSensitive(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	_, err := env.service.Register(ctx, RegisterInput{Username: "Alice", Password: "pw"})
	require.NoError(t, err)
	_, err = env.service.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	assert.NoError(t, err)
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"empty username", RegisterInput{Username: "", Password: "pw"}, ErrInvalidUsername},
		{"blank username", RegisterInput{Username: "   ", Password: "pw"}, ErrInvalidUsername},
		{"empty password", RegisterInput{Username: "bob", Password: ""}, ErrInvalidPassword},
		{"bad email", RegisterInput{Username: "bob", Password: "pw", Email: "bob@"}, ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestUserService()
			u, err := env.service.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, u)
			assert.Empty(t, env.eventStore.AppendCalls)
		})
	}
}

// ============================================
// Credentials / Login Tests
// ============================================

func TestService_LoginScenario(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	registered, err := env.service.Register(ctx, RegisterInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	u, err := env.service.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, u)

	u, err = env.service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	current, err := env.service.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, registered.ID, current.ID)
}

func TestService_FindByCredentials(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		found    bool
	}{
		{"exact match", "admin", "admin", true},
		{"wrong password", "admin", "Admin", false},
		{"wrong username case", "ADMIN", "admin", false},
		{"unknown user", "ghost", "admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := env.service.FindByCredentials(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.found, u != nil)
		})
	}
}

func TestService_BcryptMode(t *testing.T) {
	backend := kv.NewMemoryBackend()
	service := NewService(backend, mocks.NewMockEventStore(), NewPersistentSession(backend),
		auth.BcryptHasher{Cost: bcrypt.MinCost}, seedAdmin)
	ctx := context.Background()

	u, err := service.Register(ctx, RegisterInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, auth.IsBcryptHash(u.Password))

	found, err := service.FindByCredentials(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NotNil(t, found)

	// The plaintext seed account still logs in.
	admin, err := service.FindByCredentials(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.NotNil(t, admin)
}

func TestService_Logout(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	_, err := env.service.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	require.NoError(t, env.service.Logout(ctx))

	current, err := env.service.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Len(t, env.eventStore.CallsOfType(EventUserLoggedOut), 1)
}

// ============================================
// Update Tests
// ============================================

func TestService_Update_RefreshesSession(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	u, err := env.service.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = env.service.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	u.Address = "1 Main St"
	u.Password = ""
	require.NoError(t, env.service.Update(ctx, *u))

	sessionCopy, err := env.session.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, sessionCopy)
	assert.Equal(t, "1 Main St", sessionCopy.Address)
	assert.Equal(t, "pw", sessionCopy.Password, "empty password keeps the stored one")
}

func TestService_Update_OtherUserLeavesSession(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	bob, err := env.service.Register(ctx, RegisterInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	_, err = env.service.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	bob.Phone = "555"
	require.NoError(t, env.service.Update(ctx, *bob))

	sessionCopy, err := env.session.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", sessionCopy.ID)

	stored, ok, err := env.service.Get(ctx, bob.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "555", stored.Phone)
}

func TestService_Update_MissingIDIsNoOp(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()
	before := env.backend.Snapshot()

	err := env.service.Update(ctx, User{ID: "nope", Username: "admin", Role: RoleUser})

	require.NoError(t, err)
	assert.Equal(t, before, env.backend.Snapshot())
	assert.Empty(t, env.eventStore.AppendCalls)
}

func TestService_Update_RejectsTakenUsername(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	bob, err := env.service.Register(ctx, RegisterInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	bob.Username = "admin"
	assert.ErrorIs(t, env.service.Update(ctx, *bob), ErrDuplicateUsername)
}

func TestService_Update_RejectsUnknownRole(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	err := env.service.Update(ctx, User{ID: "admin-1", Username: "admin", Role: "root"})

	assert.ErrorIs(t, err, ErrInvalidRole)
}

// ============================================
// Delete Tests
// ============================================

func TestService_Delete_ActiveUserLogsOut(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()

	u, err := env.service.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = env.service.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, env.service.Delete(ctx, u.ID))

	sessionCopy, err := env.session.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, sessionCopy)

	_, ok, err := env.service.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Delete_MissingIDIsNoOp(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()
	_, err := env.service.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	before := env.backend.Snapshot()

	require.NoError(t, env.service.Delete(ctx, "nope"))

	assert.Equal(t, before, env.backend.Snapshot())
}

func TestService_CurrentUser_DeletedAccount(t *testing.T) {
	env := newTestUserService()
	ctx := context.Background()
	require.NoError(t, env.session.SetCurrentUser(ctx, &User{ID: "gone", Username: "gone"}))

	current, err := env.service.CurrentUser(ctx)

	require.NoError(t, err)
	assert.Nil(t, current)
}

// ============================================
// TokenSession Tests
// ============================================

func TestTokenSession_RoundTrip(t *testing.T) {
	jwt := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
	session := NewTokenSession(jwt, "")
	ctx := context.Background()

	current, err := session.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	require.NoError(t, session.SetCurrentUser(ctx, &User{ID: "u1", Username: "alice", Role: RoleAdmin}))
	token := session.Token()
	require.NotEmpty(t, token)

	// A new invocation presenting the token sees the same identity.
	next := NewTokenSession(jwt, token)
	current, err = next.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.ID)
	assert.Equal(t, "alice", current.Username)
	assert.True(t, current.IsAdmin())

	require.NoError(t, next.Clear(ctx))
	assert.Empty(t, next.Token())
}

func TestTokenSession_ExpiredToken(t *testing.T) {
	jwt := auth.NewJWTService("test-secret-key-for-testing-purposes", -time.Minute)
	session := NewTokenSession(jwt, "")
	ctx := context.Background()
	require.NoError(t, session.SetCurrentUser(ctx, &User{ID: "u1", Username: "alice", Role: RoleUser}))

	current, err := session.CurrentUser(ctx)

	assert.True(t, IsTokenError(err))
	assert.Nil(t, current)
}

func TestService_WithTokenSession(t *testing.T) {
	backend := kv.NewMemoryBackend()
	jwt := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
	session := NewTokenSession(jwt, "")
	service := NewService(backend, nil, session, nil, seedAdmin)
	ctx := context.Background()

	_, err := service.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	current, err := service.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "admin-1", current.ID)

	// The token session never writes currentUser.
	_, ok, err := backend.Get(ctx, CurrentUserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
