package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfo/backend/internal/service"
	"github.com/medinfo/backend/internal/testhelpers"
)

// memoryTokenStore is an in-memory ResetTokenStore for tests; expiry is
// checked against wall time like the Redis TTL would be.
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	email   string
	expires time.Time
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: map[string]memoryToken{}}
}

func (s *memoryTokenStore) Save(_ context.Context, token, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{email: email, expires: time.Now().Add(ttl)}
	return nil
}

func (s *memoryTokenStore) Peek(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok || time.Now().After(entry.expires) {
		return "", service.ErrInvalidResetToken
	}
	return entry.email, nil
}

func (s *memoryTokenStore) Redeem(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok || time.Now().After(entry.expires) {
		return "", service.ErrInvalidResetToken
	}
	delete(s.tokens, token)
	return entry.email, nil
}

// expire backdates a token for expiry tests.
func (s *memoryTokenStore) expire(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.tokens[token]
	entry.expires = time.Now().Add(-time.Minute)
	s.tokens[token] = entry
}

func newAuthService(t *testing.T) (*service.AuthService, *memoryTokenStore) {
	t.Helper()
	store := newMemoryTokenStore()
	return service.NewAuthService(testhelpers.SetupTestDatabase(t), "test-secret", store), store
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newAuthService(t)

	user, err := auth.Register("Jordan Lee", "Jordan@Example.com ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", user.Email)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	// Login normalizes email the same way.
	got, err := auth.Login("  JORDAN@example.COM", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Register("First", "dup@example.com", "password123")
	require.NoError(t, err)

	_, err = auth.Register("Second", "DUP@example.com", "password456")
	assert.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Register("User", "user@example.com", "password123")
	require.NoError(t, err)

	_, errUnknown := auth.Login("nobody@example.com", "password123")
	_, errWrongPass := auth.Login("user@example.com", "wrong password")

	assert.ErrorIs(t, errUnknown, service.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, service.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestTokenRoundTrip(t *testing.T) {
	auth, _ := newAuthService(t)

	user, err := auth.Register("User", "user@example.com", "password123")
	require.NoError(t, err)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)

	_, err = auth.ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestResetTokenLifecycle(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	_, err := auth.Register("User", "user@example.com", "old password 1")
	require.NoError(t, err)

	token, err := auth.CreateResetToken(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := auth.ValidateResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	require.NoError(t, auth.ResetPassword(ctx, token, "new password 1"))

	// Old password no longer works, new one does.
	_, err = auth.Login("user@example.com", "old password 1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login("user@example.com", "new password 1")
	assert.NoError(t, err)

	// The token was consumed; replay fails and the password is untouched.
	err = auth.ResetPassword(ctx, token, "attacker password")
	assert.ErrorIs(t, err, service.ErrInvalidResetToken)
	_, err = auth.Login("user@example.com", "new password 1")
	assert.NoError(t, err)
}

func TestResetTokenExpiry(t *testing.T) {
	auth, store := newAuthService(t)
	ctx := context.Background()

	_, err := auth.Register("User", "user@example.com", "password123")
	require.NoError(t, err)

	token, err := auth.CreateResetToken(ctx, "user@example.com")
	require.NoError(t, err)

	store.expire(token)

	_, err = auth.ValidateResetToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidResetToken)
	err = auth.ResetPassword(ctx, token, "new password 1")
	assert.ErrorIs(t, err, service.ErrInvalidResetToken)
}

func TestResetTokenUnknownEmail(t *testing.T) {
	auth, _ := newAuthService(t)

	token, err := auth.CreateResetToken(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}
