package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, email string) *domain.Identity {
	t.Helper()
	it, err := s.Create(context.Background(), domain.CreateIdentityInput{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    " Ada ",
		LastName:     "Lovelace",
	})
	require.NoError(t, err)
	return it
}

func TestCreate_NormalizesAndRejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	it := seed(t, s, "  Ada@Example.COM ")
	assert.Equal(t, "ada@example.com", it.Email)
	assert.Equal(t, "Ada", it.FirstName)
	assert.Equal(t, domain.RoleUser, it.Role)
	assert.True(t, it.IsActive)
	assert.False(t, it.IsVerified)
	assert.Equal(t, domain.DefaultPreferences, it.Preferences)

	_, err := s.Create(ctx, domain.CreateIdentityInput{Email: "ADA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := s.GetByEmail(ctx, "ada@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, it.ID, got.ID)

	_, err = s.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReturnedIdentityIsACopy(t *testing.T) {
	s := New()
	it := seed(t, s, "a@x.com")
	it.IsActive = false

	got, err := s.GetByID(context.Background(), it.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestConsume_AppliesTransitionAndClearsSlot(t *testing.T) {
	s := New()
	ctx := context.Background()
	it := seed(t, s, "a@x.com")
	now := time.Now()

	require.NoError(t, s.SetSingleUseToken(ctx, it.ID, domain.TokenEmailVerify, "h1", now.Add(time.Hour)))

	got, err := s.ConsumeSingleUseToken(ctx, domain.TokenEmailVerify, "h1", now, domain.Transition{MarkVerified: true})
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Empty(t, got.VerifyTokenHash)
	assert.Nil(t, got.VerifyTokenExpiresAt)

	_, err = s.ConsumeSingleUseToken(ctx, domain.TokenEmailVerify, "h1", now, domain.Transition{MarkVerified: true})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestConsume_RejectsExpiredWrongKindAndReplaced(t *testing.T) {
	s := New()
	ctx := context.Background()
	it := seed(t, s, "a@x.com")
	now := time.Now()

	require.NoError(t, s.SetSingleUseToken(ctx, it.ID, domain.TokenPasswordReset, "old", now.Add(10*time.Minute)))
	require.NoError(t, s.SetSingleUseToken(ctx, it.ID, domain.TokenPasswordReset, "new", now.Add(10*time.Minute)))

	_, err := s.ConsumeSingleUseToken(ctx, domain.TokenPasswordReset, "old", now, domain.Transition{})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound, "replaced token")

	_, err = s.ConsumeSingleUseToken(ctx, domain.TokenEmailVerify, "new", now, domain.Transition{})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound, "wrong kind")

	// La expiración es exclusiva: exp == now ya no es válido.
	_, err = s.ConsumeSingleUseToken(ctx, domain.TokenPasswordReset, "new", now.Add(10*time.Minute), domain.Transition{})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound, "expired")

	got, err := s.ConsumeSingleUseToken(ctx, domain.TokenPasswordReset, "new", now, domain.Transition{PasswordHash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
}

func TestConsume_ConcurrentOnlyOneWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	it := seed(t, s, "a@x.com")
	now := time.Now()
	require.NoError(t, s.SetSingleUseToken(ctx, it.ID, domain.TokenEmailVerify, "race", now.Add(time.Hour)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ConsumeSingleUseToken(ctx, domain.TokenEmailVerify, "race", now, domain.Transition{MarkVerified: true}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestClearSingleUseToken(t *testing.T) {
	s := New()
	ctx := context.Background()
	it := seed(t, s, "a@x.com")
	now := time.Now()
	require.NoError(t, s.SetSingleUseToken(ctx, it.ID, domain.TokenPasswordReset, "h", now.Add(time.Minute)))
	require.NoError(t, s.ClearSingleUseToken(ctx, it.ID, domain.TokenPasswordReset))

	_, err := s.ConsumeSingleUseToken(ctx, domain.TokenPasswordReset, "h", now, domain.Transition{})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	assert.ErrorIs(t, s.ClearSingleUseToken(ctx, "missing", domain.TokenPasswordReset), domain.ErrNotFound)
}

func TestMutations(t *testing.T) {
	s := New()
	ctx := context.Background()
	it := seed(t, s, "a@x.com")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.UpdatePassword(ctx, it.ID, "new-hash"))
	require.NoError(t, s.TouchLastLogin(ctx, it.ID, at))
	require.NoError(t, s.SetActive(ctx, it.ID, false))
	require.NoError(t, s.SetRole(ctx, it.ID, domain.RoleAdmin))

	got, err := s.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))
	assert.False(t, got.IsActive)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	assert.ErrorIs(t, s.SetActive(ctx, "missing", true), domain.ErrNotFound)
}
