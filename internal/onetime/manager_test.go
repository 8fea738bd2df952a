package onetime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/store/memory"
	tokens "github.com/dropDatabas3/credgate/internal/security/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setup(t *testing.T) (*Manager, *memory.Store, *clock, *domain.Identity) {
	t.Helper()
	repo := memory.New()
	it, err := repo.Create(context.Background(), domain.CreateIdentityInput{Email: "a@x.com", PasswordHash: "h0"})
	require.NoError(t, err)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(repo, Config{Now: c.Now})
	return m, repo, c, it
}

func TestIssue_StoresOnlyDigest(t *testing.T) {
	m, repo, c, it := setup(t)
	ctx := context.Background()

	plain, err := m.Issue(ctx, domain.TokenEmailVerify, it.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, plain)

	got, err := repo.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, tokens.SHA256Hex(plain), got.VerifyTokenHash)
	assert.NotEqual(t, plain, got.VerifyTokenHash)
	require.NotNil(t, got.VerifyTokenExpiresAt)
	assert.True(t, c.Now().Add(24*time.Hour).Equal(*got.VerifyTokenExpiresAt))
}

func TestConsume_OnceOnly(t *testing.T) {
	m, _, _, it := setup(t)
	ctx := context.Background()

	plain, err := m.Issue(ctx, domain.TokenEmailVerify, it.ID)
	require.NoError(t, err)

	got, err := m.Consume(ctx, domain.TokenEmailVerify, plain, domain.Transition{MarkVerified: true})
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	_, err = m.Consume(ctx, domain.TokenEmailVerify, plain, domain.Transition{MarkVerified: true})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConsume_ExpiredIsIndistinguishableFromWrong(t *testing.T) {
	m, _, c, it := setup(t)
	ctx := context.Background()

	plain, err := m.Issue(ctx, domain.TokenPasswordReset, it.ID)
	require.NoError(t, err)

	c.Advance(10*time.Minute + time.Second)
	_, errExpired := m.Consume(ctx, domain.TokenPasswordReset, plain, domain.Transition{PasswordHash: "h1"})
	_, errWrong := m.Consume(ctx, domain.TokenPasswordReset, "not-a-token", domain.Transition{PasswordHash: "h1"})
	_, errEmpty := m.Consume(ctx, domain.TokenPasswordReset, "  ", domain.Transition{PasswordHash: "h1"})

	assert.Equal(t, ErrInvalidToken, errExpired)
	assert.Equal(t, ErrInvalidToken, errWrong)
	assert.Equal(t, ErrInvalidToken, errEmpty)
}

func TestConsume_JustBeforeExpiry(t *testing.T) {
	m, _, c, it := setup(t)
	ctx := context.Background()

	plain, err := m.Issue(ctx, domain.TokenPasswordReset, it.ID)
	require.NoError(t, err)
	c.Advance(10*time.Minute - time.Nanosecond)

	got, err := m.Consume(ctx, domain.TokenPasswordReset, plain, domain.Transition{PasswordHash: "h1"})
	require.NoError(t, err)
	assert.Equal(t, "h1", got.PasswordHash)
}

func TestIssue_ReissueInvalidatesPrevious(t *testing.T) {
	m, _, _, it := setup(t)
	ctx := context.Background()

	first, err := m.Issue(ctx, domain.TokenEmailVerify, it.ID)
	require.NoError(t, err)
	second, err := m.Issue(ctx, domain.TokenEmailVerify, it.ID)
	require.NoError(t, err)

	_, err = m.Consume(ctx, domain.TokenEmailVerify, first, domain.Transition{MarkVerified: true})
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Consume(ctx, domain.TokenEmailVerify, second, domain.Transition{MarkVerified: true})
	assert.NoError(t, err)
}

func TestKindsAreIndependent(t *testing.T) {
	m, _, _, it := setup(t)
	ctx := context.Background()

	verify, err := m.Issue(ctx, domain.TokenEmailVerify, it.ID)
	require.NoError(t, err)
	_, err = m.Issue(ctx, domain.TokenPasswordReset, it.ID)
	require.NoError(t, err)

	_, err = m.Consume(ctx, domain.TokenPasswordReset, verify, domain.Transition{PasswordHash: "h1"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClear(t *testing.T) {
	m, _, _, it := setup(t)
	ctx := context.Background()

	plain, err := m.Issue(ctx, domain.TokenPasswordReset, it.ID)
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, domain.TokenPasswordReset, it.ID))

	_, err = m.Consume(ctx, domain.TokenPasswordReset, plain, domain.Transition{PasswordHash: "h1"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnknownKindAndStoreErrors(t *testing.T) {
	m, _, _, it := setup(t)
	ctx := context.Background()

	_, err := m.Issue(ctx, domain.TokenKind("magic"), it.ID)
	assert.Error(t, err)

	_, err = m.Issue(ctx, domain.TokenEmailVerify, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	broken := NewManager(failingRepo{memory.New()}, Config{})
	_, err = broken.Consume(ctx, domain.TokenEmailVerify, "tok", domain.Transition{})
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestWindows(t *testing.T) {
	m := NewManager(memory.New(), Config{VerifyWindow: time.Hour})
	assert.Equal(t, time.Hour, m.Window(domain.TokenEmailVerify))
	assert.Equal(t, DefaultResetWindow, m.Window(domain.TokenPasswordReset))
}

var errDown = errors.New("store down")

type failingRepo struct{ *memory.Store }

func (failingRepo) ConsumeSingleUseToken(context.Context, domain.TokenKind, string, time.Time, domain.Transition) (*domain.Identity, error) {
	return nil, errDown
}
