// Package memory implementa domain.IdentityRepository en proceso.
// Pensado para desarrollo y tests; no sobrevive reinicios.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/google/uuid"
)

type Store struct {
	mu      sync.Mutex
	byID    map[string]*domain.Identity
	byEmail map[string]string
	// tokens indexa hash -> identity id por tipo de token.
	tokens map[domain.TokenKind]map[string]string
	now    func() time.Time
}

var _ domain.IdentityRepository = (*Store)(nil)

func New() *Store {
	return &Store{
		byID:    make(map[string]*domain.Identity),
		byEmail: make(map[string]string),
		tokens: map[domain.TokenKind]map[string]string{
			domain.TokenEmailVerify:   {},
			domain.TokenPasswordReset: {},
		},
		now: time.Now,
	}
}

// WithClock reemplaza el reloj usado para CreatedAt/UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func clone(in *domain.Identity) *domain.Identity {
	out := *in
	if in.LastLoginAt != nil {
		t := *in.LastLoginAt
		out.LastLoginAt = &t
	}
	if in.VerifyTokenExpiresAt != nil {
		t := *in.VerifyTokenExpiresAt
		out.VerifyTokenExpiresAt = &t
	}
	if in.ResetTokenExpiresAt != nil {
		t := *in.ResetTokenExpiresAt
		out.ResetTokenExpiresAt = &t
	}
	return &out
}

func (s *Store) Create(_ context.Context, in domain.CreateIdentityInput) (*domain.Identity, error) {
	email := domain.NormalizeEmail(in.Email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byEmail[email]; dup {
		return nil, domain.ErrEmailTaken
	}
	role := in.Role
	if !role.Valid() {
		role = domain.RoleUser
	}
	now := s.now().UTC()
	id := &domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: in.PasswordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		Role:         role,
		Preferences:  domain.DefaultPreferences,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[id.ID] = id
	s.byEmail[email] = id.ID
	return clone(id), nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(it), nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) SetSingleUseToken(_ context.Context, id string, kind domain.TokenKind, hash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.setSlot(it, kind, hash, &expiresAt)
	return nil
}

func (s *Store) ClearSingleUseToken(_ context.Context, id string, kind domain.TokenKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.setSlot(it, kind, "", nil)
	return nil
}

// setSlot reemplaza el slot y mantiene el índice. Requiere s.mu.
func (s *Store) setSlot(it *domain.Identity, kind domain.TokenKind, hash string, exp *time.Time) {
	idx := s.tokens[kind]
	if prev, _ := it.TokenSlot(kind); prev != "" {
		delete(idx, prev)
	}
	if hash != "" {
		t := exp.UTC()
		exp = &t
		idx[hash] = it.ID
	}
	it.SetTokenSlot(kind, hash, exp)
	it.UpdatedAt = s.now().UTC()
}

func (s *Store) ConsumeSingleUseToken(_ context.Context, kind domain.TokenKind, hash string, now time.Time, t domain.Transition) (*domain.Identity, error) {
	if hash == "" {
		return nil, domain.ErrTokenNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.tokens[kind]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	id, ok := idx[hash]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	it := s.byID[id]
	stored, exp := it.TokenSlot(kind)
	if stored != hash || exp == nil || !exp.After(now) {
		return nil, domain.ErrTokenNotFound
	}
	s.setSlot(it, kind, "", nil)
	t.Apply(it)
	return clone(it), nil
}

func (s *Store) UpdatePassword(_ context.Context, id, hash string) error {
	return s.mutate(id, func(it *domain.Identity) { it.PasswordHash = hash })
}

func (s *Store) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	at = at.UTC()
	return s.mutate(id, func(it *domain.Identity) { it.LastLoginAt = &at })
}

func (s *Store) SetActive(_ context.Context, id string, active bool) error {
	return s.mutate(id, func(it *domain.Identity) { it.IsActive = active })
}

func (s *Store) SetRole(_ context.Context, id string, role domain.Role) error {
	return s.mutate(id, func(it *domain.Identity) { it.Role = role })
}

func (s *Store) mutate(id string, fn func(*domain.Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(it)
	it.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
