// Package admin contiene la administración de identidades (rol admin).
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/credgate/internal/domain"
	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

var ErrUserNotFound = errors.New("user not found")

type UsersService interface {
	Get(ctx context.Context, id string) (*dto.UserSummary, error)
	// SetStatus activa o desactiva la identidad. Una identidad inactiva no
	// pasa RequireAuth ni /refresh.
	SetStatus(ctx context.Context, id string, active bool) (*dto.UserSummary, error)
}

type Deps struct {
	Identities domain.IdentityRepository
}

// Services agrupa todos los services del dominio admin.
type Services struct {
	Users UsersService
}

func NewServices(d Deps) Services {
	return Services{Users: &usersService{repo: d.Identities}}
}

type usersService struct {
	repo domain.IdentityRepository
}

func (s *usersService) Get(ctx context.Context, id string) (*dto.UserSummary, error) {
	it, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	out := dto.NewUserSummary(it)
	return &out, nil
}

func (s *usersService) SetStatus(ctx context.Context, id string, active bool) (*dto.UserSummary, error) {
	err := s.repo.SetActive(ctx, id, active)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	logger.From(ctx).Info("identity status changed",
		logger.Layer("service"),
		logger.Component("admin.users"),
		logger.String("target_id", id),
		logger.Bool("active", active),
	)
	return s.Get(ctx, id)
}
