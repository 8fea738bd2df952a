// Package health contiene los services de health check.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/health"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// Pinger es cualquier dependencia que sabe reportar si está disponible.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	// Checks se evalúan en /readyz; la clave es el nombre del componente.
	Checks  map[string]Pinger
	Version string
	Timeout time.Duration
	Now     func() time.Time
}

type HealthService interface {
	// Ready devuelve el detalle y si todos los componentes respondieron.
	Ready(ctx context.Context) (dto.HealthResponse, bool)
}

// Services agrupa todos los services del dominio health.
type Services struct {
	Health HealthService
}

// NewServices crea el agregador de services health.
func NewServices(d Deps) Services {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return Services{Health: &healthService{deps: d}}
}

type healthService struct {
	deps Deps
}

func (s *healthService) Ready(ctx context.Context) (dto.HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus, len(s.deps.Checks)),
		Version:    s.deps.Version,
		Timestamp:  s.deps.Now().UTC(),
	}
	ok := true
	for name, p := range s.deps.Checks {
		if err := p.Ping(ctx); err != nil {
			ok = false
			logger.From(ctx).Warn("readiness check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = dto.HealthStatus{Status: "error", Message: "unavailable"}
			continue
		}
		resp.Components[name] = dto.HealthStatus{Status: "ok"}
	}
	if !ok {
		resp.Status = "unavailable"
	}
	return resp, ok
}
