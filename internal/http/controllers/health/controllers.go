// Package health contiene los controllers de health check.
package health

import (
	"net/http"

	"github.com/dropDatabas3/credgate/internal/http/helpers"
	svc "github.com/dropDatabas3/credgate/internal/http/services/health"
)

// Controllers agrupa todos los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador de controllers health.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Health: &HealthController{service: s.Health}}
}

type HealthController struct {
	service svc.HealthService
}

// Live maneja GET /healthz: el proceso responde.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	helpers.OK(w, http.StatusOK, "ok", nil)
}

// Ready maneja GET /readyz: 503 si alguna dependencia no responde.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	resp, ok := c.service.Ready(r.Context())
	if !ok {
		helpers.WriteJSON(w, http.StatusServiceUnavailable, struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
			Data    any    `json:"data"`
		}{false, "Service unavailable", resp})
		return
	}
	helpers.OK(w, http.StatusOK, "ready", resp)
}
