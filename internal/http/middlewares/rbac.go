package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/credgate/internal/domain"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// RequireRole exige que el principal tenga alguno de los roles.
// Va después de RequireAuth: sin principal responde 401.
func RequireRole(roles ...domain.Role) Middleware {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
				return
			}
			if _, ok := allowed[p.Identity.Role]; !ok {
				logger.From(r.Context()).Info("rbac: role not allowed",
					logger.Role(string(p.Identity.Role)),
					logger.Path(r.URL.Path),
				)
				httperrors.WriteError(w, r, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
