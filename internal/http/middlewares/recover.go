package middlewares

import (
	"net/http"

	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// WithRecover captura panics y devuelve un 500 con errorId en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
						logger.Stack(),
					)
					httperrors.WriteError(w, r, httperrors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
