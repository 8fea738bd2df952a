package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// WithRequestID propaga el X-Request-ID del cliente si es usable; si no,
// genera un uuid. El valor vuelve en la respuesta y queda en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerRequestID))
			if !validRequestID(rid) {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}

// validRequestID acepta ASCII imprimible sin espacios; el valor termina en
// logs y headers.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}
