package middlewares

import (
	"context"

	"github.com/dropDatabas3/credgate/internal/domain"
	jwtx "github.com/dropDatabas3/credgate/internal/jwt"
)

type ctxKey int

const (
	ctxRequestIDKey ctxKey = iota
	ctxPrincipalKey
)

// Principal es la identidad autenticada del request.
type Principal struct {
	Identity *domain.Identity
	Claims   *jwtx.AccessClaims
}

// WithPrincipal inyecta el principal en el contexto.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

// PrincipalFrom devuelve el principal si RequireAuth/OptionalAuth lo adjuntó.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxPrincipalKey).(*Principal)
	return p, ok && p != nil
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}
