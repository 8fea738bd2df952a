package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/credgate/internal/domain"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	jwtx "github.com/dropDatabas3/credgate/internal/jwt"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// AccessVerifier valida access tokens. *jwtx.Issuer lo implementa.
type AccessVerifier interface {
	VerifyAccess(raw string) (*jwtx.AccessClaims, error)
}

// IdentityLoader resuelve la identidad del subject del token.
type IdentityLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
}

type AuthConfig struct {
	Issuer     AccessVerifier
	Identities IdentityLoader
}

var (
	errNoBearer = errors.New("missing bearer token")
	errInactive = errors.New("identity inactive")
)

// authenticate valida el bearer y carga la identidad actual. El rol y el
// estado salen del store, no del token.
func authenticate(r *http.Request, cfg AuthConfig) (*Principal, error) {
	raw := jwtx.ExtractBearer(r.Header.Get("Authorization"))
	if raw == "" {
		return nil, errNoBearer
	}
	claims, err := cfg.Issuer.VerifyAccess(raw)
	if err != nil {
		return nil, err
	}
	ident, err := cfg.Identities.GetByID(r.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}
	if !ident.IsActive {
		return nil, errInactive
	}
	return &Principal{Identity: ident, Claims: claims}, nil
}

// attach deja el principal y el user_id en el logger del request.
func attach(r *http.Request, p *Principal) *http.Request {
	ctx := WithPrincipal(r.Context(), p)
	ctx = logger.WithFields(ctx, logger.UserID(p.Identity.ID), logger.Role(string(p.Identity.Role)))
	return r.WithContext(ctx)
}

// RequireAuth exige un access token válido de una identidad activa.
func RequireAuth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authenticate(r, cfg)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				appErr := httperrors.ErrSessionInvalid
				switch {
				case errors.Is(err, errNoBearer):
					appErr = httperrors.ErrUnauthorized
				case errors.Is(err, errInactive):
					appErr = httperrors.ErrAccountInactive
				case !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, jwtx.ErrInvalidToken):
					logger.From(r.Context()).Warn("auth: identity lookup failed", logger.Err(err))
				}
				httperrors.WriteError(w, r, appErr)
				return
			}
			next.ServeHTTP(w, attach(r, p))
		})
	}
}

// OptionalAuth adjunta el principal si el token es válido; si no, sigue
// como anónimo.
func OptionalAuth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := authenticate(r, cfg); err == nil {
				r = attach(r, p)
			}
			next.ServeHTTP(w, r)
		})
	}
}
