package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken es el único error que ve quien llama: firma, emisor,
// audiencia, expiración o tipo incorrectos colapsan acá.
var ErrInvalidToken = errors.New("invalid or expired token")

func (i *Issuer) parserOptions() []jwtv5.ParserOption {
	return []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithAudience(i.Aud),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithLeeway(i.leeway),
		jwtv5.WithTimeFunc(i.now),
	}
}

func (i *Issuer) parse(raw string, claims jwtv5.Claims, key []byte, kind Kind) error {
	if raw == "" {
		return ErrInvalidToken
	}
	tok, err := jwtv5.ParseWithClaims(raw, claims, func(*jwtv5.Token) (any, error) {
		return key, nil
	}, i.parserOptions()...)
	if err != nil || !tok.Valid {
		// La causa real solo va al log de debug.
		logger.L().Debug("session token rejected",
			logger.Component("jwt"),
			logger.String("kind", string(kind)),
			logger.Err(err),
		)
		return ErrInvalidToken
	}
	return nil
}

// VerifyAccess valida un access token y devuelve sus claims.
func (i *Issuer) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(raw, claims, i.accessKey, KindAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh valida un refresh token y devuelve sus claims.
func (i *Issuer) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(raw, claims, i.refreshKey, KindRefresh); err != nil {
		return nil, err
	}
	return claims, nil
}

// Verify despacha por tipo esperado.
func (i *Issuer) Verify(raw string, kind Kind) (jwtv5.Claims, error) {
	switch kind {
	case KindAccess:
		c, err := i.VerifyAccess(raw)
		if err != nil {
			return nil, err
		}
		return c, nil
	case KindRefresh:
		c, err := i.VerifyRefresh(raw)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("jwt: unknown kind %q", kind)
}

// ExtractBearer devuelve el token de un header "Bearer <token>".
// Cualquier otra forma devuelve "".
func ExtractBearer(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	tok := header[len(prefix):]
	if tok == "" || strings.ContainsAny(tok, " \t\r\n") {
		return ""
	}
	return tok
}
