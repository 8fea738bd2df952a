package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/google/uuid"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour

	// MinKeyLen es el largo mínimo de cada clave HMAC.
	MinKeyLen = 32
)

var (
	ErrKeyTooShort = fmt.Errorf("jwt: signing keys must be at least %d bytes", MinKeyLen)
	ErrSameKeys    = errors.New("jwt: access and refresh keys must differ")
	ErrNoIssuer    = errors.New("jwt: issuer and audience are required")
)

type Config struct {
	Issuer     string
	Audience   string
	AccessKey  []byte
	RefreshKey []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway tolera desfasaje de reloj al validar exp/iat. Default 0.
	Leeway time.Duration
	Now    func() time.Time
}

// Issuer firma y valida tokens de sesión HS256. Cada tipo usa su propia clave:
// filtrar una no permite falsificar la otra.
type Issuer struct {
	Iss        string
	Aud        string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	accessKey  []byte
	refreshKey []byte
	leeway     time.Duration
	now        func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, ErrNoIssuer
	}
	if len(cfg.AccessKey) < MinKeyLen || len(cfg.RefreshKey) < MinKeyLen {
		return nil, ErrKeyTooShort
	}
	if string(cfg.AccessKey) == string(cfg.RefreshKey) {
		return nil, ErrSameKeys
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{
		Iss:        cfg.Issuer,
		Aud:        cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		accessKey:  append([]byte(nil), cfg.AccessKey...),
		refreshKey: append([]byte(nil), cfg.RefreshKey...),
		leeway:     cfg.Leeway,
		now:        cfg.Now,
	}, nil
}

func (i *Issuer) registered(sub string, ttl time.Duration) (jwtv5.RegisteredClaims, time.Time) {
	now := i.now()
	exp := now.Add(ttl)
	return jwtv5.RegisteredClaims{
		Issuer:    i.Iss,
		Subject:   sub,
		Audience:  jwtv5.ClaimStrings{i.Aud},
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}, exp
}

// IssueAccess firma un access token con sub, email y role de la identidad.
func (i *Issuer) IssueAccess(id *domain.Identity) (string, time.Time, error) {
	if id == nil || id.ID == "" {
		return "", time.Time{}, errors.New("jwt: identity required")
	}
	rc, exp := i.registered(id.ID, i.AccessTTL)
	claims := &AccessClaims{
		Email:            id.Email,
		Role:             string(id.Role),
		Type:             KindAccess,
		RegisteredClaims: rc,
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(i.accessKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign access: %w", err)
	}
	return signed, exp, nil
}

// IssueRefresh firma un refresh token que solo lleva el sub.
func (i *Issuer) IssueRefresh(identityID string) (string, time.Time, error) {
	if identityID == "" {
		return "", time.Time{}, errors.New("jwt: identity id required")
	}
	rc, exp := i.registered(identityID, i.RefreshTTL)
	claims := &RefreshClaims{Type: KindRefresh, RegisteredClaims: rc}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(i.refreshKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign refresh: %w", err)
	}
	return signed, exp, nil
}
