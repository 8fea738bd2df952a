package helpers

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig describe la cookie del refresh token.
type CookieConfig struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

// SetRefreshCookie emite la cookie HttpOnly, SameSite=Strict, con MaxAge = ttl.
func SetRefreshCookie(w http.ResponseWriter, cfg CookieConfig, value string, ttl time.Duration) {
	http.SetCookie(w, buildCookie(cfg, value, ttl))
}

// ClearRefreshCookie expira la cookie con los mismos atributos.
func ClearRefreshCookie(w http.ResponseWriter, cfg CookieConfig) {
	ck := buildCookie(cfg, "", 0)
	ck.Expires = time.Unix(0, 0).UTC()
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

// RefreshCookie devuelve el valor de la cookie o "" si no vino.
func RefreshCookie(r *http.Request, cfg CookieConfig) string {
	ck, err := r.Cookie(cfg.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func buildCookie(cfg CookieConfig, value string, ttl time.Duration) *http.Cookie {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	ck := &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if strings.TrimSpace(cfg.Domain) != "" {
		ck.Domain = cfg.Domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}
