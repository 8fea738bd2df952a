// Package util tiene helpers chicos sin dependencias del dominio.
package util

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaskEmail deja la primera letra del usuario y del primer label del
// dominio: "ana@example.com" -> "a…@e….com". Para logs.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	i := strings.LastIndexByte(s, '@')
	if i <= 0 {
		return "***"
	}
	user, dom := s[:i], s[i+1:]
	parts := strings.Split(dom, ".")
	parts[0] = first(parts[0])
	return first(user) + "@" + strings.Join(parts, ".")
}

func first(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size == len(s) {
		return s
	}
	return string(r) + "…"
}

// MaskDSN oculta la contraseña de un DSN con forma de URL. Un DSN
// key=value se oculta completo.
func MaskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	return u.Redacted()
}
