// Package validation agrupa validaciones de formato de input.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

// MaxEmailLen es el largo máximo de una dirección (RFC 5321).
const MaxEmailLen = 254

// Dominio: etiquetas alfanuméricas con guiones internos, al menos un punto.
var emailDomainRe = regexp.MustCompile(`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)(?:\.(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?))+$`)

// ValidEmail acepta sólo una dirección simple: sin display name, sin
// espacios y con un dominio que tenga al menos un punto.
func ValidEmail(s string) bool {
	if s == "" || len(s) > MaxEmailLen || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && emailDomainRe.MatchString(s[at+1:])
}
