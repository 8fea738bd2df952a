package password

import "unicode"

const (
	ReasonTooShort      = "too_short"
	ReasonMissingUpper  = "missing_upper"
	ReasonMissingLower  = "missing_lower"
	ReasonMissingDigit  = "missing_digit"
	ReasonMissingSymbol = "missing_symbol"
	ReasonBlacklisted   = "blacklisted"
)

type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	Blacklist     *Blacklist
}

// DefaultPolicy: solo longitud mínima de 8 caracteres.
var DefaultPolicy = Policy{MinLength: 8}

func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, ReasonTooShort)
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, ReasonMissingUpper)
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, ReasonMissingLower)
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, ReasonMissingDigit)
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, ReasonMissingSymbol)
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, ReasonBlacklisted)
	}
	return len(reasons) == 0, reasons
}
