package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Tickers: a leading letter, then letters, digits, dots or hyphens (BRK.B, RDS-A).
var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{3,80}$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeSymbol upper-cases and trims a ticker. ok is false when the
// result is not a plausible ticker.
func NormalizeSymbol(symbol string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return s, symbolRe.MatchString(s)
}

func IsValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}
