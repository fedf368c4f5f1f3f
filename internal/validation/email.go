// Package validation provides input validation helpers shared by the API handlers.
package validation

import "regexp"

// emailPattern matches local@domain.tld with no whitespace. Intentionally
// permissive — the address book is pre-provisioned, so this only guards
// against obvious typos, not RFC 5322 conformance.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
