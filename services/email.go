package services

import "strings"

// NormalizeEmail lower-cases the domain part of an address and leaves the local part
// untouched, since only the domain is case-insensitive. Surrounding whitespace is trimmed.
// Strings without an "@" are returned as given.
func NormalizeEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	at := strings.LastIndex(trimmed, "@")
	if at < 0 {
		return email
	}
	return trimmed[:at] + "@" + strings.ToLower(trimmed[at+1:])
}
