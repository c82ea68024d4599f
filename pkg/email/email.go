// Package email holds small helpers for working with user email addresses.
package email

import (
	"strings"
	"unicode"
)

// DeriveDisplayName builds a presentable default display name from the local
// part of an address ("ana.novak+st@example.com" -> "Ana Novak"). Used when a
// profile has no display name yet.
func DeriveDisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Member"
	}

	// "+tag" suffixes are address routing, not name material.
	if len(parts) > 1 {
		if plus := strings.IndexByte(localPart, '+'); plus > 0 {
			trimmed := localPart[:plus]
			parts = strings.FieldsFunc(trimmed, func(r rune) bool {
				return r == '.' || r == '_' || r == '-'
			})
		}
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

// Normalize lowercases and trims an address for use as a lookup key.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid is a cheap structural check; real validation happens on delivery.
func Valid(address string) bool {
	at := strings.IndexByte(address, '@')
	if at <= 0 || at == len(address)-1 {
		return false
	}
	dot := strings.LastIndexByte(address[at:], '.')
	return dot > 1 && at+dot < len(address)-1
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
