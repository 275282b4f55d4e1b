// Package util provides common utility functions used across the fleet daemon.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// ParseStringArray parses a stringified array of quoted strings.
// Input format: ["str1","str2","str3"]
// Vehicles send capability lists and tag sets in this shape. An input that
// is not a bracketed array yields nil.
func ParseStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []string{}
	}

	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, FixEscapeQuotes(TrimQuotes(strings.TrimSpace(p))))
	}
	return out
}
