// Package utils provides utility functions for the application.
package utils

import "strings"

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// StringOrEmpty dereferences s, returning "" for nil
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NilIfEmpty returns nil for blank strings so optional columns stay NULL
func NilIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
