package validation

import (
	"crypto/subtle"
	"net/url"
	"strings"
)

// NormalizeKeyword collapses internal whitespace and lowercases a keyword so
// duplicate checks are stable. Brief keywords are search phrases, not slugs.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.Join(strings.Fields(keyword), " "))
}

// ValidateKeyword checks a keyword is non-empty and fits the column.
func ValidateKeyword(keyword string) bool {
	return keyword != "" && len(keyword) <= 255
}

// ValidatePriority checks the 1-5 priority range.
func ValidatePriority(priority int) bool {
	return priority >= 1 && priority <= 5
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https
// only). Applied to worker-supplied post URLs before storing them.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// TokenEqual compares a provided shared-secret token in constant time.
// An empty expected token never matches, so an unset secret fails closed.
func TokenEqual(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
