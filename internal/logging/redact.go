package logging

import (
	"regexp"
	"strings"
)

// Sensitive field names that should be redacted.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"auth",
	"credential",
}

// Patterns for secrets that should be redacted. The Reverb personal access
// token is an opaque hex string, so the bearer and generic patterns cover it.
var secretPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),

	// Generic long hex/base64 strings that look like secrets
	regexp.MustCompile(`(?i)(key|token|secret|password|auth)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces sensitive information in a string.
func Redact(s string) string {
	result := s

	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}

	return result
}

// RedactMap redacts sensitive fields in a map.
func RedactMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))

	for k, v := range m {
		lowerKey := strings.ToLower(k)

		isSensitive := false
		for _, field := range sensitiveFields {
			if strings.Contains(lowerKey, field) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			result[k] = RedactedValue
		} else if nested, ok := v.(map[string]interface{}); ok {
			result[k] = RedactMap(nested)
		} else if str, ok := v.(string); ok {
			result[k] = Redact(str)
		} else {
			result[k] = v
		}
	}

	return result
}

// RedactHeaders redacts sensitive HTTP header values, returning a safe copy.
func RedactHeaders(headers map[string][]string) map[string][]string {
	result := make(map[string][]string, len(headers))

	for k, values := range headers {
		if IsSensitiveField(k) {
			result[k] = []string{RedactedValue}
			continue
		}
		safe := make([]string, len(values))
		for i, v := range values {
			safe[i] = Redact(v)
		}
		result[k] = safe
	}

	return result
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
