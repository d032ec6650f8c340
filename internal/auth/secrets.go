// Package auth derives signing secrets from a service definition and issues
// signed service tokens. Secret material is never written to logs.
package auth

import (
	"os"
	"strings"
	"unicode"

	apperrors "stagectl/internal/errors"
)

// Secrets is the ordered list of signing secrets. The first entry signs newly
// issued tokens; the rest exist for verification during rotation.
type Secrets []string

// Enabled reports whether token authentication is configured.
func (s Secrets) Enabled() bool {
	return len(s) > 0
}

// ParseSecrets derives the secret list from the raw 'secret' field. The raw
// value has ${env:NAME} references expanded, all whitespace removed, and is
// then split on commas. Empty elements are dropped.
//
// A present field that yields no secrets is malformed and rejected; only an
// absent field combined with disableAuth: true produces the null secret state.
func ParseSecrets(raw *string, disableAuth bool) (Secrets, error) {
	if raw == nil {
		if disableAuth {
			return nil, nil
		}
		return nil, &apperrors.MissingSecretError{}
	}

	expanded := expandEnvRefs(*raw)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expanded)

	var secrets Secrets
	for _, part := range strings.Split(stripped, ",") {
		if part != "" {
			secrets = append(secrets, part)
		}
	}

	if len(secrets) == 0 {
		if disableAuth {
			return nil, nil
		}
		return nil, &apperrors.MissingSecretError{}
	}

	return secrets, nil
}

// expandEnvRefs substitutes ${env:NAME} references with the value of the
// corresponding environment variable. Anything else is left as-is.
func expandEnvRefs(s string) string {
	var out strings.Builder
	for {
		start := strings.Index(s, "${env:")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			break
		}
		name := s[start+len("${env:") : start+end]
		out.WriteString(s[:start])
		out.WriteString(os.Getenv(name))
		s = s[start+end+1:]
	}
	out.WriteString(s)
	return out.String()
}
