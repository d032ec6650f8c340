package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is how long an issued service token stays valid.
const TokenTTL = time.Hour

// Issuer signs service identity tokens with the first configured secret.
type Issuer struct {
	secrets Secrets
}

func NewIssuer(secrets Secrets) *Issuer {
	return &Issuer{secrets: secrets}
}

// Issue signs a token identifying service@stage with the admin role. When no
// secrets are configured it returns issued=false with no error; callers must
// treat that as "authentication disabled", not as a failure.
func (i *Issuer) Issue(service, stage string) (token string, issued bool, err error) {
	if !i.secrets.Enabled() {
		return "", false, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"service": fmt.Sprintf("%s@%s", service, stage),
		"roles":   []string{"admin"},
		"iat":     jwt.NewNumericDate(now),
		"exp":     jwt.NewNumericDate(now.Add(TokenTTL)),
		"jti":     uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.secrets[0]))
	if err != nil {
		return "", false, fmt.Errorf("failed to sign token for stage %s: %w", stage, err)
	}

	return signed, true, nil
}
