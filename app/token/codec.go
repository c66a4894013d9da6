package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose names the single action a capability token authorizes.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposeUnsubscribe       Purpose = "unsubscribe"
)

type claims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed capability tokens binding an email
// address to a purpose. Tokens are stateless bearer credentials: no
// server-side token table exists, so anyone holding a valid token for a
// purpose can exercise it.
type Codec struct {
	secret          []byte
	verificationTTL time.Duration
}

func NewCodec(secret string, verificationTTL time.Duration) *Codec {
	return &Codec{
		secret:          []byte(secret),
		verificationTTL: verificationTTL,
	}
}

// Issue creates a signed token for the given email and purpose.
// Verification tokens expire after the configured TTL; unsubscribe
// tokens carry no expiry so mailed unsubscribe links stay valid.
func (c *Codec) Issue(email string, purpose Purpose) (string, error) {
	now := time.Now().UTC()

	tokenClaims := claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if purpose == PurposeEmailVerification {
		tokenClaims.ExpiresAt = jwt.NewNumericDate(now.Add(c.verificationTTL))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims).SignedString(c.secret)
}

// Verify checks the token's signature, purpose, and expiry (when an
// expiry claim is present) and returns the bound email address. Any
// failure is reported as ok=false, never as a panic or error value.
func (c *Codec) Verify(tokenString string, expected Purpose) (string, bool) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok {
		return "", false
	}

	if tokenClaims.Purpose != expected {
		return "", false
	}
	if tokenClaims.Email == "" {
		return "", false
	}

	return tokenClaims.Email, true
}
