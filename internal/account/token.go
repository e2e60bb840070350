package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient role")
)

// Claims are the fields the backend puts in its session tokens.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier reads session tokens. With a secret it verifies HS256 signatures; without
// one it only decodes, and the backend remains the authority on every call.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrUnauthorized
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

func (v *TokenVerifier) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims := &Claims{}
	if len(v.secret) == 0 {
		if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(time.Now()) {
			return nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
		}
		return claims, nil
	}

	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Authorize parses the Authorization header and checks the role is one of roles.
func (v *TokenVerifier) Authorize(header string, roles ...string) (string, *Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return "", nil, err
	}
	claims, err := v.Parse(token)
	if err != nil {
		return "", nil, err
	}
	for _, r := range roles {
		if claims.Role == r {
			return token, claims, nil
		}
	}
	return "", nil, ErrForbidden
}
