package launch

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// Service issues and verifies short-lived launch tokens. A portal
// hands the token to the game client, which exchanges it for a session
// without re-entering credentials.
type Service struct {
	secret string
	issuer string
	ttl    time.Duration
}

// Claims are the verified contents of a launch token.
type Claims struct {
	UserID      string
	DisplayName string
}

// NewService constructs a launch token service.
// secret/issuer must be non-empty; ttl must be positive.
func NewService(secret, issuer string, ttl time.Duration) *Service {
	return &Service{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue creates a signed launch token for the given user.
func (s *Service) Issue(userID, displayName string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("launch service is nil")
	}
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if s.secret == "" || s.issuer == "" || s.ttl <= 0 {
		return "", fmt.Errorf("launch config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  userID,
		"name": displayName,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify parses and validates a launch token, returning its claims.
// Expired or tampered tokens are rejected.
func (s *Service) Verify(tokenString string) (Claims, error) {
	if s == nil || s.secret == "" {
		return Claims{}, fmt.Errorf("launch config is incomplete")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("invalid launch token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("invalid launch token claims")
	}
	if iss, _ := mapClaims["iss"].(string); iss != s.issuer {
		return Claims{}, fmt.Errorf("launch token issuer mismatch")
	}

	userID, _ := mapClaims["sub"].(string)
	if userID == "" {
		return Claims{}, fmt.Errorf("launch token missing subject")
	}
	name, _ := mapClaims["name"].(string)

	return Claims{UserID: userID, DisplayName: name}, nil
}
