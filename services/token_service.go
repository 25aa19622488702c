package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/config"
	"github.com/securegpt/rag-gateway/models"
	"go.uber.org/zap"
)

// Claims carries the identity and permission snapshot embedded in a session
// token. The permission set is computed at issuance time and trusted for the
// token's lifetime; a permission revoked mid-session takes effect only after
// the token expires or is reissued. That staleness is a deliberate trade-off
// against a database read per request.
type Claims struct {
	UserID      uuid.UUID       `json:"user_id"`
	Role        models.UserRole `json:"role"`
	Permissions []string        `json:"permissions"`
	jwt.RegisteredClaims
}

// Username returns the token subject
func (c *Claims) Username() string {
	return c.Subject
}

// TokenService issues and verifies signed, time-limited session tokens.
// Tokens are opaque to every other component; only this service understands
// their structure. Verification is pure computation and never touches the
// database.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger

	// now is swappable for expiry tests
	now func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(cfg config.AuthConfig, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		logger: logger,
		now:    time.Now,
	}
}

// TTL returns the configured token lifetime
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the user, embedding the username as
// subject, the user id, the role, and the role's permission snapshot.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now().UTC()
	claims := &Claims{
		UserID:      user.ID,
		Role:        user.Role,
		Permissions: models.PermissionStrings(user.Permissions()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Debug("token issued",
		zap.String("subject", user.Username),
		zap.Time("expires_at", claims.ExpiresAt.Time))
	return signed, nil
}

// Verify parses and validates a token, returning its claims. It fails with
// ErrInvalidToken on a bad signature, malformed payload, wrong signing
// method, missing subject, or expiry in the past.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
