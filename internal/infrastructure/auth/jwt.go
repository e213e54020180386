package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tribe-inc/tribe/internal/shared/biztime"
)

var ErrMissingSubject = errors.New("token has no subject")

// Claims carries the platform user id in the standard sub claim.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject, which is the profile id.
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTService verifies HS256 bearer tokens issued by the platform's auth
// provider. Audience is enforced only when configured.
type JWTService struct {
	secret   []byte
	audience string
}

func NewJWTService(secret, audience string) *JWTService {
	return &JWTService{
		secret:   []byte(secret),
		audience: audience,
	}
}

// Generate signs a token for userID. The service never issues tokens in
// production; this backs tests and local tooling.
func (s *JWTService) Generate(userID string, ttl time.Duration) (string, error) {
	now := biztime.NowUTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}
