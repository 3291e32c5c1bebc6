package authtoken

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "air-monitor"

// Claims represents the dashboard token payload.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ScopeDashboard grants read access to readings.
const ScopeDashboard = "dashboard:read"

// Service handles JWT creation and validation.
type Service struct {
	secret    []byte
	expiresIn time.Duration
}

// NewService returns configured token service.
func NewService(secret string, expiresIn time.Duration) *Service {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), expiresIn: expiresIn}
}

// Issue signs a dashboard token for subject.
func (s *Service) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token: subject is required")
	}
	if len(s.secret) == 0 {
		return "", errors.New("token: secret is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		Scope: ScopeDashboard,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies signature, expiry, issuer and scope.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token: invalid claims")
	}
	if claims.Scope != ScopeDashboard {
		return nil, errors.New("token: missing dashboard scope")
	}
	return claims, nil
}
