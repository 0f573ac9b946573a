package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cliphub/internal/model"
	"cliphub/pkg/apierror"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type Claims struct {
	UserID  string
	TokenID string
	Type    string
}

// Service issues and verifies stateless token pairs. Access and refresh
// tokens are signed with distinct secrets; persistence of the current
// refresh token is the caller's job.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) *Service {
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *Service) IssuePair(userID string) (model.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := signToken(s.accessSecret, jwt.MapClaims{
		"sub": userID,
		"typ": typeAccess,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := signToken(s.refreshSecret, jwt.MapClaims{
		"sub": userID,
		"typ": typeRefresh,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	return verify(tokenString, s.accessSecret, typeAccess)
}

func (s *Service) VerifyRefresh(tokenString string) (*Claims, error) {
	return verify(tokenString, s.refreshSecret, typeRefresh)
}

func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func signToken(secret []byte, claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verify(tokenString string, secret []byte, expectedType string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthorized("invalid token signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.Unauthorized("invalid or expired token")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("invalid token claims")
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != expectedType {
		return nil, apierror.Unauthorized("invalid token type")
	}

	claims := &Claims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.Unauthorized("invalid token subject")
	}

	return claims, nil
}
