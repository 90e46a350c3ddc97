package urlsign

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service signs and verifies share-link tokens. A token binds one
// storage path to an expiry; it is reusable until it expires and
// cannot be revoked earlier.
type Service struct {
	secret string
}

func New(secret string) *Service { return &Service{secret: secret} }

type Claims struct {
	StoragePath string `json:"storage_path"`
	jwt.RegisteredClaims
}

func (s *Service) SignPath(storagePath string, ttl time.Duration) (string, error) {
	claims := Claims{
		StoragePath: storagePath,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

func (s *Service) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
