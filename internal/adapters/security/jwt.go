package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

// JWTVerifier validates HS256 bearer tokens issued by the marketplace
// identity service. This service only verifies; it never mints tokens.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) VerifyToken(raw string) (ports.OperatorClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.OperatorClaims{}, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return ports.OperatorClaims{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return ports.OperatorClaims{}, errors.New("token missing subject")
	}
	return ports.OperatorClaims{
		SubjectID: claims.Subject,
		Role:      claims.Role,
	}, nil
}
