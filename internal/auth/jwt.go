package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/promptpix/api/models"
)

const (
	AccessTokenExpirationTime = time.Hour * 12
	SecretEnv                 = "JWT_SECRET_KEY"
	Issuer                    = "promptpix"
)

type Token struct {
	Access string `json:"access_token"`
}

// NewAccessToken issues a signed HS512 token carrying the user ID in the
// jti claim.
func NewAccessToken(user *models.User) (*Token, error) {
	now := time.Now()
	claims := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpirationTime)),
		IssuedAt:  &jwt.NumericDate{Time: now},
		Audience:  jwt.ClaimStrings{user.Email},
		ID:        fmt.Sprint(user.ID),
	})

	secret := []byte(os.Getenv(SecretEnv))

	token, err := claims.SignedString(secret)
	if err != nil {
		return nil, err
	}

	return &Token{Access: token}, nil
}

// VerifyToken parses and validates a token, returning the user ID it was
// issued for.
func VerifyToken(token string) (uint, bool) {
	var (
		claims = &jwt.RegisteredClaims{}
		secret = []byte(os.Getenv(SecretEnv))
	)

	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return 0, false
	}

	id, err := strconv.ParseUint(claims.ID, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
