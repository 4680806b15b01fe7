package auth

import "github.com/golang-jwt/jwt/v5"

type Authenticator interface {
	GenerateToken(shopperID, email string) (string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
}
