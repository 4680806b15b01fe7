package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("token has no subject")

// Shopper is the identity carried by an access token.
type Shopper struct {
	ID    string
	Email string
}

type JWTAuthenticator struct {
	secret string
	aud    string
	iss    string
	ttl    time.Duration
}

func NewJWTAuthenticator(secret, aud, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret, aud: aud, iss: iss, ttl: 3 * 24 * time.Hour}
}

// GenerateToken issues an access token. Tokens normally come from the
// marketplace identity service; this is used by local tooling and tests.
func (a *JWTAuthenticator) GenerateToken(shopperID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": shopperID,
		"exp": now.Add(a.ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"iss": a.iss,
		"aud": a.aud,
	}
	if email != "" {
		claims["email"] = email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secret))
}

func (a *JWTAuthenticator) ValidateAccessToken(token string) (*jwt.Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	}
	if a.aud != "" {
		opts = append(opts, jwt.WithAudience(a.aud))
	}
	if a.iss != "" {
		opts = append(opts, jwt.WithIssuer(a.iss))
	}

	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	}, opts...)
}

// ShopperFromToken reads the shopper identity from a validated token. The
// subject may be encoded as a string or a number.
func ShopperFromToken(t *jwt.Token) (Shopper, error) {
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Shopper{}, errors.New("unexpected claims type")
	}

	var s Shopper
	switch sub := claims["sub"].(type) {
	case string:
		s.ID = sub
	case float64:
		s.ID = strconv.FormatInt(int64(sub), 10)
	}
	if s.ID == "" {
		return Shopper{}, ErrMissingSubject
	}

	s.Email, _ = claims["email"].(string)
	return s, nil
}
