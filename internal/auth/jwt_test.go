package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("s3cret", "carecart", "marketplace")

	tok, err := a.GenerateToken("shopper-7", "asha@example.com")
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := a.ValidateAccessToken(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	s, err := ShopperFromToken(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "shopper-7" || s.Email != "asha@example.com" {
		t.Errorf("shopper = %+v", s)
	}
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a := NewJWTAuthenticator("s3cret", "carecart", "marketplace")

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(jwt.MapClaims{"sub": "1", "exp": exp, "aud": "carecart", "iss": "marketplace"}, "other")},
		{"expired", sign(jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix(), "aud": "carecart", "iss": "marketplace"}, "s3cret")},
		{"no expiry", sign(jwt.MapClaims{"sub": "1", "aud": "carecart", "iss": "marketplace"}, "s3cret")},
		{"wrong audience", sign(jwt.MapClaims{"sub": "1", "exp": exp, "aud": "admin", "iss": "marketplace"}, "s3cret")},
		{"garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.ValidateAccessToken(tt.token); err == nil {
				t.Errorf("token accepted")
			}
		})
	}
}

func TestShopperFromToken_NumericSubject(t *testing.T) {
	tok := &jwt.Token{Claims: jwt.MapClaims{"sub": float64(42)}}
	s, err := ShopperFromToken(tok)
	if err != nil || s.ID != "42" {
		t.Errorf("got %+v, %v", s, err)
	}

	if _, err := ShopperFromToken(&jwt.Token{Claims: jwt.MapClaims{}}); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("err = %v", err)
	}
}
