package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"carecart/internal/auth"
	"carecart/internal/backend"
	"carecart/internal/domain/checkout"
	"carecart/internal/shopper"
)

type ctxKey string

const (
	shopperCtx  ctxKey = "shopper"
	checkoutCtx ctxKey = "checkout"
)

var errNoCheckout = errors.New("no checkout in progress")

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthTokenMiddleware validates the bearer token, loads the shopper and
// forwards the token to marketplace calls made with the request context.
func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
			return
		}

		token := parts[1]
		jwtToken, err := app.authenticator.ValidateAccessToken(token)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		identity, err := auth.ShopperFromToken(jwtToken)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := backend.WithToken(r.Context(), token)

		s, err := app.shoppers.Get(ctx, identity.ID, identity.Email)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		ctx = context.WithValue(ctx, shopperCtx, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.rateLimiter.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := r.RemoteAddr
		if s := getShopperFromContext(r); s != nil {
			key = "shopper:" + s.ID
		}

		if allow, retryAfter := app.rateLimiter.Allow(key); !allow {
			app.rateLimitExceededResponse(w, r, strconv.Itoa(int(retryAfter.Seconds())+1))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkoutContextMiddleware loads the shopper's open checkout session.
func (app *application) checkoutContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := getShopperFromContext(r)
		sess, ok := s.Checkout()
		if !ok {
			app.notFoundResponse(w, r, errNoCheckout)
			return
		}

		ctx := context.WithValue(r.Context(), checkoutCtx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getShopperFromContext(r *http.Request) *shopper.Shopper {
	s, _ := r.Context().Value(shopperCtx).(*shopper.Shopper)
	return s
}

func getCheckoutFromContext(r *http.Request) *checkout.Session {
	sess, _ := r.Context().Value(checkoutCtx).(*checkout.Session)
	return sess
}
