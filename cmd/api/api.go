package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carecart/docs" //this is required to generate swagger docs
	"carecart/internal/auth"
	"carecart/internal/domain/cart"
	"carecart/internal/domain/checkout"
	"carecart/internal/domain/storage"
	"carecart/internal/notifications"
	"carecart/internal/ratelimiter"
	"carecart/internal/shopper"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// orderNotifier is satisfied by *notifications.Notifier.
type orderNotifier interface {
	OrderPlaced(ctx context.Context, ev notifications.OrderPlaced)
}

type application struct {
	config        config
	logger        *zap.SugaredLogger
	storage       *storage.Container
	shoppers      *shopper.Registry
	catalog       cart.Catalog
	collaborators checkout.Collaborators
	codes         *shopper.Codes
	notifier      orderNotifier
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr            string
	db              dbConfig
	env             string
	apiURL          string
	frontendURL     string
	backend         backendConfig
	mail            mailConfig
	auth            authConfig
	checkout        checkoutConfig
	expoAccessToken string
	cloudinaryURL   string
	shopperIdleTTL  time.Duration
	rateLimiter     ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	aud    string
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type dbConfig struct {
	addr        string
	maxConns    int
	minConns    int
	maxIdleTime string
	table       string
}

type backendConfig struct {
	url     string
	timeout time.Duration
}

type checkoutConfig struct {
	taxPercent       decimal.Decimal
	confirmationSalt string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RateLimiterMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", app.getCartHandler)
				r.Delete("/", app.clearCartHandler)
				r.Post("/items", app.addCartItemHandler)
				r.Patch("/items/{lineID}", app.updateCartItemHandler)
				r.Delete("/items/{lineID}", app.removeCartItemHandler)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", app.getWishlistHandler)
				r.Post("/", app.addWishlistHandler)
				r.Delete("/{productID}", app.removeWishlistHandler)
				r.Post("/{productID}/move-to-cart", app.moveWishlistToCartHandler)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", app.beginCheckoutHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.checkoutContextMiddleware)

					r.Get("/", app.getCheckoutHandler)
					r.Delete("/", app.abandonCheckoutHandler)
					r.Post("/next", app.nextStepHandler)
					r.Post("/back", app.backStepHandler)

					r.Put("/address", app.selectAddressHandler)
					r.Route("/addresses", func(r chi.Router) {
						r.Get("/", app.listAddressesHandler)
						r.Post("/", app.createAddressHandler)
						r.Put("/{addressID}", app.updateAddressHandler)
						r.Delete("/{addressID}", app.deleteAddressHandler)
					})

					r.Get("/slots", app.listSlotsHandler)
					r.Put("/slot", app.selectSlotHandler)
					r.Delete("/slot", app.clearSlotHandler)

					r.Get("/payment-methods", app.listPaymentMethodsHandler)
					r.Put("/payment", app.selectPaymentHandler)

					r.Put("/coupon", app.applyCouponHandler)
					r.Delete("/coupon", app.removeCouponHandler)
					r.Put("/notes", app.setNotesHandler)
					r.Put("/terms", app.acceptTermsHandler)

					r.Post("/submit", app.submitOrderHandler)
				})
			})

			r.Post("/devices", app.registerDeviceHandler)
			r.Delete("/me/state", app.forgetShopperHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
