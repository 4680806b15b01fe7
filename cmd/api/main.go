package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"carecart/internal/auth"
	"carecart/internal/backend"
	"carecart/internal/db"
	"carecart/internal/domain/storage"
	"carecart/internal/mailer"
	"carecart/internal/media"
	"carecart/internal/notifications"
	"carecart/internal/ratelimiter"
	"carecart/internal/shopper"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)
	logger := zap.New(core)

	return logger.Sugar(), nil
}

func envInt(key string, def int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		fmt.Printf("Invalid %s, defaulting to %d\n", key, def)
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		fmt.Printf("Invalid %s, defaulting to %s\n", key, def)
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(val); err == nil && !d.IsNegative() {
			return d
		}
		fmt.Printf("Invalid %s, defaulting to %s\n", key, def)
	}
	return def
}

var version = "1.0.0"

//	@title			CareCart API
//	@description	Cart, wishlist and checkout API for the CareCart pharmacy app.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	// .env is optional outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    envInt("DB_MAX_CONNS", 10),
			minConns:    envInt("DB_MIN_CONNS", 0),
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
			table:       os.Getenv("CLIENT_STATE_TABLE"),
		},
		backend: backendConfig{
			url:     os.Getenv("BACKEND_URL"),
			timeout: envDuration("BACKEND_TIMEOUT", 10*time.Second),
		},
		mail: mailConfig{
			host:      os.Getenv("SMTP_HOST"),
			port:      envInt("SMTP_PORT", 587),
			username:  os.Getenv("SMTP_USERNAME"),
			password:  os.Getenv("SMTP_PASSWORD"),
			fromEmail: os.Getenv("SMTP_FROM_EMAIL"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				aud:    os.Getenv("AUTH_TOKEN_AUD"),
				iss:    os.Getenv("AUTH_TOKEN_ISS"),
			},
		},
		checkout: checkoutConfig{
			taxPercent:       envDecimal("CHECKOUT_TAX_PERCENT", decimal.NewFromInt(5)),
			confirmationSalt: os.Getenv("CONFIRMATION_SALT"),
		},
		expoAccessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
		cloudinaryURL:   os.Getenv("CLOUDINARY_URL"),
		shopperIdleTTL:  envDuration("SHOPPER_IDLE_TTL", 30*time.Minute),
		rateLimiter:     LoadRateLimiterConfig(),
	}

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if cfg.backend.url == "" {
		logger.Fatal("BACKEND_URL is required")
	}
	if cfg.auth.token.secret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET is required")
	}

	// Database. Without DB_ADDR shopper state lives in memory only.
	var pool *pgxpool.Pool
	if cfg.db.addr != "" {
		pool, err = db.New(db.Config{
			Addr:        cfg.db.addr,
			MaxConns:    int32(cfg.db.maxConns),
			MinConns:    int32(cfg.db.minConns),
			MaxIdleTime: cfg.db.maxIdleTime,
		})
		if err != nil {
			logger.Fatal(err)
		}
		defer pool.Close()
		logger.Info("database connection pool established")
	} else {
		logger.Warn("DB_ADDR not set, shopper state is kept in memory")
	}

	store := storage.NewContainer(pool, cfg.db.table)
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Migrate(migrateCtx); err != nil {
		cancel()
		logger.Fatal(err)
	}
	cancel()

	// Marketplace API
	marketplace := backend.NewClient(cfg.backend.url, cfg.backend.timeout)

	registryOpts := []shopper.Option{
		shopper.WithCatalog(marketplace),
		shopper.WithIdleTTL(cfg.shopperIdleTTL),
	}
	if pool != nil {
		registryOpts = append(registryOpts, shopper.WithTx(store))
	}

	// Product thumbnails
	if cfg.cloudinaryURL != "" {
		thumbs, err := media.NewThumbnails(cfg.cloudinaryURL, logger)
		if err != nil {
			logger.Fatal(err)
		}
		registryOpts = append(registryOpts, shopper.WithImageResolver(thumbs))
	}

	shoppers := shopper.NewRegistry(store.ClientState, logger, registryOpts...)

	codes, err := shopper.NewCodes(cfg.checkout.confirmationSalt)
	if err != nil {
		logger.Fatal(err)
	}

	// Order notifications
	var mail mailer.Client
	if cfg.mail.host != "" {
		smtp, err := mailer.NewSMTPClient(mailer.SMTPConfig{
			Host:      cfg.mail.host,
			Port:      cfg.mail.port,
			Username:  cfg.mail.username,
			Password:  cfg.mail.password,
			FromEmail: cfg.mail.fromEmail,
		})
		if err != nil {
			logger.Fatal(err)
		}
		mail = smtp
	}
	notifier := notifications.NewNotifier(
		notifications.NewExpoAdapterWithToken(cfg.expoAccessToken),
		shoppers,
		mail,
		logger,
	)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		storage:       store,
		shoppers:      shoppers,
		catalog:       marketplace,
		collaborators: marketplace.Collaborators(),
		codes:         codes,
		notifier:      notifier,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	if pool != nil {
		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]int32{
				"total_conns":    s.TotalConns(),
				"idle_conns":     s.IdleConns(),
				"acquired_conns": s.AcquiredConns(),
			}
		}))
	}
	expvar.Publish("shoppers", expvar.Func(func() any {
		return shoppers.Len()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	app.sweepIdleEvery(5 * time.Minute)

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
