package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	HTTPAddr string

	DBDriver      string
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	NatsURL string

	IdempotencyDriver string
	IdempotencyDSN    string

	LoginRateWindow time.Duration
	LoginRateMax    int
	RateLimitRPS    float64
	RateLimitBurst  int

	Auth0Domain       string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0CallbackURL  string
	PostLoginRedirect string
	LogoutReturnURL   string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using process environment")
	}

	cfg := &Config{
		HTTPAddr: GetEnvAsString("HTTP_ADDR", ":8080"),

		DBDriver:      GetEnvAsString("DB_DRIVER", DriverMongo),
		MongoURI:      GetEnvAsString("MONGO_URI", ""),
		MongoDatabase: GetEnvAsString("MONGO_DATABASE", "ToDo"),
		MongoTimeout:  GetEnvAsDuration("MONGO_TIMEOUT", 5*time.Second),

		RedisURL:      GetEnvAsString("REDIS_URL", ""),
		RedisHost:     GetEnvAsString("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvAsString("REDIS_PORT", "6379"),
		RedisPassword: GetEnvAsString("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvAsInt("REDIS_DB", 0),

		JWTSecret:    GetEnvAsString("JWT_SECRET", GetEnvAsString("SECRET_KEY", "")),
		SessionTTL:   GetEnvAsDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure: GetEnvAsBool("COOKIE_SECURE", false),

		NatsURL: GetEnvAsString("NATS_URL", ""),

		IdempotencyDriver: GetEnvAsString("IDEMPOTENCY_DRIVER", "sqlite"),
		IdempotencyDSN:    GetEnvAsString("IDEMPOTENCY_DSN", "idempotency.db"),

		LoginRateWindow: GetEnvAsDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		LoginRateMax:    GetEnvAsInt("LOGIN_RATE_MAX", 5),
		RateLimitRPS:    GetEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  GetEnvAsInt("RATE_LIMIT_BURST", 40),

		Auth0Domain:       GetEnvAsString("AUTH0_DOMAIN", ""),
		Auth0ClientID:     GetEnvAsString("AUTH0_CLIENT_ID", ""),
		Auth0ClientSecret: GetEnvAsString("AUTH0_CLIENT_SECRET", ""),
		Auth0CallbackURL:  GetEnvAsString("AUTH0_CALLBACK_URL", "http://localhost:8080/auth/callback"),
		PostLoginRedirect: GetEnvAsString("POST_LOGIN_REDIRECT", ""),
		LogoutReturnURL:   GetEnvAsString("LOGOUT_RETURN_URL", "http://localhost:8080/"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when DB_DRIVER=mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LoginRateMax <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_MAX must be positive"))
	}
	switch c.IdempotencyDriver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown IDEMPOTENCY_DRIVER %q", c.IdempotencyDriver))
	}
	return errors.Join(errs...)
}

// FederatedLoginEnabled reports whether Auth0 credentials are configured.
func (c *Config) FederatedLoginEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0ClientID != ""
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
