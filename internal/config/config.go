package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DatabaseURL string

	JWTSecret      []byte
	JWTAlgorithm   string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	Leeway         time.Duration
	TokenLocations []string
	CookieSecure   bool
	CookieSameSite http.SameSite
	CookieMaxAge   time.Duration
	CookieCSRF     bool

	RefreshRotation    bool
	RevocationFailOpen bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReservedUsernames []string
	SuperUserName     string
	SuperUserPassword string

	StaticPath     string
	MaxUploadBytes int64

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	LoginRatePerMinute int
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:      []byte(os.Getenv("AUTHJWT_SECRET_KEY")),
		JWTAlgorithm:   EnvDefault("AUTHJWT_ALGORITHM", "HS256"),
		AccessTTL:      Seconds("AUTHJWT_ACCESS_TOKEN_EXPIRES", 15*time.Minute),
		RefreshTTL:     Seconds("AUTHJWT_REFRESH_TOKEN_EXPIRES", 30*24*time.Hour),
		Leeway:         Seconds("AUTHJWT_LEEWAY", 0),
		TokenLocations: CSV(EnvDefault("AUTHJWT_TOKEN_LOCATION", "headers,cookies")),
		CookieSecure:   EnvBoolDefault("AUTHJWT_COOKIE_SECURE", false),
		CookieSameSite: SameSite(os.Getenv("AUTHJWT_COOKIE_SAMESITE")),
		CookieMaxAge:   Seconds("AUTHJWT_COOKIE_MAX_AGE", 30*24*time.Hour),
		CookieCSRF:     EnvBoolDefault("AUTHJWT_COOKIE_CSRF_PROTECT", false),

		RefreshRotation:    EnvBoolDefault("AUTHJWT_REFRESH_ROTATION", false),
		RevocationFailOpen: EnvBoolDefault("REVOCATION_FAIL_OPEN", false),

		RedisAddr:     EnvDefault("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		ReservedUsernames: CSV(EnvDefault("RESERVED_USERNAMES", "me")),
		SuperUserName:     EnvDefault("SUPER_USER_NAME", "admin"),
		SuperUserPassword: os.Getenv("SUPER_USER_PASSWORD"),

		StaticPath:     EnvDefault("STATIC_PATH", "static"),
		MaxUploadBytes: int64(EnvIntDefault("MAX_UPLOAD_BYTES", 5<<20)),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		LoginRatePerMinute: EnvIntDefault("LOGIN_RATE_PER_MINUTE", 30),
	}
}

// Validate reports every missing or unusable setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL"))
	}
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("missing required env AUTHJWT_SECRET_KEY"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if len(c.TokenLocations) == 0 {
		errs = append(errs, errors.New("AUTHJWT_TOKEN_LOCATION is empty"))
	}
	for _, loc := range c.TokenLocations {
		if !strings.EqualFold(loc, "headers") && !strings.EqualFold(loc, "cookies") {
			errs = append(errs, fmt.Errorf("AUTHJWT_TOKEN_LOCATION: unknown location %q", loc))
		}
	}
	return errors.Join(errs...)
}

// HasLocation reports whether tokens may be read from (and written to) the given location.
func (c Config) HasLocation(loc string) bool {
	for _, l := range c.TokenLocations {
		if strings.EqualFold(l, loc) {
			return true
		}
	}
	return false
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Seconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func SameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
