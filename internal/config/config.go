package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DB     DBConfig
	Server ServerConfig
	Auth   AuthConfig
	TMDB   TMDBConfig
	Cache  CacheConfig
	Redis  RedisConfig
	Log    LogConfig
}

type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"reelshare"`
	Password string `envconfig:"DB_PASSWORD" default:"reelshare_secret"`
	Name     string `envconfig:"DB_NAME" default:"reelshare"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	Path     string `envconfig:"DB_PATH" default:"reelshare.db"`
}

type ServerConfig struct {
	Port           string `envconfig:"SERVER_PORT" default:"8080"`
	FrontendURL    string `envconfig:"FRONTEND_URL" default:""`
	AllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	SecureCookies  bool   `envconfig:"SECURE_COOKIES" default:"true"`
}

type AuthConfig struct {
	Provider        string        `envconfig:"AUTH_PROVIDER" default:"local"`
	JWTSecret       string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	ExpirationHours int           `envconfig:"JWT_EXPIRATION_HOURS" default:"1"`
	RefreshTTL      time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`
	ConfirmationTTL time.Duration `envconfig:"CONFIRMATION_CODE_TTL" default:"24h"`
	PublicURL       string        `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`

	SupabaseURL       string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey   string `envconfig:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string `envconfig:"SUPABASE_JWT_SECRET"`
	SupabaseJWKSURL   string `envconfig:"SUPABASE_JWKS_URL"`
	SupabaseAudience  string `envconfig:"SUPABASE_JWT_AUDIENCE" default:"authenticated"`
}

type TMDBConfig struct {
	APIKey  string        `envconfig:"TMDB_API_KEY"`
	BaseURL string        `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	Timeout time.Duration `envconfig:"TMDB_TIMEOUT" default:"10s"`
}

type CacheConfig struct {
	Backend   string        `envconfig:"CACHE_BACKEND" default:"memory"`
	TTL       time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	SearchTTL time.Duration `envconfig:"CACHE_SEARCH_TTL" default:"10m"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads optional .env files and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Auth.Provider {
	case "local":
	case "supabase":
		if c.Auth.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when AUTH_PROVIDER=supabase")
		}
		if c.Auth.SupabaseJWTSecret == "" && c.Auth.SupabaseJWKSURL == "" {
			return fmt.Errorf("one of SUPABASE_JWT_SECRET or SUPABASE_JWKS_URL is required")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.Auth.Provider)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.Cache.Backend)
	}
	return nil
}

// Origins splits the CORS origin list for logging.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
