// Package config loads the server configuration from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"

	DefaultMongoURI      = "mongodb://localhost:27017/weight-tracker"
	DefaultMongoDatabase = "weight-tracker"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// storage
	Store           string `toml:"store"`
	MongoURI        string `toml:"mongodb_uri"`
	MongoDatabase   string `toml:"mongodb_database"`
	PostgresURL     string `toml:"postgres_url"`
	SQLitePath      string `toml:"sqlite_path"`
	WebDir          string `toml:"web_dir"`
	MetricsEnabled  bool   `toml:"metrics_enabled"`
	ShutdownTimeout string `toml:"shutdown_timeout"`

	Auth Auth `toml:"auth"`
}

type Auth struct {
	PasswordHash string `toml:"password_hash"`
	SessionTTL   string `toml:"session_ttl"`
	OIDC         OIDC   `toml:"oidc"`
}

type OIDC struct {
	Issuer         string `toml:"issuer"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	RedirectURL    string `toml:"redirect_url"`
	AllowedSubject string `toml:"allowed_subject"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the env section of the TOML file at path, applies environment
// overrides and fills defaults. A missing file yields a config built from the
// environment and defaults alone.
func Load(env, path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		var t Toml
		_, err := toml.DecodeFile(path, &t)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("decode %s: %w", path, err)
		default:
			section, err := t.Get(env)
			if err != nil {
				return nil, err
			}
			if section != nil {
				cfg = section
			}
		}
	} else if _, err := (&Toml{}).Get(env); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("ADDR"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err == nil {
			c.Host = host
			if p, err := strconv.Atoi(port); err == nil {
				c.Port = p
			}
		}
	}
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.Store = env("STORE", c.Store)
	c.MongoURI = env("MONGODB_URI", c.MongoURI)
	c.MongoDatabase = env("MONGODB_DATABASE", c.MongoDatabase)
	c.PostgresURL = env("DATABASE_URL", c.PostgresURL)
	c.SQLitePath = env("SQLITE_PATH", c.SQLitePath)
	c.WebDir = env("WEB_DIR", c.WebDir)
	c.Auth.PasswordHash = env("AUTH_PASSWORD_HASH", c.Auth.PasswordHash)
	c.Auth.OIDC.Issuer = env("OIDC_ISSUER", c.Auth.OIDC.Issuer)
	c.Auth.OIDC.ClientID = env("OIDC_CLIENT_ID", c.Auth.OIDC.ClientID)
	c.Auth.OIDC.ClientSecret = env("OIDC_CLIENT_SECRET", c.Auth.OIDC.ClientSecret)
	c.Auth.OIDC.RedirectURL = env("OIDC_REDIRECT_URL", c.Auth.OIDC.RedirectURL)
	c.Auth.OIDC.AllowedSubject = env("OIDC_ALLOWED_SUBJECT", c.Auth.OIDC.AllowedSubject)
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Store == "" {
		c.Store = StoreMongo
	}
	c.Store = strings.ToLower(c.Store)
	if c.MongoURI == "" {
		c.MongoURI = DefaultMongoURI
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = databaseFromURI(c.MongoURI)
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "weights.db"
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo, StoreSQLite, StoreMemory:
	case StorePostgres:
		if c.PostgresURL == "" {
			return errors.New("store postgres requires postgres_url or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if _, err := c.GetShutdownTimeout(); err != nil {
		return err
	}
	if c.SSOEnabled() && c.Auth.OIDC.AllowedSubject == "" {
		return errors.New("auth.oidc requires allowed_subject or OIDC_ALLOWED_SUBJECT")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SessionTTL parses auth.session_ttl. Zero means the service default.
func (c *Config) SessionTTL() (time.Duration, error) {
	return parseDuration("auth.session_ttl", c.Auth.SessionTTL, 0)
}

// GetShutdownTimeout parses shutdown_timeout, defaulting to 10s.
func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	return parseDuration("shutdown_timeout", c.ShutdownTimeout, 10*time.Second)
}

// AuthEnabled reports whether any login method is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != "" || c.SSOEnabled()
}

// SSOEnabled reports whether OIDC login is configured.
func (c *Config) SSOEnabled() bool {
	o := c.Auth.OIDC
	return o.Issuer != "" && o.ClientID != "" && o.RedirectURL != ""
}

func parseDuration(key, v string, fallback time.Duration) (time.Duration, error) {
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
