// Package config resolves server settings from flags, the environment and
// an optional .env file. Precedence is flag > environment > default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Port        int
	DBDriver    string
	DBDSN       string
	CatalogPath string
	LogLevel    slog.Level

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	KafkaBrokers []string
	KafkaTopic   string
}

// GitHubEnabled reports whether OAuth login should be offered.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// KafkaEnabled reports whether change events go through Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads envFile into the process environment (missing file is fine;
// variables already set win) and then parses args.
func Load(args []string, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}
	return Parse(args, os.Getenv)
}

// Parse builds a Config from command-line args, falling back to getenv
// for anything not given as a flag.
func Parse(args []string, getenv func(string) string) (Config, error) {
	var (
		cfg      Config
		logLevel string
		ttl      string
		brokers  string
	)

	fs := pflag.NewFlagSet("slay-vote", pflag.ContinueOnError)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "HTTP port (env PORT, default 8080)")
	fs.StringVar(&cfg.DBDriver, "db-driver", "", "sqlite or postgres (env DB_DRIVER, default sqlite)")
	fs.StringVar(&cfg.DBDSN, "db", "", "database DSN or SQLite path (env DATABASE_URL, default data/slay-vote.db)")
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "category catalog YAML (env CATALOG_PATH, default built-in)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL, default info)")
	fs.StringVar(&ttl, "session-ttl", "", "session lifetime (env SESSION_TTL, default 168h)")
	fs.StringVar(&brokers, "kafka-brokers", "", "comma-separated Kafka brokers (env KAFKA_BROKERS)")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "", "Kafka topic for change events (env KAFKA_TOPIC, default vote-changes)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if s := getenv("PORT"); s != "" {
			port, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, fmt.Errorf("config: invalid PORT %q", s)
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080
		}
	}

	cfg.DBDriver = firstNonEmpty(cfg.DBDriver, getenv("DB_DRIVER"), "sqlite")
	cfg.DBDSN = firstNonEmpty(cfg.DBDSN, getenv("DATABASE_URL"), "data/slay-vote.db")
	cfg.CatalogPath = firstNonEmpty(cfg.CatalogPath, getenv("CATALOG_PATH"))
	cfg.KafkaTopic = firstNonEmpty(cfg.KafkaTopic, getenv("KAFKA_TOPIC"), "vote-changes")

	level := firstNonEmpty(logLevel, getenv("LOG_LEVEL"), "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("config: invalid log level %q", level)
	}

	if s := firstNonEmpty(ttl, getenv("SESSION_TTL")); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: invalid session TTL %q", s)
		}
		cfg.SessionTTL = d
	}

	for _, b := range strings.Split(firstNonEmpty(brokers, getenv("KAFKA_BROKERS")), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	// Secrets come from the environment only.
	cfg.JWTSecret = getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET required")
	}
	cfg.CookieSecure = getenv("COOKIE_SECURE") == "true"

	cfg.GitHubClientID = getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHubCallbackURL = firstNonEmpty(
		getenv("GITHUB_CALLBACK_URL"),
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port),
	)

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
