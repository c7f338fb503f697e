// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable with STORAGE.
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env     string // APP_ENV: dev, test or prod
	Port    string // APP_PORT
	Storage string // STORAGE: mysql or memory

	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	DBMaxOpenConns int           // DB_MAX_OPEN_CONNS
	DBTxTimeout    time.Duration // DB_TX_TIMEOUT, bounds one booking transaction

	Venue         *time.Location // VENUE_TIMEZONE, applied to showtimes without offset
	SeedSeats     string         // SEED_SEATS, e.g. "A1-A10,B1-B10"
	UploadDir     string         // UPLOAD_DIR, feedback images
	TicketLogFile string         // TICKET_LOG_FILE, written by the event consumer

	AMQP AMQPConfig
}

// Load reads the optional .env file and the environment.  Values already
// present in the environment win over the file.  Missing required
// variables are reported together in one error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var r reader
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		Storage:        strings.ToLower(envStr("STORAGE", StorageMySQL)),
		DBPass:         os.Getenv("DB_PASS"),
		DBMaxOpenConns: r.int("DB_MAX_OPEN_CONNS", 25),
		DBTxTimeout:    r.dur("DB_TX_TIMEOUT", 5*time.Second),
		SeedSeats:      envStr("SEED_SEATS", "A1-A10,B1-B10,C1-C10"),
		UploadDir:      envStr("UPLOAD_DIR", "uploads"),
		TicketLogFile:  envStr("TICKET_LOG_FILE", "logs/tickets.log"),
		AMQP:           LoadAMQPConfig(),
	}

	switch cfg.Storage {
	case StorageMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = r.must("DB_NAME")
	case StorageMemory:
	default:
		r.fail(fmt.Errorf("invalid STORAGE %q: want %s or %s", cfg.Storage, StorageMySQL, StorageMemory))
	}

	tz := envStr("VENUE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		r.fail(fmt.Errorf("invalid VENUE_TIMEZONE %q: %w", tz, err))
	}
	cfg.Venue = loc

	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// reader collects every configuration problem instead of stopping at the
// first one.
type reader struct {
	err error
}

func (r *reader) fail(err error) {
	r.err = errors.Join(r.err, err)
}

// must retrieves a required variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.fail(fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

func (r *reader) int(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(fmt.Errorf("invalid int for %s: %q", key, s))
		return def
	}
	return n
}

func (r *reader) dur(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		r.fail(fmt.Errorf("invalid duration for %s: %q", key, s))
		return def
	}
	return d
}
