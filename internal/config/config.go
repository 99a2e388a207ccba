package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// Credit verifier endpoint; empty means every borrower is treated as
	// eligible (dev mode).
	GateURL     string
	GateTimeout time.Duration

	// Maximum age of an oracle quote before operations fail closed.
	PriceFreshness time.Duration
	// Interval between expiry sweeps over matured loans.
	SweepInterval time.Duration

	AdminToken string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lendora"),
		MySQLUser: getenv("MYSQL_USER", "lendora"),
		MySQLPass: getenv("MYSQL_PASS", "lendora"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		GateURL:     os.Getenv("CREDIT_GATE_URL"),
		GateTimeout: time.Duration(getint("CREDIT_GATE_TIMEOUT_SECONDS", 5)) * time.Second,

		PriceFreshness: time.Duration(getint("PRICE_FRESHNESS_SECONDS", 300)) * time.Second,
		SweepInterval:  time.Duration(getint("EXPIRY_SWEEP_SECONDS", 60)) * time.Second,

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.PriceFreshness <= 0 {
		return errors.New("PRICE_FRESHNESS_SECONDS must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("EXPIRY_SWEEP_SECONDS must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
