package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const defaultPort = "8080"

type Config struct {
	port           string
	sentryDSN      string
	gcpProject     string
	allowedOrigins []string
	cacheCapacity  uint64
	useMockYahoo   bool
	otelEnabled    bool
	env            environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// The GCP project used to link logs to traces. Empty when not running on GCP.
func (c *Config) GCPProject() string {
	return c.gcpProject
}

// Additional domain suffixes allowed to make cross origin requests
func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

// Max number of entries per cache. 0 means unbounded.
func (c *Config) CacheCapacity() uint64 {
	return c.cacheCapacity
}

func (c *Config) UseMockYahoo() bool {
	return c.useMockYahoo
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, cacheCapacity: %d, mockYahoo: %t, otel: %t, ...}",
		string(c.env), c.port, c.cacheCapacity, c.useMockYahoo, c.otelEnabled,
	)
}

func parseBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}
	return value, nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("QUOTELIGHT_ENVIRONMENT")
	if !ok {
		return missingKey("QUOTELIGHT_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: QUOTELIGHT_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return Config{}, fmt.Errorf("%w: PORT (%s)", ErrInvalidValue, port)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	gcpProject := os.Getenv("GCP_PROJECT")

	var allowedOrigins []string
	for _, origin := range strings.Split(os.Getenv("QUOTELIGHT_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		allowedOrigins = append(allowedOrigins, origin)
	}

	var cacheCapacity uint64
	if rawCapacity := os.Getenv("QUOTELIGHT_CACHE_CAPACITY"); rawCapacity != "" {
		parsed, err := strconv.ParseUint(rawCapacity, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: QUOTELIGHT_CACHE_CAPACITY (%s)", ErrInvalidValue, rawCapacity)
		}
		cacheCapacity = parsed
	}

	useMockYahoo, err := parseBool("QUOTELIGHT_YAHOO_MOCK")
	if err != nil {
		return Config{}, err
	}

	otelEnabled, err := parseBool("QUOTELIGHT_OTEL")
	if err != nil {
		return Config{}, err
	}

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if useMockYahoo {
			return Config{}, fmt.Errorf("%w: QUOTELIGHT_YAHOO_MOCK is only allowed in development", ErrInvalidValue)
		}
	}

	return Config{
		port:           port,
		sentryDSN:      sentryDSN,
		gcpProject:     gcpProject,
		allowedOrigins: allowedOrigins,
		cacheCapacity:  cacheCapacity,
		useMockYahoo:   useMockYahoo,
		otelEnabled:    otelEnabled,
		env:            env,
	}, nil
}
