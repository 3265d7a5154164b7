// Package server provides HTTP server configuration and lifecycle management.
package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort    = "SIGALG_PORT"
	EnvHost    = "SIGALG_HOST"
	EnvPolicy  = "SIGALG_POLICY"
	EnvTLSCert = "SIGALG_TLS_CERT"
	EnvTLSKey  = "SIGALG_TLS_KEY"
)

// DefaultPort is used when neither a flag nor SIGALG_PORT sets one.
const DefaultPort = 8443

// Config holds the server configuration.
type Config struct {
	// Port is the HTTP port. Zero picks a free port.
	Port int

	// Host is the address to bind to (default: "").
	Host string

	// Policy is a built-in policy name or a policy file path. Empty means
	// the default policy.
	Policy string

	// TLS configuration (optional)
	TLSCert string
	TLSKey  string

	// MaxConnections caps concurrent connections. Zero means unlimited.
	MaxConnections int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// Technical log
	LogLevel  string
	LogFormat string

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            DefaultPort,
		MaxConnections:  256,
		MaxBodyBytes:    1 << 20,
		LogLevel:        "info",
		LogFormat:       "json",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// ApplyEnv fills fields still at their zero value from SIGALG_*
// environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" && c.Port == 0 {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Port = p
	}
	if c.Host == "" {
		c.Host = os.Getenv(EnvHost)
	}
	if c.Policy == "" {
		c.Policy = os.Getenv(EnvPolicy)
	}
	if c.TLSCert == "" {
		c.TLSCert = os.Getenv(EnvTLSCert)
	}
	if c.TLSKey == "" {
		c.TLSKey = os.Getenv(EnvTLSKey)
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("--tls-cert and --tls-key must be set together")
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid max connections: %d", c.MaxConnections)
	}
	return nil
}

// TLSEnabled reports whether the server terminates TLS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Address returns the full listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
