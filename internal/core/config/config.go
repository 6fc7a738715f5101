// Package config handles configuration loading and validation for the
// chat client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig points at the mentoring platform backend.
type ServerConfig struct {
	// BaseURL is the REST backend, e.g. http://localhost:8080.
	BaseURL string `yaml:"base_url"`
	// WSPath is the websocket handshake path on the same host.
	WSPath string `yaml:"ws_path"`
}

// TransportConfig tunes the bus connection.
type TransportConfig struct {
	// ReconnectDelay is the fixed delay between reconnect attempts.
	// Attempts are unbounded; the session retries until torn down.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// SessionConfig describes how the backend's session credential is
// attached. The cookie value itself comes from the environment, not the
// config file.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
			WSPath:  "/ws-stomp",
		},
		Transport: TransportConfig{
			ReconnectDelay: 5 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "JSESSIONID",
		},
	}
}

// Load reads configuration from the given path. A missing file is not an
// error; defaults apply.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = defaults.Server.WSPath
	}
	if c.Transport.ReconnectDelay == 0 {
		c.Transport.ReconnectDelay = defaults.Transport.ReconnectDelay
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = defaults.Session.CookieName
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	u, err := url.Parse(c.Server.BaseURL)
	switch {
	case c.Server.BaseURL == "":
		errs = errs.Append("server.base_url", fmt.Errorf("cannot be empty"))
	case err != nil:
		errs = errs.Append("server.base_url", fmt.Errorf("invalid url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = errs.Append("server.base_url", fmt.Errorf("scheme must be http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = errs.Append("server.base_url", fmt.Errorf("missing host"))
	}

	if !strings.HasPrefix(c.Server.WSPath, "/") {
		errs = errs.Append("server.ws_path", fmt.Errorf("must start with /"))
	}

	if c.Transport.ReconnectDelay <= 0 {
		errs = errs.Append("transport.reconnect_delay", fmt.Errorf("must be positive"))
	}

	if c.Session.CookieName == "" {
		errs = errs.Append("session.cookie_name", fmt.Errorf("cannot be empty"))
	}

	return errs.ToError()
}

// WebSocketURL returns the bus handshake endpoint: the backend host with
// the websocket scheme and the configured path.
func (c *Config) WebSocketURL() string {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.Server.WSPath
	return u.String()
}
