// Package config loads application configuration from an optional .env
// file, an optional YAML file and AIRETABLE_ environment variables.
package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "AIRETABLE_"

// ConfigFileEnv names the YAML config file to read, if any.
const ConfigFileEnv = envPrefix + "CONFIG_FILE"

// NotificationPath is appended to the listen address when no notification
// URL is configured.
const NotificationPath = "/rcv-airtable-webhook-notification"

// Config holds the application configuration.
type Config struct {
	Host            string
	Port            int
	DBPath          string
	AirtableAPIURL  string
	NotificationURL string
	HTTPTimeout     time.Duration
	LogLevel        slog.Level
	// CORSOrigins lists the host patterns allowed to open the RPC websocket
	// cross-origin.
	CORSOrigins []string
	// SecretKey encrypts stored webhook tokens and MAC secrets when set.
	// Only read from the environment.
	SecretKey []byte
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// fileConfig is the YAML file layout. Absent keys keep their defaults.
type fileConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	DBPath          string   `yaml:"db_path"`
	AirtableAPIURL  string   `yaml:"airtable_api_url"`
	NotificationURL string   `yaml:"notification_url"`
	HTTPTimeout     string   `yaml:"http_timeout"`
	LogLevel        string   `yaml:"log_level"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

func defaults() fileConfig {
	return fileConfig{
		Host:           "127.0.0.1",
		Port:           3434,
		DBPath:         "airetable.db",
		AirtableAPIURL: "https://api.airtable.com",
		HTTPTimeout:    "30s",
		LogLevel:       "info",
	}
}

// Load reads configuration and returns a validated Config. Precedence is
// environment over YAML file over defaults. A .env file in the working
// directory is loaded first and never overrides variables already set.
//
// Variables: AIRETABLE_HOST (127.0.0.1), AIRETABLE_PORT (3434),
// AIRETABLE_DB_PATH (airetable.db), AIRETABLE_AIRTABLE_API_URL
// (https://api.airtable.com), AIRETABLE_NOTIFICATION_URL (derived from
// host and port), AIRETABLE_HTTP_TIMEOUT (30s), AIRETABLE_LOG_LEVEL (info),
// AIRETABLE_CORS_ORIGIN (comma-separated, empty), AIRETABLE_SECRET_KEY
// (64 hex characters, optional; environment only).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	raw := defaults()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := readFile(path, &raw); err != nil {
			return nil, err
		}
	}
	applyEnv(&raw)

	return raw.validate()
}

func readFile(path string, raw *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(raw); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(raw *fileConfig) {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	set("HOST", &raw.Host)
	set("DB_PATH", &raw.DBPath)
	set("AIRTABLE_API_URL", &raw.AirtableAPIURL)
	set("NOTIFICATION_URL", &raw.NotificationURL)
	set("HTTP_TIMEOUT", &raw.HTTPTimeout)
	set("LOG_LEVEL", &raw.LogLevel)

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGIN"); ok {
		raw.CORSOrigins = splitList(v)
	}
}

func (raw fileConfig) validate() (*Config, error) {
	port := raw.Port
	if v, ok := os.LookupEnv(envPrefix + "PORT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%sPORT has invalid value %q: %w", envPrefix, v, err)
		}
		port = parsed
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("port %d out of range", port)
	}

	timeout, err := time.ParseDuration(raw.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("%sHTTP_TIMEOUT has invalid duration %q: %w", envPrefix, raw.HTTPTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%sHTTP_TIMEOUT must be positive, got %s", envPrefix, timeout)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw.LogLevel)); err != nil {
		return nil, fmt.Errorf("%sLOG_LEVEL has invalid value %q: %w", envPrefix, raw.LogLevel, err)
	}

	if err := requireAbsoluteURL("AIRTABLE_API_URL", raw.AirtableAPIURL); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:            raw.Host,
		Port:            port,
		DBPath:          raw.DBPath,
		AirtableAPIURL:  strings.TrimRight(raw.AirtableAPIURL, "/"),
		NotificationURL: raw.NotificationURL,
		HTTPTimeout:     timeout,
		LogLevel:        level,
		CORSOrigins:     raw.CORSOrigins,
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{}
	}
	if cfg.NotificationURL == "" {
		cfg.NotificationURL = "http://" + cfg.ListenAddr() + NotificationPath
	}
	if err := requireAbsoluteURL("NOTIFICATION_URL", cfg.NotificationURL); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%sDB_PATH must not be empty", envPrefix)
	}

	if v := os.Getenv(envPrefix + "SECRET_KEY"); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("%sSECRET_KEY must be 64 hex characters (32 bytes)", envPrefix)
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

// NotificationURLProblem reports why Airtable could not deliver to
// NotificationURL, or "" when it looks deliverable. Airtable only calls
// public https endpoints.
func (c *Config) NotificationURLProblem() string {
	u, err := url.Parse(c.NotificationURL)
	if err != nil {
		return "notification URL does not parse"
	}
	if u.Scheme != "https" {
		return "notification URL is not https"
	}

	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return "notification URL points at localhost"
	}
	if ip := net.ParseIP(host); ip != nil &&
		(ip.IsUnspecified() || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()) {
		return "notification URL host " + host + " is not publicly reachable"
	}
	return ""
}

func requireAbsoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s%s must be an absolute URL, got %q", envPrefix, key, raw)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
