// Package config assembles runtime configuration from defaults, an optional
// .env file, and the process environment.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultSheetURL     = "https://docs.google.com/spreadsheets/d/e/2PACX-1vT_PjUqCiPI1Flsam7e2NrsXLCDLWxhBUKjyl-phYBZlCQ8OcHDozdxuKcBxotrMyb1G8hXiuihJtDb/pub?output=csv"
	defaultTemplatesDir = "templates"
	defaultPublicDir    = "public"
	defaultContentDir   = "content"
	defaultPlaceholder  = "/assets/images/placeholder.svg"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Sheet export formats.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Sheet    SheetConfig
	Site     SiteConfig
	Dev      bool
	LogLevel string
	// ProjectID links request logs to Cloud Trace.
	ProjectID string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SheetConfig points at the published listings export.
type SheetConfig struct {
	URL    string
	Format string
	// FetchTimeout bounds the upstream fetch; zero leaves it to the request.
	FetchTimeout time.Duration
	// Anonymous reads gs:// objects without credentials (public buckets).
	Anonymous bool
}

// SiteConfig locates templates, assets and copy.
type SiteConfig struct {
	TemplatesDir string
	PublicDir    string
	ContentDir   string
	Placeholder  string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the system
// environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration. Precedence: defaults < .env < OS env <
// explicit env map.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	var invalid []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, ok := durationWithDefault(lookup, key, fallback)
		if !ok {
			invalid = append(invalid, key)
		}
		return d
	}

	port := stringWithDefault(lookup, "RENTALS_PORT", "")
	if port == "" {
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  duration("RENTALS_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: duration("RENTALS_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  duration("RENTALS_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Sheet: SheetConfig{
			URL:          strings.TrimSpace(stringWithDefault(lookup, "RENTALS_SHEET_URL", defaultSheetURL)),
			Format:       strings.ToLower(strings.TrimSpace(stringWithDefault(lookup, "RENTALS_SHEET_FORMAT", FormatAuto))),
			FetchTimeout: duration("RENTALS_FETCH_TIMEOUT", 0),
			Anonymous:    boolWithDefault(lookup, "RENTALS_GCS_ANONYMOUS", false),
		},
		Site: SiteConfig{
			TemplatesDir: stringWithDefault(lookup, "RENTALS_TEMPLATES_DIR", defaultTemplatesDir),
			PublicDir:    stringWithDefault(lookup, "RENTALS_PUBLIC_DIR", defaultPublicDir),
			ContentDir:   stringWithDefault(lookup, "RENTALS_CONTENT_DIR", defaultContentDir),
			Placeholder:  stringWithDefault(lookup, "RENTALS_PLACEHOLDER_IMAGE", defaultPlaceholder),
		},
		Dev:      boolWithDefault(lookup, "RENTALS_DEV", false) || boolWithDefault(lookup, "DEV", false),
		LogLevel: stringWithDefault(lookup, "LOG_LEVEL", "info"),
		ProjectID: strings.TrimSpace(stringWithDefault(lookup, "RENTALS_GCP_PROJECT",
			stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", ""))),
	}

	invalid = append(invalid, validateConfig(cfg)...)
	if len(invalid) > 0 {
		return Config{}, &ValidationError{fields: invalid}
	}
	return cfg, nil
}

// Addr is the listen address derived from the port.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}

// ResolvedFormat picks the export format, sniffing output=xlsx from the URL
// when set to auto.
func (s SheetConfig) ResolvedFormat() string {
	switch s.Format {
	case FormatCSV, FormatXLSX:
		return s.Format
	}
	if u, err := url.Parse(s.URL); err == nil {
		if strings.EqualFold(u.Query().Get("output"), FormatXLSX) || strings.HasSuffix(strings.ToLower(u.Path), ".xlsx") {
			return FormatXLSX
		}
	}
	return FormatCSV
}

func validateConfig(cfg Config) []string {
	var invalid []string
	if cfg.Server.Port == "" {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.Sheet.URL == "" {
		invalid = append(invalid, "Sheet.URL")
	} else if u, err := url.Parse(cfg.Sheet.URL); err != nil || !supportedScheme(u.Scheme) {
		invalid = append(invalid, "Sheet.URL")
	}
	switch cfg.Sheet.Format {
	case FormatAuto, FormatCSV, FormatXLSX:
	default:
		invalid = append(invalid, "Sheet.Format")
	}
	if cfg.Sheet.FetchTimeout < 0 {
		invalid = append(invalid, "Sheet.FetchTimeout")
	}
	return invalid
}

func supportedScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https", "gs":
		return true
	}
	return false
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(parts[1]), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

// durationWithDefault reports ok=false when a value is present but unparseable.
func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, bool) {
	value, ok := lookup(key)
	if !ok || value == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, false
	}
	return d, true
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
