// Package config loads rr-mute runtime configuration from environment
// variables, applies defaults and validates the result.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// BadgeAddr is the host:port of the badge surface. Empty disables
	// hidden-count reporting.
	BadgeAddr string `koanf:"badge_addr" validate:"omitempty,host_port"`

	// DBPath is the bolt database file holding both storage areas.
	DBPath string `koanf:"db_path" validate:"required"`

	// DebounceMS is the quiet period in milliseconds between the last page
	// mutation and the rescan it schedules.
	DebounceMS int `koanf:"debounce_ms" validate:"required,gte=10,lte=10000"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// ListenAddr is the host:port the settings endpoint listens on.
	ListenAddr string `koanf:"listen_addr" validate:"required,host_port"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// PagePath is the page snapshot file observed for content changes.
	PagePath string `koanf:"page_path" validate:"required"`

	// SeedPath optionally points at a YAML record imported into an empty
	// storage area on first start.
	SeedPath string `koanf:"seed_path"`

	// SelectorsPath optionally points at a YAML selector profile replacing
	// the built-in one.
	SelectorsPath string `koanf:"selectors_path"`

	// SiteHost is the host the engine considers "the site"; the settings
	// endpoint refuses to operate while the observed page is elsewhere.
	SiteHost string `koanf:"site_host" validate:"required,hostname_rfc1123"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// filtering daemon: production logging, the stock debounce window, and
// filesystem locations under /var/lib/rr-mute.
var DEFAULT_APP_CONFIG = AppConfig{
	BadgeAddr:  "",
	DBPath:     "/var/lib/rr-mute/rules.db",
	DebounceMS: 100,
	Env:        "prod",
	ListenAddr: "127.0.0.1:8391",
	LogLevel:   "info",
	PagePath:   "/var/lib/rr-mute/page.html",
	SiteHost:   "old.reddit.com",
}

// validHostPort validates a "host:port" value. The host part may be empty
// (bind all interfaces) or any name/IP; the port must be 1-65535.
func validHostPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0
}

// envLoader loads environment variables with the prefix "MUTE_", mapping
// MUTE_SOME_KEY to the koanf key "some_key". Declared as a var so tests can
// substitute it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "MUTE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "MUTE_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG via the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "host_port" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("host_port", validHostPort)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
