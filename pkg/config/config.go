package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore: ADMINSHELL_SERVER__BASE_PATH sets server.base_path.
const EnvPrefix = "ADMINSHELL_"

// Transport names accepted by server.transport.
const (
	TransportChi   = "chi"
	TransportFiber = "fiber"
)

// Config is the runtime configuration of the admin shell binary.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Session  SessionConfig  `koanf:"session"`
	Shell    ShellConfig    `koanf:"shell"`
	Log      LogConfig      `koanf:"log"`
	Activity ActivityConfig `koanf:"activity"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Transport       string        `koanf:"transport"`
	BasePath        string        `koanf:"base_path"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestLogging  bool          `koanf:"request_logging"`
}

type SessionConfig struct {
	Secret string        `koanf:"secret"`
	Cookie string        `koanf:"cookie"`
	MaxAge time.Duration `koanf:"max_age"`
	Secure bool          `koanf:"secure"`

	// IdleTimeout unmounts server-side shells not seen for this long.
	IdleTimeout   time.Duration `koanf:"idle_timeout"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// TTL is the idle timeout capped by the cookie lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.IdleTimeout <= 0 || (s.MaxAge > 0 && s.MaxAge < s.IdleTimeout) {
		return s.MaxAge
	}
	return s.IdleTimeout
}

type ShellConfig struct {
	DefaultVariant    string        `koanf:"default_variant"`
	VariantsDir       string        `koanf:"variants_dir"`
	BannerTimeout     time.Duration `koanf:"banner_timeout"`
	SidebarBreakpoint int           `koanf:"sidebar_breakpoint"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ActivityConfig struct {
	Enabled bool   `koanf:"enabled"`
	Channel string `koanf:"channel"`
}

// Defaults returns the flat key set loaded before any file or env override.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":              ":8080",
		"server.transport":         TransportChi,
		"server.base_path":         "",
		"server.shutdown_timeout":  "10s",
		"server.request_logging":   true,
		"session.cookie":           "admin_shell",
		"session.max_age":          "720h",
		"session.secure":           false,
		"session.idle_timeout":     "24h",
		"session.sweep_interval":   "5m",
		"shell.default_variant":    "en",
		"shell.banner_timeout":     "3s",
		"shell.sidebar_breakpoint": 768,
		"log.level":                "info",
		"log.format":               "text",
		"activity.enabled":         false,
		"activity.channel":         "admin-shell",
	}
}

// Load reads defaults, then the YAML file at path when it exists, then
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(EnvProvider(), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// EnvProvider returns the koanf provider reading ADMINSHELL_* variables from
// the process environment.
func EnvProvider() *env.Env {
	return env.Provider(EnvPrefix, ".", envKey)
}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Server.Transport {
	case TransportChi, TransportFiber:
	default:
		errs = append(errs, fmt.Errorf("invalid server.transport %q: must be chi or fiber", c.Server.Transport))
	}
	if base := c.Server.BasePath; base != "" && !strings.HasPrefix(base, "/") {
		errs = append(errs, fmt.Errorf("server.base_path %q must start with /", base))
	}
	if len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("session.secret must be at least 32 bytes"))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("session.max_age must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive"))
	}
	if c.Shell.DefaultVariant == "" {
		errs = append(errs, errors.New("shell.default_variant is required"))
	}
	if c.Shell.BannerTimeout <= 0 {
		errs = append(errs, errors.New("shell.banner_timeout must be positive"))
	}
	if c.Shell.SidebarBreakpoint <= 0 {
		errs = append(errs, errors.New("shell.sidebar_breakpoint must be positive"))
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("invalid log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}
