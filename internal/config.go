package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vellum/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Site   SiteConfig        `yaml:"site"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel   slog.Level `yaml:"log_level"`
	HTTP       HTTPConfig `yaml:"http"`
	Production bool       `yaml:"production"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig holds the site source, template and output locations and the
// rendering settings derived from them.
type SiteConfig struct {
	Content       string `yaml:"content"`
	Templates     string `yaml:"templates"`
	Output        string `yaml:"output"`
	StaticRoot    string `yaml:"static_root"`
	FQImages      string `yaml:"fq_images"`
	LinkNewWindow bool   `yaml:"link_new_window"`
	ScanWorkers   int    `yaml:"scan_workers"`
	// Vars are exposed to templates as @-data, e.g. {{@siteName}}.
	Vars map[string]any `yaml:"vars"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Content, validation.Required),
		validation.Field(&c.Templates, validation.Required),
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.ScanWorkers, validation.Min(0), validation.Max(256)),
	)
}

// RenderOptions builds the render options for this site.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		StaticRoot:    c.Site.StaticRoot,
		FQImages:      c.Site.FQImages,
		LinkNewWindow: c.Site.LinkNewWindow,
		Production:    c.App.Production,
		ScanWorkers:   c.Site.ScanWorkers,
	}
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Content:     "./content",
			Templates:   "./templates",
			Output:      "./public",
			ScanWorkers: 4,
		},
		SQLite: SQLiteConfig{
			Path: "./vellum.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
