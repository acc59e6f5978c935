package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sowilo/internal/anchor"
	"github.com/starford/sowilo/internal/canvas"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Canvas CanvasConfig      `yaml:"canvas"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Canvas.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
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

// VaultConfig holds the path to the vault directory containing notes and
// canvas boards.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
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

// CanvasConfig holds the send-to-canvas behaviour: anchor ID generation,
// node placement, sizing, and reference formatting.
type CanvasConfig struct {
	BlockID            BlockIDConfig `yaml:"block_id"`
	AppendTimestamp    bool          `yaml:"append_timestamp"`
	TimestampLayout    string        `yaml:"timestamp_layout"`
	PlacementGap       float64       `yaml:"placement_gap"`
	OpenTaskAppendText string        `yaml:"open_task_append_text"`
	Nodes              NodesConfig   `yaml:"nodes"`
}

// Validate validates the canvas configuration.
func (c *CanvasConfig) Validate() error {
	if err := c.BlockID.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PlacementGap, validation.Min(0.0)),
	); err != nil {
		return err
	}
	return c.Nodes.Validate()
}

// BlockIDConfig holds anchor ID generation settings.
type BlockIDConfig struct {
	Mode       string `yaml:"mode"`
	Length     int    `yaml:"length"`
	TimeLayout string `yaml:"time_layout"`
}

// Validate validates the block ID configuration.
func (c *BlockIDConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(anchor.ModeRandom, anchor.ModeTime)),
		validation.Field(&c.Length, validation.Min(6), validation.Max(9)),
	)
}

// NodesConfig holds per-kind node dimensions.
type NodesConfig struct {
	Link    SizeConfig `yaml:"link"`
	Content SizeConfig `yaml:"content"`
	File    SizeConfig `yaml:"file"`
}

// Validate validates the node dimension configuration.
func (c *NodesConfig) Validate() error {
	for _, s := range []*SizeConfig{&c.Link, &c.Content, &c.File} {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SizeConfig is a width/height pair in canvas plane units.
type SizeConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Validate validates a node size.
func (c *SizeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(1.0)),
	)
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
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./sowilo.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Canvas: CanvasConfig{
			BlockID: BlockIDConfig{
				Mode:       anchor.ModeRandom,
				Length:     anchor.DefaultLength,
				TimeLayout: anchor.DefaultTimeLayout,
			},
			TimestampLayout: canvas.DefaultTimestampLayout,
			PlacementGap:    canvas.DefaultPlacementGap,
			Nodes: NodesConfig{
				Link:    SizeConfig{Width: 400, Height: 100},
				Content: SizeConfig{Width: 400, Height: 200},
				File:    SizeConfig{Width: 400, Height: 400},
			},
		},
	}
}
