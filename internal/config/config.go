package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/livefir/anchor"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for anchor configuration,
	// relative to the home directory
	DefaultConfigDir = ".config/anchor"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config represents the anchor configuration
type Config struct {
	// Strategy is the recovery kind: none, ancestry or tree_path
	Strategy string `yaml:"strategy" validate:"oneof=none ancestry tree_path"`

	// BoundaryRole stops ancestry capture
	BoundaryRole string `yaml:"boundary_role" validate:"required"`

	// ExcludeBoundary leaves the boundary node out of the captured chain
	ExcludeBoundary bool `yaml:"exclude_boundary,omitempty"`

	// LogLevel is the minimum zap level
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Journal JournalConfig `yaml:"journal"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// JournalConfig locates the recovery journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig names the prometheus namespace.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" validate:"required,excludesall=-."`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Strategy:     anchor.PathDescent.String(),
		BoundaryRole: string(anchor.RoleWindow),
		LogLevel:     "info",
		Metrics: MetricsConfig{
			Namespace: "anchor",
		},
	}
}

// DefaultPath returns ~/.config/anchor/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, ConfigFileName), nil
}

// Load reads the config at path. A missing file yields the defaults.
// ${VAR} references are expanded from the environment before parsing, and
// fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration to path, creating its directory.
func Save(path string, config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks field values and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q (got %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
}

// Kind returns the configured recovery kind.
func (c *Config) Kind() anchor.Kind {
	kind, _ := anchor.ParseKind(c.Strategy)
	return kind
}

// Options translates the config into strategy options.
func (c *Config) Options() []anchor.Option {
	opts := []anchor.Option{anchor.WithBoundary(anchor.Role(c.BoundaryRole))}
	if c.ExcludeBoundary {
		opts = append(opts, anchor.WithExcludeBoundary())
	}
	return opts
}
