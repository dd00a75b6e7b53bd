// Package config provides configuration file parsing.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/fgeck/gowake/internal/models"
	"github.com/spf13/viper"
)

const (
	appName          = "gowake"
	envPrefix        = "GOWAKE"
	settingsFileName = "config.yaml"
	registryFileName = "machines.yaml"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser. Environment variables with
// the GOWAKE_ prefix override file values (e.g. GOWAKE_WAKE_BROADCAST_ADDR).
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Parser{v: v}
}

// DefaultDir returns the per-user gowake configuration directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultSettingsPath returns the settings file used when none is given.
func DefaultSettingsPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFileName), nil
}

// Load reads the settings file at path. An empty path means the default
// location; a missing default file yields the defaults.
func (p *Parser) Load(path string) (*models.Settings, error) {
	if path != "" {
		return p.LoadFile(path)
	}

	path, err := DefaultSettingsPath()
	if err != nil {
		return p.parse()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return p.parse()
	}
	return p.LoadFile(path)
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Settings, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Settings, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.Settings, error) {
	cfg := &models.Settings{
		RegistryPath: p.expandEnv(p.v.GetString("registry_path")),
		Wake: models.WakeConfig{
			BroadcastAddr: p.v.GetString("wake.broadcast_addr"),
			BindAddr:      p.v.GetString("wake.bind_addr"),
			Interface:     p.v.GetString("wake.interface"),
		},
		Server: models.ServerConfig{
			ListenAddr: p.v.GetString("server.listen_addr"),
		},
		Listen: models.ListenConfig{
			Addrs: p.v.GetStringSlice("listen.addrs"),
		},
	}

	// Set defaults.
	if cfg.RegistryPath == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("registry_path is required: %w", err)
		}
		cfg.RegistryPath = filepath.Join(dir, registryFileName)
	}
	if cfg.Wake.BroadcastAddr == "" {
		cfg.Wake.BroadcastAddr = models.DefaultBroadcastAddr
	}
	if cfg.Wake.BindAddr == "" {
		cfg.Wake.BindAddr = models.DefaultBindAddr
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = models.DefaultServerAddr
	}
	if len(cfg.Listen.Addrs) == 0 {
		cfg.Listen.Addrs = append([]string(nil), models.DefaultListenAddrs...)
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Settings) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.RegistryPath == "" {
		return fmt.Errorf("registry_path is required")
	}

	if err := ValidateHostPort(cfg.Wake.BroadcastAddr); err != nil {
		return fmt.Errorf("wake.broadcast_addr: %w", err)
	}
	if err := ValidateHostPort(cfg.Wake.BindAddr); err != nil {
		return fmt.Errorf("wake.bind_addr: %w", err)
	}
	if err := ValidateHostPort(cfg.Server.ListenAddr); err != nil {
		return fmt.Errorf("server.listen_addr: %w", err)
	}
	for _, addr := range cfg.Listen.Addrs {
		if err := ValidateHostPort(addr); err != nil {
			return fmt.Errorf("listen.addrs: %w", err)
		}
	}

	return nil
}

// ValidateHostPort checks that addr has the IP:PORT (or host:port) shape.
func ValidateHostPort(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if _, err := net.LookupPort("udp", port); err != nil {
		return fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return nil
}
