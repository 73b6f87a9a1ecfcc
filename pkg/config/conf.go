package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"
	dirMode  = 0700
	fileMode = 0600

	ThemeDark  = "Dark"
	ThemeLight = "Light"
)

// Config represents app config object.
type Config struct {
	Server    Server    `yaml:"server"`
	Theme     string    `yaml:"theme"`
	Model     string    `yaml:"model,omitempty"`
	ScorerURL string    `yaml:"scorer_url,omitempty"`
	Log       Log       `yaml:"log"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

type Server struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimit caps assessment requests per client. Zero requests disables it.
type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Default returns the configuration written on first use.
func Default() *Config {
	return &Config{
		Server: Server{
			Address: "127.0.0.1",
			Port:    8080,
		},
		Theme: ThemeDark,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimit{
			Requests: 30,
			Window:   time.Minute,
		},
	}
}

// Validate checks the config and fills in defaults for missing values.
func (c *Config) Validate() error {
	d := Default()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port: %d", c.Server.Port)
	}
	theme, ok := ParseTheme(c.Theme)
	if !ok && c.Theme != "" {
		return errors.Errorf("invalid theme: %s", c.Theme)
	}
	c.Theme = theme
	if c.RateLimit.Requests < 0 {
		return errors.Errorf("invalid rate limit requests: %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		c.RateLimit.Window = d.RateLimit.Window
	}
	return nil
}

// ParseTheme normalizes v to one of the supported themes. It returns the
// dark theme and false for anything else.
func ParseTheme(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "dark":
		return ThemeDark, true
	case "light":
		return ThemeLight, true
	default:
		return ThemeDark, false
	}
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", FileName)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(dirPath, dirMode)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, FileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	return Read(path)
}

// Read loads the config file at path.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		err := os.Mkdir(dir, dirMode)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
