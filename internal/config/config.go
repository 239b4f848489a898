package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/socialrank/internal/recommend"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Recommend Recommend `yaml:"recommend"`
	Sources   Sources   `yaml:"sources"`
	Ingest    Ingest    `yaml:"ingest"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port                  int `yaml:"port" validate:"gte=1,lte=65535"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" validate:"gte=1"`
}

type Logging struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Recommend mirrors recommend.Config in YAML form.
type Recommend struct {
	Alpha                   float64 `yaml:"alpha" validate:"gte=0,lte=1"`
	CommentBoost            float64 `yaml:"comment_boost" validate:"gte=0"`
	DecayHalfLifeDays       float64 `yaml:"decay_half_life_days" validate:"gt=0"`
	DecayFloor              float64 `yaml:"decay_floor" validate:"gte=0,lte=1"`
	NewArticleBoost         float64 `yaml:"new_article_boost" validate:"gte=0"`
	NewArticleWindowMinutes int     `yaml:"new_article_window_minutes" validate:"gte=0"`
	DefaultLimit            int     `yaml:"default_limit" validate:"gte=1"`
	MaxLimit                int     `yaml:"max_limit" validate:"gtefield=DefaultLimit"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds" validate:"dive"`
}

type Feed struct {
	URL   string `yaml:"url" validate:"required,url"`
	Name  string `yaml:"name"`
	Scope string `yaml:"scope" validate:"omitempty,oneof=public friends-only private"`
}

type Ingest struct {
	PublisherID         string `yaml:"publisher_id"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds" validate:"gte=1"`
	MaxPerFeed          int    `yaml:"max_per_feed" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigDir returns the XDG config directory for socialrank.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "socialrank")
}

// DataDir returns the XDG data directory for socialrank.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "socialrank")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/socialrank/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'socialrank init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	def := recommend.DefaultConfig()
	cfg := &Config{
		Server:  Server{Port: 8000, RequestTimeoutSeconds: 10},
		Logging: Logging{Level: "info", Format: "console"},
		Recommend: Recommend{
			Alpha:                   def.Alpha,
			CommentBoost:            def.CommentBoost,
			DecayHalfLifeDays:       def.DecayHalfLifeDays,
			DecayFloor:              def.DecayFloor,
			NewArticleBoost:         def.NewArticleBoost,
			NewArticleWindowMinutes: int(def.NewArticleWindow / time.Minute),
			DefaultLimit:            def.DefaultLimit,
			MaxLimit:                def.MaxLimit,
		},
		Ingest: Ingest{FetchTimeoutSeconds: 15, MaxPerFeed: 20},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	return cfg, nil
}

// Validate checks field ranges and reports every failing field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// RecommendConfig converts the recommend section into engine settings.
func (c *Config) RecommendConfig() recommend.Config {
	r := c.Recommend
	return recommend.Config{
		Alpha:             r.Alpha,
		CommentBoost:      r.CommentBoost,
		DecayHalfLifeDays: r.DecayHalfLifeDays,
		DecayFloor:        r.DecayFloor,
		NewArticleBoost:   r.NewArticleBoost,
		NewArticleWindow:  time.Duration(r.NewArticleWindowMinutes) * time.Minute,
		DefaultLimit:      r.DefaultLimit,
		MaxLimit:          r.MaxLimit,
	}
}

// RequestTimeout returns the HTTP per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-request timeout for content fetching.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Ingest.FetchTimeoutSeconds) * time.Second
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
