// Package config loads the portfolio server configuration from an optional
// TOML file, an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/malvinraqin/portfolio/pkg/datastream"
	"github.com/malvinraqin/portfolio/pkg/llm/gemini"
	"github.com/malvinraqin/portfolio/pkg/persona"
)

// DefaultAPIKeyEnv is the variable holding the Gemini API key.
const DefaultAPIKeyEnv = "GOOGLE_GENERATIVE_AI_API_KEY"

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full server configuration.
type Config struct {
	// Listen is the address to listen on (e.g., ":8080")
	Listen string `toml:"listen"`

	Debug bool `toml:"debug"`

	Provider Provider `toml:"provider"`
	Chat     Chat     `toml:"chat"`
}

// Provider configures the hosted model.
type Provider struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// The key itself is never read from the config file.
	APIKeyEnv string `toml:"api_key_env"`
	APIKey    string `toml:"-"`
}

// Chat configures the chat endpoint.
type Chat struct {
	// MaxDuration bounds a whole chat request, streaming included
	MaxDuration    Duration `toml:"max_duration"`
	StreamProtocol string   `toml:"stream_protocol"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen: ":8080",
		Provider: Provider{
			BaseURL:   gemini.DefaultBaseURL,
			Model:     persona.Model,
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		Chat: Chat{
			MaxDuration:    Duration{30 * time.Second},
			StreamProtocol: string(datastream.ProtocolData),
		},
	}
}

// Load builds the configuration. Later sources win: defaults, the TOML file
// at path (skipped when path is empty), .env in the working directory (if
// present), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("could not read .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	if v := os.Getenv("PORTFOLIO_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("PORTFOLIO_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("PORTFOLIO_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PORTFOLIO_DEBUG %q: %w", v, err)
		}
		c.Debug = debug
	}
	if v := os.Getenv("PORTFOLIO_ALLOWED_ORIGINS"); v != "" {
		c.Chat.AllowedOrigins = splitList(v)
	}

	if c.Provider.APIKeyEnv == "" {
		c.Provider.APIKeyEnv = DefaultAPIKeyEnv
	}
	c.Provider.APIKey = strings.TrimSpace(os.Getenv(c.Provider.APIKeyEnv))

	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if c.Chat.MaxDuration.Duration <= 0 {
		return fmt.Errorf("chat.max_duration must be positive, got %s", c.Chat.MaxDuration)
	}
	if _, err := datastream.ParseProtocol(c.Chat.StreamProtocol); err != nil {
		return fmt.Errorf("chat.stream_protocol: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
