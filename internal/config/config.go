// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "1s" or "750ms" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

type Config struct {
	Port    string `yaml:"port"`
	DataDir string `yaml:"data_dir"`

	// Provider selects the illustration/translation backend: gemini or openai.
	Provider       string `yaml:"provider"`
	GeminiModel     string `yaml:"gemini_model"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIChatModel string `yaml:"openai_chat_model"`
	TranslateModel  string `yaml:"translate_model"`

	// PaceDelay is the fixed gap between transformation calls, keeping the
	// batch under the upstream rate limit.
	PaceDelay Duration `yaml:"pace_delay"`

	// LanguagePrimary/LanguageSecondary name the two caption languages.
	LanguagePrimary   string `yaml:"language_primary"`
	LanguageSecondary string `yaml:"language_secondary"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Port:              "8800",
		DataDir:           "data",
		Provider:          "gemini",
		GeminiModel:       "gemini-2.5-flash-image",
		OpenAIModel:       "gpt-image-1",
		OpenAIChatModel:   "gpt-4o",
		TranslateModel:    "gemini-2.5-flash",
		PaceDelay:         Duration(time.Second),
		LanguagePrimary:   "English",
		LanguageSecondary: "Spanish",
	}
}

// Load reads the YAML file at path if it exists, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STORYBOOTH_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("STORYBOOTH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("STORYBOOTH_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.GeminiModel = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAIModel = v
	}
	if v := os.Getenv("OPENAI_CHAT_MODEL"); v != "" {
		c.OpenAIChatModel = v
	}
	if v := os.Getenv("STORYBOOTH_TRANSLATE_MODEL"); v != "" {
		c.TranslateModel = v
	}
	if v := os.Getenv("STORYBOOTH_PACE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PaceDelay = Duration(d)
		}
	}
}

// UploadsDir is where ingested originals are kept for preview serving.
func (c Config) UploadsDir() string {
	return c.DataDir + "/uploads"
}

// StoriesDir is where finalized page images are kept.
func (c Config) StoriesDir() string {
	return c.DataDir + "/stories"
}
