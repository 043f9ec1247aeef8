package cmd

import (
	"fmt"

	"github.com/storybooth/storybooth/internal/config"
	"github.com/storybooth/storybooth/internal/gemini"
	"github.com/storybooth/storybooth/internal/openai"
	"github.com/storybooth/storybooth/internal/providers"
)

func newProvider(cfg config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.New(cfg.GeminiModel, cfg.TranslateModel), nil
	case "openai":
		return openai.New(cfg.OpenAIModel, cfg.OpenAIChatModel), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
