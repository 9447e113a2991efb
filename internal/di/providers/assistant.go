package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/shelfwise/shelfwise-server/internal/assistant"
	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/logger"
)

// AssistantHandle holds the model-backed features. Both fields are nil
// when no model is configured.
type AssistantHandle struct {
	Assistant *assistant.Assistant
	Suggester *assistant.Suggester
}

// ProvideAssistant provides the chat assistant and the suggester, sharing
// one breaker-guarded Gemini generator.
func ProvideAssistant(i do.Injector) (*AssistantHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	gemini, err := assistant.NewGeminiGenerator(context.Background(), assistant.GeminiConfig{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	}, log.Logger)
	if errors.Is(err, assistant.ErrNoAPIKey) {
		log.Warn("No model API key configured, chat and suggestions are disabled")
		return &AssistantHandle{}, nil
	}
	if err != nil {
		return nil, err
	}

	gen := assistant.NewBreakerGenerator(gemini, assistant.BreakerConfig{
		Name:         "gemini",
		MaxRequests:  cfg.AI.BreakerMaxRequests,
		Interval:     cfg.AI.BreakerInterval,
		Timeout:      cfg.AI.BreakerTimeout,
		MinRequests:  cfg.AI.BreakerMinRequests,
		FailureRatio: cfg.AI.BreakerFailureRatio,
	}, log.Logger)

	log.Info("Assistant ready", "model", gemini.Model())

	return &AssistantHandle{
		Assistant: assistant.New(assistant.Config{Generator: gen, Catalog: storeHandle.Store, Logger: log.Logger}),
		Suggester: assistant.NewSuggester(gen, storeHandle.Store, log.Logger),
	}, nil
}
