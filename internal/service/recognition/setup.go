package recognition

import (
	"fmt"
	"log/slog"

	"mediscript/internal/config"
	"mediscript/internal/domain/services"
	"mediscript/internal/service/recognition/anthropic"
	"mediscript/internal/service/recognition/lorem"
)

// NewFromConfig builds the recognizer named by cfg.RecognitionProvider and
// throttles it when cfg.RecognitionRPS is positive.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (services.Recognizer, error) {
	var recognizer services.Recognizer

	switch cfg.RecognitionProvider {
	case config.ProviderAnthropic:
		r, err := anthropic.NewRecognizer(cfg.AnthropicAPIKey, cfg.RecognitionModel, cfg.RecognitionMaxTokens, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic recognizer: %w", err)
		}
		recognizer = r
	case config.ProviderLorem:
		recognizer = lorem.NewRecognizer(0)
	default:
		return nil, fmt.Errorf("unsupported recognition provider: %s", cfg.RecognitionProvider)
	}

	if cfg.RecognitionRPS > 0 {
		recognizer = NewThrottled(recognizer, cfg.RecognitionRPS, cfg.RecognitionBurst)
	}

	logger.Info("recognizer ready",
		"provider", recognizer.Name(),
		"model", cfg.RecognitionModel,
		"rps", cfg.RecognitionRPS,
	)
	return recognizer, nil
}
