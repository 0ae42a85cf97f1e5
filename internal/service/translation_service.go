package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"medchat/internal/llm"
)

const (
	translatorSystemPrompt = "You are a professional medical translator."
	translationFallbackTag = "[DEV MODE – translation unavailable]"
)

var ErrLLMNotConfigured = errors.New("llm client not configured")

// Translation es el resultado de una traduccion. Degraded indica que Text es el
// texto de respaldo y Cause guarda el error que lo provoco.
type Translation struct {
	Text     string
	Degraded bool
	Cause    error
}

// TranslationService traduce textos clinicos usando el LLM.
type TranslationService struct {
	llmClient llm.Client
	logger    *zap.Logger
}

func NewTranslationService(llmClient llm.Client, logger *zap.Logger) *TranslationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranslationService{llmClient: llmClient, logger: logger}
}

// Translate hace un unico intento; ante cualquier fallo devuelve el texto de respaldo.
func (s *TranslationService) Translate(ctx context.Context, text, targetLanguage string) Translation {
	if s == nil || s.llmClient == nil {
		return translationFallback(text, ErrLLMNotConfigured)
	}

	prompt := fmt.Sprintf("Translate this to %s: %s", targetLanguage, text)
	raw, err := s.llmClient.Complete(ctx, translatorSystemPrompt, prompt)
	if err == nil {
		if out := cleanModelOutput(raw); out != "" {
			return Translation{Text: out}
		}
		err = llm.ErrEmptyResponse
	}

	s.logger.Error("ai translation error",
		zap.Error(err),
		zap.String("target_language", targetLanguage),
	)
	return translationFallback(text, err)
}

func translationFallback(text string, cause error) Translation {
	return Translation{
		Text:     translationFallbackTag + " " + text,
		Degraded: true,
		Cause:    cause,
	}
}
