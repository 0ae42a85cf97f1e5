package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"medchat/internal/llm"
)

const (
	summarizerSystemPrompt = "Summarize this doctor patient medical conversation."
	summaryFallbackText    = "⚠️ Unable to generate summary right now."
)

// Summary es el resultado del resumen; Degraded marca el texto de respaldo.
type Summary struct {
	Text     string
	Degraded bool
	Cause    error
}

// SummaryService resume conversaciones medico-paciente con el LLM.
type SummaryService struct {
	llmClient llm.Client
	logger    *zap.Logger
}

func NewSummaryService(llmClient llm.Client, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{llmClient: llmClient, logger: logger}
}

// Summarize une los textos con saltos de linea y pide el resumen en un unico intento.
// Una lista vacia igual se envia.
func (s *SummaryService) Summarize(ctx context.Context, texts []string) Summary {
	if s == nil || s.llmClient == nil {
		return Summary{Text: summaryFallbackText, Degraded: true, Cause: ErrLLMNotConfigured}
	}

	joined := strings.Join(texts, "\n")
	raw, err := s.llmClient.Complete(ctx, summarizerSystemPrompt, joined)
	if err == nil {
		if out := cleanModelOutput(raw); out != "" {
			return Summary{Text: out}
		}
		err = llm.ErrEmptyResponse
	}

	s.logger.Error("ai summary error", zap.Error(err), zap.Int("messages", len(texts)))
	return Summary{Text: summaryFallbackText, Degraded: true, Cause: err}
}
