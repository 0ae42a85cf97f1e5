package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medchat/internal/domain"
	"medchat/internal/repository"
	"medchat/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de conversaciones y mensajes.
type ChatHandler struct {
	logger *zap.Logger
	chat   *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chat *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger: logger,
		chat:   chat,
	}
}

// messageView es la forma publica de un mensaje; los campos ausentes salen como null.
type messageView struct {
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	Original   *string `json:"original"`
	Translated *string `json:"translated"`
	Audio      *string `json:"audio"`
}

func (h *ChatHandler) views(messages []domain.Message) []messageView {
	out := make([]messageView, 0, len(messages))
	for _, m := range messages {
		v := messageView{
			ID:         m.ID,
			Role:       m.Role,
			Original:   m.OriginalText,
			Translated: m.TranslatedText,
		}
		if m.Audio != nil {
			url := h.chat.AudioURL(*m.Audio)
			v.Audio = &url
		}
		out = append(out, v)
	}
	return out
}

// CreateConversation maneja POST /api/conversation/.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	conv, err := h.chat.CreateConversation(c.Request.Context())
	if err != nil {
		h.logger.Error("create conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// SendMessage maneja POST /api/message/.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Text           string `json:"text"`
		Role           string `json:"role"`
		TargetLanguage string `json:"target_language"`
		ConversationID string `json:"conversation_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid send message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, translation, err := h.chat.SendMessage(c.Request.Context(), service.SendMessageInput{
		Text:           req.Text,
		Role:           req.Role,
		TargetLanguage: req.TargetLanguage,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		h.writeError(c, "send message failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         msg.ID,
		"translated": translation.Text,
		"degraded":   translation.Degraded,
	})
}

// GenerateSummary maneja POST /api/summary/.
func (h *ChatHandler) GenerateSummary(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid summary request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	summary, err := h.chat.Summarize(c.Request.Context(), req.ConversationID)
	if err != nil {
		h.writeError(c, "generate summary failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":  summary.Text,
		"degraded": summary.Degraded,
	})
}

// UploadAudio maneja POST /api/audio/ (multipart: audio, role, conversation_id).
func (h *ChatHandler) UploadAudio(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		h.logger.Warn("audio upload without file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded audio failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read audio"})
		return
	}
	defer file.Close()

	_, url, err := h.chat.UploadAudio(c.Request.Context(), service.UploadAudioInput{
		ConversationID: c.PostForm("conversation_id"),
		Role:           c.PostForm("role"),
		Filename:       fileHeader.Filename,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		Body:           file,
	})
	if err != nil {
		h.writeError(c, "upload audio failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audio_url": url})
}

// GetMessages maneja GET /api/messages/:conversation_id/.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	messages, err := h.chat.ListMessages(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		h.writeError(c, "list messages failed", err)
		return
	}

	c.JSON(http.StatusOK, h.views(messages))
}

// SearchMessages maneja GET /api/search/?q=&conversation_id=.
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	messages, err := h.chat.SearchMessages(c.Request.Context(), c.Query("conversation_id"), c.Query("q"))
	if err != nil {
		h.writeError(c, "search messages failed", err)
		return
	}

	c.JSON(http.StatusOK, h.views(messages))
}

// writeError traduce errores de servicio a status HTTP sin filtrar detalles internos.
func (h *ChatHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
	case errors.Is(err, service.ErrAudioRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
	case errors.Is(err, service.ErrInvalidConversationID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
	case errors.Is(err, service.ErrRoleTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be at most 20 characters"})
	case errors.Is(err, repository.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
