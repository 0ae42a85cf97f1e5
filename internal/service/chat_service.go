package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medchat/internal/domain"
	"medchat/internal/repository"
	"medchat/internal/storage"
)

const maxRoleLength = 20

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrMissingFields            = errors.New("missing required fields")
	ErrInvalidConversationID    = errors.New("invalid conversation id")
	ErrRoleTooLong              = errors.New("role too long")
	ErrAudioRequired            = errors.New("audio file is required")
)

// SendMessageInput son los campos de un mensaje de texto a traducir.
type SendMessageInput struct {
	Text           string
	Role           string
	TargetLanguage string
	ConversationID string
}

// UploadAudioInput describe un archivo de audio recibido.
type UploadAudioInput struct {
	ConversationID string
	Role           string
	Filename       string
	ContentType    string
	Body           io.Reader
}

// ChatService orquesta conversaciones, traduccion, audio y resumenes.
type ChatService struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	translator    *TranslationService
	summarizer    *SummaryService
	audio         storage.AudioStore
	cache         SummaryCache
}

func NewChatService(
	logger *zap.Logger,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	translator *TranslationService,
	summarizer *SummaryService,
	audio storage.AudioStore,
	cache SummaryCache,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		logger:        logger,
		conversations: conversations,
		messages:      messages,
		translator:    translator,
		summarizer:    summarizer,
		audio:         audio,
		cache:         cache,
	}
}

func (s *ChatService) configured() bool {
	return s != nil && s.conversations != nil && s.messages != nil
}

// CreateConversation crea una conversacion con id nuevo.
func (s *ChatService) CreateConversation(ctx context.Context) (domain.Conversation, error) {
	if !s.configured() {
		return domain.Conversation{}, ErrChatServiceNotConfigured
	}
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	if !s.configured() {
		return domain.Conversation{}, ErrChatServiceNotConfigured
	}
	id, ok := normalizeConversationID(id)
	if !ok {
		return domain.Conversation{}, ErrInvalidConversationID
	}
	return s.conversations.GetByID(ctx, id)
}

// SendMessage valida los cuatro campos, traduce y persiste el mensaje de texto.
// El texto original se guarda tal cual llego.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (domain.Message, Translation, error) {
	if !s.configured() {
		return domain.Message{}, Translation{}, ErrChatServiceNotConfigured
	}
	if isBlank(in.Text) || isBlank(in.Role) || isBlank(in.TargetLanguage) || isBlank(in.ConversationID) {
		return domain.Message{}, Translation{}, ErrMissingFields
	}
	role := strings.TrimSpace(in.Role)
	if utf8.RuneCountInString(role) > maxRoleLength {
		return domain.Message{}, Translation{}, ErrRoleTooLong
	}
	conversationID, ok := normalizeConversationID(in.ConversationID)
	if !ok {
		return domain.Message{}, Translation{}, ErrInvalidConversationID
	}

	s.logger.Info("incoming message",
		zap.String("conversation_id", conversationID),
		zap.String("role", role),
		zap.String("target_language", in.TargetLanguage),
	)

	translation := s.translator.Translate(ctx, in.Text, strings.TrimSpace(in.TargetLanguage))

	msg := domain.NewTextMessage(uuid.NewString(), conversationID, role, in.Text, translation.Text, time.Now().UTC())
	if err := msg.Validate(); err != nil {
		return domain.Message{}, Translation{}, err
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, Translation{}, fmt.Errorf("create message: %w", err)
	}
	return msg, translation, nil
}

// UploadAudio guarda el archivo y crea el mensaje de audio. Si la insercion falla
// se borra el archivo para no dejar huerfanos.
func (s *ChatService) UploadAudio(ctx context.Context, in UploadAudioInput) (domain.Message, string, error) {
	if !s.configured() || s.audio == nil {
		return domain.Message{}, "", ErrChatServiceNotConfigured
	}
	if in.Body == nil {
		return domain.Message{}, "", ErrAudioRequired
	}
	if isBlank(in.Role) || isBlank(in.ConversationID) {
		return domain.Message{}, "", ErrMissingFields
	}
	role := strings.TrimSpace(in.Role)
	if utf8.RuneCountInString(role) > maxRoleLength {
		return domain.Message{}, "", ErrRoleTooLong
	}
	conversationID, ok := normalizeConversationID(in.ConversationID)
	if !ok {
		return domain.Message{}, "", ErrInvalidConversationID
	}

	key, err := s.audio.Save(ctx, in.Filename, in.ContentType, in.Body)
	if err != nil {
		return domain.Message{}, "", fmt.Errorf("store audio: %w", err)
	}

	msg := domain.NewAudioMessage(uuid.NewString(), conversationID, role, key, time.Now().UTC())
	if err := s.messages.Create(ctx, msg); err != nil {
		if delErr := s.audio.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphan audio cleanup failed", zap.Error(delErr), zap.String("key", key))
		}
		return domain.Message{}, "", fmt.Errorf("create audio message: %w", err)
	}
	return msg, s.audio.URL(key), nil
}

// ListMessages devuelve el historial en orden cronologico; un id vacio o invalido
// equivale a una conversacion sin mensajes.
func (s *ChatService) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if !s.configured() {
		return nil, ErrChatServiceNotConfigured
	}
	conversationID, ok := normalizeConversationID(conversationID)
	if !ok {
		return []domain.Message{}, nil
	}
	return s.messages.ListByConversationID(ctx, conversationID)
}

// SearchMessages busca una subcadena (sin distinguir mayusculas) en el texto original
// o traducido. Sin consulta o sin conversacion devuelve una lista vacia.
func (s *ChatService) SearchMessages(ctx context.Context, conversationID, query string) ([]domain.Message, error) {
	if !s.configured() {
		return nil, ErrChatServiceNotConfigured
	}
	conversationID, ok := normalizeConversationID(conversationID)
	if !ok || query == "" {
		return []domain.Message{}, nil
	}
	return s.messages.Search(ctx, conversationID, query)
}

// Summarize resume los textos originales de la conversacion. Los mensajes de audio
// aportan una linea vacia.
func (s *ChatService) Summarize(ctx context.Context, conversationID string) (Summary, error) {
	if !s.configured() {
		return Summary{}, ErrChatServiceNotConfigured
	}

	messages, err := s.ListMessages(ctx, conversationID)
	if err != nil {
		return Summary{}, fmt.Errorf("list messages: %w", err)
	}
	conversationID, cacheable := normalizeConversationID(conversationID)

	if cacheable && s.cache != nil {
		text, ok, err := s.cache.Get(ctx, conversationID, len(messages))
		if err != nil {
			s.logger.Warn("summary cache get failed", zap.Error(err), zap.String("conversation_id", conversationID))
		} else if ok {
			return Summary{Text: text}, nil
		}
	}

	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Original())
	}

	summary := s.summarizer.Summarize(ctx, texts)

	if cacheable && s.cache != nil && !summary.Degraded {
		if err := s.cache.Set(ctx, conversationID, len(messages), summary.Text); err != nil {
			s.logger.Warn("summary cache set failed", zap.Error(err), zap.String("conversation_id", conversationID))
		}
	}
	return summary, nil
}

// AudioURL resuelve la URL publica de una clave de audio.
func (s *ChatService) AudioURL(key string) string {
	if s == nil || s.audio == nil {
		return key
	}
	return s.audio.URL(key)
}

func normalizeConversationID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
