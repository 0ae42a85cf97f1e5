package domain

import (
	"errors"
	"strings"
	"time"
)

// MessageKind distingue mensajes de texto traducido y mensajes de audio.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindAudio MessageKind = "audio"
)

var ErrInvalidMessageKind = errors.New("message must carry either text or audio")

// Message es un mensaje persistido. Un mensaje de texto lleva original y traduccion;
// uno de audio lleva solo la clave del archivo.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	OriginalText   *string   `json:"original_text,omitempty"`
	TranslatedText *string   `json:"translated_text,omitempty"`
	Audio          *string   `json:"audio,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewTextMessage(id, conversationID, role, original, translated string, createdAt time.Time) Message {
	return Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		OriginalText:   &original,
		TranslatedText: &translated,
		CreatedAt:      createdAt,
	}
}

func NewAudioMessage(id, conversationID, role, audioKey string, createdAt time.Time) Message {
	return Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Audio:          &audioKey,
		CreatedAt:      createdAt,
	}
}

// Kind deduce la variante a partir de los campos presentes.
func (m Message) Kind() MessageKind {
	if m.Audio != nil {
		return MessageKindAudio
	}
	return MessageKindText
}

// Validate exige exactamente una variante: texto completo o audio, nunca ambos ni ninguno.
func (m Message) Validate() error {
	hasText := m.OriginalText != nil && m.TranslatedText != nil
	hasAudio := m.Audio != nil && strings.TrimSpace(*m.Audio) != ""

	switch {
	case hasText && m.Audio == nil:
		return nil
	case hasAudio && m.OriginalText == nil && m.TranslatedText == nil:
		return nil
	default:
		return ErrInvalidMessageKind
	}
}

// Original devuelve el texto original o "" si no existe.
func (m Message) Original() string {
	if m.OriginalText == nil {
		return ""
	}
	return *m.OriginalText
}
