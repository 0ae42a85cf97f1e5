package domain

import "time"

// Conversation agrupa los mensajes de una consulta medico-paciente.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
