package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medchat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error)
	Search(ctx context.Context, conversationID, query string) ([]domain.Message, error)
}

// created_at tiene resolucion de microsegundos; seq desempata en orden de insercion.
const pgMessageOrder = "ORDER BY created_at ASC, seq ASC"

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, conversation_id, role, original_text, translated_text, audio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ConversationID,
		message.Role,
		message.OriginalText,
		message.TranslatedText,
		message.Audio,
		message.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create message: %w", ErrConversationNotFound)
	}
	return err
}

func (r *PgMessageRepository) ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, role, original_text, translated_text, audio, created_at
		FROM messages
		WHERE conversation_id = $1
		` + pgMessageOrder

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// Search filtra por subcadena sin distinguir mayusculas en el texto original o traducido.
// strpos evita tener que escapar comodines de LIKE en la consulta del usuario.
func (r *PgMessageRepository) Search(ctx context.Context, conversationID, query string) ([]domain.Message, error) {
	const stmt = `
		SELECT id, conversation_id, role, original_text, translated_text, audio, created_at
		FROM messages
		WHERE conversation_id = $1
		  AND (
		    strpos(lower(coalesce(original_text, '')), lower($2)) > 0
		    OR strpos(lower(coalesce(translated_text, '')), lower($2)) > 0
		  )
		` + pgMessageOrder

	rows, err := r.pool.Query(ctx, stmt, conversationID, query)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.OriginalText,
			&msg.TranslatedText,
			&msg.Audio,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
