package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medchat/internal/domain"
)

// SQLiteConversationRepository persiste conversaciones en SQLite (desarrollo local y tests).
type SQLiteConversationRepository struct {
	db *sql.DB
}

func NewSQLiteConversationRepository(db *sql.DB) *SQLiteConversationRepository {
	return &SQLiteConversationRepository{db: db}
}

func (r *SQLiteConversationRepository) Create(ctx context.Context, conversation domain.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES (?, ?)`,
		conversation.ID,
		conversation.CreatedAt.UTC().UnixNano(),
	)
	return err
}

func (r *SQLiteConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	var (
		conversation domain.Conversation
		createdAt    int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE id = ?`, id,
	).Scan(&conversation.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	conversation.CreatedAt = time.Unix(0, createdAt).UTC()
	return conversation, nil
}

// Ping verifica que la base siga accesible.
func (r *SQLiteConversationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type SQLiteMessageRepository struct {
	db *sql.DB
}

func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

func (r *SQLiteMessageRepository) Create(ctx context.Context, message domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, original_text, translated_text, audio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.ConversationID,
		message.Role,
		nullString(message.OriginalText),
		nullString(message.TranslatedText),
		nullString(message.Audio),
		message.CreatedAt.UTC().UnixNano(),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create message: %w", ErrConversationNotFound)
	}
	return err
}

func (r *SQLiteMessageRepository) ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, original_text, translated_text, audio, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	return scanSQLiteMessages(rows)
}

// Search usa instr sobre lower(); lower() de SQLite solo pliega ASCII,
// asi que la consulta se pliega en Go con la misma regla.
func (r *SQLiteMessageRepository) Search(ctx context.Context, conversationID, query string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, original_text, translated_text, audio, created_at
		FROM messages
		WHERE conversation_id = ?
		  AND (
		    instr(lower(coalesce(original_text, '')), ?) > 0
		    OR instr(lower(coalesce(translated_text, '')), ?) > 0
		  )
		ORDER BY created_at ASC, rowid ASC`,
		conversationID,
		asciiLower(query),
		asciiLower(query),
	)
	if err != nil {
		return nil, err
	}
	return scanSQLiteMessages(rows)
}

func scanSQLiteMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			msg                         domain.Message
			original, translated, audio sql.NullString
			createdAt                   int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &original, &translated, &audio, &createdAt); err != nil {
			return nil, err
		}
		msg.OriginalText = stringPtr(original)
		msg.TranslatedText = stringPtr(translated)
		msg.Audio = stringPtr(audio)
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
