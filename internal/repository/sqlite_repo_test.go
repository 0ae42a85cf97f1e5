package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"medchat/internal/db"
	"medchat/internal/domain"
)

func newSQLiteRepos(t *testing.T) (*SQLiteConversationRepository, *SQLiteMessageRepository) {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewSQLiteConversationRepository(sqlDB), NewSQLiteMessageRepository(sqlDB)
}

func createConversation(t *testing.T, repo *SQLiteConversationRepository) domain.Conversation {
	t.Helper()
	conv := domain.Conversation{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(context.Background(), conv))
	return conv
}

func TestSQLiteConversationRepository_CreateAndGet(t *testing.T) {
	convRepo, _ := newSQLiteRepos(t)
	ctx := context.Background()

	conv := createConversation(t, convRepo)

	got, err := convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, conv.ID, got.ID)
	require.True(t, conv.CreatedAt.Equal(got.CreatedAt))

	_, err = convRepo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrConversationNotFound)

	require.NoError(t, convRepo.Ping(ctx))
}

func TestSQLiteMessageRepository_ListOrdersByCreatedAt(t *testing.T) {
	convRepo, msgRepo := newSQLiteRepos(t)
	ctx := context.Background()

	a := createConversation(t, convRepo)
	b := createConversation(t, convRepo)

	base := time.Now().UTC()
	// Insercion desordenada e intercalada con otra conversacion.
	inserts := []domain.Message{
		domain.NewTextMessage(uuid.NewString(), a.ID, "patient", "third", "tercero", base.Add(3*time.Second)),
		domain.NewTextMessage(uuid.NewString(), b.ID, "doctor", "other", "otro", base.Add(2*time.Second)),
		domain.NewTextMessage(uuid.NewString(), a.ID, "doctor", "first", "primero", base.Add(time.Second)),
		domain.NewAudioMessage(uuid.NewString(), a.ID, "patient", "audio/x.webm", base.Add(2*time.Second)),
	}
	for _, m := range inserts {
		require.NoError(t, msgRepo.Create(ctx, m))
	}

	out, err := msgRepo.ListByConversationID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "first", out[0].Original())
	require.Equal(t, domain.MessageKindAudio, out[1].Kind())
	require.Equal(t, "audio/x.webm", *out[1].Audio)
	require.Nil(t, out[1].OriginalText)
	require.Equal(t, "third", out[2].Original())
	require.Equal(t, "tercero", *out[2].TranslatedText)

	empty, err := msgRepo.ListByConversationID(ctx, uuid.NewString())
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestSQLiteMessageRepository_Search(t *testing.T) {
	convRepo, msgRepo := newSQLiteRepos(t)
	ctx := context.Background()

	conv := createConversation(t, convRepo)
	other := createConversation(t, convRepo)
	now := time.Now().UTC()

	require.NoError(t, msgRepo.Create(ctx, domain.NewTextMessage(uuid.NewString(), conv.ID, "patient", "I have a Headache", "Tengo dolor de cabeza", now)))
	require.NoError(t, msgRepo.Create(ctx, domain.NewTextMessage(uuid.NewString(), conv.ID, "doctor", "Since when?", "¿Desde cuando?", now.Add(time.Second))))
	require.NoError(t, msgRepo.Create(ctx, domain.NewTextMessage(uuid.NewString(), other.ID, "patient", "headache too", "tambien", now)))
	require.NoError(t, msgRepo.Create(ctx, domain.NewAudioMessage(uuid.NewString(), conv.ID, "patient", "audio/headache.webm", now)))

	out, err := msgRepo.Search(ctx, conv.ID, "HEADACHE")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "I have a Headache", out[0].Original())

	out, err = msgRepo.Search(ctx, conv.ID, "desde")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "doctor", out[0].Role)

	out, err = msgRepo.Search(ctx, conv.ID, "%")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSQLiteMessageRepository_UnknownConversation(t *testing.T) {
	_, msgRepo := newSQLiteRepos(t)

	err := msgRepo.Create(context.Background(), domain.NewTextMessage(uuid.NewString(), uuid.NewString(), "patient", "hi", "hola", time.Now()))
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSQLiteMessageRepository_RejectsMixedMessage(t *testing.T) {
	convRepo, msgRepo := newSQLiteRepos(t)
	conv := createConversation(t, convRepo)

	text := "hi"
	key := "audio/a.webm"
	err := msgRepo.Create(context.Background(), domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           "patient",
		OriginalText:   &text,
		TranslatedText: &text,
		Audio:          &key,
		CreatedAt:      time.Now(),
	})
	require.Error(t, err)
}

func TestIsForeignKeyViolation(t *testing.T) {
	require.False(t, isForeignKeyViolation(nil))
	require.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, isForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, isForeignKeyViolation(errors.New("constraint failed: FOREIGN KEY constraint failed (787)")))
	require.False(t, isForeignKeyViolation(errors.New("boom")))
}

func TestPgMessageOrder_TieBreaksByInsertionSequence(t *testing.T) {
	require.Equal(t, "ORDER BY created_at ASC, seq ASC", pgMessageOrder)
	require.NotContains(t, pgMessageOrder, "id ASC")
}
