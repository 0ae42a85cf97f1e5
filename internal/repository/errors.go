package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConversationNotFound se devuelve cuando la conversacion no existe,
// tanto en lecturas como al insertar mensajes que la referencian.
var ErrConversationNotFound = errors.New("conversation not found")

const pgForeignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	// SQLite no expone un tipo estable; el mensaje si lo es.
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
