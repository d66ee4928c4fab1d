package messages

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (conversation_id, sender, text)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, m.ConversationID, m.Sender, m.Text).Scan(&m.ID, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	return r.list(ctx,
		`SELECT id, conversation_id, sender, text, created_at FROM messages
		 WHERE conversation_id = $1
		 ORDER BY id
		 `, conversationID)
}

// ListByOwner returns every message of every conversation owned by ownerID,
// in id order.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Message, error) {
	return r.list(ctx,
		`SELECT m.id, m.conversation_id, m.sender, m.text, m.created_at FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE c.owner_id = $1
		 ORDER BY m.id
		 `, ownerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg int64) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return result, nil
}
