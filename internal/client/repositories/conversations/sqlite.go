package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID int64) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM conversations WHERE owner_id = ? ORDER BY id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select conversations: %w", err)
	}
	defer rows.Close()

	result := []models.Conversation{}
	index := map[int64]int{}
	for rows.Next() {
		c := models.Conversation{Messages: []models.Message{}}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		index[c.ID] = len(result)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	msgRows, err := r.db.QueryContext(ctx, `
		SELECT m.conversation_id, m.id, m.sender, m.text, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.owner_id = ?
		ORDER BY m.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var convID int64
		m, err := scanMessage(msgRows, &convID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[convID]; ok {
			result[i].Messages = append(result[i].Messages, m)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, ownerID, id int64) (*models.Conversation, error) {
	c := &models.Conversation{Messages: []models.Message{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM conversations WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select conversation: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT conversation_id, id, sender, text, created_at FROM messages WHERE conversation_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var convID int64
		m, err := scanMessage(rows, &convID)
		if err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, ownerID int64, name string) (*models.Conversation, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO conversations (owner_id, name, created_at) VALUES (?, ?, ?) RETURNING id`,
		ownerID, name, time.Now().UnixMilli()).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return &models.Conversation{ID: id, Name: name, Messages: []models.Message{}}, nil
}

func (r *SQLiteRepository) Rename(ctx context.Context, ownerID, id int64, name string) error {
	return dbx.ExecOne(ctx, r.db,
		`UPDATE conversations SET name = ? WHERE id = ? AND owner_id = ?`, name, id, ownerID)
}

// Delete removes the conversation and its messages.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM messages WHERE conversation_id IN
			(SELECT id FROM conversations WHERE id = ? AND owner_id = ?)`, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return dbx.ExecOne(ctx, r.db, `DELETE FROM conversations WHERE id = ? AND owner_id = ?`, id, ownerID)
}

func (r *SQLiteRepository) AddMessage(ctx context.Context, ownerID, conversationID int64, sender models.Sender, text string, at time.Time) (*models.Message, error) {
	at = at.UTC().Truncate(time.Millisecond)

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender, text, created_at)
		SELECT id, ?, ?, ? FROM conversations WHERE id = ? AND owner_id = ?
		RETURNING id`,
		string(sender), text, at.UnixMilli(), conversationID, ownerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &models.Message{ID: id, Sender: sender, Text: text, CreatedAt: at}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner, convID *int64) (models.Message, error) {
	var (
		m       models.Message
		sender  string
		created int64
	)
	if err := s.Scan(convID, &m.ID, &sender, &m.Text, &created); err != nil {
		return m, fmt.Errorf("failed to scan message row: %w", err)
	}
	m.Sender = models.Sender(sender)
	m.CreatedAt = time.UnixMilli(created).UTC()
	return m, nil
}
