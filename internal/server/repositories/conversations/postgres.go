package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, ownerID int64) ([]*models.Conversation, error) {
	query :=
		`SELECT id, owner_id, name, created_at FROM conversations
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Conversation{}
	for rows.Next() {
		c := &models.Conversation{Messages: []models.Message{}}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.Conversation, error) {
	query :=
		`SELECT id, owner_id, name, created_at FROM conversations
		 WHERE id = $1 AND owner_id = $2
		 `

	c := &models.Conversation{Messages: []models.Message{}}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	query :=
		`INSERT INTO conversations (owner_id, name)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, c.OwnerID, c.Name).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	return c, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, ownerID, id int64, name string) (*models.Conversation, error) {
	query :=
		`UPDATE conversations SET name = $3
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, owner_id, name, created_at
		 `

	c := &models.Conversation{Messages: []models.Message{}}
	err := r.db.QueryRowContext(ctx, query, id, ownerID, name).Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Delete removes the conversation; its messages go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	return dbx.ExecOne(ctx, r.db,
		`DELETE FROM conversations WHERE id = $1 AND owner_id = $2`, id, ownerID)
}
