package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	MarkLoggedIn(ctx context.Context, id int64, at time.Time) error
	MarkLoggedOut(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context) ([]*models.User, error)
}
