package storage

import (
	"context"

	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/user"
)

type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) error

	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)

	RemoveUserAndContext(ctx context.Context, username string) error

	SaveUserContext(ctx context.Context, docContext *models.DocContext) error

	FindContextByUsername(ctx context.Context, username string) (*models.DocContext, bool, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfContexts(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
