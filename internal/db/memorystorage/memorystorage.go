// Package memorystorage provides the in-memory implementation of the
// storage interface. All data lives for the process lifetime only and is
// lost on restart.
package memorystorage

import (
	"context"
	"sync"

	"github.com/patric-chuzhbe/docqa/internal/db/storage"
	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/user"
)

var _ storage.Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps registered users and their document contexts in
// two maps keyed by username, guarded by a single mutex. The shared
// mutex makes the user and the context visible or gone together during
// removal.
type MemoryStorage struct {
	mutex        sync.RWMutex
	users        map[string]user.User
	userContexts map[string]models.DocContext
}

// New creates an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:        map[string]user.User{},
		userContexts: map[string]models.DocContext{},
	}, nil
}

// CreateUser registers a new user. It returns models.ErrUserAlreadyExists
// when the username is taken; the check and the insert happen under one
// lock acquisition.
func (theStorage *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) error {
	theStorage.mutex.Lock()
	defer theStorage.mutex.Unlock()

	if _, exists := theStorage.users[usr.Username]; exists {
		return models.ErrUserAlreadyExists
	}
	theStorage.users[usr.Username] = *usr

	return nil
}

// FindUserByUsername returns the user registered under the given name.
func (theStorage *MemoryStorage) FindUserByUsername(
	ctx context.Context,
	username string,
) (*user.User, bool, error) {
	theStorage.mutex.RLock()
	defer theStorage.mutex.RUnlock()

	usr, found := theStorage.users[username]
	if !found {
		return nil, false, nil
	}

	return &usr, true, nil
}

// RemoveUserAndContext removes the user and the user's document context
// as one observable unit. Removing a nonexistent user is not an error.
func (theStorage *MemoryStorage) RemoveUserAndContext(ctx context.Context, username string) error {
	theStorage.mutex.Lock()
	defer theStorage.mutex.Unlock()

	delete(theStorage.users, username)
	delete(theStorage.userContexts, username)

	return nil
}

// SaveUserContext creates or fully replaces the document context of the
// owning user. It returns models.ErrUserNotFound when the owner was
// removed before the save, so a context can never outlive its user.
func (theStorage *MemoryStorage) SaveUserContext(
	ctx context.Context,
	docContext *models.DocContext,
) error {
	theStorage.mutex.Lock()
	defer theStorage.mutex.Unlock()

	if _, exists := theStorage.users[docContext.Username]; !exists {
		return models.ErrUserNotFound
	}
	theStorage.userContexts[docContext.Username] = *docContext

	return nil
}

// FindContextByUsername returns the current document context of the user.
func (theStorage *MemoryStorage) FindContextByUsername(
	ctx context.Context,
	username string,
) (*models.DocContext, bool, error) {
	theStorage.mutex.RLock()
	defer theStorage.mutex.RUnlock()

	docContext, found := theStorage.userContexts[username]
	if !found {
		return nil, false, nil
	}

	return &docContext, true, nil
}

// GetNumberOfUsers returns the number of registered users.
func (theStorage *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	theStorage.mutex.RLock()
	defer theStorage.mutex.RUnlock()

	return int64(len(theStorage.users)), nil
}

// GetNumberOfContexts returns the number of stored document contexts.
func (theStorage *MemoryStorage) GetNumberOfContexts(ctx context.Context) (int64, error) {
	theStorage.mutex.RLock()
	defer theStorage.mutex.RUnlock()

	return int64(len(theStorage.userContexts)), nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}
