// Package mockstorage provides a testify-based mock implementation
// of the internal storage interfaces used by the router package.
// It is used for unit testing HTTP handlers by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/user"
)

// StorageMock is a testify mock that implements all interfaces
// used by the router for storage operations.
//
// Use it in router tests to simulate database behavior.
type StorageMock struct {
	mock.Mock

	// OnGetNumberOfUsers is an optional function field that can be assigned
	// to define custom mock behavior for GetNumberOfUsers in tests.
	//
	// If set, GetNumberOfUsers will delegate to this function instead of
	// using testify's generic mock handler.
	OnGetNumberOfUsers func(ctx context.Context) (int64, error)

	// OnGetNumberOfContexts is an optional function field that can be used
	// to customize the return values of GetNumberOfContexts in tests.
	//
	// If non-nil, the mock implementation will call this function directly.
	OnGetNumberOfContexts func(ctx context.Context) (int64, error)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// FindUserByUsername mocks fetching a user by name.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// RemoveUserAndContext mocks removing a user together with the stored document.
func (m *StorageMock) RemoveUserAndContext(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// SaveUserContext mocks storing a user's document.
func (m *StorageMock) SaveUserContext(ctx context.Context, docContext *models.DocContext) error {
	args := m.Called(ctx, docContext)
	return args.Error(0)
}

// FindContextByUsername mocks fetching the stored document of a user.
func (m *StorageMock) FindContextByUsername(ctx context.Context, username string) (*models.DocContext, bool, error) {
	args := m.Called(ctx, username)
	docContext, _ := args.Get(0).(*models.DocContext)
	return docContext, args.Bool(1), args.Error(2)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetNumberOfUsers returns the number of users as defined by the mock.
//
// If OnGetNumberOfUsers is non-nil, it will be called to produce the result.
// Otherwise, the method returns 0 and no error by default.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfUsers != nil {
		return m.OnGetNumberOfUsers(ctx)
	}
	return 0, nil
}

// GetNumberOfContexts returns the number of stored documents.
//
// If OnGetNumberOfContexts is defined, the method will call it and return
// its result. Otherwise, it defaults to returning 0 and no error.
func (m *StorageMock) GetNumberOfContexts(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfContexts != nil {
		return m.OnGetNumberOfContexts(ctx)
	}
	return 0, nil
}
