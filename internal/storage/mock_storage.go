package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, localPath string, resourceType string) (string, error) {
	args := m.Called(ctx, localPath, resourceType)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, objectURL string) error {
	args := m.Called(ctx, objectURL)
	return args.Error(0)
}
