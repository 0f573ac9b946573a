package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cliphub/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.User, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) SetRefreshToken(ctx context.Context, userID string, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *MockUserStore) RotateRefreshToken(ctx context.Context, userID string, old string, next string) (bool, error) {
	args := m.Called(ctx, userID, old, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, userID string, fullName string, email string) (model.User, error) {
	args := m.Called(ctx, userID, fullName, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdateAvatar(ctx context.Context, userID string, avatarURL string) (model.User, error) {
	args := m.Called(ctx, userID, avatarURL)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdateCoverImage(ctx context.Context, userID string, coverImageURL string) (model.User, error) {
	args := m.Called(ctx, userID, coverImageURL)
	return args.Get(0).(model.User), args.Error(1)
}

type MockSubscriptionStore struct {
	mock.Mock
}

func (m *MockSubscriptionStore) Create(ctx context.Context, subscriberID string, channelID string) error {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Error(0)
}

func (m *MockSubscriptionStore) Delete(ctx context.Context, subscriberID string, channelID string) error {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Error(0)
}

func (m *MockSubscriptionStore) CountSubscribers(ctx context.Context, channelID string) (int, error) {
	args := m.Called(ctx, channelID)
	return args.Int(0), args.Error(1)
}

func (m *MockSubscriptionStore) CountSubscribedTo(ctx context.Context, subscriberID string) (int, error) {
	args := m.Called(ctx, subscriberID)
	return args.Int(0), args.Error(1)
}

func (m *MockSubscriptionStore) Exists(ctx context.Context, subscriberID string, channelID string) (bool, error) {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Bool(0), args.Error(1)
}

type MockVideoStore struct {
	mock.Mock
}

func (m *MockVideoStore) FindByID(ctx context.Context, id string) (model.Video, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Video), args.Error(1)
}

func (m *MockVideoStore) AppendWatchHistory(ctx context.Context, userID string, videoID string) error {
	args := m.Called(ctx, userID, videoID)
	return args.Error(0)
}

func (m *MockVideoStore) WatchHistory(ctx context.Context, userID string) ([]model.VideoWithOwner, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VideoWithOwner), args.Error(1)
}
