package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cliphub/internal/model"
)

var channelUser = model.User{
	ID:        "channel-1",
	Username:  "bob",
	FullName:  "Bob Builder",
	Email:     "bob@x.com",
	AvatarURL: "https://cdn.example/bob.png",
}

func TestChannelService_GetChannelProfile(t *testing.T) {
	t.Run("blank username", func(t *testing.T) {
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), new(MockVideoStore))

		_, err := svc.GetChannelProfile(context.Background(), "viewer-1", "   ")
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("unknown channel", func(t *testing.T) {
		users := new(MockUserStore)
		svc := NewChannelService(users, new(MockSubscriptionStore), new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "ghost").Return(model.User{}, model.ErrUserNotFound)

		_, err := svc.GetChannelProfile(context.Background(), "viewer-1", "ghost")
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("subscribed viewer", func(t *testing.T) {
		users := new(MockUserStore)
		subs := new(MockSubscriptionStore)
		svc := NewChannelService(users, subs, new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)
		subs.On("CountSubscribers", mock.Anything, "channel-1").Return(3, nil)
		subs.On("CountSubscribedTo", mock.Anything, "channel-1").Return(7, nil)
		subs.On("Exists", mock.Anything, "viewer-1", "channel-1").Return(true, nil)

		profile, err := svc.GetChannelProfile(context.Background(), "viewer-1", "bob")
		require.NoError(t, err)
		assert.Equal(t, 3, profile.SubscriberCount)
		assert.Equal(t, 7, profile.ChannelSubscribedToCount)
		assert.True(t, profile.IsSubscribed)
		assert.Equal(t, "bob", profile.Username)
	})

	t.Run("viewer without edge", func(t *testing.T) {
		users := new(MockUserStore)
		subs := new(MockSubscriptionStore)
		svc := NewChannelService(users, subs, new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)
		subs.On("CountSubscribers", mock.Anything, "channel-1").Return(3, nil)
		subs.On("CountSubscribedTo", mock.Anything, "channel-1").Return(0, nil)
		subs.On("Exists", mock.Anything, "viewer-2", "channel-1").Return(false, nil)

		profile, err := svc.GetChannelProfile(context.Background(), "viewer-2", "bob")
		require.NoError(t, err)
		assert.False(t, profile.IsSubscribed)
	})

	t.Run("anonymous viewer never shows subscribed", func(t *testing.T) {
		users := new(MockUserStore)
		subs := new(MockSubscriptionStore)
		svc := NewChannelService(users, subs, new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)
		subs.On("CountSubscribers", mock.Anything, "channel-1").Return(0, nil)
		subs.On("CountSubscribedTo", mock.Anything, "channel-1").Return(0, nil)

		profile, err := svc.GetChannelProfile(context.Background(), "", "bob")
		require.NoError(t, err)
		assert.False(t, profile.IsSubscribed)
		subs.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChannelService_Subscribe(t *testing.T) {
	t.Run("self subscription rejected", func(t *testing.T) {
		users := new(MockUserStore)
		svc := NewChannelService(users, new(MockSubscriptionStore), new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)

		err := svc.Subscribe(context.Background(), "channel-1", "bob")
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("duplicate edge rejected", func(t *testing.T) {
		users := new(MockUserStore)
		subs := new(MockSubscriptionStore)
		svc := NewChannelService(users, subs, new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)
		subs.On("Create", mock.Anything, "viewer-1", "channel-1").Return(model.ErrAlreadySubscribed)

		err := svc.Subscribe(context.Background(), "viewer-1", "bob")
		requireAPIError(t, err, http.StatusConflict)
	})

	t.Run("success", func(t *testing.T) {
		users := new(MockUserStore)
		subs := new(MockSubscriptionStore)
		svc := NewChannelService(users, subs, new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)
		subs.On("Create", mock.Anything, "viewer-1", "channel-1").Return(nil)

		require.NoError(t, svc.Subscribe(context.Background(), "viewer-1", "bob"))
		subs.AssertExpectations(t)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		users := new(MockUserStore)
		subs := new(MockSubscriptionStore)
		svc := NewChannelService(users, subs, new(MockVideoStore))

		users.On("FindByUsername", mock.Anything, "bob").Return(channelUser, nil)
		subs.On("Delete", mock.Anything, "viewer-1", "channel-1").Return(nil)

		require.NoError(t, svc.Unsubscribe(context.Background(), "viewer-1", "bob"))
		require.NoError(t, svc.Unsubscribe(context.Background(), "viewer-1", "bob"))
	})
}

func TestChannelService_WatchHistory(t *testing.T) {
	t.Run("empty history is an empty list", func(t *testing.T) {
		videos := new(MockVideoStore)
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), videos)

		videos.On("WatchHistory", mock.Anything, "user-1").Return([]model.VideoWithOwner{}, nil)

		history, err := svc.GetWatchHistory(context.Background(), "user-1")
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})

	t.Run("entries keep stored order", func(t *testing.T) {
		videos := new(MockVideoStore)
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), videos)

		stored := []model.VideoWithOwner{
			{Video: model.Video{ID: "v1", Title: "first"}, WatchedAt: time.Now().Add(-time.Hour)},
			{Video: model.Video{ID: "v2", Title: "second"}, WatchedAt: time.Now()},
		}
		videos.On("WatchHistory", mock.Anything, "user-1").Return(stored, nil)

		history, err := svc.GetWatchHistory(context.Background(), "user-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "v1", history[0].ID)
		assert.Equal(t, "v2", history[1].ID)
	})
}

func TestChannelService_AddWatchHistory(t *testing.T) {
	t.Run("missing video id", func(t *testing.T) {
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), new(MockVideoStore))

		err := svc.AddWatchHistory(context.Background(), "user-1", " ")
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("unknown video", func(t *testing.T) {
		videos := new(MockVideoStore)
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), videos)

		videos.On("FindByID", mock.Anything, "v-missing").Return(model.Video{}, model.ErrVideoNotFound)

		err := svc.AddWatchHistory(context.Background(), "user-1", "v-missing")
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("unpublished video is invisible", func(t *testing.T) {
		videos := new(MockVideoStore)
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), videos)

		videos.On("FindByID", mock.Anything, "v1").Return(model.Video{ID: "v1", IsPublished: false}, nil)

		err := svc.AddWatchHistory(context.Background(), "user-1", "v1")
		requireAPIError(t, err, http.StatusNotFound)
		videos.AssertNotCalled(t, "AppendWatchHistory", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success appends", func(t *testing.T) {
		videos := new(MockVideoStore)
		svc := NewChannelService(new(MockUserStore), new(MockSubscriptionStore), videos)

		videos.On("FindByID", mock.Anything, "v1").Return(model.Video{ID: "v1", IsPublished: true}, nil)
		videos.On("AppendWatchHistory", mock.Anything, "user-1", "v1").Return(nil)

		require.NoError(t, svc.AddWatchHistory(context.Background(), "user-1", "v1"))
		videos.AssertExpectations(t)
	})
}
