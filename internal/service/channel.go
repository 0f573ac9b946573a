package service

import (
	"context"
	"errors"
	"strings"

	"cliphub/internal/model"
	"cliphub/pkg/apierror"
)

type SubscriptionStore interface {
	Create(ctx context.Context, subscriberID string, channelID string) error
	Delete(ctx context.Context, subscriberID string, channelID string) error
	CountSubscribers(ctx context.Context, channelID string) (int, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int, error)
	Exists(ctx context.Context, subscriberID string, channelID string) (bool, error)
}

type VideoStore interface {
	FindByID(ctx context.Context, id string) (model.Video, error)
	AppendWatchHistory(ctx context.Context, userID string, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]model.VideoWithOwner, error)
}

// ChannelService serves the social-graph reads and the subscription and
// watch-history writes.
type ChannelService struct {
	users  UserStore
	subs   SubscriptionStore
	videos VideoStore
}

func NewChannelService(users UserStore, subs SubscriptionStore, videos VideoStore) *ChannelService {
	return &ChannelService{users: users, subs: subs, videos: videos}
}

// GetChannelProfile computes the public channel projection for username.
// viewerID may be empty, in which case isSubscribed is always false.
func (s *ChannelService) GetChannelProfile(ctx context.Context, viewerID string, username string) (model.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return model.ChannelProfile{}, apierror.Validation("username is required")
	}

	channel, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.ChannelProfile{}, apierror.NotFound("channel not found")
	}
	if err != nil {
		return model.ChannelProfile{}, err
	}

	subscriberCount, err := s.subs.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	subscribedToCount, err := s.subs.CountSubscribedTo(ctx, channel.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	isSubscribed := false
	if viewerID != "" {
		isSubscribed, err = s.subs.Exists(ctx, viewerID, channel.ID)
		if err != nil {
			return model.ChannelProfile{}, err
		}
	}

	return model.ChannelProfile{
		ID:                       channel.ID,
		FullName:                 channel.FullName,
		Username:                 channel.Username,
		SubscriberCount:          subscriberCount,
		ChannelSubscribedToCount: subscribedToCount,
		IsSubscribed:             isSubscribed,
		AvatarURL:                channel.AvatarURL,
		CoverImageURL:            channel.CoverImageURL,
		Email:                    channel.Email,
	}, nil
}

// GetWatchHistory returns the viewing history in chronological order.
// An empty history is an empty list, not an error.
func (s *ChannelService) GetWatchHistory(ctx context.Context, userID string) ([]model.VideoWithOwner, error) {
	return s.videos.WatchHistory(ctx, userID)
}

func (s *ChannelService) Subscribe(ctx context.Context, subscriberID string, channelUsername string) error {
	channel, err := s.channelByUsername(ctx, channelUsername)
	if err != nil {
		return err
	}

	if channel.ID == subscriberID {
		return apierror.Validation("cannot subscribe to your own channel")
	}

	err = s.subs.Create(ctx, subscriberID, channel.ID)
	if errors.Is(err, model.ErrAlreadySubscribed) {
		return apierror.Conflict("already subscribed to this channel")
	}
	return err
}

// Unsubscribe is idempotent.
func (s *ChannelService) Unsubscribe(ctx context.Context, subscriberID string, channelUsername string) error {
	channel, err := s.channelByUsername(ctx, channelUsername)
	if err != nil {
		return err
	}

	return s.subs.Delete(ctx, subscriberID, channel.ID)
}

// AddWatchHistory records that userID watched videoID. Unpublished videos
// are invisible to viewers.
func (s *ChannelService) AddWatchHistory(ctx context.Context, userID string, videoID string) error {
	if strings.TrimSpace(videoID) == "" {
		return apierror.Validation("videoId is required")
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if errors.Is(err, model.ErrVideoNotFound) {
		return apierror.NotFound("video not found")
	}
	if err != nil {
		return err
	}

	if !video.IsPublished {
		return apierror.NotFound("video not found")
	}

	return s.videos.AppendWatchHistory(ctx, userID, video.ID)
}

func (s *ChannelService) channelByUsername(ctx context.Context, username string) (model.User, error) {
	if strings.TrimSpace(username) == "" {
		return model.User{}, apierror.Validation("username is required")
	}

	channel, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("channel not found")
	}
	return channel, err
}
