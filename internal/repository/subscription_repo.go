package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cliphub/internal/model"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) Create(ctx context.Context, subscriberID string, channelID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), subscriberID, channelID, time.Now().UTC())
	if isUniqueViolation(err) {
		return model.ErrAlreadySubscribed
	}
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// Delete is idempotent: removing a missing edge is not an error.
func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID string, channelID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

func (r *SubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count subscribed to: %w", err)
	}
	return count, nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID string, channelID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
		)`, subscriberID, channelID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription exists: %w", err)
	}
	return exists, nil
}
