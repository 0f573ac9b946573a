package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cliphub/internal/model"
)

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func (r *VideoRepository) Create(ctx context.Context, v model.Video) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration_seconds, views, is_published, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.OwnerID, v.VideoURL, v.ThumbnailURL, v.Title, v.Description,
		v.DurationSeconds, v.Views, v.IsPublished, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (r *VideoRepository) FindByID(ctx context.Context, id string) (model.Video, error) {
	var v model.Video
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, video_url, thumbnail_url, title, description, duration_seconds, views, is_published, created_at
		 FROM videos WHERE id = $1`, id).
		Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description,
			&v.DurationSeconds, &v.Views, &v.IsPublished, &v.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Video{}, model.ErrVideoNotFound
	}
	if err != nil {
		return model.Video{}, fmt.Errorf("find video by id: %w", err)
	}
	return v, nil
}

// AppendWatchHistory records a view at the end of the user's history.
// Re-watching an already listed video moves its entry to the end and bumps
// the view counter again.
func (r *VideoRepository) AppendWatchHistory(ctx context.Context, userID string, videoID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin watch history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM watch_history WHERE user_id = $1 AND video_id = $2`,
		userID, videoID); err != nil {
		return fmt.Errorf("remove stale history entry: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO watch_history (user_id, video_id, watched_at) VALUES ($1, $2, $3)`,
		userID, videoID, time.Now().UTC()); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = $1`, videoID); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	return tx.Commit(ctx)
}

// WatchHistory returns the user's history in viewing order, each video
// joined with a minimal owner projection.
func (r *VideoRepository) WatchHistory(ctx context.Context, userID string) ([]model.VideoWithOwner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		        v.duration_seconds, v.views, v.is_published, v.created_at,
		        u.full_name, u.username, u.avatar_url, h.watched_at
		 FROM watch_history h
		 JOIN videos v ON v.id = h.video_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE h.user_id = $1
		 ORDER BY h.position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	defer rows.Close()

	history := make([]model.VideoWithOwner, 0)
	for rows.Next() {
		var entry model.VideoWithOwner
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.VideoURL, &entry.ThumbnailURL,
			&entry.Title, &entry.Description, &entry.DurationSeconds, &entry.Views,
			&entry.IsPublished, &entry.CreatedAt,
			&entry.Owner.FullName, &entry.Owner.Username, &entry.Owner.AvatarURL,
			&entry.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
