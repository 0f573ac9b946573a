package model

import "time"

type Video struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"-"`
	VideoURL        string    `json:"videoFile"`
	ThumbnailURL    string    `json:"thumbnail"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds float64   `json:"duration"`
	Views           int64     `json:"views"`
	IsPublished     bool      `json:"isPublished"`
	CreatedAt       time.Time `json:"createdAt"`
}

// VideoOwner is the minimal owner projection joined into watch history.
type VideoOwner struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

type VideoWithOwner struct {
	Video
	Owner     VideoOwner `json:"owner"`
	WatchedAt time.Time  `json:"watchedAt"`
}
