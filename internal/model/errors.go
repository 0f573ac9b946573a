package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Subscription related errors
	ErrAlreadySubscribed = errors.New("already subscribed")

	// Video related errors
	ErrVideoNotFound = errors.New("video not found")
)
