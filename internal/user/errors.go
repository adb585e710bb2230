package user

import "errors"

var (
	// ErrUserNotFound is returned when a username does not exist.
	ErrUserNotFound = errors.New("user: not found")

	// ErrUserExists is returned when creating a user with a taken username.
	ErrUserExists = errors.New("user: already exists")

	// ErrInvalidUsername is returned when a username is empty or not topic-safe.
	ErrInvalidUsername = errors.New("user: invalid username")
)
