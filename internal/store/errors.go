package store

import "errors"

var (
	// input errors
	ErrInvalidInput = errors.New("invalid input")

	// account errors
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")

	// friendship errors
	ErrSelfFriend     = errors.New("cannot befriend yourself")
	ErrAlreadyFriends = errors.New("already friends")
	ErrFriendLimit    = errors.New("friend limit reached")

	// moment errors
	ErrReservedMomentType = errors.New("moment type is system generated")
)
