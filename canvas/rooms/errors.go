package rooms

import "errors"

var (
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyMember     = errors.New("member already in room")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrInvalidCapacity   = errors.New("room capacity must be positive")
	ErrInvalidMemberID   = errors.New("member id is required")
)
