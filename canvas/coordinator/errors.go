package coordinator

import (
	"errors"

	"codeberg.org/sharedcanvas/server/canvas/rooms"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotAMember     = errors.New("not a member of the room")
	ErrRoomNotFound   = errors.New("room not found")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrPersistence    = errors.New("update may not be durable")

	ErrRoomFull      = rooms.ErrRoomFull
	ErrAlreadyMember = rooms.ErrAlreadyMember
)

// wire codes sent to the originating client
const (
	CodeValidation   = "validation_error"
	CodeNotAMember   = "not_a_member"
	CodeRoomNotFound = "room_not_found"
	CodeRoomFull     = "room_full"
	CodeAlreadyIn    = "already_member"
	CodeInvalid      = "invalid_payload"
	CodePersistence  = "persistence_failure"
	CodeServerError  = "server_error"
)

// maps a coordinator error to its wire code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotAMember):
		return CodeNotAMember
	case errors.Is(err, ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return CodeRoomFull
	case errors.Is(err, ErrAlreadyMember):
		return CodeAlreadyIn
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalid
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeServerError
	}
}

// reports whether err is a member-facing rejection rather than a server fault
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotAMember) ||
		errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrRoomFull) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrInvalidPayload)
}
