package apperror

import "errors"

var (
	ErrInvalidAction  = errors.New("not valid action")
	ErrInvalidBoard   = errors.New("invalid board")
	ErrInvalidRequest = errors.New("room id and username are required")

	ErrRoomNotFound   = errors.New("room does not exist")
	ErrDuplicateRoom  = errors.New("room id already exists")
	ErrRoomFull       = errors.New("room is full")
	ErrNotInRoom      = errors.New("participant is not in the room")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrGameNotStarted = errors.New("game has not started yet")
	ErrGameFinished   = errors.New("game is already finished")

	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedMessage = errors.New("malformed message")
	ErrIdentityMismatch = errors.New("connection is bound to another username")
)
