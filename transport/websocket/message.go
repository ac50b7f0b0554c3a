package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	eventCreateRoom = "create_room"
	eventJoinRoom   = "join_room"
	eventMakeMove   = "make_move"
	eventResetGame  = "reset_game"

	eventRoomCreated     = "room_created"
	eventRoomJoined      = "room_joined"
	eventUpdateGame      = "update_game"
	eventGameStarted     = "game_started"
	eventGameOver        = "game_over"
	eventRoomDeleted     = "room_deleted"
	eventParticipantLeft = "participant_left"
	eventError           = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type roomRequest struct {
	RoomID   string         `json:"room_id"`
	Username string         `json:"username"`
	Action   *entity.Action `json:"action,omitempty"`
}

type roomPayload struct {
	Message string   `json:"message"`
	RoomID  string   `json:"room_id"`
	Players []string `json:"players,omitempty"`
}

type gamePayload struct {
	Board         *entity.Board `json:"board"`
	CurrentPlayer string        `json:"current_player"`
	Terminal      bool          `json:"terminal"`
	Winner        entity.Mark   `json:"winner"`
}

type startedPayload struct {
	Message       string `json:"message"`
	CurrentPlayer string `json:"current_player"`
}

type gameOverPayload struct {
	Message string      `json:"message"`
	Winner  entity.Mark `json:"winner"`
}

type leftPayload struct {
	Message  string   `json:"message"`
	RoomID   string   `json:"room_id"`
	Username string   `json:"username"`
	Players  []string `json:"players"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	frame, err := json.Marshal(Message{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", event, err)
	}

	return frame, nil
}

func newGamePayload(state entity.RoomState) gamePayload {
	return gamePayload{
		Board:         state.Board,
		CurrentPlayer: state.Turn,
		Terminal:      state.Terminal,
		Winner:        state.Winner,
	}
}

// errorMessage maps every error kind to the text shown to the participant.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidRequest):
		return "Room ID and username are required."
	case errors.Is(err, apperror.ErrRoomNotFound):
		return "Room does not exist."
	case errors.Is(err, apperror.ErrDuplicateRoom):
		return "Room ID already exists."
	case errors.Is(err, apperror.ErrRoomFull):
		return "Room is full. Cannot join."
	case errors.Is(err, apperror.ErrNotInRoom):
		return "You are not in this room."
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "Not your turn!"
	case errors.Is(err, apperror.ErrGameNotStarted):
		return "Game has not started yet."
	case errors.Is(err, apperror.ErrGameFinished):
		return "The game is over. Reset to play again."
	case errors.Is(err, apperror.ErrInvalidAction):
		return "Invalid move."
	case errors.Is(err, apperror.ErrIdentityMismatch):
		return "This connection belongs to another username."
	case errors.Is(err, apperror.ErrUnknownEvent):
		return "Unknown event."
	case errors.Is(err, apperror.ErrMalformedMessage):
		return "Malformed message."
	default:
		return "Internal server error."
	}
}
