package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

func (that *Server) handleCreateRoom(_ context.Context, c *client, msg *Message) error {
	req, err := that.decodeRequest(c, msg)
	if err != nil {
		return err
	}

	result, err := that.rooms.CreateRoom(req.RoomID, req.Username)
	if err != nil {
		return err
	}

	if result.Deleted != nil {
		that.broadcast(append([]string{req.Username}, result.Deleted.Participants...), eventRoomDeleted, roomPayload{
			Message: fmt.Sprintf("Your previous room %s has been deleted.", result.Deleted.RoomID),
			RoomID:  result.Deleted.RoomID,
		})
	}

	state := result.State
	that.broadcast(state.Participants, eventRoomCreated, roomPayload{
		Message: fmt.Sprintf("Room %s created by %s.", state.RoomID, req.Username),
		RoomID:  state.RoomID,
		Players: state.Participants,
	})

	c.logger.Info("room created", "roomID", state.RoomID, "participant", req.Username)

	return nil
}

func (that *Server) handleJoinRoom(_ context.Context, c *client, msg *Message) error {
	req, err := that.decodeRequest(c, msg)
	if err != nil {
		return err
	}

	result, err := that.rooms.JoinRoom(req.RoomID, req.Username)
	if err != nil {
		return err
	}

	if result.Left != nil {
		that.announceLeft(req.Username, *result.Left)
	}

	state := result.State
	that.broadcast(state.Participants, eventRoomJoined, roomPayload{
		Message: fmt.Sprintf("%s joined room %s", req.Username, state.RoomID),
		RoomID:  state.RoomID,
		Players: state.Participants,
	})

	if state.Board != nil {
		that.broadcast(state.Participants, eventUpdateGame, newGamePayload(state))
	}

	// A rejoin in the middle of a game only refreshes the board.
	if state.Started && state.Board.IsEmpty() {
		that.broadcast(state.Participants, eventGameStarted, startedPayload{
			Message:       "Game started! First player to move.",
			CurrentPlayer: state.Turn,
		})
	}

	c.logger.Info("room joined", "roomID", state.RoomID, "participant", req.Username, "started", state.Started)

	return nil
}

func (that *Server) handleMakeMove(_ context.Context, c *client, msg *Message) error {
	req, err := that.decodeRequest(c, msg)
	if err != nil {
		return err
	}

	if req.Action == nil {
		return fmt.Errorf("%w: action is required", apperror.ErrInvalidAction)
	}

	state, err := that.rooms.MakeMove(req.RoomID, req.Username, *req.Action)
	if err != nil {
		return err
	}

	that.broadcast(state.Participants, eventUpdateGame, newGamePayload(state))

	if state.Terminal {
		that.broadcast(state.Participants, eventGameOver, gameOverPayload{
			Message: "The game is over!",
			Winner:  state.Winner,
		})

		c.logger.Info("game over", "roomID", state.RoomID, "outcome", state.Outcome)
	}

	return nil
}

func (that *Server) handleResetGame(_ context.Context, c *client, msg *Message) error {
	var req roomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if req.RoomID == "" {
		return apperror.ErrInvalidRequest
	}

	if req.Username != "" {
		if err := that.bind(c, req.Username); err != nil {
			return err
		}
	}

	if roomID, ok := that.rooms.RoomOf(c.participant); c.participant == "" || !ok || roomID != req.RoomID {
		return fmt.Errorf("%w: %s", apperror.ErrNotInRoom, req.RoomID)
	}

	state, err := that.rooms.ResetRoom(req.RoomID)
	if err != nil {
		return err
	}

	that.broadcast(state.Participants, eventResetGame, messagePayload{
		Message: "The game has been reset! Ready to start a new game.",
	})
	that.broadcast(state.Participants, eventUpdateGame, newGamePayload(state))
	that.broadcast(state.Participants, eventGameStarted, startedPayload{
		Message:       "Game started! First player to move.",
		CurrentPlayer: state.Turn,
	})

	c.logger.Info("game reset", "roomID", state.RoomID, "participant", c.participant)

	return nil
}

// handleDisconnect removes the participant from their room once their last connection is gone.
func (that *Server) handleDisconnect(c *client) {
	if c.participant == "" {
		c.logger.Debug("anonymous client disconnected")
		return
	}

	log := c.logger.With("method", "handleDisconnect", "participant", c.participant)

	if !that.connections.remove(c.participant, c) {
		log.Debug("participant still has open connections")
		return
	}

	roomID, ok := that.rooms.RoomOf(c.participant)
	if !ok {
		log.Info("participant disconnected")
		return
	}

	result, err := that.rooms.RemoveParticipant(roomID, c.participant)
	if err != nil {
		log.Warn("failed to remove participant", "roomID", roomID, "error", err)
		return
	}

	that.announceLeft(c.participant, result)

	log.Info("participant disconnected", "roomID", roomID, "destroyed", result.Destroyed)
}

func (that *Server) announceLeft(participant string, result usecase.RemoveResult) {
	if result.Destroyed {
		return
	}

	that.broadcast(result.State.Participants, eventParticipantLeft, leftPayload{
		Message:  fmt.Sprintf("%s left room %s. Waiting for an opponent.", participant, result.RoomID),
		RoomID:   result.RoomID,
		Username: participant,
		Players:  result.State.Participants,
	})
}

func (that *Server) decodeRequest(c *client, msg *Message) (roomRequest, error) {
	var req roomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return roomRequest{}, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if req.RoomID == "" || req.Username == "" {
		return roomRequest{}, apperror.ErrInvalidRequest
	}

	if err := that.bind(c, req.Username); err != nil {
		return roomRequest{}, err
	}

	return req, nil
}

// bind ties the connection to the first username it presents.
func (that *Server) bind(c *client, username string) error {
	if c.participant == "" {
		c.participant = username
		that.connections.add(username, c)

		return nil
	}

	if c.participant != username {
		return fmt.Errorf("%w: %s", apperror.ErrIdentityMismatch, c.participant)
	}

	return nil
}
