package usecase

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const roomCapacity = 2

// DeletedRoom describes a room destroyed as a side effect of another operation.
type DeletedRoom struct {
	RoomID       string
	Participants []string
}

type CreateResult struct {
	State   entity.RoomState
	Deleted *DeletedRoom
}

type JoinResult struct {
	State entity.RoomState
	// Left is set when the participant was moved out of another room to join this one.
	Left *RemoveResult
}

type RemoveResult struct {
	RoomID    string
	Destroyed bool
	State     entity.RoomState
}

type room struct {
	mu sync.Mutex

	id           string
	participants []string
	board        *entity.Board
	turn         string
	started      bool
	closed       bool
}

// RoomRegistry owns every active room.
//
// Lock order is registry then room. Moves and resets only need the registry read lock, so
// different rooms progress in parallel; operations that change membership take the write
// lock. No lock is held across I/O.
type RoomRegistry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	rooms   map[string]*room
	members map[string]string
}

func NewRoomRegistry(logger *slog.Logger) *RoomRegistry {
	return &RoomRegistry{
		logger:  logger.With("component", "rooms"),
		rooms:   make(map[string]*room),
		members: make(map[string]string),
	}
}

// CreateRoom registers a room with participant as its only member. A room the participant
// was already in is destroyed first and reported in CreateResult.Deleted. Nothing changes
// when the id is taken by somebody else's room.
func (that *RoomRegistry) CreateRoom(roomID, participant string) (CreateResult, error) {
	if roomID == "" || participant == "" {
		return CreateResult{}, apperror.ErrInvalidRequest
	}

	log := that.logger.With("method", "CreateRoom", "roomID", roomID, "participant", participant)

	that.mu.Lock()
	defer that.mu.Unlock()

	oldID, inRoom := that.members[participant]

	if _, ok := that.rooms[roomID]; ok && (!inRoom || oldID != roomID) {
		return CreateResult{}, fmt.Errorf("%w: %s", apperror.ErrDuplicateRoom, roomID)
	}

	var result CreateResult

	if inRoom {
		old := that.rooms[oldID]

		old.mu.Lock()
		result.Deleted = &DeletedRoom{RoomID: oldID, Participants: others(old.participants, participant)}
		that.destroyLocked(old)
		old.mu.Unlock()

		log.Info("deleted previous room of participant", "oldRoomID", oldID)
	}

	created := &room{
		id:           roomID,
		participants: []string{participant},
		turn:         participant,
	}
	that.rooms[roomID] = created
	that.members[participant] = roomID

	result.State = created.snapshot()

	log.Info("room created", "rooms", len(that.rooms))

	return result, nil
}

// JoinRoom adds participant to the room and starts the game once two participants are in.
// Joining a room the participant is already in returns its current state.
func (that *RoomRegistry) JoinRoom(roomID, participant string) (JoinResult, error) {
	if roomID == "" || participant == "" {
		return JoinResult{}, apperror.ErrInvalidRequest
	}

	log := that.logger.With("method", "JoinRoom", "roomID", roomID, "participant", participant)

	that.mu.Lock()
	defer that.mu.Unlock()

	target, ok := that.rooms[roomID]
	if !ok {
		return JoinResult{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if contains(target.participants, participant) {
		return JoinResult{State: target.snapshot()}, nil
	}

	if len(target.participants) >= roomCapacity {
		return JoinResult{}, fmt.Errorf("%w: %s", apperror.ErrRoomFull, roomID)
	}

	var result JoinResult

	if oldID, ok := that.members[participant]; ok {
		old := that.rooms[oldID]

		old.mu.Lock()
		left := that.removeLocked(old, participant)
		old.mu.Unlock()

		result.Left = &left
		log.Info("participant left previous room", "oldRoomID", oldID, "destroyed", left.Destroyed)
	}

	target.participants = append(target.participants, participant)
	that.members[participant] = roomID

	if len(target.participants) == roomCapacity {
		board := tictactoe.InitialState()
		target.board = &board
		target.turn = target.participants[0]
		target.started = true

		log.Info("game started", "turn", target.turn)
	}

	result.State = target.snapshot()

	return result, nil
}

// MakeMove applies action for participant. The returned state has Terminal set when the move
// ended the game.
func (that *RoomRegistry) MakeMove(roomID, participant string, action entity.Action) (entity.RoomState, error) {
	target, err := that.lookup(roomID)
	if err != nil {
		return entity.RoomState{}, err
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if target.closed {
		return entity.RoomState{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if target.turn != participant {
		return entity.RoomState{}, apperror.ErrNotYourTurn
	}

	if !target.started || target.board == nil {
		return entity.RoomState{}, apperror.ErrGameNotStarted
	}

	if tictactoe.Terminal(*target.board) {
		return entity.RoomState{}, apperror.ErrGameFinished
	}

	next, err := tictactoe.Result(*target.board, action)
	if err != nil {
		return entity.RoomState{}, fmt.Errorf("invalid move: %w", err)
	}

	target.board = &next
	target.turn = other(target.participants, participant)

	state := target.snapshot()
	if state.Terminal {
		that.logger.Info("game over", "method", "MakeMove", "roomID", roomID, "outcome", state.Outcome)
	}

	return state, nil
}

// ResetRoom starts a fresh game in a room with two participants.
func (that *RoomRegistry) ResetRoom(roomID string) (entity.RoomState, error) {
	target, err := that.lookup(roomID)
	if err != nil {
		return entity.RoomState{}, err
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if target.closed {
		return entity.RoomState{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if len(target.participants) < roomCapacity {
		return entity.RoomState{}, apperror.ErrGameNotStarted
	}

	board := tictactoe.InitialState()
	target.board = &board
	target.turn = target.participants[0]
	target.started = true

	that.logger.Info("game reset", "method", "ResetRoom", "roomID", roomID)

	return target.snapshot(), nil
}

// RemoveParticipant drops participant from the room, destroying the room when it empties.
// A remaining participant is sent back to waiting for an opponent.
func (that *RoomRegistry) RemoveParticipant(roomID, participant string) (RemoveResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	target, ok := that.rooms[roomID]
	if !ok {
		return RemoveResult{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if !contains(target.participants, participant) {
		return RemoveResult{}, fmt.Errorf("%w: %s is not in room %s", apperror.ErrNotInRoom, participant, roomID)
	}

	result := that.removeLocked(target, participant)

	that.logger.Info("participant removed",
		"method", "RemoveParticipant", "roomID", roomID, "participant", participant, "destroyed", result.Destroyed)

	return result, nil
}

// RoomOf returns the room participant is currently in.
func (that *RoomRegistry) RoomOf(participant string) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	roomID, ok := that.members[participant]
	return roomID, ok
}

func (that *RoomRegistry) Room(roomID string) (entity.RoomState, error) {
	target, err := that.lookup(roomID)
	if err != nil {
		return entity.RoomState{}, err
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if target.closed {
		return entity.RoomState{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return target.snapshot(), nil
}

func (that *RoomRegistry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

func (that *RoomRegistry) lookup(roomID string) (*room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	target, ok := that.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return target, nil
}

// removeLocked requires both the registry write lock and the room lock.
func (that *RoomRegistry) removeLocked(target *room, participant string) RemoveResult {
	target.participants = others(target.participants, participant)
	delete(that.members, participant)

	if len(target.participants) == 0 {
		that.destroyLocked(target)
		return RemoveResult{RoomID: target.id, Destroyed: true}
	}

	target.board = nil
	target.started = false
	target.turn = target.participants[0]

	return RemoveResult{RoomID: target.id, State: target.snapshot()}
}

// destroyLocked requires both the registry write lock and the room lock.
func (that *RoomRegistry) destroyLocked(target *room) {
	for _, p := range target.participants {
		delete(that.members, p)
	}

	target.participants = nil
	target.closed = true
	delete(that.rooms, target.id)
}

// snapshot requires the room lock.
func (that *room) snapshot() entity.RoomState {
	state := entity.RoomState{
		RoomID:       that.id,
		Participants: append([]string(nil), that.participants...),
		Turn:         that.turn,
		Started:      that.started,
		Outcome:      entity.OutcomeInProgress,
	}

	if that.board != nil {
		board := *that.board
		state.Board = &board
		state.Terminal = tictactoe.Terminal(board)
		state.Winner = tictactoe.Winner(board)
		state.Outcome = tictactoe.Outcome(board)
	}

	return state
}

func contains(participants []string, participant string) bool {
	for _, p := range participants {
		if p == participant {
			return true
		}
	}
	return false
}

func others(participants []string, participant string) []string {
	rest := make([]string, 0, len(participants))
	for _, p := range participants {
		if p != participant {
			rest = append(rest, p)
		}
	}
	return rest
}

func other(participants []string, participant string) string {
	for _, p := range participants {
		if p != participant {
			return p
		}
	}
	return participant
}
