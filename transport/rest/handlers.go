package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const maxBodySize = 4096

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	InitialState(w http.ResponseWriter, _ *http.Request)
	Player(w http.ResponseWriter, r *http.Request)
	Actions(w http.ResponseWriter, r *http.Request)
	Result(w http.ResponseWriter, r *http.Request)
	Winner(w http.ResponseWriter, r *http.Request)
	Terminal(w http.ResponseWriter, r *http.Request)
	Minimax(w http.ResponseWriter, r *http.Request)
}

type searchEngine interface {
	OptimalAction(ctx context.Context, board entity.Board) (entity.Action, bool, error)
}

type gameHandlers struct {
	logger *slog.Logger
	solver searchEngine
}

func NewHandlers(logger *slog.Logger, solver searchEngine) Handlers {
	return &gameHandlers{
		logger: logger,
		solver: solver,
	}
}

type boardRequest struct {
	Board  [][]entity.Mark `json:"board"`
	Action *entity.Action  `json:"action"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *gameHandlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *gameHandlers) InitialState(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, tictactoe.InitialState())
}

func (that *gameHandlers) Player(w http.ResponseWriter, r *http.Request) {
	board, _, ok := that.readBoard(w, r)
	if !ok {
		return
	}

	that.writeJSON(w, http.StatusOK, map[string]entity.Mark{"next_player": tictactoe.Player(board)})
}

func (that *gameHandlers) Actions(w http.ResponseWriter, r *http.Request) {
	board, _, ok := that.readBoard(w, r)
	if !ok {
		return
	}

	that.writeJSON(w, http.StatusOK, map[string][]entity.Action{"actions": tictactoe.Actions(board)})
}

func (that *gameHandlers) Result(w http.ResponseWriter, r *http.Request) {
	board, action, ok := that.readBoard(w, r)
	if !ok {
		return
	}

	if action == nil {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: action is required", apperror.ErrInvalidAction))
		return
	}

	next, err := tictactoe.Result(board, *action)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	that.writeJSON(w, http.StatusOK, next)
}

func (that *gameHandlers) Winner(w http.ResponseWriter, r *http.Request) {
	board, _, ok := that.readBoard(w, r)
	if !ok {
		return
	}

	that.writeJSON(w, http.StatusOK, map[string]entity.Mark{"winner": tictactoe.Winner(board)})
}

func (that *gameHandlers) Terminal(w http.ResponseWriter, r *http.Request) {
	board, _, ok := that.readBoard(w, r)
	if !ok {
		return
	}

	that.writeJSON(w, http.StatusOK, map[string]bool{"terminal": tictactoe.Terminal(board)})
}

func (that *gameHandlers) Minimax(w http.ResponseWriter, r *http.Request) {
	board, _, ok := that.readBoard(w, r)
	if !ok {
		return
	}

	action, found, err := that.solver.OptimalAction(r.Context(), board)
	if err != nil {
		that.logger.Error("failed to search board", "method", "Minimax", "board", board.Key(), "error", err)
		that.writeError(w, http.StatusInternalServerError, errors.New("search failed"))
		return
	}

	if !found {
		that.writeJSON(w, http.StatusOK, map[string]*entity.Action{"action": nil})
		return
	}

	that.writeJSON(w, http.StatusOK, map[string]*entity.Action{"action": &action})
}

// readBoard decodes and validates the request body. It writes the error response itself and
// reports false when the request cannot be served.
func (that *gameHandlers) readBoard(w http.ResponseWriter, r *http.Request) (entity.Board, *entity.Action, bool) {
	var req boardRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return entity.Board{}, nil, false
	}

	board, err := toBoard(req.Board)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return entity.Board{}, nil, false
	}

	if err = board.Validate(); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return entity.Board{}, nil, false
	}

	return board, req.Action, true
}

func toBoard(rows [][]entity.Mark) (entity.Board, error) {
	var board entity.Board

	if len(rows) != entity.BoardSize {
		return board, fmt.Errorf("%w: expected %d rows, got %d", apperror.ErrInvalidBoard, entity.BoardSize, len(rows))
	}

	for i, row := range rows {
		if len(row) != entity.BoardSize {
			return board, fmt.Errorf("%w: row %d has %d cells", apperror.ErrInvalidBoard, i, len(row))
		}
		copy(board[i][:], row)
	}

	return board, nil
}

func (that *gameHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *gameHandlers) writeError(w http.ResponseWriter, status int, err error) {
	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}
