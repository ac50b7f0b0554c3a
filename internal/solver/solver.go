// Package solver finds optimal tic-tac-toe moves by exhaustive alpha-beta search.
//
// Solved positions are memoised by board configuration for the lifetime of the process.
// The cache is never evicted: the game has fewer than 5500 reachable boards.
// A cached Solution keeps every tie-optimal root action, and each call to OptimalAction
// picks one of them at random, so ties are re-rolled instead of frozen by the first search.
package solver

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const (
	minScore = -2
	maxScore = 2
)

// SolutionStore is an optional tier shared between processes.
type SolutionStore interface {
	Get(ctx context.Context, key string) (entity.Solution, bool, error)
	Save(ctx context.Context, key string, solution entity.Solution) error
}

type Stats struct {
	Hits     int64
	Misses   int64
	Searches int64
}

type Option func(*Solver)

func WithStore(store SolutionStore) Option {
	return func(that *Solver) {
		that.store = store
	}
}

type Solver struct {
	logger *slog.Logger
	store  SolutionStore

	mu    sync.RWMutex
	cache map[string]entity.Solution

	hits     atomic.Int64
	misses   atomic.Int64
	searches atomic.Int64
}

func New(logger *slog.Logger, opts ...Option) *Solver {
	solver := &Solver{
		logger: logger.With("component", "solver"),
		cache:  make(map[string]entity.Solution),
	}

	for _, opt := range opts {
		opt(solver)
	}

	return solver
}

// OptimalAction returns the best action for the player to move. ok is false when the board
// is terminal.
func (that *Solver) OptimalAction(ctx context.Context, board entity.Board) (entity.Action, bool, error) {
	if tictactoe.Terminal(board) {
		return entity.Action{}, false, nil
	}

	solution, err := that.solve(ctx, board)
	if err != nil {
		return entity.Action{}, false, err
	}

	return solution.Actions[rand.IntN(len(solution.Actions))], true, nil //nolint: gosec // move variety, not security
}

// Evaluate returns the minimax value of the board under optimal play from both sides.
func (that *Solver) Evaluate(ctx context.Context, board entity.Board) (int, error) {
	if tictactoe.Terminal(board) {
		return tictactoe.Utility(board), nil
	}

	solution, err := that.solve(ctx, board)
	if err != nil {
		return 0, err
	}

	return solution.Value, nil
}

func (that *Solver) Stats() Stats {
	return Stats{
		Hits:     that.hits.Load(),
		Misses:   that.misses.Load(),
		Searches: that.searches.Load(),
	}
}

func (that *Solver) solve(ctx context.Context, board entity.Board) (entity.Solution, error) {
	key := board.Key()

	if solution, ok := that.lookup(key); ok {
		that.hits.Add(1)
		return solution, nil
	}
	that.misses.Add(1)

	if board.IsEmpty() {
		// every opening draws under optimal play
		solution := entity.Solution{Value: 0, Actions: tictactoe.Actions(board)}
		sortActions(solution.Actions)
		that.remember(key, solution)
		return solution, nil
	}

	if solution, ok := that.loadShared(ctx, key); ok {
		that.remember(key, solution)
		return solution, nil
	}

	if err := ctx.Err(); err != nil {
		return entity.Solution{}, err
	}

	that.searches.Add(1)
	solution := searchRoot(board)

	that.remember(key, solution)
	that.saveShared(ctx, key, solution)

	return solution, nil
}

func (that *Solver) lookup(key string) (entity.Solution, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	solution, ok := that.cache[key]
	return solution, ok
}

func (that *Solver) remember(key string, solution entity.Solution) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cache[key] = solution
}

func (that *Solver) loadShared(ctx context.Context, key string) (entity.Solution, bool) {
	if that.store == nil {
		return entity.Solution{}, false
	}

	log := that.logger.With("method", "loadShared", "key", key)

	solution, ok, err := that.store.Get(ctx, key)
	if err != nil {
		log.Warn("failed to read shared solution, searching locally", "error", err)
		return entity.Solution{}, false
	}

	if !ok || len(solution.Actions) == 0 {
		return entity.Solution{}, false
	}

	return solution, true
}

func (that *Solver) saveShared(ctx context.Context, key string, solution entity.Solution) {
	if that.store == nil {
		return
	}

	if err := that.store.Save(ctx, key, solution); err != nil {
		that.logger.Warn("failed to save shared solution", "method", "saveShared", "key", key, "error", err)
	}
}

// searchRoot scores every root action with a full window so that all tie-optimal actions
// are known exactly.
func searchRoot(board entity.Board) entity.Solution {
	mark := tictactoe.Player(board)
	maximizing := mark == entity.MarkX

	best := minScore
	if !maximizing {
		best = maxScore
	}

	var actions []entity.Action
	for _, action := range tictactoe.Actions(board) {
		score := value(place(board, action, mark), minScore, maxScore)

		switch {
		case score == best:
			actions = append(actions, action)
		case maximizing && score > best, !maximizing && score < best:
			best = score
			actions = []entity.Action{action}
		}
	}

	sortActions(actions)

	return entity.Solution{Value: best, Actions: actions}
}

// value is alpha-beta minimax. X maximises and O minimises.
func value(board entity.Board, alpha, beta int) int {
	if tictactoe.Terminal(board) {
		return tictactoe.Utility(board)
	}

	mark := tictactoe.Player(board)
	if mark == entity.MarkX {
		v := minScore
		for _, action := range tictactoe.Actions(board) {
			v = max(v, value(place(board, action, mark), alpha, beta))
			alpha = max(alpha, v)
			if alpha >= beta {
				break
			}
		}
		return v
	}

	v := maxScore
	for _, action := range tictactoe.Actions(board) {
		v = min(v, value(place(board, action, mark), alpha, beta))
		beta = min(beta, v)
		if alpha >= beta {
			break
		}
	}
	return v
}

// place skips Result's validation: actions come from tictactoe.Actions and are always legal.
func place(board entity.Board, action entity.Action, mark entity.Mark) entity.Board {
	board[action.Row][action.Col] = mark
	return board
}

func sortActions(actions []entity.Action) {
	slices.SortFunc(actions, func(a, b entity.Action) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
}
