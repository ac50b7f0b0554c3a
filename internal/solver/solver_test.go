package solver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	x = entity.MarkX
	o = entity.MarkO
	e = entity.MarkEmpty
)

var errRedisDown = errors.New("redis down")

type mockStore struct {
	mock.Mock
}

func (that *mockStore) Get(ctx context.Context, key string) (entity.Solution, bool, error) {
	args := that.Called(ctx, key)
	return args.Get(0).(entity.Solution), args.Bool(1), args.Error(2)
}

func (that *mockStore) Save(ctx context.Context, key string, solution entity.Solution) error {
	args := that.Called(ctx, key, solution)
	return args.Error(0)
}

func newSolver(opts ...Option) *Solver {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func TestSolver_OptimalAction(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty board returns some cell of the grid", func(t *testing.T) {
		// Given: a fresh solver
		solver := newSolver()

		// When: asking for the opening move
		action, ok, err := solver.OptimalAction(ctx, tictactoe.InitialState())

		// Then: any in-bounds cell is acceptable
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, action.InBounds())
		assert.Zero(t, solver.Stats().Searches)
	})

	t.Run("Empty board opening varies between calls", func(t *testing.T) {
		solver := newSolver()
		seen := map[entity.Action]bool{}

		for range 100 {
			action, _, err := solver.OptimalAction(ctx, tictactoe.InitialState())
			require.NoError(t, err)
			seen[action] = true
		}

		assert.Greater(t, len(seen), 1)
	})

	t.Run("Terminal board has no action", func(t *testing.T) {
		solver := newSolver()
		board := entity.Board{
			{x, x, x},
			{o, o, e},
			{e, e, e},
		}

		_, ok, err := solver.OptimalAction(ctx, board)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("O blocks an open row", func(t *testing.T) {
		// Given: X threatens the top row
		solver := newSolver()
		board := entity.Board{
			{x, x, e},
			{e, o, e},
			{e, e, e},
		}

		// When: O asks for the best move
		action, ok, err := solver.OptimalAction(ctx, board)

		// Then: O must take (0,2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Action{Row: 0, Col: 2}, action)
	})

	t.Run("X takes a winning cell", func(t *testing.T) {
		solver := newSolver()
		board := entity.Board{
			{x, o, e},
			{x, o, e},
			{e, e, e},
		}

		action, ok, err := solver.OptimalAction(ctx, board)

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Action{Row: 2, Col: 0}, action)
	})

	t.Run("Corner, centre, opposite corner: O must answer on an edge", func(t *testing.T) {
		// Given: X corner, O centre, X opposite corner
		solver := newSolver()
		board := tictactoe.InitialState()
		for _, a := range []entity.Action{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}} {
			next, err := tictactoe.Result(board, a)
			require.NoError(t, err)
			board = next
		}

		for range 20 {
			// When: O asks for the best move
			action, ok, err := solver.OptimalAction(ctx, board)
			require.NoError(t, err)
			require.True(t, ok)

			// Then: a corner would lose to a fork, only edges hold the draw
			assert.Contains(t, []entity.Action{
				{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 1},
			}, action)
		}

		value, err := solver.Evaluate(ctx, board)
		require.NoError(t, err)
		assert.Equal(t, 0, value)
	})

	t.Run("Tied optimal actions are re-rolled on cached boards", func(t *testing.T) {
		// Given: the position above where four edges are tie-optimal for O
		solver := newSolver()
		board := entity.Board{
			{x, e, e},
			{e, o, e},
			{e, e, x},
		}

		seen := map[entity.Action]bool{}
		for range 200 {
			action, _, err := solver.OptimalAction(ctx, board)
			require.NoError(t, err)
			seen[action] = true
		}

		// Then: the board is searched once and more than one edge is returned
		assert.Equal(t, int64(1), solver.Stats().Searches)
		assert.Greater(t, len(seen), 1)
	})
}

func TestSolver_SelfPlay(t *testing.T) {
	ctx := context.Background()
	solver := newSolver()

	for game := range 25 {
		// Given: the initial board
		board := tictactoe.InitialState()

		// When: both sides play the solver's moves
		for !tictactoe.Terminal(board) {
			action, ok, err := solver.OptimalAction(ctx, board)
			require.NoError(t, err)
			require.True(t, ok)

			next, err := tictactoe.Result(board, action)
			require.NoError(t, err, "game %d", game)
			board = next
		}

		// Then: perfect play always draws
		require.Equal(t, 0, tictactoe.Utility(board), "game %d ended\n%s", game, board)
	}
}

func TestSolver_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("Corner reply to the opposite corner loses for O", func(t *testing.T) {
		// Given: X corner, O centre, X opposite corner, O corner
		solver := newSolver()
		board := entity.Board{
			{x, e, e},
			{e, o, e},
			{e, e, e},
		}
		board, err := tictactoe.Result(board, entity.Action{Row: 2, Col: 2})
		require.NoError(t, err)
		board, err = tictactoe.Result(board, entity.Action{Row: 0, Col: 2})
		require.NoError(t, err)

		// When: evaluated with X to move
		value, err := solver.Evaluate(ctx, board)

		// Then: X blocks and forks, so the position is a forced win
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	t.Run("Terminal board returns utility", func(t *testing.T) {
		solver := newSolver()
		board := entity.Board{
			{o, o, o},
			{x, x, e},
			{x, e, e},
		}

		value, err := solver.Evaluate(ctx, board)

		require.NoError(t, err)
		assert.Equal(t, -1, value)
	})

	t.Run("Winning position", func(t *testing.T) {
		solver := newSolver()
		board := entity.Board{
			{x, e, e},
			{e, e, e},
			{o, e, e},
		}

		solution := searchRoot(board)

		value, err := solver.Evaluate(ctx, board)
		require.NoError(t, err)
		assert.Equal(t, 1, value)
		assert.Equal(t, 1, solution.Value)
		assert.NotEmpty(t, solution.Actions)
	})
}

func TestSolver_SharedStore(t *testing.T) {
	ctx := context.Background()
	board := entity.Board{
		{x, x, e},
		{e, o, e},
		{e, e, e},
	}
	key := board.Key()

	t.Run("Miss in the store triggers a search and a save", func(t *testing.T) {
		// Given: a store that knows nothing
		store := &mockStore{}
		store.On("Get", mock.Anything, key).Return(entity.Solution{}, false, nil).Once()
		store.On("Save", mock.Anything, key, mock.MatchedBy(func(s entity.Solution) bool {
			return s.Value == 0 && len(s.Actions) == 1 && s.Actions[0] == entity.Action{Row: 0, Col: 2}
		})).Return(nil).Once()
		solver := newSolver(WithStore(store))

		// When: the move is requested twice
		for range 2 {
			action, ok, err := solver.OptimalAction(ctx, board)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, entity.Action{Row: 0, Col: 2}, action)
		}

		// Then: the store is consulted once, then the memory cache serves the second call
		store.AssertExpectations(t)
		assert.Equal(t, Stats{Hits: 1, Misses: 1, Searches: 1}, solver.Stats())
	})

	t.Run("Hit in the store skips the search", func(t *testing.T) {
		store := &mockStore{}
		stored := entity.Solution{Value: 0, Actions: []entity.Action{{Row: 0, Col: 2}}}
		store.On("Get", mock.Anything, key).Return(stored, true, nil).Once()
		solver := newSolver(WithStore(store))

		action, ok, err := solver.OptimalAction(ctx, board)

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Action{Row: 0, Col: 2}, action)
		assert.Zero(t, solver.Stats().Searches)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Store failures fall back to local search", func(t *testing.T) {
		store := &mockStore{}
		store.On("Get", mock.Anything, key).Return(entity.Solution{}, false, errRedisDown).Once()
		store.On("Save", mock.Anything, key, mock.Anything).Return(errRedisDown).Once()
		solver := newSolver(WithStore(store))

		action, ok, err := solver.OptimalAction(ctx, board)

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Action{Row: 0, Col: 2}, action)
		store.AssertExpectations(t)
	})
}

func TestSolver_Concurrent(t *testing.T) {
	ctx := context.Background()
	solver := newSolver()
	board := entity.Board{
		{x, e, e},
		{e, e, e},
		{e, e, e},
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			action, ok, err := solver.OptimalAction(ctx, board)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, entity.Action{Row: 1, Col: 1}, action)
		}()
	}
	wg.Wait()
}
