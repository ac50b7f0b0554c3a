package repository

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/solver"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolutionRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	solutionRepo := NewSolutionRepository(st.Storage, 0)

	// Given: a solved position
	solution := entity.Solution{Value: 0, Actions: []entity.Action{{Row: 1, Col: 1}}}

	// When: Save is called
	err := solutionRepo.Save(ctx, "X........", solution)

	// Then: no error should be returned, and the solution is stored without expiry
	require.NoError(t, err)

	ttl, err := st.Storage.TTL(ctx, solutionKeyPrefix+"X........").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestSolutionRepository_Get(t *testing.T) {
	t.Run("Get_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		solutionRepo := NewSolutionRepository(st.Storage, time.Minute)

		// Given: a stored solution
		solution := entity.Solution{Value: 1, Actions: []entity.Action{{Row: 0, Col: 2}, {Row: 2, Col: 2}}}
		require.NoError(t, solutionRepo.Save(ctx, "X..X..O.O", solution))

		// When: Get is called with the same key
		retrieved, ok, err := solutionRepo.Get(ctx, "X..X..O.O")

		// Then: the retrieved solution should match the saved one
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, solution, retrieved)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		solutionRepo := NewSolutionRepository(st.Storage, 0)

		// When: Get is called with an unknown key
		retrieved, ok, err := solutionRepo.Get(ctx, "OOOOOOOOO")

		// Then: nothing is found and no error is reported
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, retrieved.Actions)
	})
}

func TestSolutionRepository_DeleteByKey(t *testing.T) {
	ctx, st := suite.New(t)

	solutionRepo := NewSolutionRepository(st.Storage, 0)

	// Given: a stored solution
	require.NoError(t, solutionRepo.Save(ctx, "X........", entity.Solution{Actions: []entity.Action{{Row: 1, Col: 1}}}))

	// When: DeleteByKey is called
	err := solutionRepo.DeleteByKey(ctx, "X........")

	// Then: the solution is gone
	require.NoError(t, err)

	_, ok, err := solutionRepo.Get(ctx, "X........")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSolutionRepository_SharedBetweenSolvers(t *testing.T) {
	ctx, st := suite.New(t)

	solutionRepo := NewSolutionRepository(st.Storage, 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Given: a position solved by a first solver
	board := entity.Board{
		{entity.MarkX, entity.MarkEmpty, entity.MarkEmpty},
		{entity.MarkEmpty, entity.MarkEmpty, entity.MarkEmpty},
		{entity.MarkEmpty, entity.MarkEmpty, entity.MarkEmpty},
	}
	first := solver.New(logger, solver.WithStore(solutionRepo))
	_, _, err := first.OptimalAction(ctx, board)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Stats().Searches)

	// When: a second solver with an empty memory cache asks for the same board
	second := solver.New(logger, solver.WithStore(solutionRepo))
	action, ok, err := second.OptimalAction(ctx, board)

	// Then: the answer comes from redis without searching
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entity.Action{Row: 1, Col: 1}, action)
	assert.Zero(t, second.Stats().Searches)

	next, err := tictactoe.Result(board, action)
	require.NoError(t, err)
	assert.Equal(t, entity.MarkO, next[1][1])
}
