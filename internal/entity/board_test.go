package entity

import (
	"encoding/json"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_Key(t *testing.T) {
	t.Run("Empty board", func(t *testing.T) {
		// Given: an empty board
		var board Board

		// When: building its key
		key := board.Key()

		// Then: every cell should be a dot
		assert.Equal(t, ".........", key)
		assert.True(t, board.IsEmpty())
	})

	t.Run("Round trip through ParseBoardKey", func(t *testing.T) {
		// Given: a board with a few moves
		board := Board{
			{MarkX, MarkEmpty, MarkO},
			{MarkEmpty, MarkX, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
		}

		// When: the key is parsed back
		parsed, err := ParseBoardKey(board.Key())

		// Then: the same board should come out
		require.NoError(t, err)
		assert.Equal(t, "X.O.X....", board.Key())
		assert.Equal(t, board, parsed)
	})

	t.Run("Rejects malformed keys", func(t *testing.T) {
		_, err := ParseBoardKey("XO")
		require.ErrorIs(t, err, apperror.ErrInvalidBoard)

		_, err = ParseBoardKey("XOZ......")
		require.ErrorIs(t, err, apperror.ErrInvalidBoard)
	})
}

func TestBoard_Validate(t *testing.T) {
	t.Run("Accepts reachable boards", func(t *testing.T) {
		board := Board{
			{MarkX, MarkO, MarkEmpty},
			{MarkEmpty, MarkX, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
		}

		assert.NoError(t, board.Validate())
	})

	t.Run("Rejects O moving first", func(t *testing.T) {
		board := Board{
			{MarkO, MarkEmpty, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
		}

		assert.ErrorIs(t, board.Validate(), apperror.ErrInvalidBoard)
	})

	t.Run("Rejects unknown marks", func(t *testing.T) {
		board := Board{
			{"Z", MarkEmpty, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
		}

		assert.ErrorIs(t, board.Validate(), apperror.ErrInvalidBoard)
	})
}

func TestAction_JSON(t *testing.T) {
	t.Run("Encodes as a pair", func(t *testing.T) {
		data, err := json.Marshal(Action{Row: 2, Col: 1})

		require.NoError(t, err)
		assert.JSONEq(t, `[2,1]`, string(data))
	})

	t.Run("Decodes a pair", func(t *testing.T) {
		var action Action

		require.NoError(t, json.Unmarshal([]byte(`[0,2]`), &action))
		assert.Equal(t, Action{Row: 0, Col: 2}, action)
		assert.True(t, action.InBounds())
	})

	t.Run("Rejects wrong arity", func(t *testing.T) {
		var action Action

		err := json.Unmarshal([]byte(`[1,2,3]`), &action)
		assert.ErrorIs(t, err, apperror.ErrInvalidAction)
	})

	t.Run("Out of range coordinates decode but are not in bounds", func(t *testing.T) {
		var action Action

		require.NoError(t, json.Unmarshal([]byte(`[3,-1]`), &action))
		assert.False(t, action.InBounds())
	})
}

func TestBoard_JSON(t *testing.T) {
	t.Run("Empty cells encode as null", func(t *testing.T) {
		board := Board{
			{MarkX, MarkEmpty, MarkEmpty},
			{MarkEmpty, MarkO, MarkEmpty},
			{MarkEmpty, MarkEmpty, MarkEmpty},
		}

		data, err := json.Marshal(board)

		require.NoError(t, err)
		assert.JSONEq(t, `[["X",null,null],[null,"O",null],[null,null,null]]`, string(data))
	})

	t.Run("Null cells decode as empty", func(t *testing.T) {
		var board Board

		require.NoError(t, json.Unmarshal([]byte(`[[null,"X",null],[null,null,null],["O",null,null]]`), &board))
		assert.Equal(t, MarkX, board[0][1])
		assert.Equal(t, MarkO, board[2][0])
		assert.Equal(t, 7, board.Count(MarkEmpty))
	})
}
