// Package tictactoe holds the rules of the game. Every function is pure: boards are values
// and nothing here keeps state between calls.
package tictactoe

import (
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// WinCombos lists the eight winning triples: rows, columns, then both diagonals.
var WinCombos = [8][3]entity.Action{
	{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
	{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
	{{Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
	{{Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 2, Col: 1}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 1}, {Row: 2, Col: 0}},
}

func InitialState() entity.Board {
	return entity.Board{}
}

// Player returns the mark that moves next. X moves first, so ties go to X.
func Player(board entity.Board) entity.Mark {
	if board.Count(entity.MarkO) >= board.Count(entity.MarkX) {
		return entity.MarkX
	}
	return entity.MarkO
}

// Actions returns every empty cell in random order. The order changes on every call.
func Actions(board entity.Board) []entity.Action {
	actions := emptyCells(board)

	rand.Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
	})

	return actions
}

func emptyCells(board entity.Board) []entity.Action {
	actions := make([]entity.Action, 0, entity.BoardSize*entity.BoardSize)
	for i, row := range board {
		for j, cell := range row {
			if cell == entity.MarkEmpty {
				actions = append(actions, entity.Action{Row: i, Col: j})
			}
		}
	}
	return actions
}

// Result returns the board after the player to move marks action.
func Result(board entity.Board, action entity.Action) (entity.Board, error) {
	if err := validateMove(board, action); err != nil {
		return board, err
	}

	next := board
	next[action.Row][action.Col] = Player(board)

	return next, nil
}

// validateMove - checks if the move is valid.
func validateMove(board entity.Board, action entity.Action) error {
	if !action.InBounds() {
		return fmt.Errorf("%w: %s is off the board", apperror.ErrInvalidAction, action)
	}

	if board[action.Row][action.Col] != entity.MarkEmpty {
		return fmt.Errorf("%w: cell %s is already occupied", apperror.ErrInvalidAction, action)
	}

	return nil
}

// Winner returns the winning mark or MarkEmpty. X is checked before O.
func Winner(board entity.Board) entity.Mark {
	for _, mark := range [2]entity.Mark{entity.MarkX, entity.MarkO} {
		if hasLine(board, mark) {
			return mark
		}
	}
	return entity.MarkEmpty
}

func hasLine(board entity.Board, mark entity.Mark) bool {
	for _, combo := range WinCombos {
		a, b, c := combo[0], combo[1], combo[2]
		if board[a.Row][a.Col] == mark && board[b.Row][b.Col] == mark && board[c.Row][c.Col] == mark {
			return true
		}
	}
	return false
}

func Terminal(board entity.Board) bool {
	return Winner(board) != entity.MarkEmpty || len(emptyCells(board)) == 0
}

// Utility is only meaningful for terminal boards.
func Utility(board entity.Board) int {
	switch Winner(board) {
	case entity.MarkX:
		return 1
	case entity.MarkO:
		return -1
	default:
		return 0
	}
}

func Outcome(board entity.Board) entity.Outcome {
	switch Winner(board) {
	case entity.MarkX:
		return entity.OutcomeXWins
	case entity.MarkO:
		return entity.OutcomeOWins
	}

	if len(emptyCells(board)) == 0 {
		return entity.OutcomeDraw
	}

	return entity.OutcomeInProgress
}
