package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type searchEngine interface {
	OptimalAction(ctx context.Context, board entity.Board) (entity.Action, bool, error)
}

type tally struct {
	Games int
	Draws int
	XWins int
	OWins int
}

// play runs games from the initial state with search choosing the moves of both players.
func play(ctx context.Context, out io.Writer, search searchEngine, games int, verbose bool) (tally, error) {
	var result tally

	for game := 1; game <= games; game++ {
		board := tictactoe.InitialState()

		for !tictactoe.Terminal(board) {
			action, ok, err := search.OptimalAction(ctx, board)
			if err != nil {
				return result, fmt.Errorf("game %d: %w", game, err)
			}
			if !ok {
				return result, fmt.Errorf("game %d: no action on a live board", game)
			}

			mark := tictactoe.Player(board)
			if board, err = tictactoe.Result(board, action); err != nil {
				return result, fmt.Errorf("game %d: %w", game, err)
			}

			if verbose {
				fmt.Fprintf(out, "game %d: %s plays %s\n%s\n\n", game, mark, action, board)
			}
		}

		result.Games++
		switch tictactoe.Outcome(board) {
		case entity.OutcomeDraw:
			result.Draws++
		case entity.OutcomeXWins:
			result.XWins++
		case entity.OutcomeOWins:
			result.OWins++
		}
	}

	return result, nil
}
