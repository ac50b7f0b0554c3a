package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// BoardSize is the length of a board side.
const BoardSize = 3

type Mark string

const (
	MarkX     Mark = "X"
	MarkO     Mark = "O"
	MarkEmpty Mark = ""
)

// MarshalJSON encodes an empty cell as null.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that == MarkEmpty {
		return []byte("null"), nil
	}
	return json.Marshal(string(that))
}

type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeXWins      Outcome = "x_wins"
	OutcomeOWins      Outcome = "o_wins"
	OutcomeDraw       Outcome = "draw"
)

// Board is a 3x3 grid of marks. It is a value type: assigning or passing a Board copies it.
type Board [BoardSize][BoardSize]Mark

// Action is a (row, col) coordinate; it is encoded on the wire as a two element array.
type Action struct {
	Row int
	Col int
}

func (that Action) InBounds() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

func (that Action) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

func (that Action) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{that.Row, that.Col})
}

func (that *Action) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: action must be a [row, col] pair", apperror.ErrInvalidAction)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: action must have exactly 2 coordinates", apperror.ErrInvalidAction)
	}

	that.Row, that.Col = pair[0], pair[1]

	return nil
}

// Count returns the number of cells holding mark.
func (that Board) Count(mark Mark) int {
	n := 0
	for _, row := range that {
		for _, cell := range row {
			if cell == mark {
				n++
			}
		}
	}
	return n
}

func (that Board) IsEmpty() bool {
	return that.Count(MarkEmpty) == BoardSize*BoardSize
}

// Key returns the canonical row-major form of the board, '.' marking empty cells.
func (that Board) Key() string {
	var sb strings.Builder
	sb.Grow(BoardSize * BoardSize)

	for _, row := range that {
		for _, cell := range row {
			if cell == MarkEmpty {
				sb.WriteByte('.')
				continue
			}
			sb.WriteString(string(cell))
		}
	}

	return sb.String()
}

// ParseBoardKey is the inverse of Board.Key.
func ParseBoardKey(key string) (Board, error) {
	var board Board

	if len(key) != BoardSize*BoardSize {
		return board, fmt.Errorf("%w: key %q has wrong length", apperror.ErrInvalidBoard, key)
	}

	for i, ch := range key {
		switch ch {
		case '.':
			board[i/BoardSize][i%BoardSize] = MarkEmpty
		case 'X':
			board[i/BoardSize][i%BoardSize] = MarkX
		case 'O':
			board[i/BoardSize][i%BoardSize] = MarkO
		default:
			return board, fmt.Errorf("%w: unexpected %q in key", apperror.ErrInvalidBoard, ch)
		}
	}

	return board, nil
}

// Validate checks that every cell holds a known mark and that X has moved first.
func (that Board) Validate() error {
	for i, row := range that {
		for j, cell := range row {
			if cell != MarkEmpty && cell != MarkX && cell != MarkO {
				return fmt.Errorf("%w: unknown mark %q at (%d,%d)", apperror.ErrInvalidBoard, cell, i, j)
			}
		}
	}

	diff := that.Count(MarkX) - that.Count(MarkO)
	if diff != 0 && diff != 1 {
		return fmt.Errorf("%w: X count minus O count is %d", apperror.ErrInvalidBoard, diff)
	}

	return nil
}

func (that Board) String() string {
	var sb strings.Builder
	for i, row := range that {
		for j, cell := range row {
			if cell == MarkEmpty {
				sb.WriteByte('.')
			} else {
				sb.WriteString(string(cell))
			}
			if j < BoardSize-1 {
				sb.WriteByte(' ')
			}
		}
		if i < BoardSize-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
