package entity

// Solution is a solved position: its minimax value (+1 X wins, -1 O wins, 0 draw) and every
// action that reaches that value.
type Solution struct {
	Value   int      `json:"value"`
	Actions []Action `json:"actions"`
}
