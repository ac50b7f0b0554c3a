package entity

// RoomState is a point-in-time snapshot of a room. It shares nothing with the registry.
type RoomState struct {
	RoomID       string   `json:"room_id"`
	Participants []string `json:"players"`
	Board        *Board   `json:"board"`
	Turn         string   `json:"current_player"`
	Started      bool     `json:"game_started"`
	Terminal     bool     `json:"terminal"`
	Winner       Mark     `json:"winner,omitempty"`
	Outcome      Outcome  `json:"outcome,omitempty"`
}
