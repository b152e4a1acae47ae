package domain

import "time"

// RoomStatus is one room slot of a status packet.
type RoomStatus struct {
	Name    string `json:"room_name"`
	Players int    `json:"players"`
	Locked  bool   `json:"room_locked"`
}

// ServerSnapshot is the latest decoded state of one server.
// Snapshots are built once and never mutated; a new decode replaces the pointer.
type ServerSnapshot struct {
	Version      uint16       `json:"version"`
	TotalPlayers int          `json:"total_players"`
	MaxPlayers   uint8        `json:"max_players"` // raw header byte, kept for API compatibility
	LastFetched  time.Time    `json:"last_fetched"`
	Rooms        []RoomStatus `json:"room"`
}
