package domain

import "time"

type RoomID string

// Room is a snapshot of a room's metadata and members.
type Room struct {
	ID        RoomID    `json:"room_id"`
	Members   []UserID  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}
