package journal

import "time"

// Direction tells whether a record came from the server or from the user.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Record is one journaled event.
type Record struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Direction Direction `json:"direction"`
	Kind      string    `json:"kind"`
	MessageID string    `json:"message_id,omitempty"`
	Prefix    string    `json:"prefix,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
