package protocol

import "time"

const (
	ActionJoin    = "join"
	ActionLeave   = "leave"
	ActionMessage = "message"
)

type ChatRequest struct {
	Action string `json:"action"`
	RoomID int    `json:"room_id"`
	Text   string `json:"text,omitempty"`
	ID     string `json:"id,omitempty"`
}

type ChatResponse struct {
	Type      string    `json:"type"`             // "ack", "error", "message"
	ID        string    `json:"id,omitempty"`     // Matches request ID
	Status    string    `json:"status,omitempty"` // "success", "error"
	Message   string    `json:"message,omitempty"`
	RoomID    int       `json:"room_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	IsBot     bool      `json:"is_bot,omitempty"`
}
