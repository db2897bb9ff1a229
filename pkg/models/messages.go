package models

import "time"

// StockCommand travels on the command queue from the chat service to the
// stock bot. RequestID is carried for tracing only; responses are still
// correlated to a room by ChatRoomID.
type StockCommand struct {
	RequestID   string    `json:"request_id"`
	StockCode   string    `json:"stock_code"`
	Username    string    `json:"username"`
	ChatRoomID  int       `json:"chat_room_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// StockQuoteResponse travels on the response queue back to the chat service.
// IsError implies ErrorMessage is non-empty and Price carries no meaning.
type StockQuoteResponse struct {
	RequestID    string  `json:"request_id"`
	StockCode    string  `json:"stock_code"`
	Price        float64 `json:"price"`
	Message      string  `json:"message"`
	ChatRoomID   int     `json:"chat_room_id"`
	IsError      bool    `json:"is_error"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// ChatMessage is the room message shape persisted by the history store and
// fanned out to connected clients.
type ChatMessage struct {
	Username   string    `json:"username"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	IsBot      bool      `json:"is_bot"`
	ChatRoomID int       `json:"chat_room_id"`
}
