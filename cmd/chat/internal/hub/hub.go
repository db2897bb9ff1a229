package hub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/command"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/history"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/protocol"
	"github.com/frankrogerrm/Jobsity/pkg/models"
)

type ClientInterface interface {
	ID() string
	Username() string
	SendJSON(v interface{})
	Close()
}

// CommandDispatcher publishes a recognized stock command to the queue
type CommandDispatcher interface {
	Dispatch(ctx context.Context, roomID int, username, code string) error
}

// Hub tracks which clients are joined to which rooms and routes chat
// traffic: plain messages are stored and fanned out, stock commands are
// handed to the dispatcher.
type Hub struct {
	rooms       map[int]map[ClientInterface]bool
	clientRooms map[ClientInterface]map[int]bool

	store        history.Store
	dispatcher   CommandDispatcher
	logger       *zap.Logger
	mu           sync.RWMutex
	historyLimit int
}

func NewHub(store history.Store, dispatcher CommandDispatcher, logger *zap.Logger, historyLimit int) *Hub {
	return &Hub{
		rooms:        make(map[int]map[ClientInterface]bool),
		clientRooms:  make(map[ClientInterface]map[int]bool),
		store:        store,
		dispatcher:   dispatcher,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

func (h *Hub) HandleRequest(client ClientInterface, req protocol.ChatRequest) {
	switch req.Action {
	case protocol.ActionJoin:
		h.handleJoin(client, req)
	case protocol.ActionLeave:
		h.handleLeave(client, req)
	case protocol.ActionMessage:
		h.handleMessage(client, req)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

func (h *Hub) handleJoin(client ClientInterface, req protocol.ChatRequest) {
	h.mu.Lock()
	if h.rooms[req.RoomID] == nil {
		h.rooms[req.RoomID] = make(map[ClientInterface]bool)
	}
	h.rooms[req.RoomID][client] = true

	if h.clientRooms[client] == nil {
		h.clientRooms[client] = make(map[int]bool)
	}
	h.clientRooms[client][req.RoomID] = true
	h.mu.Unlock()

	h.logger.Info("User joined room",
		zap.String("username", client.Username()),
		zap.Int("room_id", req.RoomID))

	h.sendAck(client, req.ID, "success", fmt.Sprintf("Joined room %d", req.RoomID))

	// Replay history to the caller only (async to avoid blocking the reader)
	go func() {
		messages, err := h.store.Recent(context.Background(), req.RoomID, h.historyLimit)
		if err != nil {
			h.logger.Error("Failed to load history", zap.Int("room_id", req.RoomID), zap.Error(err))
			return
		}
		for _, msg := range messages {
			client.SendJSON(toResponse(msg))
		}
	}()
}

func (h *Hub) handleLeave(client ClientInterface, req protocol.ChatRequest) {
	h.mu.Lock()
	left := false
	if subs, ok := h.clientRooms[client]; ok && subs[req.RoomID] {
		delete(subs, req.RoomID)
		delete(h.rooms[req.RoomID], client)
		left = true
	}
	h.mu.Unlock()

	if left {
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Left room %d", req.RoomID))
	} else {
		h.sendError(client, req.ID, fmt.Sprintf("Not joined to room %d", req.RoomID))
	}
}

func (h *Hub) handleMessage(client ClientInterface, req protocol.ChatRequest) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.sendError(client, req.ID, "Message cannot be empty")
		return
	}

	switch {
	case command.IsStockCommand(text):
		code, _ := command.ExtractStockCode(text)
		if err := h.dispatcher.Dispatch(context.Background(), req.RoomID, client.Username(), code); err != nil {
			h.logger.Error("Failed to dispatch stock command",
				zap.String("stock_code", code), zap.Error(err))
			h.sendError(client, req.ID, "Failed to queue stock command, please try again")
			return
		}
		// Commands are not stored or broadcast; the bot's answer will be
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Processing stock quote for %s...", code))

	case command.LooksLikeStockCommand(text):
		h.sendError(client, req.ID, "Invalid stock command format. Use /stock=CODE")

	default:
		msg, err := h.store.Append(context.Background(), req.RoomID, client.Username(), text, false)
		if err != nil {
			h.logger.Error("Failed to store message", zap.Int("room_id", req.RoomID), zap.Error(err))
			h.sendError(client, req.ID, "Failed to send message")
			return
		}
		h.BroadcastToRoom(req.RoomID, msg)
	}
}

// BroadcastToRoom fans a message out to every client currently joined to the
// room. Fire-and-forget: slow clients drop, they can reload from history.
func (h *Hub) BroadcastToRoom(roomID int, msg models.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.rooms[roomID]; ok {
		resp := toResponse(msg)
		for client := range clients {
			client.SendJSON(resp)
		}
	}
}

func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.clientRooms[client]; ok {
		for roomID := range subs {
			delete(h.rooms[roomID], client)
		}
		delete(h.clientRooms, client)
	}
	client.Close()
}

func toResponse(msg models.ChatMessage) protocol.ChatResponse {
	return protocol.ChatResponse{
		Type:      "message",
		RoomID:    msg.ChatRoomID,
		Username:  msg.Username,
		Message:   msg.Message,
		Timestamp: msg.Timestamp,
		IsBot:     msg.IsBot,
	}
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	c.SendJSON(protocol.ChatResponse{Type: "ack", ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	c.SendJSON(protocol.ChatResponse{Type: "error", ID: id, Message: msg})
}
