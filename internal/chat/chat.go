// Package chat keeps the per-room message backlog: plain broadcast with a
// bounded history replayed to joining players. No optimistic local echo is
// needed anywhere else, so this is the whole chat model.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"betteruno/internal/protocol"
)

const (
	// MaxContentLen is the per-message cap in characters; longer text is
	// truncated on a rune boundary.
	MaxContentLen = 200
	// MaxHistory is how many messages a room retains for replay.
	MaxHistory = 100
)

// History stores bounded chat backlogs keyed by room id.
type History struct {
	mu    sync.Mutex
	rooms map[string][]protocol.ChatMessage
}

// NewHistory returns an empty chat store.
func NewHistory() *History {
	return &History{rooms: make(map[string][]protocol.ChatMessage)}
}

// Append validates, stores, and returns the finished message. Content is
// trimmed and truncated to MaxContentLen; empty messages are rejected.
func (h *History) Append(roomID, playerID, playerName string, typ protocol.ChatMessageType, content string) (protocol.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return protocol.ChatMessage{}, fmt.Errorf("empty chat message")
	}
	if r := []rune(content); len(r) > MaxContentLen {
		content = string(r[:MaxContentLen])
	}
	if typ != protocol.ChatText && typ != protocol.ChatSticker {
		return protocol.ChatMessage{}, fmt.Errorf("unknown chat message type %q", typ)
	}

	msg := protocol.ChatMessage{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		PlayerID:   playerID,
		PlayerName: playerName,
		Type:       typ,
		Content:    content,
		Timestamp:  time.Now().UnixMilli(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := append(h.rooms[roomID], msg)
	if len(msgs) > MaxHistory {
		msgs = msgs[len(msgs)-MaxHistory:]
	}
	h.rooms[roomID] = msgs
	return msg, nil
}

// Messages returns a copy of the room's backlog, oldest first.
func (h *History) Messages(roomID string) []protocol.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.rooms[roomID]
	out := make([]protocol.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// DropRoom discards a deleted room's backlog.
func (h *History) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}
