// Package ws is the websocket relay: the opaque bidirectional messaging
// channel the game core rides on. It owns room-scoped broadcast with FIFO
// delivery per room, request/response acknowledgements, and blind
// forwarding of game traffic between hosts and mirrors. The relay never
// interprets game rules; the host client is the rule authority, which is
// the documented trust model of this design.
package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"betteruno/engine"
	"betteruno/internal/cache"
	"betteruno/internal/chat"
	"betteruno/internal/database"
	"betteruno/internal/protocol"
	"betteruno/internal/room"
)

// Hub routes traffic between connected clients. All membership maps are
// guarded by one mutex; broadcast fanout happens under it, which gives
// every room a total delivery order matching the sender's send order.
type Hub struct {
	log      *logrus.Logger
	registry *room.Registry
	chats    *chat.History

	mu        sync.Mutex
	clients   map[*Client]struct{}
	byPlayer  map[string]*Client
	rooms     map[string]map[*Client]struct{}
	actionSeq map[string]int
}

// NewHub wires a hub to the room registry and chat store.
func NewHub(log *logrus.Logger, registry *room.Registry, chats *chat.History) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		log:       log,
		registry:  registry,
		chats:     chats,
		clients:   make(map[*Client]struct{}),
		byPlayer:  make(map[string]*Client),
		rooms:     make(map[string]map[*Client]struct{}),
		actionSeq: make(map[string]int),
	}
}

// ServeHTTP upgrades the connection and runs the client's pumps until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.WithError(err).Warn("websocket accept failed")
		return
	}

	c := newClient(h, conn)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(r.Context())
	go func() {
		c.writePump(ctx)
		cancel()
	}()

	c.readPump(ctx)
	cancel()
	h.disconnect(c)
}

// disconnect applies leave-room semantics for a dropped connection.
func (h *Hub) disconnect(c *Client) {
	playerID, _, roomID := c.identity()
	if roomID != "" && playerID != "" {
		h.leaveRoom(c, roomID, playerID)
	}

	h.mu.Lock()
	delete(h.clients, c)
	if playerID != "" && h.byPlayer[playerID] == c {
		delete(h.byPlayer, playerID)
	}
	h.mu.Unlock()

	c.close(websocket.StatusNormalClosure, "")
}

// handle routes one inbound envelope. Every request kind gets a typed
// response; unknown kinds are answered with an error instead of being
// silently dropped.
func (h *Hub) handle(c *Client, env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindCreateRoom:
		h.handleCreateRoom(c, env)
	case protocol.KindJoinRoom:
		h.handleJoinRoom(c, env)
	case protocol.KindLeaveRoom:
		h.handleLeaveRoom(c, env)
	case protocol.KindKickPlayer:
		h.handleKickPlayer(c, env)
	case protocol.KindToggleReady:
		h.handleToggleReady(c, env)
	case protocol.KindStartGame:
		h.handleStartGame(c, env)
	case protocol.KindEndGame:
		h.handleEndGame(c, env)
	case protocol.KindListRooms:
		h.respond(c, env.RequestID, protocol.Response{Success: true, Rooms: h.registry.List()})
	case protocol.KindGameIntent:
		h.handleGameIntent(c, env)
	case protocol.KindStateSync:
		h.handleStateSync(c, env)
	case protocol.KindIntentRejected:
		h.handleIntentRejected(c, env)
	case protocol.KindChatMessage:
		h.handleChatMessage(c, env)
	default:
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: "unknown message kind"})
	}
}

// ---------------------------------------------------------------------------
// Room lifecycle handlers
// ---------------------------------------------------------------------------

func (h *Hub) handleCreateRoom(c *Client, env protocol.Envelope) {
	var req protocol.CreateRoomRequest
	if err := env.Decode(&req); err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	res, err := h.registry.CreateRoom(req.RoomName, req.PlayerName, req.MaxPlayers, req.Password)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}

	c.setIdentity(res.PlayerID, req.PlayerName, res.Room.ID)
	h.mu.Lock()
	h.byPlayer[res.PlayerID] = c
	h.rooms[res.Room.ID] = map[*Client]struct{}{c: {}}
	h.mu.Unlock()

	h.respond(c, env.RequestID, protocol.Response{Success: true, Room: &res.Room, PlayerID: res.PlayerID})
	h.broadcastRoomsList()
	h.logRoomAction(res.Room.ID, res.PlayerID, "room_create", nil)
}

func (h *Hub) handleJoinRoom(c *Client, env protocol.Envelope) {
	var req protocol.JoinRoomRequest
	if err := env.Decode(&req); err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	res, err := h.registry.JoinRoom(req.RoomID, req.PlayerName, req.Password)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}

	c.setIdentity(res.PlayerID, req.PlayerName, res.Room.ID)
	h.mu.Lock()
	h.byPlayer[res.PlayerID] = c
	if h.rooms[res.Room.ID] == nil {
		h.rooms[res.Room.ID] = make(map[*Client]struct{})
	}
	h.rooms[res.Room.ID][c] = struct{}{}
	h.mu.Unlock()

	h.respond(c, env.RequestID, protocol.Response{Success: true, Room: &res.Room, PlayerID: res.PlayerID})

	// Replay the chat backlog to the joiner, then announce them.
	c.enqueue(protocol.MustEnvelope(protocol.KindChatHistory, protocol.ChatHistory{
		Messages: h.chats.Messages(res.Room.ID),
	}))
	joined := protocol.RoomPlayer{ID: res.PlayerID, Name: req.PlayerName}
	h.broadcastToRoom(res.Room.ID, protocol.MustEnvelope(protocol.KindPlayerJoined, protocol.PlayerJoinedEvent{
		Room:   res.Room,
		Player: joined,
	}), c)
	h.broadcastRoomsList()
	h.logRoomAction(res.Room.ID, res.PlayerID, "room_join", nil)
}

func (h *Hub) handleLeaveRoom(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	if roomID == "" {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: room.ErrRoomNotFound.Error()})
		return
	}
	h.leaveRoom(c, roomID, playerID)
	c.clearRoom()
	h.respond(c, env.RequestID, protocol.Response{Success: true})
}

// leaveRoom removes the player from registry and membership maps and
// notifies the remaining members, including host promotion.
func (h *Hub) leaveRoom(c *Client, roomID, playerID string) {
	res, err := h.registry.LeaveRoom(roomID, playerID)
	if err != nil {
		return
	}

	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.byPlayer, playerID)
	h.mu.Unlock()

	if res.RoomDeleted {
		h.chats.DropRoom(roomID)
		h.mu.Lock()
		delete(h.actionSeq, roomID)
		h.mu.Unlock()
	} else {
		h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindPlayerLeft, protocol.PlayerLeftEvent{
			Room:      res.Room,
			PlayerID:  playerID,
			NewHostID: res.NewHostID,
		}), nil)
		if res.NewHostID != "" {
			h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindHostChanged, protocol.HostChangedEvent{
				Room:      res.Room,
				NewHostID: res.NewHostID,
			}), nil)
		}
	}
	h.broadcastRoomsList()
	h.logRoomAction(roomID, playerID, "room_leave", nil)
}

func (h *Hub) handleKickPlayer(c *Client, env protocol.Envelope) {
	var req protocol.KickPlayerRequest
	if err := env.Decode(&req); err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	playerID, _, roomID := c.identity()
	snapshot, err := h.registry.KickPlayer(roomID, playerID, req.TargetID)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}

	// Tell the target first, then detach them from the room.
	h.sendToPlayer(req.TargetID, protocol.MustEnvelope(protocol.KindKickedFromRoom, protocol.KickedFromRoomEvent{
		RoomID: roomID,
		Reason: "kicked by host",
	}))
	h.mu.Lock()
	target := h.byPlayer[req.TargetID]
	if target != nil {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, target)
		}
		delete(h.byPlayer, req.TargetID)
	}
	h.mu.Unlock()
	if target != nil {
		target.clearRoom()
	}

	h.respond(c, env.RequestID, protocol.Response{Success: true, Room: &snapshot})
	h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindPlayerKicked, protocol.PlayerKickedEvent{
		Room:     snapshot,
		PlayerID: req.TargetID,
	}), nil)
	h.broadcastRoomsList()
	h.logRoomAction(roomID, playerID, "player_kick", env.Payload)
}

func (h *Hub) handleToggleReady(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	snapshot, err := h.registry.ToggleReady(roomID, playerID)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	h.respond(c, env.RequestID, protocol.Response{Success: true, Room: &snapshot})
	h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindRoomUpdated, protocol.RoomUpdatedEvent{Room: snapshot}), nil)
}

func (h *Hub) handleStartGame(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	snapshot, err := h.registry.StartGame(roomID, playerID)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	h.respond(c, env.RequestID, protocol.Response{Success: true, Room: &snapshot})
	h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindGameStarted, protocol.GameStartedEvent{Room: snapshot}), nil)
	h.broadcastRoomsList()
	h.logRoomAction(roomID, playerID, "game_start", nil)
}

func (h *Hub) handleEndGame(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	snapshot, err := h.registry.Snapshot(roomID)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	if snapshot.HostID() != playerID {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: room.ErrNotHost.Error()})
		return
	}
	snapshot, err = h.registry.EndGame(roomID)
	if err != nil {
		h.respond(c, env.RequestID, protocol.Response{Success: false, Error: err.Error()})
		return
	}
	h.respond(c, env.RequestID, protocol.Response{Success: true, Room: &snapshot})
	h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindGameEnded, protocol.GameEndedEvent{Room: snapshot}), nil)
	h.broadcastRoomsList()
	h.logRoomAction(roomID, playerID, "game_end", nil)
}

// ---------------------------------------------------------------------------
// Game traffic handlers (blind relay)
// ---------------------------------------------------------------------------

// handleGameIntent forwards an intent to the room's host. The relay stamps
// the sender's identity so a client cannot act as someone else, but leaves
// rule validation entirely to the host.
func (h *Hub) handleGameIntent(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	if roomID == "" {
		return
	}
	var it protocol.Intent
	if err := env.Decode(&it); err != nil {
		h.log.WithError(err).Debug("dropping malformed intent")
		return
	}
	it.PlayerID = playerID

	snapshot, err := h.registry.Snapshot(roomID)
	if err != nil {
		return
	}
	hostID := snapshot.HostID()
	if hostID == "" {
		return
	}
	forward, err := protocol.NewEnvelope(protocol.KindGameIntent, it)
	if err != nil {
		return
	}
	h.sendToPlayer(hostID, forward)
	h.registry.Touch(roomID)
	h.logRoomAction(roomID, playerID, "game_intent_"+string(it.Kind), env.Payload)
}

// handleStateSync relays the host's full-state broadcast to every other
// room member and records finished games.
func (h *Hub) handleStateSync(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	if roomID == "" {
		return
	}
	snapshot, err := h.registry.Snapshot(roomID)
	if err != nil {
		return
	}
	if snapshot.HostID() != playerID {
		h.log.WithFields(logrus.Fields{"room": roomID, "player": playerID}).
			Warn("dropping state broadcast from non-host")
		return
	}

	h.broadcastToRoom(roomID, env, c)
	h.registry.Touch(roomID)
	h.logRoomAction(roomID, playerID, "state_sync", nil)

	var upd protocol.StateSync
	if err := env.Decode(&upd); err != nil || upd.State == nil {
		return
	}
	if upd.State.GamePhase == engine.PhaseFinished {
		winnerID, winnerName := "", ""
		if upd.State.Winner != nil {
			winnerID = upd.State.Winner.ID
			winnerName = upd.State.Winner.Name
		}
		database.StoreGameResultAsync(roomID, winnerID, winnerName, env.Payload)
	}
}

// handleIntentRejected carries the host's private rejection back to the
// intent's sender.
func (h *Hub) handleIntentRejected(c *Client, env protocol.Envelope) {
	playerID, _, roomID := c.identity()
	if roomID == "" {
		return
	}
	snapshot, err := h.registry.Snapshot(roomID)
	if err != nil || snapshot.HostID() != playerID {
		return
	}
	var rej protocol.IntentRejected
	if err := env.Decode(&rej); err != nil {
		return
	}
	h.sendToPlayer(rej.PlayerID, env)
}

func (h *Hub) handleChatMessage(c *Client, env protocol.Envelope) {
	playerID, playerName, roomID := c.identity()
	if roomID == "" {
		return
	}
	var msg protocol.ChatMessage
	if err := env.Decode(&msg); err != nil {
		return
	}
	stored, err := h.chats.Append(roomID, playerID, playerName, msg.Type, msg.Content)
	if err != nil {
		h.log.WithError(err).Debug("dropping invalid chat message")
		return
	}
	h.broadcastToRoom(roomID, protocol.MustEnvelope(protocol.KindChatMessage, stored), nil)
	h.registry.Touch(roomID)
}

// ---------------------------------------------------------------------------
// Delivery primitives
// ---------------------------------------------------------------------------

func (h *Hub) respond(c *Client, requestID string, resp protocol.Response) {
	env := protocol.MustEnvelope(protocol.KindResponse, resp)
	env.RequestID = requestID
	c.enqueue(env)
}

// broadcastToRoom fans an envelope out to every member of a room, in a
// single pass under the hub lock so all members observe the same order.
func (h *Hub) broadcastToRoom(roomID string, env protocol.Envelope, except *Client) {
	h.mu.Lock()
	var dead []*Client
	for member := range h.rooms[roomID] {
		if member == except {
			continue
		}
		if !member.enqueue(env) {
			dead = append(dead, member)
		}
	}
	h.mu.Unlock()

	for _, member := range dead {
		h.log.Warn("dropping slow websocket consumer")
		member.close(websocket.StatusPolicyViolation, "send queue overflow")
	}
}

func (h *Hub) sendToPlayer(playerID string, env protocol.Envelope) {
	h.mu.Lock()
	target := h.byPlayer[playerID]
	h.mu.Unlock()
	if target != nil {
		target.enqueue(env)
	}
}

// broadcastRoomsList pushes the room directory to every connected client
// so lobby browsers stay current.
func (h *Hub) broadcastRoomsList() {
	env := protocol.MustEnvelope(protocol.KindRoomsUpdated, protocol.Response{Success: true, Rooms: h.registry.List()})
	h.mu.Lock()
	for c := range h.clients {
		c.enqueue(env)
	}
	h.mu.Unlock()
}

// logRoomAction queues an action record for the history consumer.
func (h *Hub) logRoomAction(roomID, playerID, actionType string, payload []byte) {
	h.mu.Lock()
	h.actionSeq[roomID]++
	seq := h.actionSeq[roomID]
	h.mu.Unlock()

	cache.LogAction(cache.GameActionRecord{
		RoomID:      roomID,
		ActionIndex: seq,
		PlayerID:    playerID,
		ActionType:  actionType,
		Payload:     payload,
	})
}
