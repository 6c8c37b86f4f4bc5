// Package protocol defines the wire messages exchanged between clients and
// the relay server: room requests and events, chat, game intents, and the
// full-state broadcasts that replicate the host's authoritative game state.
//
// Every message travels inside a tagged Envelope so each kind can be
// matched exhaustively instead of sniffing loose JSON objects.
package protocol

import (
	"encoding/json"
	"fmt"

	"betteruno/engine"
)

// Kind discriminates envelope payloads.
type Kind string

// Client-to-server request kinds. Requests carry a RequestID and receive a
// KindResponse with the same id.
const (
	KindCreateRoom  Kind = "create-room"
	KindJoinRoom    Kind = "join-room"
	KindLeaveRoom   Kind = "leave-room"
	KindKickPlayer  Kind = "kick-player"
	KindToggleReady Kind = "toggle-ready"
	KindStartGame   Kind = "start-game"
	KindEndGame     Kind = "end-game"
	KindListRooms   Kind = "list-rooms"
)

// Game traffic kinds. The relay forwards these without interpreting game
// rules: intents travel toward the room's host, state broadcasts travel
// from the host to everyone else.
const (
	KindGameIntent     Kind = "game-intent"
	KindStateSync      Kind = "game-state-update"
	KindIntentRejected Kind = "intent-rejected"
)

// Chat kinds.
const (
	KindChatMessage Kind = "chat-message"
	KindChatHistory Kind = "chat-history"
)

// Server-to-client kinds.
const (
	KindResponse       Kind = "response"
	KindPlayerJoined   Kind = "player-joined"
	KindPlayerLeft     Kind = "player-left"
	KindHostChanged    Kind = "host-changed"
	KindGameStarted    Kind = "game-started"
	KindGameEnded      Kind = "game-ended"
	KindPlayerKicked   Kind = "player-kicked"
	KindKickedFromRoom Kind = "kicked-from-room"
	KindRoomUpdated    Kind = "room-updated"
	KindRoomsUpdated   Kind = "rooms-updated"
)

// Envelope is the outer frame of every message. Payload holds the
// kind-specific body; RequestID correlates requests with responses.
type Envelope struct {
	Kind      Kind            `json:"kind"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an Envelope of the given kind.
func NewEnvelope(kind Kind, payload interface{}) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		raw = b
	}
	return Envelope{Kind: kind, Payload: raw}, nil
}

// MustEnvelope is NewEnvelope for payloads that cannot fail to marshal.
func MustEnvelope(kind Kind, payload interface{}) Envelope {
	env, err := NewEnvelope(kind, payload)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode unmarshals the payload into dst.
func (e Envelope) Decode(dst interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Kind)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Room wire model
// ---------------------------------------------------------------------------

// RoomPlayer is one lobby member as seen on the wire.
type RoomPlayer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
}

// Room is the lobby state as seen on the wire. Passwords never appear
// here, only whether one is required.
type Room struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Players        []RoomPlayer `json:"players"`
	MaxPlayers     int          `json:"maxPlayers"`
	HasPassword    bool         `json:"hasPassword"`
	GameInProgress bool         `json:"gameInProgress"`
}

// HostID returns the id of the room's host, or "" when the room is empty.
func (r Room) HostID() string {
	for _, p := range r.Players {
		if p.IsHost {
			return p.ID
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Requests and responses
// ---------------------------------------------------------------------------

type CreateRoomRequest struct {
	RoomName   string `json:"roomName"`
	PlayerName string `json:"playerName"`
	MaxPlayers int    `json:"maxPlayers"`
	Password   string `json:"password,omitempty"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Password   string `json:"password,omitempty"`
}

type KickPlayerRequest struct {
	TargetID string `json:"targetId"`
}

// Response is the typed acknowledgement for every request kind. Error is
// set only when Success is false.
type Response struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Room     *Room  `json:"room,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Rooms    []Room `json:"rooms,omitempty"`
}

// ---------------------------------------------------------------------------
// Room events
// ---------------------------------------------------------------------------

type PlayerJoinedEvent struct {
	Room   Room       `json:"room"`
	Player RoomPlayer `json:"player"`
}

// PlayerLeftEvent carries the promoted host's id when the departing player
// was the host.
type PlayerLeftEvent struct {
	Room      Room   `json:"room"`
	PlayerID  string `json:"playerId"`
	NewHostID string `json:"newHostId,omitempty"`
}

type HostChangedEvent struct {
	Room      Room   `json:"room"`
	NewHostID string `json:"newHostId"`
}

type GameStartedEvent struct {
	Room Room `json:"room"`
}

type GameEndedEvent struct {
	Room Room `json:"room"`
}

type PlayerKickedEvent struct {
	Room     Room   `json:"room"`
	PlayerID string `json:"playerId"`
}

type KickedFromRoomEvent struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason,omitempty"`
}

type RoomUpdatedEvent struct {
	Room Room `json:"room"`
}

// ---------------------------------------------------------------------------
// Game traffic
// ---------------------------------------------------------------------------

// IntentKind discriminates game intents.
type IntentKind string

const (
	IntentPlayCard           IntentKind = "PLAY_CARD"
	IntentDrawCard           IntentKind = "DRAW_CARD"
	IntentCallUno            IntentKind = "CALL_UNO"
	IntentResolveStackedDraw IntentKind = "RESOLVE_STACKED_DRAW"
)

// Intent is a requested game action traveling toward the room's host for
// authoritative processing. Fields beyond Kind and PlayerID are
// kind-specific.
type Intent struct {
	Kind         IntentKind       `json:"kind"`
	PlayerID     string           `json:"playerId"`
	CardID       string           `json:"cardId,omitempty"`
	ChosenColor  engine.CardColor `json:"chosenColor,omitempty"`
	SwapTargetID string           `json:"swapTargetId,omitempty"`
	Count        int              `json:"count,omitempty"`
}

// Action converts the intent into an engine action, rejecting unknown
// kinds so malformed traffic never reaches the rule engine.
func (i Intent) Action() (engine.Action, error) {
	switch i.Kind {
	case IntentPlayCard:
		if i.CardID == "" {
			return engine.Action{}, fmt.Errorf("PLAY_CARD intent without cardId")
		}
		return engine.Action{
			Kind:         engine.ActionPlayCard,
			PlayerID:     i.PlayerID,
			CardID:       i.CardID,
			ChosenColor:  i.ChosenColor,
			SwapTargetID: i.SwapTargetID,
		}, nil
	case IntentDrawCard:
		return engine.Action{Kind: engine.ActionDrawCard, PlayerID: i.PlayerID, Count: i.Count}, nil
	case IntentCallUno:
		return engine.Action{Kind: engine.ActionCallUno, PlayerID: i.PlayerID}, nil
	case IntentResolveStackedDraw:
		return engine.Action{Kind: engine.ActionResolveStackedDraw}, nil
	default:
		return engine.Action{}, fmt.Errorf("unknown intent kind %q", i.Kind)
	}
}

// StateSync is the host's full-state broadcast. It is always a complete
// replace, never a delta: receivers overwrite their local copy, which makes
// redelivery idempotent and ordering last-write-wins.
type StateSync struct {
	State *engine.GameState `json:"state"`
}

// IntentRejected is the host's private negative acknowledgement for an
// intent the rule engine refused. Mirrors that predate this message keep
// working: absence of a matching StateSync still implies rejection.
type IntentRejected struct {
	PlayerID string     `json:"playerId"`
	Kind     IntentKind `json:"kind"`
	Reason   string     `json:"reason"`
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

// ChatMessageType distinguishes plain text from sticker messages.
type ChatMessageType string

const (
	ChatText    ChatMessageType = "text"
	ChatSticker ChatMessageType = "sticker"
)

// ChatMessage is one room-scoped chat entry.
type ChatMessage struct {
	ID         string          `json:"id"`
	RoomID     string          `json:"roomId"`
	PlayerID   string          `json:"playerId"`
	PlayerName string          `json:"playerName"`
	Type       ChatMessageType `json:"type"`
	Content    string          `json:"content"`
	Timestamp  int64           `json:"timestamp"`
}

// ChatHistory replays the bounded message backlog to a joining player.
type ChatHistory struct {
	Messages []ChatMessage `json:"messages"`
}
