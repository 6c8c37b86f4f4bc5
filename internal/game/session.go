// Package game binds a room to its single active game session and keeps
// every participant's view consistent. One participant per room is the
// host: its session owns the authoritative engine state, applies intents,
// and broadcasts full-state syncs. Every other session is a mirror that
// renders the last received sync and forwards its own intents toward the
// host. The host never shares its state value; the single-writer property
// is the safety mechanism replacing locks across participants.
package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"betteruno/engine"
	"betteruno/internal/protocol"
)

// BroadcastFunc sends an envelope to every member of the session's room.
type BroadcastFunc func(env protocol.Envelope)

// SendToPlayerFunc sends an envelope to a single room member.
type SendToPlayerFunc func(playerID string, env protocol.Envelope)

// OnGameEndFunc runs when the session observes the game finishing. winnerID
// is empty when the game was aborted rather than won.
type OnGameEndFunc func(roomID, winnerID string)

// Session is one participant's binding to a room's game. At most one
// GameState exists per room at any instant; it lives inside the host's
// session and nowhere else as a writable value.
type Session struct {
	RoomID   string
	PlayerID string

	Rules engine.Rules

	Mu     sync.Mutex
	isHost bool
	state  *engine.GameState // authoritative when host, last-sync replica otherwise
	ended  bool              // suppresses duplicate OnGameEnd firing

	// Communication callbacks, wired by the transport layer.
	BroadcastFn    BroadcastFunc    // room broadcast (host state syncs)
	ForwardFn      BroadcastFunc    // carries local intents toward the host
	SendToPlayerFn SendToPlayerFunc // host-only private messages (rejections)
	OnGameEnd      OnGameEndFunc
}

// NewSession creates a session for one participant. isHost mirrors the
// room's host designation and changes only through HandleHostChanged.
func NewSession(roomID, playerID string, isHost bool) *Session {
	return &Session{
		RoomID:   roomID,
		PlayerID: playerID,
		Rules:    engine.DefaultRules(),
		isHost:   isHost,
	}
}

// IsHost reports whether this session currently computes authoritative state.
func (s *Session) IsHost() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.isHost
}

// State returns a deep copy of the local game state for rendering, or nil
// when no game is active.
func (s *Session) State() *engine.GameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Clone()
}

// StartGame constructs the authoritative state, deals, and broadcasts the
// first sync. Host only.
func (s *Session) StartGame(seats []engine.Seat) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.isHost {
		return fmt.Errorf("only the host can start a game")
	}
	if s.state != nil && s.state.GamePhase == engine.PhasePlaying {
		return fmt.Errorf("game already in progress")
	}

	g := engine.NewGame(uint64(time.Now().UnixNano()), s.Rules)
	if err := g.Deal(seats); err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	s.state = g
	s.ended = false
	log.Printf("Session %s: started game in room %s with %d players.", s.PlayerID, s.RoomID, len(seats))

	s.broadcastState()
	return nil
}

// SubmitIntent is the local participant acting. The host applies it
// directly; a mirror forwards it toward the host and mutates nothing
// locally, not even optimistically.
func (s *Session) SubmitIntent(it protocol.Intent) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	it.PlayerID = s.PlayerID
	if s.isHost {
		return s.applyIntent(it)
	}
	if s.ForwardFn == nil {
		return fmt.Errorf("no forward channel wired")
	}
	env, err := protocol.NewEnvelope(protocol.KindGameIntent, it)
	if err != nil {
		return err
	}
	s.ForwardFn(env)
	return nil
}

// HandleIntent processes an intent forwarded from another participant.
// Mirrors ignore stray intents; only the host computes.
func (s *Session) HandleIntent(it protocol.Intent) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.isHost {
		log.Printf("Session %s: dropping forwarded intent %s while not host.", s.PlayerID, it.Kind)
		return
	}
	// An apply error was already reported privately to the sender; the
	// absence of a state sync is the public signal.
	_ = s.applyIntent(it)
}

// applyIntent runs an intent through the rule engine. On success the new
// state is broadcast; on rejection state is untouched, nothing is
// broadcast, and the sender gets a private rejection. Lock held by caller.
func (s *Session) applyIntent(it protocol.Intent) error {
	if s.state == nil {
		err := fmt.Errorf("no active game")
		s.rejectIntent(it, err)
		return err
	}
	action, err := it.Action()
	if err != nil {
		s.rejectIntent(it, err)
		return err
	}
	if err := s.state.Apply(action); err != nil {
		s.rejectIntent(it, err)
		return err
	}

	s.broadcastState()
	s.checkGameEnd()
	return nil
}

// rejectIntent sends the private negative acknowledgement. Lock held by
// caller.
func (s *Session) rejectIntent(it protocol.Intent, cause error) {
	log.Printf("Session %s: rejected %s from %s: %v", s.PlayerID, it.Kind, it.PlayerID, cause)
	if s.SendToPlayerFn == nil || it.PlayerID == "" {
		return
	}
	env, err := protocol.NewEnvelope(protocol.KindIntentRejected, protocol.IntentRejected{
		PlayerID: it.PlayerID,
		Kind:     it.Kind,
		Reason:   cause.Error(),
	})
	if err != nil {
		return
	}
	s.SendToPlayerFn(it.PlayerID, env)
}

// HandleStateSync applies an inbound full-state broadcast. It is a complete
// replace, never a delta, so redelivery is idempotent and the last write
// wins. The host ignores echoes of its own broadcasts.
func (s *Session) HandleStateSync(sync protocol.StateSync) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.isHost || sync.State == nil {
		return
	}
	s.state = sync.State.Clone()
	s.checkGameEnd()
}

// HandleHostChanged adopts the room's new host designation. A promoted
// mirror simply continues from whatever state it last cached; in-flight
// intents lost with the old host stay lost. That is the documented
// best-effort semantics of host handoff.
func (s *Session) HandleHostChanged(newHostID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	wasHost := s.isHost
	s.isHost = newHostID == s.PlayerID
	if s.isHost && !wasHost {
		log.Printf("Session %s: promoted to host for room %s.", s.PlayerID, s.RoomID)
		if s.state != nil {
			s.broadcastState()
		}
	}
}

// EndGame discards the game state, returning the room to lobby semantics.
// Host only; a restart constructs a fresh GameState via StartGame.
func (s *Session) EndGame() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.isHost {
		return fmt.Errorf("only the host can end the game")
	}
	s.state = nil
	s.ended = true
	log.Printf("Session %s: ended game in room %s.", s.PlayerID, s.RoomID)
	return nil
}

// ConnectionFailed drops all local room and game state. After the
// transport exhausts its reconnect budget the cached state is no longer
// trustworthy, so the participant must rejoin from scratch.
func (s *Session) ConnectionFailed() {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	log.Printf("Session %s: connection failed, dropping state for room %s.", s.PlayerID, s.RoomID)
	s.state = nil
	s.isHost = false
	s.ended = true
}

// broadcastState sends the current full state to the room. Lock held by
// caller.
func (s *Session) broadcastState() {
	if s.BroadcastFn == nil {
		log.Printf("Warning: Session %s: BroadcastFn is nil, cannot sync state.", s.PlayerID)
		return
	}
	env, err := protocol.NewEnvelope(protocol.KindStateSync, protocol.StateSync{State: s.state})
	if err != nil {
		log.Printf("Error: Session %s: marshal state sync: %v", s.PlayerID, err)
		return
	}
	s.BroadcastFn(env)
}

// checkGameEnd fires OnGameEnd once when the game reaches the finished
// phase. Lock held by caller.
func (s *Session) checkGameEnd() {
	if s.state == nil || s.state.GamePhase != engine.PhaseFinished || s.ended {
		return
	}
	s.ended = true
	winnerID := ""
	if s.state.Winner != nil {
		winnerID = s.state.Winner.ID
	}
	log.Printf("Session %s: game in room %s finished, winner %q.", s.PlayerID, s.RoomID, winnerID)
	if s.OnGameEnd != nil {
		s.OnGameEnd(s.RoomID, winnerID)
	}
}
