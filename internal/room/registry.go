// Package room implements the lobby directory: transient rooms that players
// create, join, and ready up in before a game starts. All state is held in
// an explicit Registry injected into the handlers, with a single lock as
// the writer discipline.
package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"betteruno/internal/protocol"
)

// Room-level request failures, surfaced to clients as typed
// {success:false, error} responses.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotHost          = errors.New("only the host can do that")
	ErrHostCannotReady  = errors.New("the host cannot toggle ready")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrPlayersNotReady  = errors.New("all players must be ready to start")
	ErrPlayerNotFound   = errors.New("player not found")
)

const (
	// MaxRoomPlayers caps the creator-supplied room size.
	MaxRoomPlayers = 8
	// roomIDLength is the length of the join code shown to players.
	roomIDLength = 6
)

// Player is one lobby member.
type Player struct {
	ID       string
	Name     string
	IsHost   bool
	IsReady  bool
	JoinedAt time.Time
}

// Room is one lobby. Password is stored as a bcrypt hash; the plaintext
// never persists past the create request.
type Room struct {
	ID             string
	Name           string
	Players        []*Player
	MaxPlayers     int
	PasswordHash   []byte
	GameInProgress bool
	CreatedAt      time.Time
	LastActivity   time.Time
}

// snapshot renders the room for the wire.
func (r *Room) snapshot() protocol.Room {
	players := make([]protocol.RoomPlayer, len(r.Players))
	for i, p := range r.Players {
		players[i] = protocol.RoomPlayer{ID: p.ID, Name: p.Name, IsHost: p.IsHost, IsReady: p.IsReady}
	}
	return protocol.Room{
		ID:             r.ID,
		Name:           r.Name,
		Players:        players,
		MaxPlayers:     r.MaxPlayers,
		HasPassword:    len(r.PasswordHash) > 0,
		GameInProgress: r.GameInProgress,
	}
}

func (r *Room) host() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

func (r *Room) player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Registry owns every live room. Construct one at process start with
// NewRegistry and inject it into the transport handlers.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	log   *logrus.Logger

	rng func(n int) int // room-code digit source, swappable in tests
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{
		rooms: make(map[string]*Room),
		log:   log,
		rng:   defaultRandInt,
	}
}

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func defaultRandInt(n int) int {
	return int(uuid.New().ID()) % n
}

// newRoomID generates an unused 6-character uppercase join code.
// Caller holds the lock.
func (reg *Registry) newRoomID() string {
	for {
		b := make([]byte, roomIDLength)
		for i := range b {
			b[i] = roomIDAlphabet[reg.rng(len(roomIDAlphabet))]
		}
		id := string(b)
		if _, taken := reg.rooms[id]; !taken {
			return id
		}
	}
}

// CreateResult is returned by CreateRoom and JoinRoom.
type CreateResult struct {
	Room     protocol.Room
	PlayerID string
}

// CreateRoom makes a new room with the creator seated as host, marked
// ready. maxPlayers is clamped to [2, MaxRoomPlayers].
func (reg *Registry) CreateRoom(roomName, hostName string, maxPlayers int, password string) (CreateResult, error) {
	if maxPlayers < 2 {
		maxPlayers = 2
	}
	if maxPlayers > MaxRoomPlayers {
		maxPlayers = MaxRoomPlayers
	}

	var hash []byte
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return CreateResult{}, fmt.Errorf("hash room password: %w", err)
		}
		hash = h
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := time.Now()
	host := &Player{
		ID:       uuid.New().String(),
		Name:     hostName,
		IsHost:   true,
		IsReady:  true,
		JoinedAt: now,
	}
	r := &Room{
		ID:           reg.newRoomID(),
		Name:         roomName,
		Players:      []*Player{host},
		MaxPlayers:   maxPlayers,
		PasswordHash: hash,
		CreatedAt:    now,
		LastActivity: now,
	}
	reg.rooms[r.ID] = r

	reg.log.WithFields(logrus.Fields{"room": r.ID, "host": host.ID}).Info("room created")
	return CreateResult{Room: r.snapshot(), PlayerID: host.ID}, nil
}

// JoinRoom seats a new player in an existing room.
func (reg *Registry) JoinRoom(roomID, playerName, password string) (CreateResult, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return CreateResult{}, ErrRoomNotFound
	}
	if r.GameInProgress {
		return CreateResult{}, ErrGameInProgress
	}
	if len(r.Players) >= r.MaxPlayers {
		return CreateResult{}, ErrRoomFull
	}
	if len(r.PasswordHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(r.PasswordHash, []byte(password)); err != nil {
			return CreateResult{}, ErrWrongPassword
		}
	}

	p := &Player{
		ID:       uuid.New().String(),
		Name:     playerName,
		JoinedAt: time.Now(),
	}
	r.Players = append(r.Players, p)
	r.LastActivity = time.Now()

	reg.log.WithFields(logrus.Fields{"room": r.ID, "player": p.ID}).Info("player joined")
	return CreateResult{Room: r.snapshot(), PlayerID: p.ID}, nil
}

// LeaveResult describes the aftermath of a departure.
type LeaveResult struct {
	Room        protocol.Room
	RoomDeleted bool
	NewHostID   string
}

// LeaveRoom removes the player. When the host leaves, the earliest-joined
// remaining player is promoted; an emptied room is deleted.
func (reg *Registry) LeaveRoom(roomID, playerID string) (LeaveResult, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return LeaveResult{}, ErrRoomNotFound
	}
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return LeaveResult{}, ErrPlayerNotFound
	}
	wasHost := r.Players[idx].IsHost
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	r.LastActivity = time.Now()

	if len(r.Players) == 0 {
		delete(reg.rooms, roomID)
		reg.log.WithField("room", roomID).Info("room deleted (empty)")
		return LeaveResult{RoomDeleted: true}, nil
	}

	var newHostID string
	if wasHost {
		next := r.Players[0]
		for _, p := range r.Players[1:] {
			if p.JoinedAt.Before(next.JoinedAt) {
				next = p
			}
		}
		next.IsHost = true
		next.IsReady = true
		newHostID = next.ID
		reg.log.WithFields(logrus.Fields{"room": r.ID, "host": newHostID}).Info("host promoted")
	}
	return LeaveResult{Room: r.snapshot(), NewHostID: newHostID}, nil
}

// KickPlayer removes targetID from the room. Only the host may kick, and
// not themselves.
func (reg *Registry) KickPlayer(roomID, hostID, targetID string) (protocol.Room, error) {
	reg.mu.Lock()

	r, ok := reg.rooms[roomID]
	if !ok {
		reg.mu.Unlock()
		return protocol.Room{}, ErrRoomNotFound
	}
	host := r.host()
	if host == nil || host.ID != hostID {
		reg.mu.Unlock()
		return protocol.Room{}, ErrNotHost
	}
	if targetID == hostID {
		reg.mu.Unlock()
		return protocol.Room{}, fmt.Errorf("host cannot kick themselves")
	}
	if r.player(targetID) == nil {
		reg.mu.Unlock()
		return protocol.Room{}, ErrPlayerNotFound
	}
	reg.mu.Unlock()

	res, err := reg.LeaveRoom(roomID, targetID)
	if err != nil {
		return protocol.Room{}, err
	}
	return res.Room, nil
}

// ToggleReady flips the player's ready flag. The host is always ready and
// cannot toggle.
func (reg *Registry) ToggleReady(roomID, playerID string) (protocol.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return protocol.Room{}, ErrRoomNotFound
	}
	p := r.player(playerID)
	if p == nil {
		return protocol.Room{}, ErrPlayerNotFound
	}
	if p.IsHost {
		return protocol.Room{}, ErrHostCannotReady
	}
	p.IsReady = !p.IsReady
	r.LastActivity = time.Now()
	return r.snapshot(), nil
}

// StartGame transitions the room to in-progress. Requires the caller to be
// host, at least two players, and every non-host player ready.
func (reg *Registry) StartGame(roomID, hostID string) (protocol.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return protocol.Room{}, ErrRoomNotFound
	}
	host := r.host()
	if host == nil || host.ID != hostID {
		return protocol.Room{}, ErrNotHost
	}
	if r.GameInProgress {
		return protocol.Room{}, ErrGameInProgress
	}
	if len(r.Players) < 2 {
		return protocol.Room{}, ErrNotEnoughPlayers
	}
	for _, p := range r.Players {
		if !p.IsHost && !p.IsReady {
			return protocol.Room{}, ErrPlayersNotReady
		}
	}
	r.GameInProgress = true
	r.LastActivity = time.Now()

	reg.log.WithField("room", r.ID).Info("game started")
	return r.snapshot(), nil
}

// EndGame returns the room to lobby state and clears non-host readiness.
func (reg *Registry) EndGame(roomID string) (protocol.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return protocol.Room{}, ErrRoomNotFound
	}
	r.GameInProgress = false
	for _, p := range r.Players {
		if !p.IsHost {
			p.IsReady = false
		}
	}
	r.LastActivity = time.Now()

	reg.log.WithField("room", r.ID).Info("game ended")
	return r.snapshot(), nil
}

// Touch records activity on a room so the idle sweep skips it.
func (reg *Registry) Touch(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok {
		r.LastActivity = time.Now()
	}
}

// Snapshot returns the wire view of one room.
func (reg *Registry) Snapshot(roomID string) (protocol.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return protocol.Room{}, ErrRoomNotFound
	}
	return r.snapshot(), nil
}

// List returns the wire view of every live room.
func (reg *Registry) List() []protocol.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]protocol.Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r.snapshot())
	}
	return out
}

// CleanupStale deletes rooms idle for longer than maxIdle and returns the
// ids of the deleted rooms.
func (reg *Registry) CleanupStale(maxIdle time.Duration) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var deleted []string
	cutoff := time.Now().Add(-maxIdle)
	for id, r := range reg.rooms {
		if r.LastActivity.Before(cutoff) {
			delete(reg.rooms, id)
			deleted = append(deleted, id)
		}
	}
	if len(deleted) > 0 {
		reg.log.WithField("rooms", deleted).Info("cleaned up stale rooms")
	}
	return deleted
}

// RunCleanup sweeps for stale rooms every interval until stop is closed.
func (reg *Registry) RunCleanup(interval, maxIdle time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.CleanupStale(maxIdle)
		case <-stop:
			return
		}
	}
}
