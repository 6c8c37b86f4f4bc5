// Package engine implements the card game rules: deck construction, play
// legality, draw-chain stacking, special card effects, elimination, and win
// detection. The engine is pure: it owns no goroutines and performs no I/O,
// so a single GameState can be driven deterministically from a seed.
package engine

import (
	"fmt"
)

// Seat identifies one participant to deal into a new game.
type Seat struct {
	ID   string
	Name string
}

// GameState holds the complete, self-contained state of one game. Exactly
// one instance exists per active room; it is owned and mutated by a single
// writer (the host session) and replicated read-only everywhere else.
type GameState struct {
	Players            []Player     `json:"players"`
	CurrentPlayerIndex int          `json:"currentPlayerIndex"`
	Direction          Direction    `json:"direction"`
	TopCard            Card         `json:"topCard"`
	DrawPile           []Card       `json:"drawPile"`
	DiscardPile        []Card       `json:"discardPile"`
	WildColor          CardColor    `json:"wildColor,omitempty"`
	IsBlockAllActive   bool         `json:"isBlockAllActive"`
	StackingType       StackingType `json:"stackingType"`
	StackedDrawCount   int          `json:"stackedDrawCount"`
	EliminatedPlayers  []string     `json:"eliminatedPlayers"`
	GamePhase          GamePhase    `json:"gamePhase"`
	Winner             *Player      `json:"winner,omitempty"`
	Rules              Rules        `json:"rules"`

	// RNG is xorshift64 state. Excluded from sync payloads: mirrors never
	// draw, and a promoted host reseeds lazily via randN.
	RNG uint64 `json:"-"`
}

// NewGame initializes a GameState with the given seed and rules. The deck
// is built but not yet shuffled or dealt; GamePhase stays at waiting until
// Deal is called.
func NewGame(seed uint64, rules Rules) *GameState {
	rules.normalize()
	g := &GameState{
		Direction:         Clockwise,
		DrawPile:          NewDeck(),
		DiscardPile:       make([]Card, 0, DeckSize),
		EliminatedPlayers: make([]string, 0),
		StackingType:      StackingNone,
		GamePhase:         PhaseWaiting,
		Rules:             rules,
		RNG:               seed,
	}
	if g.RNG == 0 {
		g.RNG = 1 // xorshift can't start at 0
	}
	return g
}

// Deal shuffles the deck, deals CardsPerPlayer cards round-robin to each
// seat, and reveals the first number card as the initial top card. Action
// cards drawn during the reveal go back to the bottom of the draw pile so
// no effect fires with no prior player.
func (g *GameState) Deal(seats []Seat) error {
	if g.GamePhase != PhaseWaiting {
		return fmt.Errorf("cannot deal in phase %q", g.GamePhase)
	}
	if len(seats) < g.Rules.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", g.Rules.MinPlayers, len(seats))
	}
	if len(seats) > g.Rules.MaxPlayers {
		return fmt.Errorf("at most %d players allowed, have %d", g.Rules.MaxPlayers, len(seats))
	}

	g.shuffle(g.DrawPile)

	g.Players = make([]Player, len(seats))
	for i, s := range seats {
		g.Players[i] = Player{ID: s.ID, Name: s.Name, Hand: make([]Card, 0, g.Rules.CardsPerPlayer)}
	}
	for c := 0; c < g.Rules.CardsPerPlayer; c++ {
		for p := range g.Players {
			card, ok := g.popDraw()
			if !ok {
				return fmt.Errorf("deck exhausted while dealing")
			}
			g.Players[p].Hand = append(g.Players[p].Hand, card)
		}
	}

	// Reveal the initial top card, skipping non-number cards.
	var skipped []Card
	for {
		card, ok := g.popDraw()
		if !ok {
			return fmt.Errorf("deck exhausted before revealing a number card")
		}
		if card.Type == TypeNumber {
			g.DiscardPile = append(g.DiscardPile, card)
			g.TopCard = card
			break
		}
		skipped = append(skipped, card)
	}
	if len(skipped) > 0 {
		g.DrawPile = append(skipped, g.DrawPile...)
	}

	g.CurrentPlayerIndex = 0
	g.GamePhase = PhasePlaying
	return nil
}

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

func (g *GameState) nextRand() uint64 {
	x := g.RNG
	if x == 0 {
		x = 0x9e3779b97f4a7c15
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n int) int {
	return int(g.nextRand() % uint64(n))
}

// shuffle performs an in-place Fisher-Yates shuffle.
func (g *GameState) shuffle(cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := g.randN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// ---------------------------------------------------------------------------
// Drawing and reshuffle
// ---------------------------------------------------------------------------

// popDraw pops the top draw-pile card, reshuffling the discard pile beneath
// the top card when the pile is exhausted. Returns false only when every
// other card is held in hands.
func (g *GameState) popDraw() (Card, bool) {
	if len(g.DrawPile) == 0 {
		g.attemptReshuffle()
	}
	if len(g.DrawPile) == 0 {
		return Card{}, false
	}
	card := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	return card, true
}

// attemptReshuffle moves all discard cards except the top back into the
// draw pile and shuffles them. The current top card must remain in play.
func (g *GameState) attemptReshuffle() {
	if len(g.DiscardPile) <= 1 {
		return
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.DrawPile = append(g.DrawPile, g.DiscardPile[:len(g.DiscardPile)-1]...)
	g.DiscardPile = g.DiscardPile[:0]
	g.DiscardPile = append(g.DiscardPile, top)
	g.shuffle(g.DrawPile)
}

// drawInto draws up to count cards into the hand of the player at idx.
// Returns the number actually drawn; a pathological all-cards-in-hands
// state yields fewer, silently.
func (g *GameState) drawInto(idx, count int) int {
	drawn := 0
	for i := 0; i < count; i++ {
		card, ok := g.popDraw()
		if !ok {
			break
		}
		g.Players[idx].Hand = append(g.Players[idx].Hand, card)
		drawn++
	}
	if len(g.Players[idx].Hand) > 1 {
		g.Players[idx].HasCalledUno = false
	}
	return drawn
}

// ---------------------------------------------------------------------------
// Turn rotation and player lookup
// ---------------------------------------------------------------------------

// nextIndex returns the player index steps seats away from `from` in the
// current direction.
func (g *GameState) nextIndex(from, steps int) int {
	n := len(g.Players)
	if n == 0 {
		return 0
	}
	step := 1
	if g.Direction == Counterclockwise {
		step = -1
	}
	idx := from
	for i := 0; i < steps; i++ {
		idx = ((idx+step)%n + n) % n
	}
	return idx
}

// PlayerIndex returns the index of the player with the given id, or -1.
func (g *GameState) PlayerIndex(playerID string) int {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is.
func (g *GameState) CurrentPlayer() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

// ---------------------------------------------------------------------------
// Elimination and win detection
// ---------------------------------------------------------------------------

// checkElimination removes the player at idx when their hand reaches the
// elimination threshold. Their cards leave the game with them. Returns true
// if the player was removed.
func (g *GameState) checkElimination(idx int) bool {
	if len(g.Players[idx].Hand) < g.Rules.EliminationThreshold {
		return false
	}
	g.EliminatedPlayers = append(g.EliminatedPlayers, g.Players[idx].ID)
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	// Re-clamp the turn pointer after removal.
	if idx < g.CurrentPlayerIndex {
		g.CurrentPlayerIndex--
	}
	if g.CurrentPlayerIndex >= len(g.Players) {
		g.CurrentPlayerIndex = 0
	}

	if len(g.Players) == 1 {
		g.finish(&g.Players[0])
	}
	return true
}

// finish transitions to the finished phase with the given winner.
func (g *GameState) finish(winner *Player) {
	w := *winner
	g.Winner = &w
	g.GamePhase = PhaseFinished
}

// Clone returns a deep copy. Replicas apply synced states through Clone so
// the single-writer copy is never aliased.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = p
		c.Players[i].Hand = append([]Card(nil), p.Hand...)
	}
	c.DrawPile = append([]Card(nil), g.DrawPile...)
	c.DiscardPile = append([]Card(nil), g.DiscardPile...)
	c.EliminatedPlayers = append([]string(nil), g.EliminatedPlayers...)
	if g.Winner != nil {
		w := *g.Winner
		w.Hand = append([]Card(nil), g.Winner.Hand...)
		c.Winner = &w
	}
	return &c
}
