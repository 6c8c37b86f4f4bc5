package engine

import "fmt"

// ActionKind discriminates the actions Apply accepts. The values match the
// intent kinds on the wire.
type ActionKind string

const (
	ActionPlayCard           ActionKind = "PLAY_CARD"
	ActionDrawCard           ActionKind = "DRAW_CARD"
	ActionCallUno            ActionKind = "CALL_UNO"
	ActionResolveStackedDraw ActionKind = "RESOLVE_STACKED_DRAW"
)

// Action is one requested game action. Fields beyond Kind and PlayerID are
// kind-specific: CardID/ChosenColor/SwapTargetID for PLAY_CARD, Count for
// DRAW_CARD.
type Action struct {
	Kind         ActionKind
	PlayerID     string
	CardID       string
	ChosenColor  CardColor
	SwapTargetID string
	Count        int
}

// Apply routes an action to its handler. On error the state is unchanged.
func (g *GameState) Apply(a Action) error {
	switch a.Kind {
	case ActionPlayCard:
		return g.PlayCard(a.PlayerID, a.CardID, a.ChosenColor, a.SwapTargetID)
	case ActionDrawCard:
		return g.DrawCard(a.PlayerID, a.Count)
	case ActionCallUno:
		return g.CallUno(a.PlayerID)
	case ActionResolveStackedDraw:
		return g.ResolveStackedDraw()
	default:
		return fmt.Errorf("unhandled action kind %q", a.Kind)
	}
}

// PlayCard places the identified card from the player's hand onto the
// discard pile and resolves its effect. swapTargetID selects the swap-hands
// partner; when empty, a uniform random other player is chosen. All
// preconditions are checked before any mutation.
func (g *GameState) PlayCard(playerID, cardID string, chosenColor CardColor, swapTargetID string) error {
	if g.GamePhase != PhasePlaying {
		return fmt.Errorf("cannot play in phase %q", g.GamePhase)
	}
	idx := g.PlayerIndex(playerID)
	if idx < 0 {
		return fmt.Errorf("unknown player %q", playerID)
	}
	if idx != g.CurrentPlayerIndex {
		return fmt.Errorf("not %s's turn", g.Players[idx].Name)
	}

	handIdx := -1
	for i, c := range g.Players[idx].Hand {
		if c.ID == cardID {
			handIdx = i
			break
		}
	}
	if handIdx < 0 {
		return fmt.Errorf("card %q is not in hand", cardID)
	}
	card := g.Players[idx].Hand[handIdx]

	if err := g.validatePlay(card); err != nil {
		return err
	}
	if card.Type == TypeSwapHands && swapTargetID != "" {
		tIdx := g.PlayerIndex(swapTargetID)
		if tIdx < 0 || tIdx == idx {
			return fmt.Errorf("invalid swap target %q", swapTargetID)
		}
	}

	// Move card from hand to the top of the discard pile.
	hand := g.Players[idx].Hand
	g.Players[idx].Hand = append(hand[:handIdx], hand[handIdx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)
	g.TopCard = card

	if card.IsWildType() {
		if !IsPlayableColor(chosenColor) {
			chosenColor = ColorRed // fallback only; callers always supply a color
		}
		g.WildColor = chosenColor
	} else {
		g.WildColor = ""
	}
	g.IsBlockAllActive = false

	if len(g.Players[idx].Hand) == 0 {
		g.finish(&g.Players[idx])
		return nil
	}

	nextIdx := g.nextIndex(idx, 1)
	pendingElimIdx := -1

	switch card.Type {
	case TypeSkip:
		nextIdx = g.nextIndex(idx, 2)

	case TypeReverse:
		if g.Direction == Clockwise {
			g.Direction = Counterclockwise
		} else {
			g.Direction = Clockwise
		}
		if len(g.Players) == 2 {
			// Two-player reverse acts as skip.
			nextIdx = idx
		} else {
			nextIdx = g.nextIndex(idx, 1)
		}

	case TypeDrawTwo:
		if g.StackingType == StackingNone || g.StackingType == "" {
			g.StackingType = StackingDrawTwo
			g.StackedDrawCount = 2
		} else {
			g.StackedDrawCount += 2
		}

	case TypeWildDrawFour:
		if g.StackingType == StackingNone || g.StackingType == "" {
			g.StackingType = StackingWildDrawFour
			g.StackedDrawCount = 4
		} else {
			// A +4 on an open draw-two chain upgrades the chain: only
			// further +4s may extend it.
			g.StackingType = StackingWildDrawFour
			g.StackedDrawCount += 4
		}

	case TypeSwapHands:
		tIdx := g.PlayerIndex(swapTargetID)
		if tIdx < 0 {
			tIdx = g.randomOtherPlayer(idx)
		}
		if tIdx >= 0 {
			g.Players[idx].Hand, g.Players[tIdx].Hand = g.Players[tIdx].Hand, g.Players[idx].Hand
			g.Players[idx].HasCalledUno = false
			g.Players[tIdx].HasCalledUno = false
		}

	case TypeDrawMinusTwo:
		victim := nextIdx
		if len(g.Players[victim].Hand) >= 2 {
			g.discardUnderTop(g.removeRandomCards(victim, 2)...)
		} else {
			g.drawInto(victim, 2)
			pendingElimIdx = victim
		}

	case TypeShuffleMyHand:
		n := len(g.Players[idx].Hand)
		g.discardUnderTop(g.Players[idx].Hand...)
		g.Players[idx].Hand = make([]Card, 0, n)
		g.drawInto(idx, n)

	case TypeBlockAll:
		g.IsBlockAllActive = true
	}

	g.CurrentPlayerIndex = nextIdx

	if pendingElimIdx >= 0 {
		g.checkElimination(pendingElimIdx)
	}
	return nil
}

// DrawCard draws count cards into the player's hand (one when count <= 0).
// A current player who still has no playable card after drawing passes the
// turn. Elimination is checked after every draw.
func (g *GameState) DrawCard(playerID string, count int) error {
	if g.GamePhase != PhasePlaying {
		return fmt.Errorf("cannot draw in phase %q", g.GamePhase)
	}
	idx := g.PlayerIndex(playerID)
	if idx < 0 {
		return fmt.Errorf("unknown player %q", playerID)
	}
	if idx == g.CurrentPlayerIndex && g.StackingType != StackingNone && g.StackingType != "" {
		return fmt.Errorf("an open %s chain must be resolved before drawing", g.StackingType)
	}
	if count <= 0 {
		count = 1
	}

	isCurrent := idx == g.CurrentPlayerIndex
	g.drawInto(idx, count)
	if g.checkElimination(idx) {
		return nil
	}
	if g.GamePhase != PhasePlaying {
		return nil
	}
	if isCurrent && !g.HasPlayableCard(idx) {
		g.CurrentPlayerIndex = g.nextIndex(idx, 1)
	}
	return nil
}

// ResolveStackedDraw makes the current player absorb the open draw chain:
// they draw the accumulated count, the chain closes, and the turn advances.
func (g *GameState) ResolveStackedDraw() error {
	if g.GamePhase != PhasePlaying {
		return fmt.Errorf("cannot resolve in phase %q", g.GamePhase)
	}
	if g.StackingType == StackingNone || g.StackingType == "" {
		return fmt.Errorf("no stacked draw to resolve")
	}

	idx := g.CurrentPlayerIndex
	g.drawInto(idx, g.StackedDrawCount)
	g.StackingType = StackingNone
	g.StackedDrawCount = 0

	if g.checkElimination(idx) {
		// Removal already moved the turn pointer to the next seat.
		return nil
	}
	if g.GamePhase != PhasePlaying {
		return nil
	}
	g.CurrentPlayerIndex = g.nextIndex(idx, 1)
	return nil
}

// CallUno marks the player as having called uno. Calling is advisory: it is
// a no-op unless the hand holds exactly one card, and there is no penalty
// for not calling.
func (g *GameState) CallUno(playerID string) error {
	idx := g.PlayerIndex(playerID)
	if idx < 0 {
		return fmt.Errorf("unknown player %q", playerID)
	}
	if len(g.Players[idx].Hand) == 1 {
		g.Players[idx].HasCalledUno = true
	}
	return nil
}

// ---------------------------------------------------------------------------
// Effect helpers
// ---------------------------------------------------------------------------

// discardUnderTop inserts cards into the discard pile directly beneath the
// top card, so TopCard keeps matching the pile's last element.
func (g *GameState) discardUnderTop(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	if len(g.DiscardPile) == 0 {
		g.DiscardPile = append(g.DiscardPile, cards...)
		return
	}
	topIdx := len(g.DiscardPile) - 1
	top := g.DiscardPile[topIdx]
	g.DiscardPile = append(g.DiscardPile[:topIdx], cards...)
	g.DiscardPile = append(g.DiscardPile, top)
}

// removeRandomCards removes n uniformly chosen cards from the player's hand.
func (g *GameState) removeRandomCards(idx, n int) []Card {
	removed := make([]Card, 0, n)
	for i := 0; i < n && len(g.Players[idx].Hand) > 0; i++ {
		hand := g.Players[idx].Hand
		j := g.randN(len(hand))
		removed = append(removed, hand[j])
		g.Players[idx].Hand = append(hand[:j], hand[j+1:]...)
	}
	return removed
}

// randomOtherPlayer returns a uniformly chosen player index other than idx,
// or -1 when no other player exists.
func (g *GameState) randomOtherPlayer(idx int) int {
	if len(g.Players) < 2 {
		return -1
	}
	j := g.randN(len(g.Players) - 1)
	if j >= idx {
		j++
	}
	return j
}
