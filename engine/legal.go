package engine

import "fmt"

// CanPlayCard reports whether a card may legally be placed on top. The
// checks are ordered by precedence:
//
//  1. An open stacking chain only admits cards that extend it; everything
//     else is bypassed.
//  2. Wild and wild-draw-four are always legal.
//  3. An active wild color requires an exact color match; the underlying
//     wild card is not consulted.
//  4. Otherwise: color match, number-value match, or same non-number type.
func CanPlayCard(card, top Card, wildColor CardColor, stacking StackingType) bool {
	if stacking != StackingNone && stacking != "" {
		switch stacking {
		case StackingDrawTwo:
			return card.Type == TypeDrawTwo || card.Type == TypeWildDrawFour
		case StackingWildDrawFour:
			return card.Type == TypeWildDrawFour
		}
		return false
	}
	if card.IsWildType() {
		return true
	}
	if wildColor != "" {
		return card.Color == wildColor
	}
	if card.Color == top.Color {
		return true
	}
	if card.Type == TypeNumber && top.Type == TypeNumber && card.Value == top.Value {
		return true
	}
	if card.Type == top.Type && card.Type != TypeNumber {
		return true
	}
	return false
}

// validatePlay applies the full play legality: block-all restriction on
// top of CanPlayCard.
func (g *GameState) validatePlay(card Card) error {
	if g.IsBlockAllActive && card.Type != TypeNumber {
		return fmt.Errorf("block-all is active: only number cards may be played")
	}
	if !CanPlayCard(card, g.TopCard, g.WildColor, g.StackingType) {
		if g.StackingType != StackingNone {
			return fmt.Errorf("card %s cannot extend the open %s chain", card, g.StackingType)
		}
		return fmt.Errorf("card %s does not match top card %s", card, g.TopCard)
	}
	return nil
}

// HasPlayableCard reports whether the player at idx holds at least one
// card that validatePlay would accept.
func (g *GameState) HasPlayableCard(idx int) bool {
	for _, card := range g.Players[idx].Hand {
		if g.validatePlay(card) == nil {
			return true
		}
	}
	return false
}
