package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// CardType identifies the rule behavior of a card.
type CardType string

const (
	TypeNumber        CardType = "number"
	TypeSkip          CardType = "skip"
	TypeReverse       CardType = "reverse"
	TypeDrawTwo       CardType = "draw-two"
	TypeWild          CardType = "wild"
	TypeWildDrawFour  CardType = "wild-draw-four"
	TypeSwapHands     CardType = "swap-hands"
	TypeDrawMinusTwo  CardType = "draw-minus-two"
	TypeShuffleMyHand CardType = "shuffle-my-hand"
	TypeBlockAll      CardType = "block-all"
)

// CardColor is one of the four playable colors, or ColorWild for wild cards.
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorBlue   CardColor = "blue"
	ColorGreen  CardColor = "green"
	ColorYellow CardColor = "yellow"
	ColorWild   CardColor = "wild"
)

// PlayableColors are the colors a wild play may choose from.
var PlayableColors = [4]CardColor{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// IsPlayableColor reports whether c is a concrete color a wild play may
// choose. Wire payloads carry arbitrary strings, so anything outside this
// set is invalid input, not just unusual.
func IsPlayableColor(c CardColor) bool {
	for _, pc := range PlayableColors {
		if c == pc {
			return true
		}
	}
	return false
}

// Card is an immutable card value. Identity is by ID; two cards may be
// structurally equal but remain distinct instances.
type Card struct {
	ID    string    `json:"id"`
	Type  CardType  `json:"type"`
	Color CardColor `json:"color"`
	Value int8      `json:"value"` // 0-9 for number cards, -1 otherwise
}

// IsWildType reports whether playing this card requires a color choice.
func (c Card) IsWildType() bool {
	return c.Type == TypeWild || c.Type == TypeWildDrawFour
}

func (c Card) String() string {
	if c.Type == TypeNumber {
		return fmt.Sprintf("%s-%d", c.Color, c.Value)
	}
	return fmt.Sprintf("%s-%s", c.Color, c.Type)
}

// Player is one seated participant. ID is stable across reconnects within
// a session.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Hand         []Card `json:"hand"`
	HasCalledUno bool   `json:"hasCalledUno"`
}

// Direction of turn rotation.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	Counterclockwise Direction = "counterclockwise"
)

// StackingType names the currently open draw chain, if any.
type StackingType string

const (
	StackingNone         StackingType = "none"
	StackingDrawTwo      StackingType = "draw-two"
	StackingWildDrawFour StackingType = "wild-draw-four"
)

// GamePhase is the lifecycle state of a game.
type GamePhase string

const (
	PhaseWaiting  GamePhase = "waiting"
	PhasePlaying  GamePhase = "playing"
	PhaseFinished GamePhase = "finished"
)

// actionCardTypes are the per-color non-number types, two of each per color.
var actionCardTypes = [7]CardType{
	TypeSkip, TypeReverse, TypeDrawTwo,
	TypeSwapHands, TypeDrawMinusTwo, TypeShuffleMyHand, TypeBlockAll,
}

// DeckSize is the full card count produced by NewDeck.
// 76 number + 56 colored action + 8 wild.
const DeckSize = 140

// NewDeck builds the full card set: per color one 0 and two each of 1-9,
// two of each action type, plus four wild and four wild-draw-four. Every
// card gets a globally unique id.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range PlayableColors {
		deck = append(deck, newCard(TypeNumber, color, 0))
		for v := int8(1); v <= 9; v++ {
			deck = append(deck, newCard(TypeNumber, color, v))
			deck = append(deck, newCard(TypeNumber, color, v))
		}
		for _, t := range actionCardTypes {
			deck = append(deck, newCard(t, color, -1))
			deck = append(deck, newCard(t, color, -1))
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, newCard(TypeWild, ColorWild, -1))
		deck = append(deck, newCard(TypeWildDrawFour, ColorWild, -1))
	}
	return deck
}

func newCard(t CardType, color CardColor, value int8) Card {
	return Card{
		ID:    fmt.Sprintf("%s-%s-%s", color, t, uuid.New().String()[:8]),
		Type:  t,
		Color: color,
		Value: value,
	}
}
