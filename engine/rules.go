package engine

// Rules holds configurable game rule settings.
type Rules struct {
	CardsPerPlayer       int `json:"cardsPerPlayer"`
	EliminationThreshold int `json:"eliminationThreshold"` // hand size at which a player is removed
	MaxPlayers           int `json:"maxPlayers"`
	MinPlayers           int `json:"minPlayers"`
}

// DefaultRules returns the standard rules.
func DefaultRules() Rules {
	return Rules{
		CardsPerPlayer:       7,
		EliminationThreshold: 35,
		MaxPlayers:           8,
		MinPlayers:           2,
	}
}

// normalize fills zero fields with defaults so a deserialized or
// partially-built Rules value is always usable.
func (r *Rules) normalize() {
	d := DefaultRules()
	if r.CardsPerPlayer <= 0 {
		r.CardsPerPlayer = d.CardsPerPlayer
	}
	if r.EliminationThreshold <= 0 {
		r.EliminationThreshold = d.EliminationThreshold
	}
	if r.MaxPlayers <= 0 {
		r.MaxPlayers = d.MaxPlayers
	}
	if r.MinPlayers <= 0 {
		r.MinPlayers = d.MinPlayers
	}
}
