// Package brackets holds the pure bracket algorithms: seed ordering, game
// graph construction for single and double elimination, and the advancement
// state machine. Nothing in here touches the database; the service layer
// persists the generated graph and feeds submitted results back in.
package brackets

import (
	"errors"
	"strconv"

	"github.com/kipr/colosseum-sub001/models"
)

var (
	ErrTooFewTeams     = errors.New("at least one team is required to build a bracket")
	ErrTooManyTeams    = errors.New("team count exceeds the maximum bracket size of 64")
	ErrInvalidSize     = errors.New("bracket size must be a power of two between 4 and 64")
	ErrEntryCount      = errors.New("entry count does not match bracket size")
	ErrUnknownSourceID = errors.New("slot source references an unknown game")
)

// SlotSource identifies where a later-round slot gets its occupant from:
// the winner (or, in the losers bracket, the loser) of an earlier game.
type SlotSource struct {
	GameUID string
	Loser   bool
}

// GameNode is one game of a freshly generated bracket before it has database
// ids. UIDs are stable labels like "W2-1" (winners round 2, game 1), "L3-2",
// "F1-1". The service persists nodes in game-number order and then wires the
// integer advancement pointers from the slot sources.
type GameNode struct {
	UID         string
	Round       int
	Position    int
	Side        models.BracketSide
	RoundName   string
	GameNumber  int
	Status      models.GameStatus

	Team1ID *int
	Team2ID *int
	// A slot is a generation-time bye when it has neither a team nor a
	// source. Such slots are recorded as "bye" sources on the persisted row.
	Team1Bye bool
	Team2Bye bool

	Team1Source *SlotSource
	Team2Source *SlotSource

	// Set for round-1 bye games; the cascade advances it after persistence.
	WinnerID *int
}

// Advancement is the wired form of a node's outgoing edges.
type Advancement struct {
	WinnerToID   *int
	WinnerToSlot *int
	LoserToID    *int
	LoserToSlot  *int
}

// WireAdvancement resolves slot sources into integer advancement pointers,
// given the database id assigned to each UID. The result maps a source
// game's UID to its outgoing edges.
func WireAdvancement(nodes []*GameNode, idByUID map[string]int) (map[string]Advancement, error) {
	adv := make(map[string]Advancement, len(nodes))
	for _, n := range nodes {
		adv[n.UID] = Advancement{}
	}

	link := func(src *SlotSource, target *GameNode, slot int) error {
		if src == nil {
			return nil
		}
		targetID, ok := idByUID[target.UID]
		if !ok {
			return ErrUnknownSourceID
		}
		a, ok := adv[src.GameUID]
		if !ok {
			return ErrUnknownSourceID
		}
		s := slot
		id := targetID
		if src.Loser {
			a.LoserToID = &id
			a.LoserToSlot = &s
		} else {
			a.WinnerToID = &id
			a.WinnerToSlot = &s
		}
		adv[src.GameUID] = a
		return nil
	}

	for _, n := range nodes {
		if err := link(n.Team1Source, n, 1); err != nil {
			return nil, err
		}
		if err := link(n.Team2Source, n, 2); err != nil {
			return nil, err
		}
	}
	return adv, nil
}

// SourceLabel renders the persisted team1_source/team2_source value for a
// node slot: "seed-N" labels come from the round-1 seeding, later rounds
// reference the feeding game, and generation-time byes are marked "bye".
func SourceLabel(src *SlotSource, bye bool, seedPosition int) *string {
	var label string
	switch {
	case bye:
		label = "bye"
	case src != nil && src.Loser:
		label = "loser-of-" + src.GameUID
	case src != nil:
		label = "winner-of-" + src.GameUID
	case seedPosition > 0:
		label = "seed-" + strconv.Itoa(seedPosition)
	default:
		return nil
	}
	return &label
}
