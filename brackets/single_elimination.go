package brackets

import (
	"fmt"
	"sort"

	"github.com/kipr/colosseum-sub001/models"
)

// Generator builds the game graph for one elimination type from a complete
// set of bracket entries.
type Generator interface {
	Build(entries []models.BracketEntry) ([]*GameNode, error)
	Name() string
}

func NewGenerator(t models.EliminationType) (Generator, error) {
	switch t {
	case models.EliminationSingle:
		return &SingleEliminationGenerator{}, nil
	case models.EliminationDouble:
		return &DoubleEliminationGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported elimination type %q", t)
	}
}

type SingleEliminationGenerator struct{}

func (g *SingleEliminationGenerator) Name() string { return "SingleElimination" }

func (g *SingleEliminationGenerator) Build(entries []models.BracketEntry) ([]*GameNode, error) {
	rounds, err := buildWinnersBracket(entries, false)
	if err != nil {
		return nil, err
	}

	nodes := make([]*GameNode, 0, len(entries)-1)
	for _, round := range rounds {
		nodes = append(nodes, round...)
	}
	assignGameNumbers(nodes)
	return nodes, nil
}

// buildWinnersBracket pairs entries at adjacent seed positions into round 1
// and stacks the later rounds on winner sources, returning the nodes grouped
// by round. A round-1 pairing with a missing side is created as a bye game
// whose winner is the present team; the advancement cascade resolves it once
// the graph is persisted.
func buildWinnersBracket(entries []models.BracketEntry, double bool) ([][]*GameNode, error) {
	size := len(entries)
	if !ValidBracketSize(size) {
		return nil, ErrInvalidSize
	}

	slots := make([]*models.BracketEntry, size)
	for i := range entries {
		e := &entries[i]
		if e.SeedPosition < 1 || e.SeedPosition > size || slots[e.SeedPosition-1] != nil {
			return nil, ErrEntryCount
		}
		slots[e.SeedPosition-1] = e
	}

	totalRounds := numRounds(size)
	rounds := make([][]*GameNode, totalRounds)

	firstRound := make([]*GameNode, 0, size/2)
	for k := 1; k <= size/2; k++ {
		e1, e2 := slots[2*k-2], slots[2*k-1]
		n := &GameNode{
			UID:       fmt.Sprintf("W1-%d", k),
			Round:     1,
			Position:  k,
			Side:      models.SideWinners,
			RoundName: winnersRoundName(1, totalRounds, double),
			Team1ID:   e1.TeamID,
			Team2ID:   e2.TeamID,
			Team1Bye:  e1.IsBye,
			Team2Bye:  e2.IsBye,
		}
		switch {
		case e1.TeamID != nil && e2.TeamID != nil:
			n.Status = models.GameStatusReady
		case e1.TeamID != nil:
			n.Status = models.GameStatusBye
			n.WinnerID = e1.TeamID
		case e2.TeamID != nil:
			n.Status = models.GameStatusBye
			n.WinnerID = e2.TeamID
		default:
			// Two byes meet: the game resolves with no winner and the
			// downstream slot becomes a bye in turn.
			n.Status = models.GameStatusBye
		}
		firstRound = append(firstRound, n)
	}
	rounds[0] = firstRound

	for r := 2; r <= totalRounds; r++ {
		prev := rounds[r-2]
		count := len(prev) / 2
		round := make([]*GameNode, 0, count)
		for i := 1; i <= count; i++ {
			round = append(round, &GameNode{
				UID:         fmt.Sprintf("W%d-%d", r, i),
				Round:       r,
				Position:    i,
				Side:        models.SideWinners,
				RoundName:   winnersRoundName(r, totalRounds, double),
				Status:      models.GameStatusPending,
				Team1Source: &SlotSource{GameUID: prev[2*i-2].UID},
				Team2Source: &SlotSource{GameUID: prev[2*i-1].UID},
			})
		}
		rounds[r-1] = round
	}
	return rounds, nil
}

func numRounds(size int) int {
	rounds := 0
	for size > 1 {
		size >>= 1
		rounds++
	}
	return rounds
}

func winnersRoundName(round, totalRounds int, double bool) string {
	suffix := ""
	if double {
		suffix = " (Winners)"
	}
	switch totalRounds - round {
	case 0:
		if double {
			return "Winners Final"
		}
		return "Final"
	case 1:
		return "Semifinal" + suffix
	case 2:
		return "Quarterfinal" + suffix
	default:
		return fmt.Sprintf("Round %d%s", round, suffix)
	}
}

// assignGameNumbers numbers the whole graph once, round-major with winners
// before losers in each round and the finals stage last, so operators can
// refer to games by a stable number.
func assignGameNumbers(nodes []*GameNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if (a.Side == models.SideFinals) != (b.Side == models.SideFinals) {
			return b.Side == models.SideFinals
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.Side != b.Side {
			return sideOrder(a.Side) < sideOrder(b.Side)
		}
		return a.Position < b.Position
	})
	for i, n := range nodes {
		n.GameNumber = i + 1
	}
}

func sideOrder(s models.BracketSide) int {
	switch s {
	case models.SideWinners:
		return 0
	case models.SideLosers:
		return 1
	case models.SideFinals:
		return 2
	}
	return 3
}
