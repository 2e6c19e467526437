package brackets

import (
	"fmt"

	"github.com/kipr/colosseum-sub001/models"
)

type DoubleEliminationGenerator struct{}

func (g *DoubleEliminationGenerator) Name() string { return "DoubleElimination" }

// Build produces winners bracket, losers bracket and the finals stage.
//
// The losers bracket has 2*(W-1) rounds for W winners rounds, alternating
// minor and major: minor round j pairs the survivors of the previous losers
// round (round 1 pairs the winners round 1 losers), and major round j drops
// the winners round j+1 losers in against the minor round winners. Every
// second major round the drop order is half-rotated so early rematches are
// delayed.
//
// The finals stage is two games: the grand final between both bracket
// champions, and a reset game that is only activated when the losers-side
// finalist wins the first one.
func (g *DoubleEliminationGenerator) Build(entries []models.BracketEntry) ([]*GameNode, error) {
	wbRounds, err := buildWinnersBracket(entries, true)
	if err != nil {
		return nil, err
	}

	totalWinnersRounds := len(wbRounds)
	nodes := make([]*GameNode, 0, 2*len(entries))
	for _, round := range wbRounds {
		nodes = append(nodes, round...)
	}

	lbRounds := make([][]*GameNode, 0, 2*(totalWinnersRounds-1))
	for j := 1; j <= totalWinnersRounds-1; j++ {
		minor := buildMinorLoserRound(j, wbRounds, lbRounds)
		lbRounds = append(lbRounds, minor)

		major := buildMajorLoserRound(j, wbRounds, lbRounds)
		lbRounds = append(lbRounds, major)

		nodes = append(nodes, minor...)
		nodes = append(nodes, major...)
	}

	wbFinal := wbRounds[totalWinnersRounds-1][0]
	lbFinal := lbRounds[len(lbRounds)-1][0]

	grandFinal := &GameNode{
		UID:         "F1-1",
		Round:       1,
		Position:    1,
		Side:        models.SideFinals,
		RoundName:   "Grand Final",
		Status:      models.GameStatusPending,
		Team1Source: &SlotSource{GameUID: wbFinal.UID},
		Team2Source: &SlotSource{GameUID: lbFinal.UID},
	}
	reset := &GameNode{
		UID:         "F2-1",
		Round:       2,
		Position:    1,
		Side:        models.SideFinals,
		RoundName:   "Grand Final Reset",
		Status:      models.GameStatusPending,
		Team1Source: &SlotSource{GameUID: grandFinal.UID},
		Team2Source: &SlotSource{GameUID: grandFinal.UID, Loser: true},
	}
	nodes = append(nodes, grandFinal, reset)

	assignGameNumbers(nodes)
	return nodes, nil
}

func buildMinorLoserRound(j int, wbRounds, lbRounds [][]*GameNode) []*GameNode {
	var feeders []*GameNode
	fromLosers := false
	if j == 1 {
		feeders = wbRounds[0]
		fromLosers = true
	} else {
		feeders = lbRounds[len(lbRounds)-1]
	}

	lbRound := 2*j - 1
	count := len(feeders) / 2
	round := make([]*GameNode, 0, count)
	for i := 1; i <= count; i++ {
		round = append(round, &GameNode{
			UID:         fmt.Sprintf("L%d-%d", lbRound, i),
			Round:       lbRound,
			Position:    i,
			Side:        models.SideLosers,
			RoundName:   fmt.Sprintf("Losers Round %d", lbRound),
			Status:      models.GameStatusPending,
			Team1Source: &SlotSource{GameUID: feeders[2*i-2].UID, Loser: fromLosers},
			Team2Source: &SlotSource{GameUID: feeders[2*i-1].UID, Loser: fromLosers},
		})
	}
	return round
}

func buildMajorLoserRound(j int, wbRounds, lbRounds [][]*GameNode) []*GameNode {
	dropping := wbRounds[j]
	minor := lbRounds[len(lbRounds)-1]

	lbRound := 2 * j
	count := len(dropping)
	round := make([]*GameNode, 0, count)
	for i := 1; i <= count; i++ {
		dropIdx := i
		if j%2 == 1 {
			dropIdx = (i-1+count/2)%count + 1
		}
		round = append(round, &GameNode{
			UID:         fmt.Sprintf("L%d-%d", lbRound, i),
			Round:       lbRound,
			Position:    i,
			Side:        models.SideLosers,
			RoundName:   fmt.Sprintf("Losers Round %d", lbRound),
			Status:      models.GameStatusPending,
			Team1Source: &SlotSource{GameUID: dropping[dropIdx-1].UID, Loser: true},
			Team2Source: &SlotSource{GameUID: minor[i-1].UID},
		})
	}
	return round
}
