package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipr/colosseum-sub001/models"
)

func fullEntries(t *testing.T, size int) []models.BracketEntry {
	t.Helper()
	teams := make([]int, size)
	for i := range teams {
		teams[i] = 100 + i
	}
	entries, err := BuildEntries(teams, size)
	require.NoError(t, err)
	return entries
}

func nodesByUID(nodes []*GameNode) map[string]*GameNode {
	m := make(map[string]*GameNode, len(nodes))
	for _, n := range nodes {
		m[n.UID] = n
	}
	return m
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(models.EliminationSingle)
	require.NoError(t, err)
	assert.Equal(t, "SingleElimination", g.Name())

	g, err = NewGenerator(models.EliminationDouble)
	require.NoError(t, err)
	assert.Equal(t, "DoubleElimination", g.Name())

	_, err = NewGenerator(models.EliminationType("swiss"))
	assert.Error(t, err)
}

func TestSingleEliminationStructure(t *testing.T) {
	gen := &SingleEliminationGenerator{}
	nodes, err := gen.Build(fullEntries(t, 8))
	require.NoError(t, err)
	require.Len(t, nodes, 7)

	byUID := nodesByUID(nodes)
	for _, uid := range []string{"W1-1", "W1-2", "W1-3", "W1-4", "W2-1", "W2-2", "W3-1"} {
		require.Contains(t, byUID, uid)
	}

	// Round 1 is fully seeded and ready; later rounds hang off winner sources.
	for i := 1; i <= 4; i++ {
		n := byUID[fmt.Sprintf("W1-%d", i)]
		assert.Equal(t, models.GameStatusReady, n.Status)
		assert.Equal(t, "Quarterfinal", n.RoundName)
		require.NotNil(t, n.Team1ID)
		require.NotNil(t, n.Team2ID)
	}
	semi := byUID["W2-1"]
	assert.Equal(t, models.GameStatusPending, semi.Status)
	assert.Equal(t, "Semifinal", semi.RoundName)
	require.NotNil(t, semi.Team1Source)
	assert.Equal(t, "W1-1", semi.Team1Source.GameUID)
	assert.False(t, semi.Team1Source.Loser)
	require.NotNil(t, semi.Team2Source)
	assert.Equal(t, "W1-2", semi.Team2Source.GameUID)

	final := byUID["W3-1"]
	assert.Equal(t, "Final", final.RoundName)

	// Game numbers are a dense 1..N, round 1 first.
	seen := make(map[int]bool)
	for _, n := range nodes {
		assert.False(t, seen[n.GameNumber], "game number %d repeated", n.GameNumber)
		seen[n.GameNumber] = true
		assert.True(t, n.GameNumber >= 1 && n.GameNumber <= 7)
	}
	assert.Equal(t, 7, final.GameNumber)
}

func TestSingleEliminationByeGames(t *testing.T) {
	entries, err := BuildEntries([]int{10, 20, 30, 40, 50}, 8)
	require.NoError(t, err)

	gen := &SingleEliminationGenerator{}
	nodes, err := gen.Build(entries)
	require.NoError(t, err)

	var byes, ready int
	for _, n := range nodes {
		if n.Round != 1 {
			continue
		}
		switch n.Status {
		case models.GameStatusBye:
			byes++
			require.NotNil(t, n.WinnerID, "a one-sided bye resolves immediately")
			assert.True(t, n.Team1Bye != n.Team2Bye)
		case models.GameStatusReady:
			ready++
		default:
			t.Fatalf("unexpected round-1 status %s", n.Status)
		}
	}
	assert.Equal(t, 3, byes)
	assert.Equal(t, 1, ready)
}

func TestDoubleEliminationStructure(t *testing.T) {
	gen := &DoubleEliminationGenerator{}
	nodes, err := gen.Build(fullEntries(t, 8))
	require.NoError(t, err)

	// 7 winners games, 6 losers games (rounds of 2, 2, 1, 1), 2 finals.
	require.Len(t, nodes, 15)

	counts := map[models.BracketSide]int{}
	losersPerRound := map[int]int{}
	for _, n := range nodes {
		counts[n.Side]++
		if n.Side == models.SideLosers {
			losersPerRound[n.Round]++
		}
	}
	assert.Equal(t, 7, counts[models.SideWinners])
	assert.Equal(t, 6, counts[models.SideLosers])
	assert.Equal(t, 2, counts[models.SideFinals])
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 1, 4: 1}, losersPerRound)

	byUID := nodesByUID(nodes)

	// Minor round 1 pairs the winners round 1 losers.
	l11 := byUID["L1-1"]
	require.NotNil(t, l11.Team1Source)
	assert.True(t, l11.Team1Source.Loser)
	assert.Equal(t, "W1-1", l11.Team1Source.GameUID)

	// Major round 2 drops a winners round 2 loser against a minor winner.
	l21 := byUID["L2-1"]
	require.NotNil(t, l21.Team1Source)
	assert.True(t, l21.Team1Source.Loser)
	require.NotNil(t, l21.Team2Source)
	assert.False(t, l21.Team2Source.Loser)
	assert.Equal(t, "L1-1", l21.Team2Source.GameUID)

	gf := byUID["F1-1"]
	require.NotNil(t, gf)
	assert.Equal(t, "Grand Final", gf.RoundName)
	assert.Equal(t, "W3-1", gf.Team1Source.GameUID)
	assert.Equal(t, "L4-1", gf.Team2Source.GameUID)

	reset := byUID["F2-1"]
	require.NotNil(t, reset)
	assert.Equal(t, "Grand Final Reset", reset.RoundName)
	assert.Equal(t, "F1-1", reset.Team1Source.GameUID)
	assert.False(t, reset.Team1Source.Loser)
	assert.Equal(t, "F1-1", reset.Team2Source.GameUID)
	assert.True(t, reset.Team2Source.Loser)

	// Finals carry the two highest game numbers.
	assert.Equal(t, 14, gf.GameNumber)
	assert.Equal(t, 15, reset.GameNumber)
}

func TestDoubleEliminationWiring(t *testing.T) {
	gen := &DoubleEliminationGenerator{}
	nodes, err := gen.Build(fullEntries(t, 8))
	require.NoError(t, err)

	idByUID := make(map[string]int, len(nodes))
	for _, n := range nodes {
		idByUID[n.UID] = 1000 + n.GameNumber
	}
	adv, err := WireAdvancement(nodes, idByUID)
	require.NoError(t, err)

	for _, n := range nodes {
		edges := adv[n.UID]
		switch {
		case n.Side == models.SideWinners && n.UID != "W3-1":
			// Every winners game short of the winners final sends its
			// loser down.
			assert.NotNil(t, edges.WinnerToID, "%s", n.UID)
			assert.NotNil(t, edges.LoserToID, "%s", n.UID)
		case n.UID == "W3-1":
			require.NotNil(t, edges.WinnerToID)
			assert.Equal(t, idByUID["F1-1"], *edges.WinnerToID)
			require.NotNil(t, edges.LoserToID)
			assert.Equal(t, idByUID["L4-1"], *edges.LoserToID)
		case n.Side == models.SideLosers && n.UID != "L4-1":
			assert.NotNil(t, edges.WinnerToID, "%s", n.UID)
			assert.Nil(t, edges.LoserToID, "%s is an elimination game", n.UID)
		case n.UID == "L4-1":
			require.NotNil(t, edges.WinnerToID)
			assert.Equal(t, idByUID["F1-1"], *edges.WinnerToID)
		case n.UID == "F1-1":
			require.NotNil(t, edges.WinnerToID)
			assert.Equal(t, idByUID["F2-1"], *edges.WinnerToID)
			require.NotNil(t, edges.LoserToID)
			assert.Equal(t, idByUID["F2-1"], *edges.LoserToID)
		case n.UID == "F2-1":
			assert.Nil(t, edges.WinnerToID)
			assert.Nil(t, edges.LoserToID)
		}
	}
}

func TestWireAdvancementUnknownID(t *testing.T) {
	gen := &SingleEliminationGenerator{}
	nodes, err := gen.Build(fullEntries(t, 4))
	require.NoError(t, err)

	_, err = WireAdvancement(nodes, map[string]int{"W1-1": 1})
	assert.ErrorIs(t, err, ErrUnknownSourceID)
}
