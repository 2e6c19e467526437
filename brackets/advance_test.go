package brackets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipr/colosseum-sub001/models"
)

// materialize turns generated nodes into persisted-shaped game rows: ids are
// assigned in game-number order and the advancement pointers wired, exactly
// as the service does before cascading.
func materialize(t *testing.T, nodes []*GameNode) []*models.BracketGame {
	t.Helper()

	idByUID := make(map[string]int, len(nodes))
	for _, n := range nodes {
		idByUID[n.UID] = n.GameNumber
	}
	adv, err := WireAdvancement(nodes, idByUID)
	require.NoError(t, err)

	games := make([]*models.BracketGame, 0, len(nodes))
	for _, n := range nodes {
		seed1, seed2 := 0, 0
		if n.Side == models.SideWinners && n.Round == 1 {
			seed1 = (n.Position-1)*2 + 1
			seed2 = (n.Position-1)*2 + 2
		}
		edges := adv[n.UID]
		games = append(games, &models.BracketGame{
			ID:                 idByUID[n.UID],
			GameNumber:         n.GameNumber,
			RoundNumber:        n.Round,
			RoundName:          n.RoundName,
			BracketSide:        n.Side,
			Team1ID:            n.Team1ID,
			Team2ID:            n.Team2ID,
			Team1Source:        SourceLabel(n.Team1Source, n.Team1Bye, seed1),
			Team2Source:        SourceLabel(n.Team2Source, n.Team2Bye, seed2),
			Status:             n.Status,
			WinnerID:           n.WinnerID,
			WinnerAdvancesToID: edges.WinnerToID,
			WinnerToSlot:       edges.WinnerToSlot,
			LoserAdvancesToID:  edges.LoserToID,
			LoserToSlot:        edges.LoserToSlot,
		})
	}
	return games
}

func buildEngine(t *testing.T, elimination models.EliminationType, teamIDs []int, size int) *Engine {
	t.Helper()
	entries, err := BuildEntries(teamIDs, size)
	require.NoError(t, err)
	gen, err := NewGenerator(elimination)
	require.NoError(t, err)
	nodes, err := gen.Build(entries)
	require.NoError(t, err)

	e := NewEngine(materialize(t, nodes))
	require.NoError(t, e.Cascade())
	return e
}

// findGame locates a game by side, round and game-number offset within that
// round, so tests can address "W2-1" style coordinates on persisted rows.
func findGame(t *testing.T, e *Engine, side models.BracketSide, round, position int) *models.BracketGame {
	t.Helper()
	pos := 0
	for _, g := range allGames(e) {
		if g.BracketSide != side || g.RoundNumber != round {
			continue
		}
		pos++
		if pos == position {
			return g
		}
	}
	t.Fatalf("no game at %s round %d position %d", side, round, position)
	return nil
}

func allGames(e *Engine) []*models.BracketGame {
	var out []*models.BracketGame
	for id := 1; ; id++ {
		g, ok := e.Game(id)
		if !ok {
			return out
		}
		out = append(out, g)
	}
}

func submit(t *testing.T, e *Engine, g *models.BracketGame, winner int) {
	t.Helper()
	_, err := e.SubmitResult(g.ID, winner, nil, nil, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestCascadeResolvesGenerationByes(t *testing.T) {
	// Five teams in an 8 bracket: seeds 1-3 open against byes.
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40, 50}, 8)

	semi1 := findGame(t, e, models.SideWinners, 2, 1)
	semi2 := findGame(t, e, models.SideWinners, 2, 2)

	// Seed 1's bye win is already delivered; the other semifinal slot waits
	// on the seed 4 vs seed 5 game.
	require.NotNil(t, semi1.Team1ID)
	assert.Equal(t, 10, *semi1.Team1ID)
	assert.Nil(t, semi1.Team2ID)
	assert.Equal(t, models.GameStatusPending, semi1.Status)

	// Seeds 2 and 3 both advanced through byes, so their semifinal is ready.
	require.NotNil(t, semi2.Team1ID)
	require.NotNil(t, semi2.Team2ID)
	assert.Equal(t, 20, *semi2.Team1ID)
	assert.Equal(t, 30, *semi2.Team2ID)
	assert.Equal(t, models.GameStatusReady, semi2.Status)

	assert.Nil(t, e.Champion())
}

func TestCascadeChainsDoubleByes(t *testing.T) {
	// A single entrant: every game resolves through byes and the lone team
	// is champion without a result ever being submitted.
	e := buildEngine(t, models.EliminationSingle, []int{10}, 4)

	final := findGame(t, e, models.SideWinners, 2, 1)
	assert.Equal(t, models.GameStatusBye, final.Status)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, 10, *final.WinnerID)

	// The empty round-1 game resolved with no winner and pushed a bye
	// marker downstream instead of a team.
	empty := findGame(t, e, models.SideWinners, 1, 2)
	assert.Equal(t, models.GameStatusBye, empty.Status)
	assert.Nil(t, empty.WinnerID)
	require.NotNil(t, final.Team2Source)
	assert.Equal(t, "bye", *final.Team2Source)

	champ := e.Champion()
	require.NotNil(t, champ)
	assert.Equal(t, 10, *champ)
}

func TestCascadeIsIdempotent(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40, 50}, 8)
	before := len(e.Changed())
	require.NoError(t, e.Cascade())
	assert.Equal(t, before, len(e.Changed()))
}

func TestSubmitResultAdvancesWinner(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)

	semi1 := findGame(t, e, models.SideWinners, 1, 1) // 10 vs 40
	semi2 := findGame(t, e, models.SideWinners, 1, 2) // 20 vs 30
	final := findGame(t, e, models.SideWinners, 2, 1)

	one, two := 3, 1
	got, err := e.SubmitResult(semi1.ID, 10, &one, &two, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, got.Status)
	require.NotNil(t, got.LoserID)
	assert.Equal(t, 40, *got.LoserID)
	require.NotNil(t, got.CompletedAt)

	// Final holds the winner but stays pending until the other semifinal.
	require.NotNil(t, final.Team1ID)
	assert.Equal(t, 10, *final.Team1ID)
	assert.Equal(t, models.GameStatusPending, final.Status)

	submit(t, e, semi2, 30)
	assert.Equal(t, models.GameStatusReady, final.Status)
	require.NotNil(t, final.Team2ID)
	assert.Equal(t, 30, *final.Team2ID)

	assert.Nil(t, e.Champion())
	submit(t, e, final, 30)
	champ := e.Champion()
	require.NotNil(t, champ)
	assert.Equal(t, 30, *champ)
}

func TestSubmitResultValidation(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)

	semi1 := findGame(t, e, models.SideWinners, 1, 1)
	final := findGame(t, e, models.SideWinners, 2, 1)

	_, err := e.SubmitResult(999, 10, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = e.SubmitResult(final.ID, 10, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrGameNotScoreable, "final has unresolved slots")

	_, err = e.SubmitResult(semi1.ID, 20, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrWinnerNotInGame)
}

func TestSubmitResultRejectsByeGames(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30}, 4)

	bye := findGame(t, e, models.SideWinners, 1, 1) // 10 vs bye
	require.Equal(t, models.GameStatusBye, bye.Status)

	_, err := e.SubmitResult(bye.ID, 10, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrGameNotScoreable)
}

func TestMarkInProgress(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)
	semi1 := findGame(t, e, models.SideWinners, 1, 1)

	g, err := e.MarkInProgress(semi1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusInProgress, g.Status)

	_, err = e.MarkInProgress(semi1.ID)
	assert.ErrorIs(t, err, ErrGameNotScoreable)

	// An in-progress game still accepts its result.
	submit(t, e, semi1, 10)
	assert.Equal(t, models.GameStatusCompleted, semi1.Status)
}

func TestCorrectionScoreOnly(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)
	semi1 := findGame(t, e, models.SideWinners, 1, 1)
	final := findGame(t, e, models.SideWinners, 2, 1)
	submit(t, e, semi1, 10)
	submit(t, e, findGame(t, e, models.SideWinners, 1, 2), 20)
	submit(t, e, final, 10)

	// Same winner, new scores: allowed even with the final decided.
	one, two := 5, 3
	_, err := e.SubmitResult(semi1.ID, 10, &one, &two, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 5, *semi1.Team1Score)
}

func TestCorrectionRethreadsUndecidedGames(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)
	semi1 := findGame(t, e, models.SideWinners, 1, 1)
	final := findGame(t, e, models.SideWinners, 2, 1)

	submit(t, e, semi1, 10)
	require.NotNil(t, final.Team1ID)
	require.Equal(t, 10, *final.Team1ID)

	_, err := e.SubmitResult(semi1.ID, 40, nil, nil, time.Now().UTC())
	require.NoError(t, err)

	require.NotNil(t, final.Team1ID)
	assert.Equal(t, 40, *final.Team1ID)
	require.NotNil(t, semi1.WinnerID)
	assert.Equal(t, 40, *semi1.WinnerID)
	require.NotNil(t, semi1.LoserID)
	assert.Equal(t, 10, *semi1.LoserID)
}

func TestCorrectionFailsClosedOnDecidedDownstream(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)
	semi1 := findGame(t, e, models.SideWinners, 1, 1)
	semi2 := findGame(t, e, models.SideWinners, 1, 2)
	final := findGame(t, e, models.SideWinners, 2, 1)

	submit(t, e, semi1, 10)
	submit(t, e, semi2, 20)
	submit(t, e, final, 10)

	_, err := e.SubmitResult(semi1.ID, 40, nil, nil, time.Now().UTC())
	assert.ErrorIs(t, err, ErrDownstreamResolved)

	// Nothing moved: the original outcome is intact.
	require.NotNil(t, semi1.WinnerID)
	assert.Equal(t, 10, *semi1.WinnerID)
	require.NotNil(t, final.Team1ID)
	assert.Equal(t, 10, *final.Team1ID)
}

func TestCorrectionFollowsByeChain(t *testing.T) {
	// Five-team double elimination: the corrected loser advanced through an
	// auto-resolved losers-bracket bye, so the swap must follow the chain.
	e := buildEngine(t, models.EliminationDouble, []int{10, 20, 30, 40, 50}, 8)

	w12 := findGame(t, e, models.SideWinners, 1, 2) // 40 vs 50
	require.Equal(t, models.GameStatusReady, w12.Status)
	submit(t, e, w12, 40)

	// The loser dropped into L1-1 against a bye and advanced immediately.
	l11 := findGame(t, e, models.SideLosers, 1, 1)
	require.Equal(t, models.GameStatusBye, l11.Status)
	require.NotNil(t, l11.WinnerID)
	require.Equal(t, 50, *l11.WinnerID)

	_, err := e.SubmitResult(w12.ID, 50, nil, nil, time.Now().UTC())
	require.NoError(t, err)

	// Both the bye game and its downstream slot now hold the new loser.
	require.NotNil(t, l11.WinnerID)
	assert.Equal(t, 40, *l11.WinnerID)

	found := false
	for _, g := range allGames(e) {
		if g.BracketSide == models.SideLosers && g.RoundNumber == 2 {
			if g.SlotTeam(2) != nil && *g.SlotTeam(2) == 40 {
				found = true
			}
			if g.SlotTeam(2) != nil {
				assert.NotEqual(t, 50, *g.SlotTeam(2))
			}
		}
	}
	assert.True(t, found, "new loser reached the major losers round")
}

func TestGrandFinalDecidedByWinnersChampion(t *testing.T) {
	e := playToGrandFinal(t)
	gf := findGame(t, e, models.SideFinals, 1, 1)
	reset := findGame(t, e, models.SideFinals, 2, 1)

	require.Equal(t, models.GameStatusReady, gf.Status)
	submit(t, e, gf, *gf.Team1ID)

	// Winners-side champion stays unbeaten: no reset game.
	assert.Equal(t, models.GameStatusPending, reset.Status)
	assert.Nil(t, reset.Team1ID)
	champ := e.Champion()
	require.NotNil(t, champ)
	assert.Equal(t, *gf.Team1ID, *champ)
}

func TestGrandFinalResetActivation(t *testing.T) {
	e := playToGrandFinal(t)
	gf := findGame(t, e, models.SideFinals, 1, 1)
	reset := findGame(t, e, models.SideFinals, 2, 1)

	// The losers-side finalist taking the first final forces a second one.
	lbFinalist := *gf.Team2ID
	wbChampion := *gf.Team1ID
	submit(t, e, gf, lbFinalist)

	assert.Nil(t, e.Champion(), "bracket is not decided until the reset game")
	require.Equal(t, models.GameStatusReady, reset.Status)
	require.NotNil(t, reset.Team1ID)
	assert.Equal(t, lbFinalist, *reset.Team1ID)
	require.NotNil(t, reset.Team2ID)
	assert.Equal(t, wbChampion, *reset.Team2ID)

	submit(t, e, reset, wbChampion)
	champ := e.Champion()
	require.NotNil(t, champ)
	assert.Equal(t, wbChampion, *champ)
}

// playToGrandFinal runs a 4-team double elimination to the point where the
// grand final is ready: 10 unbeaten on the winners side, 20 through losers.
func playToGrandFinal(t *testing.T) *Engine {
	t.Helper()
	e := buildEngine(t, models.EliminationDouble, []int{10, 20, 30, 40}, 4)

	submit(t, e, findGame(t, e, models.SideWinners, 1, 1), 10) // 10 vs 40
	submit(t, e, findGame(t, e, models.SideWinners, 1, 2), 20) // 20 vs 30
	submit(t, e, findGame(t, e, models.SideWinners, 2, 1), 10) // winners final
	submit(t, e, findGame(t, e, models.SideLosers, 1, 1), 30)  // 40 vs 30
	submit(t, e, findGame(t, e, models.SideLosers, 2, 1), 20)  // 20 vs 30

	gf := findGame(t, e, models.SideFinals, 1, 1)
	require.NotNil(t, gf.Team1ID)
	require.Equal(t, 10, *gf.Team1ID)
	require.NotNil(t, gf.Team2ID)
	require.Equal(t, 20, *gf.Team2ID)
	return e
}

func TestChampionLoneEntrantDoubleElimination(t *testing.T) {
	// One real team: the losers bracket never produces a finalist, so the
	// grand final auto-resolves as a bye and decides the bracket.
	e := buildEngine(t, models.EliminationDouble, []int{10}, 4)

	gf := findGame(t, e, models.SideFinals, 1, 1)
	assert.Equal(t, models.GameStatusBye, gf.Status)
	require.NotNil(t, gf.WinnerID)
	assert.Equal(t, 10, *gf.WinnerID)

	reset := findGame(t, e, models.SideFinals, 2, 1)
	assert.Equal(t, models.GameStatusPending, reset.Status)

	champ := e.Champion()
	require.NotNil(t, champ)
	assert.Equal(t, 10, *champ)
}

func TestGrandFinalResetDeactivation(t *testing.T) {
	e := playToGrandFinal(t)
	gf := findGame(t, e, models.SideFinals, 1, 1)
	reset := findGame(t, e, models.SideFinals, 2, 1)

	wbChampion := *gf.Team1ID
	lbFinalist := *gf.Team2ID
	submit(t, e, gf, lbFinalist)
	require.Equal(t, models.GameStatusReady, reset.Status)

	// Correcting the first final back to the winners-side champion undoes
	// the activation: the reset empties out and the bracket is decided.
	_, err := e.SubmitResult(gf.ID, wbChampion, nil, nil, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, models.GameStatusPending, reset.Status)
	assert.Nil(t, reset.Team1ID)
	assert.Nil(t, reset.Team2ID)
	require.NotNil(t, gf.WinnerID)
	assert.Equal(t, wbChampion, *gf.WinnerID)

	champ := e.Champion()
	require.NotNil(t, champ)
	assert.Equal(t, wbChampion, *champ)
}

func TestChangedTracksMutations(t *testing.T) {
	e := buildEngine(t, models.EliminationSingle, []int{10, 20, 30, 40}, 4)
	require.Empty(t, e.Changed(), "a fully seeded bracket needs no cascade work")

	semi1 := findGame(t, e, models.SideWinners, 1, 1)
	submit(t, e, semi1, 10)

	changed := e.Changed()
	require.Len(t, changed, 2)
	assert.Equal(t, semi1.ID, changed[0].ID)
	for i := 1; i < len(changed); i++ {
		assert.Less(t, changed[i-1].GameNumber, changed[i].GameNumber)
	}
}
