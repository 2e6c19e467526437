package brackets

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kipr/colosseum-sub001/models"
)

var (
	ErrGameNotFound       = errors.New("game not found in bracket")
	ErrGameNotScoreable   = errors.New("game is not in a scoreable state")
	ErrSlotsUnresolved    = errors.New("both team slots must be resolved before scoring")
	ErrWinnerNotInGame    = errors.New("winner is not a participant of this game")
	ErrSlotConflict       = errors.New("advancement target slot already holds a different team")
	ErrDownstreamResolved = errors.New("a downstream game has already been decided")
)

const byeSource = "bye"

// Engine runs the advancement state machine over a bracket's full game set.
// Games are held in an arena keyed by id; advancement pointers stay plain
// integer ids, exactly as persisted. The engine mutates games in memory and
// records which ones changed so the caller can persist them atomically.
type Engine struct {
	games   map[int]*models.BracketGame
	numbers []int // game ids in game-number order, for deterministic passes
	changed map[int]bool
}

func NewEngine(games []*models.BracketGame) *Engine {
	e := &Engine{
		games:   make(map[int]*models.BracketGame, len(games)),
		numbers: make([]int, 0, len(games)),
		changed: make(map[int]bool),
	}
	ordered := make([]*models.BracketGame, len(games))
	copy(ordered, games)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].GameNumber < ordered[j].GameNumber })
	for _, g := range ordered {
		e.games[g.ID] = g
		e.numbers = append(e.numbers, g.ID)
	}
	return e
}

func (e *Engine) Game(id int) (*models.BracketGame, bool) {
	g, ok := e.games[id]
	return g, ok
}

// Changed returns the games mutated since the engine was built, in
// game-number order.
func (e *Engine) Changed() []*models.BracketGame {
	out := make([]*models.BracketGame, 0, len(e.changed))
	for _, id := range e.numbers {
		if e.changed[id] {
			out = append(out, e.games[id])
		}
	}
	return out
}

// Cascade propagates every terminal game (bye or completed) until no more
// transitions are possible. It is idempotent: deliveries that are already
// reflected in the target are no-ops. Called after generation to resolve bye
// chains, and safe to re-run at any time.
func (e *Engine) Cascade() error {
	queue := make([]int, 0, len(e.numbers))
	for _, id := range e.numbers {
		g := e.games[id]
		if g.Status == models.GameStatusBye || g.Status == models.GameStatusCompleted {
			queue = append(queue, id)
		}
	}
	return e.drain(queue)
}

// SubmitResult records a result for a game and cascades winner and loser
// through the graph. Submitting to a completed game is treated as a
// correction, which fails closed with ErrDownstreamResolved when a decided
// descendant depends on the previous outcome.
func (e *Engine) SubmitResult(gameID, winnerTeamID int, team1Score, team2Score *int, now time.Time) (*models.BracketGame, error) {
	g, ok := e.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.Status == models.GameStatusCompleted {
		return e.correctResult(g, winnerTeamID, team1Score, team2Score, now)
	}
	if g.Status != models.GameStatusReady && g.Status != models.GameStatusInProgress {
		return nil, ErrGameNotScoreable
	}
	if g.Team1ID == nil || g.Team2ID == nil {
		return nil, ErrSlotsUnresolved
	}
	loser, err := opponentOf(g, winnerTeamID)
	if err != nil {
		return nil, err
	}

	winner := winnerTeamID
	completedAt := now
	g.WinnerID = &winner
	g.LoserID = &loser
	g.Team1Score = team1Score
	g.Team2Score = team2Score
	g.Status = models.GameStatusCompleted
	g.CompletedAt = &completedAt
	e.touch(g)

	if err := e.drain([]int{g.ID}); err != nil {
		return nil, err
	}
	return g, nil
}

// MarkInProgress claims a ready game for live scoring.
func (e *Engine) MarkInProgress(gameID int) (*models.BracketGame, error) {
	g, ok := e.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.Status != models.GameStatusReady {
		return nil, ErrGameNotScoreable
	}
	g.Status = models.GameStatusInProgress
	e.touch(g)
	return g, nil
}

// Champion returns the winning team once the bracket is decided, or nil.
func (e *Engine) Champion() *int {
	var f1, f2 *models.BracketGame
	for _, id := range e.numbers {
		g := e.games[id]
		if g.BracketSide != models.SideFinals {
			continue
		}
		if g.RoundNumber == 1 {
			f1 = g
		} else {
			f2 = g
		}
	}

	if f1 != nil {
		if f2 != nil && f2.Status == models.GameStatusCompleted {
			return f2.WinnerID
		}
		// The grand final can resolve as a bye when the losers bracket
		// never produced a finalist; that decides the bracket too.
		if (f1.Status == models.GameStatusCompleted || f1.Status == models.GameStatusBye) &&
			f1.WinnerID != nil && f1.Team1ID != nil && *f1.WinnerID == *f1.Team1ID {
			return f1.WinnerID
		}
		return nil
	}

	// Single elimination: the unique game with no winner pointer.
	for _, id := range e.numbers {
		g := e.games[id]
		if g.WinnerAdvancesToID == nil && g.BracketSide == models.SideWinners {
			if g.Status == models.GameStatusCompleted || g.Status == models.GameStatusBye {
				return g.WinnerID
			}
			return nil
		}
	}
	return nil
}

func (e *Engine) touch(g *models.BracketGame) {
	e.changed[g.ID] = true
}

// drain is the worklist loop: pop a terminal game, deliver its winner and
// loser, and push any target that became terminal (a cascaded bye) in turn.
func (e *Engine) drain(queue []int) error {
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		next, err := e.propagate(e.games[id])
		if err != nil {
			return err
		}
		queue = append(queue, next...)
	}
	return nil
}

func (e *Engine) propagate(g *models.BracketGame) ([]int, error) {
	if g.Status != models.GameStatusBye && g.Status != models.GameStatusCompleted {
		return nil, nil
	}

	// The grand final only feeds the reset game when the losers-side
	// finalist (slot 2) takes it; otherwise the bracket is decided and the
	// reset game stays untouched.
	if g.BracketSide == models.SideFinals && g.RoundNumber == 1 {
		if g.WinnerID == nil || g.Team2ID == nil || *g.WinnerID != *g.Team2ID {
			return nil, nil
		}
	}

	var terminal []int
	if g.WinnerAdvancesToID != nil {
		t, ok := e.games[*g.WinnerAdvancesToID]
		if !ok {
			return nil, fmt.Errorf("%w: game %d winner target %d", ErrGameNotFound, g.ID, *g.WinnerAdvancesToID)
		}
		becameTerminal, err := e.deliver(t, *g.WinnerToSlot, g.WinnerID)
		if err != nil {
			return nil, err
		}
		if becameTerminal {
			terminal = append(terminal, t.ID)
		}
	}
	if g.LoserAdvancesToID != nil {
		t, ok := e.games[*g.LoserAdvancesToID]
		if !ok {
			return nil, fmt.Errorf("%w: game %d loser target %d", ErrGameNotFound, g.ID, *g.LoserAdvancesToID)
		}
		becameTerminal, err := e.deliver(t, *g.LoserToSlot, g.LoserID)
		if err != nil {
			return nil, err
		}
		if becameTerminal {
			terminal = append(terminal, t.ID)
		}
	}
	return terminal, nil
}

// deliver writes a team (or a cascaded bye when team is nil) into one slot
// of a target game, and re-evaluates the target's status. Re-delivering an
// identical value is a no-op; delivering a different value into a resolved
// slot aborts the cascade.
func (e *Engine) deliver(t *models.BracketGame, slot int, team *int) (bool, error) {
	current := t.SlotTeam(slot)
	switch {
	case team != nil && current != nil:
		if *current != *team {
			return false, fmt.Errorf("%w: game %d slot %d has team %d, delivering %d", ErrSlotConflict, t.ID, slot, *current, *team)
		}
		return false, nil
	case team == nil && current != nil:
		return false, fmt.Errorf("%w: game %d slot %d has team %d, delivering a bye", ErrSlotConflict, t.ID, slot, *current)
	case team == nil && slotByeResolved(t, slot):
		return false, nil
	}

	if t.Status != models.GameStatusPending {
		return false, fmt.Errorf("%w: game %d is %s", ErrSlotConflict, t.ID, t.Status)
	}

	if team != nil {
		id := *team
		if slot == 1 {
			t.Team1ID = &id
		} else {
			t.Team2ID = &id
		}
	} else {
		bye := byeSource
		if slot == 1 {
			t.Team1Source = &bye
		} else {
			t.Team2Source = &bye
		}
	}
	e.touch(t)

	return e.evaluate(t), nil
}

// evaluate moves a pending game forward once its slots resolve: two teams
// make it ready, a team against a cascaded bye makes it a bye with an
// immediate winner, and two cascaded byes make it an empty bye. Returns
// whether the game became terminal.
func (e *Engine) evaluate(t *models.BracketGame) bool {
	if t.Status != models.GameStatusPending {
		return false
	}
	if t.Team1ID != nil && t.Team2ID != nil {
		t.Status = models.GameStatusReady
		e.touch(t)
		return false
	}
	if !slotResolved(t, 1) || !slotResolved(t, 2) {
		return false
	}

	t.Status = models.GameStatusBye
	if t.Team1ID != nil {
		t.WinnerID = t.Team1ID
	} else if t.Team2ID != nil {
		t.WinnerID = t.Team2ID
	}
	e.touch(t)
	return true
}

func (e *Engine) correctResult(g *models.BracketGame, winnerTeamID int, team1Score, team2Score *int, now time.Time) (*models.BracketGame, error) {
	newLoser, err := opponentOf(g, winnerTeamID)
	if err != nil {
		return nil, err
	}
	oldWinner := *g.WinnerID
	oldLoser := *g.LoserID

	apply := func() {
		winner := winnerTeamID
		loser := newLoser
		completedAt := now
		g.WinnerID = &winner
		g.LoserID = &loser
		g.Team1Score = team1Score
		g.Team2Score = team2Score
		g.CompletedAt = &completedAt
		e.touch(g)
	}

	if winnerTeamID == oldWinner {
		// Score-only correction; the outcome stands.
		apply()
		return g, nil
	}

	if g.BracketSide == models.SideFinals && g.RoundNumber == 1 {
		return e.correctGrandFinal(g, apply)
	}

	// Fail closed before mutating anything: walk both chains and make sure
	// no decided descendant depends on the old outcome.
	if err := e.walkChain(g.WinnerAdvancesToID, g.WinnerToSlot, oldWinner, nil); err != nil {
		return nil, err
	}
	if err := e.walkChain(g.LoserAdvancesToID, g.LoserToSlot, oldLoser, nil); err != nil {
		return nil, err
	}

	newWinner := winnerTeamID
	if err := e.walkChain(g.WinnerAdvancesToID, g.WinnerToSlot, oldWinner, &newWinner); err != nil {
		return nil, err
	}
	if err := e.walkChain(g.LoserAdvancesToID, g.LoserToSlot, oldLoser, &newLoser); err != nil {
		return nil, err
	}

	apply()
	return g, nil
}

// walkChain follows one advancement chain from a corrected game. With a nil
// replacement it only checks: any completed or in-progress descendant
// holding the old team is a conflict. With a replacement it swaps the old
// team for the new one, following through auto-resolved byes which advanced
// the old team further.
func (e *Engine) walkChain(targetID, slot *int, oldTeam int, replacement *int) error {
	for targetID != nil {
		t, ok := e.games[*targetID]
		if !ok {
			return fmt.Errorf("%w: advancement target %d", ErrGameNotFound, *targetID)
		}
		current := t.SlotTeam(*slot)
		if current == nil || *current != oldTeam {
			return nil // old outcome never reached this game
		}

		switch t.Status {
		case models.GameStatusCompleted, models.GameStatusInProgress:
			return fmt.Errorf("%w: game %d", ErrDownstreamResolved, t.ID)
		case models.GameStatusBye:
			if replacement != nil {
				e.replaceSlot(t, *slot, *replacement)
				if t.WinnerID != nil && *t.WinnerID == oldTeam {
					t.WinnerID = replacement
				}
			}
			// The bye advanced the old team one hop further.
			targetID, slot = t.WinnerAdvancesToID, t.WinnerToSlot
		case models.GameStatusPending, models.GameStatusReady:
			if replacement != nil {
				e.replaceSlot(t, *slot, *replacement)
			}
			return nil
		default:
			return fmt.Errorf("unhandled game status %q", t.Status)
		}
	}
	return nil
}

func (e *Engine) replaceSlot(t *models.BracketGame, slot int, team int) {
	id := team
	if slot == 1 {
		t.Team1ID = &id
	} else {
		t.Team2ID = &id
	}
	e.touch(t)
}

// correctGrandFinal re-threads the reset game, which hangs off both of the
// grand final's pointers and may need activating or deactivating.
func (e *Engine) correctGrandFinal(g *models.BracketGame, apply func()) (*models.BracketGame, error) {
	var reset *models.BracketGame
	if g.WinnerAdvancesToID != nil {
		reset = e.games[*g.WinnerAdvancesToID]
	}
	if reset != nil {
		switch reset.Status {
		case models.GameStatusCompleted, models.GameStatusInProgress:
			return nil, fmt.Errorf("%w: game %d", ErrDownstreamResolved, reset.ID)
		case models.GameStatusReady:
			// Deactivate; the re-run below activates it again if needed.
			reset.Team1ID = nil
			reset.Team2ID = nil
			reset.Status = models.GameStatusPending
			e.touch(reset)
		}
	}

	apply()
	return g, e.drain([]int{g.ID})
}

func opponentOf(g *models.BracketGame, teamID int) (int, error) {
	switch {
	case g.Team1ID != nil && *g.Team1ID == teamID:
		if g.Team2ID == nil {
			return 0, ErrSlotsUnresolved
		}
		return *g.Team2ID, nil
	case g.Team2ID != nil && *g.Team2ID == teamID:
		if g.Team1ID == nil {
			return 0, ErrSlotsUnresolved
		}
		return *g.Team1ID, nil
	default:
		return 0, ErrWinnerNotInGame
	}
}

func slotResolved(g *models.BracketGame, slot int) bool {
	return g.SlotTeam(slot) != nil || slotByeResolved(g, slot)
}

func slotByeResolved(g *models.BracketGame, slot int) bool {
	src := g.Team1Source
	if slot == 2 {
		src = g.Team2Source
	}
	return g.SlotTeam(slot) == nil && src != nil && *src == byeSource
}
