package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipr/colosseum-sub001/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestPendingSeedingPairs(t *testing.T) {
	teams := []*models.Team{
		{ID: 3, TeamNumber: 300},
		{ID: 1, TeamNumber: 100},
		{ID: 2, TeamNumber: 200},
	}
	scores := []*models.SeedingScore{
		{TeamID: 1, RoundNumber: 2, Score: floatPtr(80)},
		{TeamID: 2, RoundNumber: 1, Score: floatPtr(70)},
		{TeamID: 2, RoundNumber: 3, Score: nil}, // a blank row is still pending
	}

	pairs := pendingSeedingPairs(teams, scores, 3)
	require.Len(t, pairs, 7)

	assert.Equal(t, []seedingPair{
		{teamID: 1, round: 1},
		{teamID: 1, round: 3},
		{teamID: 2, round: 2},
		{teamID: 2, round: 3},
		{teamID: 3, round: 1},
		{teamID: 3, round: 2},
		{teamID: 3, round: 3},
	}, pairs)
}

func TestPendingSeedingPairsFullEvent(t *testing.T) {
	// Ten teams over three rounds with four scores recorded leaves 26 runs.
	teams := make([]*models.Team, 10)
	for i := range teams {
		teams[i] = &models.Team{ID: i + 1, TeamNumber: 100 + i}
	}
	scores := []*models.SeedingScore{
		{TeamID: 1, RoundNumber: 1, Score: floatPtr(50)},
		{TeamID: 1, RoundNumber: 2, Score: floatPtr(60)},
		{TeamID: 5, RoundNumber: 1, Score: floatPtr(40)},
		{TeamID: 9, RoundNumber: 3, Score: floatPtr(55)},
	}

	pairs := pendingSeedingPairs(teams, scores, 3)
	assert.Len(t, pairs, 26)
	for _, p := range pairs {
		assert.NotEqual(t, seedingPair{teamID: 1, round: 1}, p)
		assert.NotEqual(t, seedingPair{teamID: 5, round: 1}, p)
	}
}

func TestPendingSeedingPairsAllScored(t *testing.T) {
	teams := []*models.Team{{ID: 1, TeamNumber: 100}}
	scores := []*models.SeedingScore{
		{TeamID: 1, RoundNumber: 1, Score: floatPtr(10)},
		{TeamID: 1, RoundNumber: 2, Score: floatPtr(20)},
	}
	assert.Empty(t, pendingSeedingPairs(teams, scores, 2))
}

func queueItems(positions ...int) []*models.QueueItem {
	items := make([]*models.QueueItem, len(positions))
	for i, pos := range positions {
		items[i] = &models.QueueItem{ID: i + 1, QueuePosition: pos}
	}
	return items
}

func TestRenumberQueueMovesRequestedItem(t *testing.T) {
	items := queueItems(1, 2, 3, 4)

	// Pull item 4 to the front; everything else shifts down one.
	moved := renumberQueue(items, map[int]int{4: 1})

	require.Len(t, items, 4)
	positions := make(map[int]int, len(items))
	for _, it := range items {
		positions[it.ID] = it.QueuePosition
	}
	assert.Equal(t, map[int]int{4: 1, 1: 2, 2: 3, 3: 4}, positions)
	assert.Len(t, moved, 4, "every item shifted")
}

func TestRenumberQueueKeepsDensePermutation(t *testing.T) {
	items := queueItems(1, 2, 3, 4, 5)

	// Sparse, colliding requests still come out as a 1..N permutation.
	renumberQueue(items, map[int]int{2: 10, 5: 1, 3: 1})

	seen := make(map[int]bool, len(items))
	for _, it := range items {
		assert.True(t, it.QueuePosition >= 1 && it.QueuePosition <= len(items))
		assert.False(t, seen[it.QueuePosition], "position %d repeated", it.QueuePosition)
		seen[it.QueuePosition] = true
	}

	// Item 2 was pushed past the end and lands last.
	assert.Equal(t, 5, items[len(items)-1].QueuePosition)
	last := items[len(items)-1]
	assert.Equal(t, 2, last.ID)
}

func TestRenumberQueueClosesGaps(t *testing.T) {
	// Cascade deletes can leave holes in the position sequence; a
	// renumber with no requested moves must compact it back to 1..N.
	items := queueItems(2, 5, 9)
	moved := renumberQueue(items, nil)

	require.Len(t, moved, 3)
	for i, it := range items {
		assert.Equal(t, i+1, it.QueuePosition)
	}
}

func TestRenumberQueueNoChanges(t *testing.T) {
	items := queueItems(1, 2, 3)
	moved := renumberQueue(items, nil)
	assert.Empty(t, moved)
	for i, it := range items {
		assert.Equal(t, i+1, it.QueuePosition)
	}
}
