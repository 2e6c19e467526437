package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipr/colosseum-sub001/models"
)

func TestComputeBracketSize(t *testing.T) {
	cases := []struct {
		teams int
		size  int
	}{
		{1, 4},
		{2, 4},
		{4, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{33, 64},
		{64, 64},
	}
	for _, tc := range cases {
		size, err := ComputeBracketSize(tc.teams)
		require.NoError(t, err, "teams=%d", tc.teams)
		assert.Equal(t, tc.size, size, "teams=%d", tc.teams)
	}

	_, err := ComputeBracketSize(0)
	assert.ErrorIs(t, err, ErrTooFewTeams)
	_, err = ComputeBracketSize(65)
	assert.ErrorIs(t, err, ErrTooManyTeams)
}

func TestValidBracketSize(t *testing.T) {
	for _, size := range []int{4, 8, 16, 32, 64} {
		assert.True(t, ValidBracketSize(size), "size=%d", size)
	}
	for _, size := range []int{0, 1, 2, 3, 5, 6, 12, 24, 48, 128} {
		assert.False(t, ValidBracketSize(size), "size=%d", size)
	}
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 4, 2, 3}, SeedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, SeedOrder(8))

	for _, size := range []int{4, 8, 16, 32, 64} {
		order := SeedOrder(size)
		require.Len(t, order, size)

		// Permutation of 1..size.
		seen := make(map[int]bool, size)
		for _, seed := range order {
			assert.True(t, seed >= 1 && seed <= size)
			assert.False(t, seen[seed], "seed %d repeated at size %d", seed, size)
			seen[seed] = true
		}

		// Adjacent positions are the round-1 pairings; each pair sums to
		// size+1 so seed 1 always opens against the lowest seed.
		for i := 0; i < size; i += 2 {
			assert.Equal(t, size+1, order[i]+order[i+1], "pair at %d, size %d", i, size)
		}
	}
}

func TestBuildEntriesFullField(t *testing.T) {
	teams := []int{10, 20, 30, 40}
	entries, err := BuildEntries(teams, 4)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// SeedOrder(4) = [1 4 2 3]: position 1 holds seed 1 (best team) and
	// position 2 its round-1 opponent, seed 4.
	require.NotNil(t, entries[0].TeamID)
	assert.Equal(t, 10, *entries[0].TeamID)
	require.NotNil(t, entries[1].TeamID)
	assert.Equal(t, 40, *entries[1].TeamID)
	require.NotNil(t, entries[2].TeamID)
	assert.Equal(t, 20, *entries[2].TeamID)
	require.NotNil(t, entries[3].TeamID)
	assert.Equal(t, 30, *entries[3].TeamID)

	for i, e := range entries {
		assert.Equal(t, i+1, e.SeedPosition)
		assert.False(t, e.IsBye)
	}
}

func TestBuildEntriesByePlacement(t *testing.T) {
	teams := []int{10, 20, 30, 40, 50}
	entries, err := BuildEntries(teams, 8)
	require.NoError(t, err)
	require.Len(t, entries, 8)

	byTeam := make(map[int]models.BracketEntry)
	var byes int
	for _, e := range entries {
		if e.IsBye {
			assert.Nil(t, e.TeamID)
			byes++
			continue
		}
		require.NotNil(t, e.TeamID)
		byTeam[*e.TeamID] = e
	}
	assert.Equal(t, 3, byes)
	require.Len(t, byTeam, 5)

	// SeedOrder(8) = [1 8 4 5 2 7 3 6]: seeds 6-8 are absent, so the byes
	// fall against the three best seeds. Seeds 4 and 5 play each other.
	opponent := func(pos int) models.BracketEntry {
		idx := pos - 1
		if idx%2 == 0 {
			return entries[idx+1]
		}
		return entries[idx-1]
	}
	assert.True(t, opponent(byTeam[10].SeedPosition).IsBye, "seed 1 gets a bye")
	assert.True(t, opponent(byTeam[20].SeedPosition).IsBye, "seed 2 gets a bye")
	assert.True(t, opponent(byTeam[30].SeedPosition).IsBye, "seed 3 gets a bye")

	fourOpp := opponent(byTeam[40].SeedPosition)
	require.NotNil(t, fourOpp.TeamID)
	assert.Equal(t, 50, *fourOpp.TeamID, "seeds 4 and 5 play round 1")
}

func TestBuildEntriesRejectsBadInput(t *testing.T) {
	_, err := BuildEntries(nil, 8)
	assert.ErrorIs(t, err, ErrTooFewTeams)

	_, err = BuildEntries([]int{1, 2, 3, 4, 5}, 4)
	assert.ErrorIs(t, err, ErrTooManyTeams)

	_, err = BuildEntries([]int{1, 2}, 6)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
