package rankings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipr/colosseum-sub001/models"
)

func rankingByTeam(rankings []models.SeedingRanking, teamID int) models.SeedingRanking {
	for _, r := range rankings {
		if r.TeamID == teamID {
			return r
		}
	}
	return models.SeedingRanking{}
}

func TestTopTwoAverage(t *testing.T) {
	assert.Equal(t, 0.0, topTwoAverage(nil))
	assert.Equal(t, 120.0, topTwoAverage([]float64{120}))
	assert.Equal(t, 115.0, topTwoAverage([]float64{110, 120}))
	assert.Equal(t, 115.0, topTwoAverage([]float64{120, 110}))
	// Three rounds: the worst score is discarded.
	assert.Equal(t, 115.0, topTwoAverage([]float64{110, 40, 120}))
	assert.Equal(t, 120.0, topTwoAverage([]float64{120, 120, 5}))
}

func TestCalculateRanksByCompositeScore(t *testing.T) {
	rankings := Calculate([]TeamScores{
		{TeamID: 1, TeamNumber: 101, Scores: []float64{100, 90, 80}},
		{TeamID: 2, TeamNumber: 102, Scores: []float64{60, 50}},
		{TeamID: 3, TeamNumber: 103, Scores: []float64{80, 70, 10}},
	})
	require.Len(t, rankings, 3)

	first := rankingByTeam(rankings, 1)
	assert.Equal(t, 1, first.SeedRank)
	assert.Equal(t, 95.0, first.SeedAverage)
	assert.Equal(t, 100.0, first.TiebreakerValue)
	// Best standing and best average: 0.75*1 + 0.25*1.
	assert.InDelta(t, 1.0, first.RawSeedScore, 1e-9)

	second := rankingByTeam(rankings, 3)
	assert.Equal(t, 2, second.SeedRank)
	assert.Equal(t, 75.0, second.SeedAverage)
	// Standing 2 of 3, average ratio 75/95.
	assert.InDelta(t, 0.75*(2.0/3.0)+0.25*(75.0/95.0), second.RawSeedScore, 1e-9)

	third := rankingByTeam(rankings, 2)
	assert.Equal(t, 3, third.SeedRank)
	assert.InDelta(t, 0.75*(1.0/3.0)+0.25*(55.0/95.0), third.RawSeedScore, 1e-9)
}

func TestCalculateUnscoredTeamsRankLast(t *testing.T) {
	rankings := Calculate([]TeamScores{
		{TeamID: 1, TeamNumber: 101},
		{TeamID: 2, TeamNumber: 102, Scores: []float64{40}},
		{TeamID: 3, TeamNumber: 103},
	})

	scored := rankingByTeam(rankings, 2)
	assert.Equal(t, 1, scored.SeedRank)
	assert.Greater(t, scored.RawSeedScore, 0.0)

	// Unscored teams carry a raw score of zero and fall in behind, ordered
	// by team number.
	a := rankingByTeam(rankings, 1)
	b := rankingByTeam(rankings, 3)
	assert.Equal(t, 0.0, a.RawSeedScore)
	assert.Equal(t, 0.0, b.RawSeedScore)
	assert.Equal(t, 2, a.SeedRank)
	assert.Equal(t, 3, b.SeedRank)
}

func TestCalculateTiebreakers(t *testing.T) {
	// Identical averages: the single best round score decides.
	rankings := Calculate([]TeamScores{
		{TeamID: 1, TeamNumber: 101, Scores: []float64{80, 80}},
		{TeamID: 2, TeamNumber: 102, Scores: []float64{90, 70}},
	})
	assert.Equal(t, 1, rankingByTeam(rankings, 2).SeedRank)
	assert.Equal(t, 2, rankingByTeam(rankings, 1).SeedRank)

	// Fully identical records: the lower team number wins.
	rankings = Calculate([]TeamScores{
		{TeamID: 7, TeamNumber: 205, Scores: []float64{50, 50}},
		{TeamID: 8, TeamNumber: 204, Scores: []float64{50, 50}},
	})
	assert.Equal(t, 1, rankingByTeam(rankings, 8).SeedRank)
	assert.Equal(t, 2, rankingByTeam(rankings, 7).SeedRank)
}

func TestCalculateIsDeterministic(t *testing.T) {
	input := []TeamScores{
		{TeamID: 1, TeamNumber: 101, Scores: []float64{100, 90}},
		{TeamID: 2, TeamNumber: 102, Scores: []float64{100, 90}},
		{TeamID: 3, TeamNumber: 103},
		{TeamID: 4, TeamNumber: 104, Scores: []float64{20}},
	}
	first := Calculate(input)
	second := Calculate(input)
	assert.Equal(t, first, second)

	ranks := make(map[int]bool)
	for _, r := range first {
		assert.False(t, ranks[r.SeedRank], "rank %d repeated", r.SeedRank)
		ranks[r.SeedRank] = true
	}
}
