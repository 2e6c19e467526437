// Package rankings turns raw seeding-round scores into the seed ranking a
// bracket is built from. The calculation is pure and deterministic; callers
// replace the stored ranking set wholesale with the result.
package rankings

import (
	"sort"

	"github.com/kipr/colosseum-sub001/models"
)

// Weighting of the composite raw seed score: 75% normalized standing,
// 25% share of the event's best seed average.
const (
	rankWeight  = 0.75
	ratioWeight = 0.25
)

// TeamScores carries one team's recorded seeding scores. Unplayed rounds are
// simply absent; order does not matter.
type TeamScores struct {
	TeamID     int
	TeamNumber int
	Scores     []float64
}

// Calculate produces one SeedingRanking per input team, seed_rank 1 being
// best. Teams without any recorded score get a raw seed score of 0 and sort
// behind every scored team; exact ties break on the single highest round
// score, then on team number, so reruns over unchanged input are identical.
func Calculate(teams []TeamScores) []models.SeedingRanking {
	out := make([]models.SeedingRanking, len(teams))
	for i, t := range teams {
		out[i] = models.SeedingRanking{
			TeamID:          t.TeamID,
			SeedAverage:     topTwoAverage(t.Scores),
			TiebreakerValue: maxScore(t.Scores),
		}
	}

	numberOf := make(map[int]int, len(teams))
	scored := make(map[int]bool, len(teams))
	for _, t := range teams {
		numberOf[t.TeamID] = t.TeamNumber
		scored[t.TeamID] = len(t.Scores) > 0
	}

	// Standing by seed average determines the rank component.
	standing := make([]*models.SeedingRanking, len(out))
	for i := range out {
		standing[i] = &out[i]
	}
	sort.SliceStable(standing, func(i, j int) bool {
		a, b := standing[i], standing[j]
		if a.SeedAverage != b.SeedAverage {
			return a.SeedAverage > b.SeedAverage
		}
		if a.TiebreakerValue != b.TiebreakerValue {
			return a.TiebreakerValue > b.TiebreakerValue
		}
		return numberOf[a.TeamID] < numberOf[b.TeamID]
	})

	maxAverage := 0.0
	for _, r := range standing {
		if r.SeedAverage > maxAverage {
			maxAverage = r.SeedAverage
		}
	}

	total := float64(len(standing))
	for i, r := range standing {
		if !scored[r.TeamID] {
			r.RawSeedScore = 0
			continue
		}
		rankComponent := (total - float64(i+1) + 1) / total
		ratio := 0.0
		if maxAverage > 0 {
			ratio = r.SeedAverage / maxAverage
		}
		r.RawSeedScore = rankWeight*rankComponent + ratioWeight*ratio
	}

	// Final order by composite score; seed_rank is its 1-based ordinal.
	sort.SliceStable(standing, func(i, j int) bool {
		a, b := standing[i], standing[j]
		if a.RawSeedScore != b.RawSeedScore {
			return a.RawSeedScore > b.RawSeedScore
		}
		if a.TiebreakerValue != b.TiebreakerValue {
			return a.TiebreakerValue > b.TiebreakerValue
		}
		return numberOf[a.TeamID] < numberOf[b.TeamID]
	})
	for i, r := range standing {
		r.SeedRank = i + 1
	}

	return out
}

// topTwoAverage is the mean of the two best scores, or the single score when
// only one round was played, or 0 with no scores.
func topTwoAverage(scores []float64) float64 {
	switch len(scores) {
	case 0:
		return 0
	case 1:
		return scores[0]
	}
	best, second := scores[0], scores[1]
	if second > best {
		best, second = second, best
	}
	for _, s := range scores[2:] {
		switch {
		case s > best:
			best, second = s, best
		case s > second:
			second = s
		}
	}
	return (best + second) / 2
}

func maxScore(scores []float64) float64 {
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	return max
}
