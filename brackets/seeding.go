package brackets

import "github.com/kipr/colosseum-sub001/models"

const (
	MinBracketSize = 4
	MaxBracketSize = 64
)

// ComputeBracketSize returns the smallest power of two covering teamCount,
// clamped to [MinBracketSize, MaxBracketSize].
func ComputeBracketSize(teamCount int) (int, error) {
	if teamCount < 1 {
		return 0, ErrTooFewTeams
	}
	if teamCount > MaxBracketSize {
		return 0, ErrTooManyTeams
	}
	size := MinBracketSize
	for size < teamCount {
		size <<= 1
	}
	return size, nil
}

// ValidBracketSize reports whether size is a power of two in [4,64].
func ValidBracketSize(size int) bool {
	if size < MinBracketSize || size > MaxBracketSize {
		return false
	}
	return size&(size-1) == 0
}

// SeedOrder returns the seed number occupying each bracket position, in
// position order, for the standard elimination layout: position pairs
// (2k-1, 2k) are the round-1 games, seed 1 meets the lowest seed, and the
// top seeds can only meet in the latest possible round.
//
// SeedOrder(8) = [1 8 4 5 2 7 3 6].
func SeedOrder(size int) []int {
	order := []int{1, 2}
	for len(order) < size {
		doubled := len(order) * 2
		next := make([]int, 0, doubled)
		for _, seed := range order {
			next = append(next, seed, doubled+1-seed)
		}
		order = next
	}
	return order
}

// BuildEntries maps an ordered team list (best first) onto bracket seed
// slots. Positions whose assigned seed exceeds the team count become byes,
// which places every bye against the highest available seed instead of
// clustering them.
func BuildEntries(teamIDs []int, size int) ([]models.BracketEntry, error) {
	if !ValidBracketSize(size) {
		return nil, ErrInvalidSize
	}
	if len(teamIDs) == 0 {
		return nil, ErrTooFewTeams
	}
	if len(teamIDs) > size {
		return nil, ErrTooManyTeams
	}

	order := SeedOrder(size)
	entries := make([]models.BracketEntry, size)
	for pos := 1; pos <= size; pos++ {
		entry := models.BracketEntry{SeedPosition: pos}
		if seed := order[pos-1]; seed <= len(teamIDs) {
			id := teamIDs[seed-1]
			entry.TeamID = &id
		} else {
			entry.IsBye = true
		}
		entries[pos-1] = entry
	}
	return entries, nil
}
