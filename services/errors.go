package services

import (
	"errors"
	"fmt"

	"github.com/kipr/colosseum-sub001/repositories"
)

// Sentinel errors shared across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business-rule errors.
	ErrValidationFailed    = errors.New("validation failed")
	ErrEventNameRequired   = errors.New("event name is required")
	ErrBracketNameRequired = errors.New("bracket name is required")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrInvalidSeedingRound = errors.New("seeding round is outside the event's round count")
	ErrInvalidBracketSize  = errors.New("bracket size must be a power of two between 4 and 64")
	ErrNoTeamsSelected     = errors.New("at least one team is required")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials  = errors.New("invalid email or password")

	// State errors: caller misuse of a valid resource.
	ErrEventNotInSetup        = errors.New("event is no longer in setup")
	ErrBracketNotInSetup      = errors.New("bracket is no longer in setup")
	ErrBracketNotInProgress   = errors.New("bracket is not in progress")
	ErrBracketHasEntries      = errors.New("bracket already has entries (use force to replace)")
	ErrBracketHasGames        = errors.New("bracket already has games (use force to replace)")
	ErrBracketEntriesMissing  = errors.New("bracket has no entries to build games from")
	ErrInvalidStatusChange    = errors.New("invalid status transition")
	ErrQueueItemNotQueued     = errors.New("queue item is not in the queued state")
	ErrQueueItemNotCalled     = errors.New("queue item is not in the called state")

	// Conflict errors.
	ErrBracketNameConflict = errors.New("a bracket with this name already exists for the event")
	ErrTeamNumberConflict  = errors.New("a team with this number already exists for the event")
	ErrUserEmailConflict   = errors.New("email address is already in use")

	// Entity-specific not-found errors.
	ErrEventNotFound     = errors.New("event not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrBracketNotFound   = errors.New("bracket not found")
	ErrGameNotFound      = errors.New("game not found")
	ErrQueueItemNotFound = errors.New("queue item not found")
	ErrUserNotFound      = errors.New("user not found")
)

// TeamConflictError reports every requested team already holding a slot in
// another active bracket of the same event, so the caller can render the
// full overlap instead of fixing one team per attempt.
type TeamConflictError struct {
	Conflicts []repositories.TeamBracketConflict
}

func (e *TeamConflictError) Error() string {
	return fmt.Sprintf("%d team(s) already assigned to another bracket", len(e.Conflicts))
}
