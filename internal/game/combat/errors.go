package combat

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when the participant has no active session.
	ErrSessionNotFound = errors.New("no active combat session")
	// ErrNotYourTurn is returned when actions are submitted outside the player phase.
	ErrNotYourTurn = errors.New("not the players' turn")
	// ErrAlreadyActed is returned on a second submission in the same round.
	ErrAlreadyActed = errors.New("action already submitted this round")
	// ErrParticipantDefeated is returned when a participant at 0 HP submits.
	ErrParticipantDefeated = errors.New("participant is defeated")
	// ErrInvalidAction matches every *InvalidActionError.
	ErrInvalidAction = errors.New("invalid action")
	// ErrCreationFailed matches every *CreationError.
	ErrCreationFailed = errors.New("combat creation failed")
	// ErrAlreadyInCombat is returned when the initiator is already in an active session.
	ErrAlreadyInCombat = errors.New("already in combat")
	// ErrInitiatorDefeated is returned when a character at 0 HP tries to start combat.
	ErrInitiatorDefeated = errors.New("initiator has no HP left")
)

// InvalidActionError reports a malformed submission, such as an unknown action kind.
// Gameplay-level invalidity never produces this error.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %s", e.Reason)
}

// Is makes errors.Is(err, ErrInvalidAction) true.
func (e *InvalidActionError) Is(target error) bool { return target == ErrInvalidAction }

// Missing values for CreationError.
const (
	MissingCharacter = "character"
	MissingMonster   = "monster"
)

// CreationError reports that a session could not be created because the
// initiating character or the monster does not exist.
type CreationError struct {
	// Missing is MissingCharacter or MissingMonster.
	Missing string
	ID      string
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("combat creation failed: %s %q not found", e.Missing, e.ID)
}

// Is makes errors.Is(err, ErrCreationFailed) true.
func (e *CreationError) Is(target error) bool { return target == ErrCreationFailed }
