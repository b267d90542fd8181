package errors

import (
	"errors"
	"fmt"
)

// Kinds. Every concrete error below wraps exactly one of them so callers can
// branch on the kind with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrState          = errors.New("state error")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrTransientStore = errors.New("transient store error")
)

var (
	ErrInvalidInput       = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrEmptySubmission    = fmt.Errorf("%w: submission content is empty", ErrValidation)
	ErrUnauthorizedActor  = fmt.Errorf("%w: actor is not authorized", ErrValidation)
	ErrContractHasNoStage = fmt.Errorf("%w: contract defines no stages", ErrValidation)

	ErrWrongStage           = fmt.Errorf("%w: stage number is not the current stage", ErrState)
	ErrNotAwaitingSubmit    = fmt.Errorf("%w: job is not awaiting a submission", ErrState)
	ErrNotAwaitingReview    = fmt.Errorf("%w: job is not awaiting review", ErrState)
	ErrJobCompleted         = fmt.Errorf("%w: job is completed", ErrState)
	ErrInvariantViolation   = fmt.Errorf("%w: job invariant violated", ErrState)
	ErrUnknownJobStatus     = fmt.Errorf("%w: unknown job status", ErrState)
	ErrUnknownStageStatus   = fmt.Errorf("%w: unknown stage status", ErrState)
	ErrUnknownSubmission    = fmt.Errorf("%w: unknown submission type", ErrValidation)
	ErrUnknownContractState = fmt.Errorf("%w: unknown contract status", ErrValidation)

	ErrJobAlreadyExists    = fmt.Errorf("%w: job already exists for user and contract", ErrConflict)
	ErrStaleJobState       = fmt.Errorf("%w: job was modified concurrently", ErrConflict)
	ErrStageAlreadySettled = fmt.Errorf("%w: stage reward already settled", ErrConflict)
	ErrEventAlreadyClaimed = fmt.Errorf("%w: one-time event already claimed", ErrConflict)

	ErrJobNotFound        = fmt.Errorf("%w: job not found", ErrNotFound)
	ErrContractNotFound   = fmt.Errorf("%w: contract not found", ErrNotFound)
	ErrContractClosed     = fmt.Errorf("%w: contract is closed", ErrNotFound)
	ErrNoPendingStage     = fmt.Errorf("%w: no stage is pending review", ErrNotFound)
	ErrProfileNotFound    = fmt.Errorf("%w: user profile not found", ErrNotFound)
	ErrSettlementNotFound = fmt.Errorf("%w: settlement not found", ErrNotFound)
)

// Transient marks err as retry-safe infrastructure failure while keeping the
// original error in the chain.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransientStore) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransientStore, err)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
