package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound            = errors.New("wizard not found")
	ErrClosed              = errors.New("wizard is closed")
	ErrNotActive           = errors.New("wizard is not on an active step")
	ErrStepIncomplete      = errors.New("current step is incomplete")
	ErrLastStep            = errors.New("already on the last step")
	ErrFirstStep           = errors.New("already on the first step")
	ErrWrongStep           = errors.New("operation not available on the current step")
	ErrUnknownOption       = errors.New("unknown option")
	ErrOptionsNotLoaded    = errors.New("options not loaded for this step")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrValidation          = errors.New("validation failed")
	ErrMissingFields       = errors.New("missing required fields")
	ErrNotSignedIn         = errors.New("no authenticated identity")
	ErrEmptyCustomization  = errors.New("customization text is empty")
	ErrEnhancementInFlight = errors.New("an enhancement is already running")
	ErrProposalInFlight    = errors.New("a proposal is being generated")
	ErrNoCandidate         = errors.New("no generated proposal to accept")
	ErrSubmissionInFlight  = errors.New("a submission is already running")
	ErrPriceUnresolved     = errors.New("price is not resolved")
	ErrSuperseded          = errors.New("result superseded by a newer change")
)

// RemoteError is a failed call to a leaf service. Leaf failures are always
// retryable from the wizard's point of view.
type RemoteError struct {
	Service string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

// IsRemote reports whether err originates from a leaf service.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
