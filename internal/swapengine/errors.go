package swapengine

import "errors"

var (
	// ErrSubmission means every submission attempt failed.
	ErrSubmission = errors.New("transaction submission failed")

	// ErrOnChainFailure means the transaction landed and the program rejected it.
	ErrOnChainFailure = errors.New("transaction failed on chain")

	// ErrTimedOut means no confirmation arrived within the polling budget, or
	// the caller's context ended while polling. The transaction may still land
	// later.
	ErrTimedOut = errors.New("confirmation timed out")

	ErrSwapsDisabled  = errors.New("swap execution disabled")
	ErrRiskRejected   = errors.New("risk check rejected")
	ErrInvalidRequest = errors.New("invalid swap request")
)
