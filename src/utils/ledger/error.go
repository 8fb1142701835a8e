package ledger

import "errors"

var (
	// Validation failures, surfaced to the caller immediately
	ErrInsufficientStake = errors.New("offered stake is below the dataset's minimum")
	ErrTokenNotAllowed   = errors.New("holder token is not in the allowed set")

	// Missing capability short-circuits to a simulated receipt,
	// this error only fires when a caller bypasses the publisher
	ErrMissingCapability = errors.New("capability required for this write is not held")

	// Security failure, never downgraded to a mock receipt
	ErrBadSignerKey = errors.New("ledger signer key is malformed")
)
