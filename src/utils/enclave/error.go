package enclave

import "errors"

var (
	// Security failures. These abort the merge entirely and are
	// never downgraded to a degraded result.
	ErrNoPublicKey         = errors.New("no enclave public key registered")
	ErrSignatureMismatch   = errors.New("enclave signature does not match the envelope")
	ErrMeasurementMismatch = errors.New("enclave measurements do not match the expected set")

	// The oracle itself rejected the request
	ErrOracleRejected = errors.New("trust oracle rejected the attestation request")
)
