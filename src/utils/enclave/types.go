package enclave

import "encoding/json"

// Intent scopes understood by the trust oracle
const (
	IntentScopeProcessData = 0
)

// attestationRequest is the canonical payload sent to the oracle
type attestationRequest struct {
	Payload struct {
		BlobId         string `json:"blob_id"`
		ExpectedSha256 string `json:"expected_sha256"`
		Gateway        string `json:"walrus_gateway,omitempty"`
	} `json:"payload"`
}

// signedResponse is the oracle's response envelope. The intent message
// is kept as raw bytes: the signature covers this exact serialization,
// re-encoding the parsed fields would open the door to field reordering
// attacks.
type signedResponse struct {
	Response  json.RawMessage `json:"response"`
	Signature string          `json:"signature"`
}

// intentMessage is the parsed view of the signed bytes
type intentMessage struct {
	Intent      int                `json:"intent"`
	TimestampMs uint64             `json:"timestamp_ms"`
	Data        verificationResult `json:"data"`
}

type verificationResult struct {
	BlobId         string   `json:"blob_id"`
	ExpectedSha256 string   `json:"expected_sha256"`
	ComputedSha256 string   `json:"computed_sha256"`
	Verified       bool     `json:"verified"`
	BlobSize       int64    `json:"blob_size"`
	Gateway        string   `json:"walrus_gateway"`
	Measurements   []string `json:"measurements,omitempty"`
}

// Proof is a validated attestation. Instances are only produced by
// the Attestor after the signature checked out.
type Proof struct {
	DatasetId      string `json:"dataset_id"`
	BlobId         string `json:"blob_id"`
	ExpectedDigest string `json:"expected_digest"`
	ComputedDigest string `json:"computed_digest"`
	Verified       bool   `json:"verified"`
	BlobSize       int64  `json:"blob_size"`
	Gateway        string `json:"gateway"`
	TimestampMs    uint64 `json:"timestamp_ms"`

	// Hex encoded detached signature and the exact bytes it covers
	Signature string          `json:"signature"`
	Envelope  json.RawMessage `json:"envelope"`
}
