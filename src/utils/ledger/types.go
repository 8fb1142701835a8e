package ledger

import "github.com/ducnmm/datacert/src/utils/model"

// Actions anchored on the ledger
const (
	ActionMintCertificate  = "mint_certificate"
	ActionRecordAccess     = "record_access"
	ActionFileClaim        = "file_claim"
	ActionUpdateTrustScore = "update_trust_score"
)

// Transaction is the canonical payload the signer signs. Field order
// is part of the wire contract, the signature covers the serialized
// form of exactly this struct.
type Transaction struct {
	Action        string      `json:"action"`
	DatasetId     string      `json:"dataset_id"`
	Sender        string      `json:"sender"`
	CapabilityRef string      `json:"capability_ref,omitempty"`
	Payload       interface{} `json:"payload"`
	Nonce         string      `json:"nonce"`
	TimestampMs   uint64      `json:"timestamp_ms"`
}

// TransactionReceipt reports what happened to one submission.
// Simulated receipts mean the fact is not anchored yet and may be
// retried out-of-band.
type TransactionReceipt struct {
	TransactionId  string `json:"transaction_id"`
	LedgerSequence uint64 `json:"ledger_sequence"`
	Anchored       bool   `json:"anchored"`
	Simulated      bool   `json:"simulated"`
	Action         string `json:"action"`
	Error          string `json:"error,omitempty"`
}

// EventCategory is one typed event stream emitted by the ledger
type EventCategory string

const (
	EventCertificateMinted EventCategory = "CertificateMinted"
	EventClaimRaised       EventCategory = "ClaimRaised"
	EventAccessGranted     EventCategory = "AccessGranted"
	EventTrustScoreUpdated EventCategory = "TrustScoreUpdated"
)

// Categories lists every stream the indexer reconciles
func Categories() []EventCategory {
	return []EventCategory{
		EventCertificateMinted,
		EventClaimRaised,
		EventAccessGranted,
		EventTrustScoreUpdated,
	}
}

// Event is one ledger event as returned by the events API,
// ascending by LedgerSequence within a category
type Event struct {
	Category       EventCategory `json:"category"`
	TransactionId  string        `json:"transaction_id"`
	LedgerSequence uint64        `json:"ledger_sequence"`
	DatasetId      string        `json:"dataset_id"`
	TimestampMs    uint64        `json:"timestamp_ms"`

	Certificate *CertificatePayload `json:"certificate,omitempty"`
	Claim       *ClaimPayload       `json:"claim,omitempty"`
	Access      *AccessPayload      `json:"access,omitempty"`
	Score       *ScorePayload       `json:"score,omitempty"`
}

type CertificatePayload struct {
	CertificateId   string `json:"certificate_id"`
	Owner           string `json:"owner"`
	BlobLocator     string `json:"blob_locator"`
	DigestPrimary   string `json:"digest_primary"`
	DigestSecondary string `json:"digest_secondary"`
	License         string `json:"license"`
	PolicyType      string `json:"policy_type"`
	MinStake        int64  `json:"min_stake"`
}

type ClaimPayload struct {
	Author   string              `json:"author"`
	Role     string              `json:"role"`
	Severity model.ClaimSeverity `json:"severity"`
	// Statement and evidence URI stay off-chain, only the tamper
	// evident part is anchored
	StatementDigest string `json:"statement_digest,omitempty"`
}

type AccessPayload struct {
	Requester string `json:"requester"`
	Purpose   string `json:"purpose"`
	Stake     int64  `json:"stake"`
	MinStake  int64  `json:"min_stake"`
	Price     int64  `json:"price"`
}

type ScorePayload struct {
	Total             int    `json:"total"`
	Provenance        int    `json:"provenance"`
	Integrity         int    `json:"integrity"`
	Audit             int    `json:"audit"`
	Usage             int    `json:"usage"`
	VerifiedByEnclave bool   `json:"verified_by_enclave"`
	EnclaveProof      string `json:"enclave_proof,omitempty"`
}
