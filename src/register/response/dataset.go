package response

import (
	"time"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/enclave"
	"github.com/ducnmm/datacert/src/utils/integrity"
	"github.com/ducnmm/datacert/src/utils/ledger"
)

type RegisterDataset struct {
	DatasetId       string                     `json:"dataset_id"`
	CertificateId   string                     `json:"certificate_id"`
	BlobLocator     string                     `json:"blob_locator"`
	BlobMock        bool                       `json:"blob_mock,omitempty"`
	DigestPrimary   string                     `json:"digest_primary"`
	DigestSecondary string                     `json:"digest_secondary"`
	Status          string                     `json:"status"`
	Receipt         *ledger.TransactionReceipt `json:"receipt"`
	Score           *trust.Score               `json:"score"`
}

type FileClaim struct {
	DatasetId string                     `json:"dataset_id"`
	ClaimId   int64                      `json:"claim_id"`
	Receipt   *ledger.TransactionReceipt `json:"receipt"`
	Score     *trust.Score               `json:"score"`
}

type GrantAccess struct {
	DatasetId string                     `json:"dataset_id"`
	Receipt   *ledger.TransactionReceipt `json:"receipt"`
}

type Attest struct {
	DatasetId string                     `json:"dataset_id"`
	Proof     *enclave.Proof             `json:"proof"`
	Score     *trust.Score               `json:"score"`
	Receipt   *ledger.TransactionReceipt `json:"receipt"`
}

type Verify struct {
	DatasetId string                     `json:"dataset_id"`
	Result    integrity.CheckResult      `json:"result"`
	Score     *trust.Score               `json:"score"`
	Receipt   *ledger.TransactionReceipt `json:"receipt"`
}

type SetStatus struct {
	DatasetId string `json:"dataset_id"`
	Status    string `json:"status"`
}

type Score struct {
	DatasetId         string            `json:"dataset_id"`
	Total             int               `json:"total"`
	Provenance        int               `json:"provenance"`
	Integrity         int               `json:"integrity"`
	Audit             int               `json:"audit"`
	Usage             int               `json:"usage"`
	VerifiedByEnclave bool              `json:"verified_by_enclave"`
	Explanation       trust.Explanation `json:"explanation,omitempty"`
	ScoredAt          *time.Time        `json:"scored_at,omitempty"`
}

type ScoreHistoryEntry struct {
	Total             int       `json:"total"`
	Provenance        int       `json:"provenance"`
	Integrity         int       `json:"integrity"`
	Audit             int       `json:"audit"`
	Usage             int       `json:"usage"`
	VerifiedByEnclave bool      `json:"verified_by_enclave"`
	ScoredAt          time.Time `json:"scored_at"`
}

type ScoreHistory struct {
	DatasetId string              `json:"dataset_id"`
	Entries   []ScoreHistoryEntry `json:"entries"`
}
