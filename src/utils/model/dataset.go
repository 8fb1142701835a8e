package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	TableDataset = "datasets"
)

type DatasetStatus string

const (
	DatasetStatusDraft     DatasetStatus = "draft"
	DatasetStatusPending   DatasetStatus = "pending"
	DatasetStatusCertified DatasetStatus = "certified"
	DatasetStatusDisputed  DatasetStatus = "disputed"
)

type AccessPolicyType string

const (
	AccessPolicyPublic     AccessPolicyType = "public"
	AccessPolicyTokenGated AccessPolicyType = "token_gated"
	AccessPolicyStakeGated AccessPolicyType = "stake_gated"
)

// Dataset is the off-chain projection of one dataset aggregate.
// Rows are never hard-deleted, disputes are a status change.
type Dataset struct {
	ID int64

	// Business key, immutable once assigned
	DatasetId string `gorm:"uniqueIndex"`

	Owner string

	// Blob reference
	BlobLocator string
	BlobSize    int64
	BlobExpiry  time.Time

	// Content hash pair
	DigestPrimary   string
	DigestSecondary string

	IntegrityRoot string

	Status DatasetStatus

	// Access policy. The ledger enforces the same thresholds,
	// this copy only exists for the fast off-chain check.
	PolicyType    AccessPolicyType
	MinStake      int64
	AllowedTokens pq.StringArray `gorm:"type:text[]"`

	// Rolling counters, updated only through increments
	Downloads int64
	Revenue   int64

	// Certificate minted on the ledger
	CertificateId string

	// Latest score snapshot, history lives in dataset_score_history
	ScoreTotal         int
	ScoreProvenance    int
	ScoreIntegrity     int
	ScoreAudit         int
	ScoreUsage         int
	VerifiedByEnclave  bool
	ScoredAt           *time.Time
	LicenseDescription string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Dataset) TableName() string {
	return TableDataset
}
