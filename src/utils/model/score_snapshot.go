package model

import (
	"database/sql"
	"time"
)

const (
	TableScoreSnapshot = "dataset_score_history"
)

// ScoreSnapshot is one row of the append-only score history.
// Total always equals the sum of the four factors.
type ScoreSnapshot struct {
	ID        int64
	DatasetId string `gorm:"index"`

	Total      int
	Provenance int
	Integrity  int
	Audit      int
	Usage      int

	VerifiedByEnclave bool

	// Serialized enclave proof, set only for enclave-backed snapshots
	EnclaveProof sql.NullString

	// Per-factor explanations as produced by the scorer
	Explanation string

	// Ledger transaction the snapshot was anchored with,
	// unique so re-delivered events are no-ops
	TransactionId sql.NullString `gorm:"uniqueIndex"`

	ScoredAt time.Time
}

func (ScoreSnapshot) TableName() string {
	return TableScoreSnapshot
}
