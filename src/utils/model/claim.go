package model

import (
	"database/sql"
	"time"
)

const (
	TableClaim = "dataset_claims"
)

type ClaimRole string

const (
	ClaimRoleAuditor ClaimRole = "auditor"
	ClaimRoleBuyer   ClaimRole = "buyer"
	ClaimRoleCreator ClaimRole = "creator"
)

// Severity encoding shared with the ledger.
// The numeric values are part of the wire contract, the audit
// sub-score silently corrupts if they ever diverge.
type ClaimSeverity int16

const (
	SeverityInfo     ClaimSeverity = 0
	SeverityWarning  ClaimSeverity = 1
	SeverityCritical ClaimSeverity = 2
)

func (self ClaimSeverity) String() string {
	switch self {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Claim is immutable once created except for the Resolved flag
type Claim struct {
	ID        int64
	DatasetId string `gorm:"index"`
	Author    string
	Role      ClaimRole
	Severity  ClaimSeverity
	Statement string

	EvidenceUri sql.NullString

	Resolved bool

	// Ledger transaction the claim was anchored with,
	// unique so re-delivered events are no-ops
	TransactionId sql.NullString `gorm:"uniqueIndex"`

	CreatedAt time.Time
}

func (Claim) TableName() string {
	return TableClaim
}
