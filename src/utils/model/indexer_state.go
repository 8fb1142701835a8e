package model

const (
	TableIndexerState = "indexer_state"
)

type SyncedComponent string

const (
	SyncedComponentCertificates SyncedComponent = "Certificates"
	SyncedComponentClaims       SyncedComponent = "Claims"
	SyncedComponentAccesses     SyncedComponent = "Accesses"
	SyncedComponentTrustScores  SyncedComponent = "TrustScores"
)

// IndexerState keeps the last fully processed ledger sequence
// per event category
type IndexerState struct {
	Name SyncedComponent `gorm:"primaryKey"`

	// Ledger sequence of the last applied event
	LastLedgerSequence uint64

	// Set after the initial historical backfill pass finished
	BackfillDone bool
}

func (IndexerState) TableName() string {
	return TableIndexerState
}
