package model

import "time"

const (
	TableTimelineEvent = "dataset_timeline"
)

type TimelineEventKind string

const (
	TimelineEventUploaded TimelineEventKind = "uploaded"
	TimelineEventMinted   TimelineEventKind = "minted"
	TimelineEventAccessed TimelineEventKind = "accessed"
	TimelineEventClaimed  TimelineEventKind = "claimed"
	TimelineEventScored   TimelineEventKind = "scored"
	TimelineEventStatus   TimelineEventKind = "status_changed"
)

// TimelineEvent is one provenance entry.
// The timeline is append-only, rows are never updated or removed.
type TimelineEvent struct {
	ID        int64
	DatasetId string `gorm:"index"`
	Kind      TimelineEventKind
	Actor     string
	Note      string

	// Ledger transaction that caused this entry, if any
	TransactionId string

	CreatedAt time.Time
}

func (TimelineEvent) TableName() string {
	return TableTimelineEvent
}
