package report

import "go.uber.org/atomic"

type IndexerErrors struct {
	PollFailures        atomic.Uint64 `json:"poll_failures"`
	ApplyFailures       atomic.Uint64 `json:"apply_failures"`
	CursorSaveFailures  atomic.Uint64 `json:"cursor_save_failures"`
	PlaceholderFailures atomic.Uint64 `json:"placeholder_failures"`
}

type IndexerState struct {
	EventsPolled           atomic.Int64 `json:"events_polled"`
	EventsApplied          atomic.Int64 `json:"events_applied"`
	EventsSkippedDuplicate atomic.Int64 `json:"events_skipped_duplicate"`
	PlaceholdersCreated    atomic.Int64 `json:"placeholders_created"`
	LastLedgerSequence     atomic.Int64 `json:"last_ledger_sequence"`
	BackfillsFinished      atomic.Int64 `json:"backfills_finished"`
}

type IndexerReport struct {
	State  IndexerState  `json:"state"`
	Errors IndexerErrors `json:"errors"`
}
