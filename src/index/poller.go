package index

import (
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/ledger"
	"github.com/ducnmm/datacert/src/utils/model"
	monitor_indexer "github.com/ducnmm/datacert/src/utils/monitoring/indexer"
	"github.com/ducnmm/datacert/src/utils/task"

	"github.com/cenkalti/backoff/v4"
)

// Poller tails one ledger event category and reconciles it into the
// projection. One Poller per category keeps a slow or failing stream
// from stalling the others.
type Poller struct {
	*task.Task

	client   ledger.Client
	store    *Store
	monitor  *monitor_indexer.Monitor
	category ledger.EventCategory
	cursor   model.IndexerState
}

func NewPoller(config *config.Config, category ledger.EventCategory) (self *Poller) {
	self = new(Poller)
	self.category = category

	self.Task = task.NewTask(config, "poller-"+string(componentFor(category))).
		WithOnBeforeStart(self.loadCursor).
		WithPeriodicSubtaskFunc(config.Indexer.PollInterval, self.pollOnce)

	return
}

func (self *Poller) WithClient(client ledger.Client) *Poller {
	self.client = client
	return self
}

func (self *Poller) WithStore(store *Store) *Poller {
	self.store = store
	return self
}

func (self *Poller) WithMonitor(monitor *monitor_indexer.Monitor) *Poller {
	self.monitor = monitor
	return self
}

func (self *Poller) loadCursor() (err error) {
	self.cursor, err = self.store.LoadCursor(self.Ctx, componentFor(self.category))
	if err != nil {
		self.Log.WithError(err).Error("Failed to load indexer cursor")
		return
	}
	self.Log.WithField("after_sequence", self.cursor.LastLedgerSequence).
		Info("Loaded indexer cursor")
	return
}

// backfill drains the historical backlog page by page. It resumes
// from the persisted cursor, so a failed pass picks up where the
// previous one stopped.
func (self *Poller) backfill() (err error) {
	for {
		if self.IsStopping.Load() {
			return
		}

		var numEvents int
		numEvents, err = self.pullPage()
		if err != nil {
			return
		}

		if numEvents < self.Config.Indexer.PageSize {
			break
		}
	}

	self.cursor.BackfillDone = true
	err = self.store.SaveCursor(self.Ctx, self.cursor)
	if err != nil {
		return
	}

	self.monitor.Report.Indexer.State.BackfillsFinished.Inc()
	self.Log.WithField("category", self.category).Info("Backfill finished")
	return
}

// pollOnce is the only place that touches the cursor, backfill and
// steady-state polling run on the same goroutine. A failed pass is
// retried on the next tick, the cursor did not move so no event
// is skipped.
func (self *Poller) pollOnce() (err error) {
	if !self.cursor.BackfillDone {
		err = self.backfill()
		if err != nil {
			err = nil
		}
		return
	}

	_, err = self.pullPage()
	if err != nil {
		err = nil
	}
	return
}

// pullPage fetches one page after the cursor and applies it in order.
// The cursor only advances past events that were applied, a failing
// event is re-fetched on the next pass.
func (self *Poller) pullPage() (numEvents int, err error) {
	var events []ledger.Event
	err = task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Indexer.BackoffMaxElapsedTime).
		WithMaxInterval(self.Config.Indexer.BackoffMaxInterval).
		WithOnError(func(err error) error {
			if self.IsStopping.Load() {
				return backoff.Permanent(err)
			}
			self.Log.WithError(err).WithField("category", self.category).
				Warn("Failed to fetch ledger events, retrying")
			return err
		}).
		Run(func() (err error) {
			events, err = self.client.GetEvents(self.Ctx, self.category, self.cursor.LastLedgerSequence, self.Config.Indexer.PageSize)
			return
		})
	if err != nil {
		self.monitor.Report.Indexer.Errors.PollFailures.Inc()
		return
	}

	numEvents = len(events)
	if numEvents == 0 {
		return
	}

	self.monitor.Report.Indexer.State.EventsPolled.Add(int64(numEvents))

	for i := range events {
		event := &events[i]
		_, err = self.store.Apply(self.Ctx, event)
		if err != nil {
			self.Log.WithError(err).
				WithField("category", event.Category).
				WithField("tx_id", event.TransactionId).
				WithField("ledger_sequence", event.LedgerSequence).
				Error("Failed to apply ledger event")
			return
		}
		self.cursor.LastLedgerSequence = event.LedgerSequence
		self.monitor.Report.Indexer.State.LastLedgerSequence.Store(int64(event.LedgerSequence))
	}

	err = self.store.SaveCursor(self.Ctx, self.cursor)
	return
}

func componentFor(category ledger.EventCategory) model.SyncedComponent {
	switch category {
	case ledger.EventCertificateMinted:
		return model.SyncedComponentCertificates
	case ledger.EventClaimRaised:
		return model.SyncedComponentClaims
	case ledger.EventAccessGranted:
		return model.SyncedComponentAccesses
	default:
		return model.SyncedComponentTrustScores
	}
}
