package monitor_indexer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	PollFailures        *prometheus.Desc
	ApplyFailures       *prometheus.Desc
	CursorSaveFailures  *prometheus.Desc
	PlaceholderFailures *prometheus.Desc

	// State
	EventsPolled           *prometheus.Desc
	EventsApplied          *prometheus.Desc
	EventsSkippedDuplicate *prometheus.Desc
	PlaceholdersCreated    *prometheus.Desc
	LastLedgerSequence     *prometheus.Desc
	BackfillsFinished      *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		PollFailures:        prometheus.NewDesc("indexer_poll_failures", "", nil, nil),
		ApplyFailures:       prometheus.NewDesc("indexer_apply_failures", "", nil, nil),
		CursorSaveFailures:  prometheus.NewDesc("indexer_cursor_save_failures", "", nil, nil),
		PlaceholderFailures: prometheus.NewDesc("indexer_placeholder_failures", "", nil, nil),

		// State
		EventsPolled:           prometheus.NewDesc("indexer_events_polled", "", nil, nil),
		EventsApplied:          prometheus.NewDesc("indexer_events_applied", "", nil, nil),
		EventsSkippedDuplicate: prometheus.NewDesc("indexer_events_skipped_duplicate", "", nil, nil),
		PlaceholdersCreated:    prometheus.NewDesc("indexer_placeholders_created", "", nil, nil),
		LastLedgerSequence:     prometheus.NewDesc("indexer_last_ledger_sequence", "", nil, nil),
		BackfillsFinished:      prometheus.NewDesc("indexer_backfills_finished", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Errors
	ch <- self.PollFailures
	ch <- self.ApplyFailures
	ch <- self.CursorSaveFailures
	ch <- self.PlaceholderFailures

	// State
	ch <- self.EventsPolled
	ch <- self.EventsApplied
	ch <- self.EventsSkippedDuplicate
	ch <- self.PlaceholdersCreated
	ch <- self.LastLedgerSequence
	ch <- self.BackfillsFinished
}

// Collect implements required collect function for all prometheus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.PollFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.PollFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ApplyFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.ApplyFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CursorSaveFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.CursorSaveFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlaceholderFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.PlaceholderFailures.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.EventsPolled, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.EventsPolled.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsApplied, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.EventsApplied.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsSkippedDuplicate, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.EventsSkippedDuplicate.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlaceholdersCreated, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.PlaceholdersCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastLedgerSequence, prometheus.GaugeValue, float64(self.monitor.Report.Indexer.State.LastLedgerSequence.Load()))
	ch <- prometheus.MustNewConstMetric(self.BackfillsFinished, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.BackfillsFinished.Load()))
}
