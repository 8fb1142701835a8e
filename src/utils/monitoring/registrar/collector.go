package monitor_registrar

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	RegistrationFailures *prometheus.Desc
	AttestationFailures  *prometheus.Desc
	AccessRejections     *prometheus.Desc
	NotifyFailures       *prometheus.Desc

	// State
	DatasetsRegistered   *prometheus.Desc
	ClaimsFiled          *prometheus.Desc
	AccessesGranted      *prometheus.Desc
	ScoresComputed       *prometheus.Desc
	AttestationsVerified *prometheus.Desc
	SimulatedReceipts    *prometheus.Desc
	IntegrityLatencyMs   *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		RegistrationFailures: prometheus.NewDesc("registrar_registration_failures", "", nil, nil),
		AttestationFailures:  prometheus.NewDesc("registrar_attestation_failures", "", nil, nil),
		AccessRejections:     prometheus.NewDesc("registrar_access_rejections", "", nil, nil),
		NotifyFailures:       prometheus.NewDesc("registrar_notify_failures", "", nil, nil),

		// State
		DatasetsRegistered:   prometheus.NewDesc("registrar_datasets_registered", "", nil, nil),
		ClaimsFiled:          prometheus.NewDesc("registrar_claims_filed", "", nil, nil),
		AccessesGranted:      prometheus.NewDesc("registrar_accesses_granted", "", nil, nil),
		ScoresComputed:       prometheus.NewDesc("registrar_scores_computed", "", nil, nil),
		AttestationsVerified: prometheus.NewDesc("registrar_attestations_verified", "", nil, nil),
		SimulatedReceipts:    prometheus.NewDesc("registrar_simulated_receipts", "", nil, nil),
		IntegrityLatencyMs:   prometheus.NewDesc("registrar_integrity_latency_ms", "", nil, nil),
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
	ch <- self.RegistrationFailures
	ch <- self.AttestationFailures
	ch <- self.AccessRejections
	ch <- self.NotifyFailures

	// State
	ch <- self.DatasetsRegistered
	ch <- self.ClaimsFiled
	ch <- self.AccessesGranted
	ch <- self.ScoresComputed
	ch <- self.AttestationsVerified
	ch <- self.SimulatedReceipts
	ch <- self.IntegrityLatencyMs
}

// Collect implements required collect function for all prometheus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.RegistrationFailures, prometheus.CounterValue, float64(self.monitor.Report.Registrar.Errors.RegistrationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.AttestationFailures, prometheus.CounterValue, float64(self.monitor.Report.Registrar.Errors.AttestationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.AccessRejections, prometheus.CounterValue, float64(self.monitor.Report.Registrar.Errors.AccessRejections.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotifyFailures, prometheus.CounterValue, float64(self.monitor.Report.Registrar.Errors.NotifyFailures.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.DatasetsRegistered, prometheus.CounterValue, float64(self.monitor.Report.Registrar.State.DatasetsRegistered.Load()))
	ch <- prometheus.MustNewConstMetric(self.ClaimsFiled, prometheus.CounterValue, float64(self.monitor.Report.Registrar.State.ClaimsFiled.Load()))
	ch <- prometheus.MustNewConstMetric(self.AccessesGranted, prometheus.CounterValue, float64(self.monitor.Report.Registrar.State.AccessesGranted.Load()))
	ch <- prometheus.MustNewConstMetric(self.ScoresComputed, prometheus.CounterValue, float64(self.monitor.Report.Registrar.State.ScoresComputed.Load()))
	ch <- prometheus.MustNewConstMetric(self.AttestationsVerified, prometheus.CounterValue, float64(self.monitor.Report.Registrar.State.AttestationsVerified.Load()))
	ch <- prometheus.MustNewConstMetric(self.SimulatedReceipts, prometheus.CounterValue, float64(self.monitor.Report.Registrar.State.SimulatedReceipts.Load()))
	ch <- prometheus.MustNewConstMetric(self.IntegrityLatencyMs, prometheus.GaugeValue, float64(self.monitor.Report.Registrar.State.IntegrityLatencyMs.Load()))
}
