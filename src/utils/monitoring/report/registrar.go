package report

import "go.uber.org/atomic"

type RegistrarErrors struct {
	RegistrationFailures atomic.Uint64 `json:"registration_failures"`
	AttestationFailures  atomic.Uint64 `json:"attestation_failures"`
	AccessRejections     atomic.Uint64 `json:"access_rejections"`
	NotifyFailures       atomic.Uint64 `json:"notify_failures"`
}

type RegistrarState struct {
	DatasetsRegistered   atomic.Int64 `json:"datasets_registered"`
	ClaimsFiled          atomic.Int64 `json:"claims_filed"`
	AccessesGranted      atomic.Int64 `json:"accesses_granted"`
	ScoresComputed       atomic.Int64 `json:"scores_computed"`
	AttestationsVerified atomic.Int64 `json:"attestations_verified"`
	SimulatedReceipts    atomic.Int64 `json:"simulated_receipts"`
	IntegrityLatencyMs   atomic.Int64 `json:"integrity_latency_ms"`
}

type RegistrarReport struct {
	State  RegistrarState  `json:"state"`
	Errors RegistrarErrors `json:"errors"`
}
