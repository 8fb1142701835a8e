package config

import (
	"time"

	"github.com/spf13/viper"
)

type Enclave struct {
	// Trust oracle endpoint
	OracleUrl string

	// API key sent with attestation requests
	ApiKey string

	// Hex encoded ed25519 public key registered for the enclave.
	// Proofs signed by any other key are rejected.
	PublicKey string

	// Expected PCR/measurement values. When non-empty, a proof whose
	// measurement set differs is rejected.
	ExpectedMeasurements []string

	// Timeout for the attestation request
	RequestTimeout time.Duration

	// How long a successful attestation is reused before a fresh one
	// is requested
	CacheTtl time.Duration
}

func setEnclaveDefaults() {
	viper.SetDefault("Enclave.OracleUrl", "")
	viper.SetDefault("Enclave.ApiKey", "")
	viper.SetDefault("Enclave.PublicKey", "")
	viper.SetDefault("Enclave.ExpectedMeasurements", "")
	viper.SetDefault("Enclave.RequestTimeout", "20s")
	viper.SetDefault("Enclave.CacheTtl", "10m")
}
