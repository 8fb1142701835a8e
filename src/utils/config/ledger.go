package config

import (
	"time"

	"github.com/spf13/viper"
)

type Ledger struct {
	// Ledger RPC endpoint
	RpcUrl string

	// Hex encoded ed25519 private key used to sign transactions.
	// Empty key switches the client into simulated mode.
	SignerKey string

	// On-chain registry object holding certificates
	RegistryObjectId string

	// Capability object allowing access grants to be recorded
	AccessRecorderCapId string

	// Capability object allowing trust score writes
	OracleCapId string

	// Timeout for a single RPC call
	RequestTimeout time.Duration

	// Max time failed submissions are retried before a degraded
	// receipt is returned
	SubmitMaxElapsedTime time.Duration

	// Max time between submission retries
	SubmitMaxInterval time.Duration
}

func setLedgerDefaults() {
	viper.SetDefault("Ledger.RpcUrl", "")
	viper.SetDefault("Ledger.SignerKey", "")
	viper.SetDefault("Ledger.RegistryObjectId", "")
	viper.SetDefault("Ledger.AccessRecorderCapId", "")
	viper.SetDefault("Ledger.OracleCapId", "")
	viper.SetDefault("Ledger.RequestTimeout", "30s")
	viper.SetDefault("Ledger.SubmitMaxElapsedTime", "1m")
	viper.SetDefault("Ledger.SubmitMaxInterval", "10s")
}
