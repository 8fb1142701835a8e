package ledger

import (
	"context"

	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/logger"
)

// Client submits signed transactions and exposes the event streams.
// Two implementations exist: a signer backed one and a simulated one
// for deployments without credentials. The choice happens once at
// startup, call sites never branch on it.
type Client interface {
	// Submit signs and sends one transaction
	Submit(ctx context.Context, tx *Transaction) (receipt *TransactionReceipt, err error)

	// GetEvents returns events of one category after the cursor,
	// ascending by ledger sequence, at most limit entries
	GetEvents(ctx context.Context, category EventCategory, afterSequence uint64, limit int) (events []Event, err error)

	// IsSimulated tells whether receipts from this client anchor anything
	IsSimulated() bool
}

// NewClient picks the implementation based on the configured
// credentials
func NewClient(config *config.Config) (self Client, err error) {
	log := logger.NewSublogger("ledger")

	if config.Ledger.SignerKey == "" || config.Ledger.RpcUrl == "" {
		log.Warn("Ledger signer key or RPC url not set, using simulated client")
		return newSimulatedClient(config), nil
	}

	return newSignerClient(config)
}
