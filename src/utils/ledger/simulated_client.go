package ledger

import (
	"context"
	"sync"

	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// simulatedClient is the no-op implementation used when no signer
// credentials are configured. Every receipt is clearly labeled as
// simulated so downstream flows can mark facts as not yet anchored.
type simulatedClient struct {
	config *config.Config
	log    *logrus.Entry

	mtx      sync.Mutex
	sequence uint64
}

func newSimulatedClient(config *config.Config) (self *simulatedClient) {
	self = new(simulatedClient)
	self.config = config
	self.log = logger.NewSublogger("ledger-simulated")
	return
}

func (self *simulatedClient) IsSimulated() bool {
	return true
}

func (self *simulatedClient) Submit(ctx context.Context, tx *Transaction) (receipt *TransactionReceipt, err error) {
	self.mtx.Lock()
	self.sequence++
	sequence := self.sequence
	self.mtx.Unlock()

	receipt = &TransactionReceipt{
		TransactionId:  "sim-" + xid.New().String(),
		LedgerSequence: sequence,
		Anchored:       false,
		Simulated:      true,
		Action:         tx.Action,
	}

	self.log.WithField("action", tx.Action).
		WithField("dataset_id", tx.DatasetId).
		Debug("Simulated transaction")
	return
}

func (self *simulatedClient) GetEvents(ctx context.Context, category EventCategory, afterSequence uint64, limit int) (events []Event, err error) {
	// Simulated ledger emits nothing
	return nil, nil
}
