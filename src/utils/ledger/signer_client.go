package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/build_info"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// signerClient signs canonical transaction bytes with the deployment's
// ed25519 key and submits them over the ledger RPC
type signerClient struct {
	config *config.Config
	log    *logrus.Entry
	client *resty.Client

	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

func newSignerClient(config *config.Config) (self *signerClient, err error) {
	self = new(signerClient)
	self.config = config
	self.log = logger.NewSublogger("ledger")

	raw, err := hex.DecodeString(blobstore.NormalizeHex(config.Ledger.SignerKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadSignerKey, err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		self.privateKey = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		self.privateKey = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("%w: key has %d bytes", ErrBadSignerKey, len(raw))
	}
	self.publicKey = self.privateKey.Public().(ed25519.PublicKey)

	self.client = resty.New().
		SetHeader("User-Agent", "datacert/"+build_info.Version).
		SetTimeout(config.Ledger.RequestTimeout).
		SetBaseURL(strings.TrimSuffix(config.Ledger.RpcUrl, "/"))

	return
}

func (self *signerClient) IsSimulated() bool {
	return false
}

// SignTransaction returns the canonical bytes and detached signature
// for the transaction. Exposed for tests.
func (self *signerClient) SignTransaction(tx *Transaction) (canonical []byte, signature string, err error) {
	canonical, err = json.Marshal(tx)
	if err != nil {
		return
	}
	signature = hex.EncodeToString(ed25519.Sign(self.privateKey, canonical))
	return
}

func (self *signerClient) Submit(ctx context.Context, tx *Transaction) (receipt *TransactionReceipt, err error) {
	canonical, signature, err := self.SignTransaction(tx)
	if err != nil {
		return
	}

	body := map[string]interface{}{
		"transaction": json.RawMessage(canonical),
		"signature":   signature,
		"public_key":  hex.EncodeToString(self.publicKey),
	}

	var result struct {
		TransactionId  string `json:"transaction_id"`
		LedgerSequence uint64 `json:"ledger_sequence"`
	}

	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/v1/transactions")
	if err != nil {
		return
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("ledger rejected %s: status %d: %s", tx.Action, resp.StatusCode(), resp.String())
	}

	receipt = &TransactionReceipt{
		TransactionId:  result.TransactionId,
		LedgerSequence: result.LedgerSequence,
		Anchored:       true,
		Action:         tx.Action,
	}
	return
}

func (self *signerClient) GetEvents(ctx context.Context, category EventCategory, afterSequence uint64, limit int) (events []Event, err error) {
	resp, err := self.client.R().
		SetContext(ctx).
		SetQueryParam("category", string(category)).
		SetQueryParam("after", fmt.Sprintf("%d", afterSequence)).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&events).
		Get("/v1/events")
	if err != nil {
		return
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch %s events: status %d", category, resp.StatusCode())
	}
	return
}
