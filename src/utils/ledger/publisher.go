package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/enclave"
	"github.com/ducnmm/datacert/src/utils/logger"
	"github.com/ducnmm/datacert/src/utils/model"
	"github.com/ducnmm/datacert/src/utils/task"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Publisher owns the capability tokens and is the only component
// that performs privileged ledger writes. Submissions are retried
// with backoff; a submission that still fails becomes a degraded
// receipt so the surrounding workflow can finish with an explicit
// "not yet anchored" status.
type Publisher struct {
	config *config.Config
	log    *logrus.Entry
	client Client

	sender string

	accessCap *Capability
	oracleCap *Capability
}

func NewPublisher(config *config.Config, client Client) (self *Publisher) {
	self = new(Publisher)
	self.config = config
	self.log = logger.NewSublogger("publisher")
	self.client = client
	self.sender = config.Ledger.RegistryObjectId

	self.accessCap = newCapability(capabilityAccessRecorder, config.Ledger.AccessRecorderCapId)
	self.oracleCap = newCapability(capabilityOracle, config.Ledger.OracleCapId)

	return
}

type MintInput struct {
	DatasetId       string
	Owner           string
	BlobLocator     string
	DigestPrimary   string
	DigestSecondary string
	License         string
	PolicyType      model.AccessPolicyType
	MinStake        int64
}

type AccessInput struct {
	DatasetId     string
	Requester     string
	Purpose       string
	Stake         int64
	Price         int64
	MinStake      int64
	PolicyType    model.AccessPolicyType
	AllowedTokens []string
	HolderToken   string
}

type ClaimInput struct {
	DatasetId string
	Author    string
	Role      model.ClaimRole
	Severity  model.ClaimSeverity
	Statement string
}

// MintCertificate anchors a new dataset certificate
func (self *Publisher) MintCertificate(ctx context.Context, input MintInput) (receipt *TransactionReceipt) {
	return self.submit(ctx, &Transaction{
		Action:    ActionMintCertificate,
		DatasetId: input.DatasetId,
		Sender:    self.sender,
		Payload: &CertificatePayload{
			CertificateId:   "cert-" + input.DatasetId,
			Owner:           input.Owner,
			BlobLocator:     input.BlobLocator,
			DigestPrimary:   input.DigestPrimary,
			DigestSecondary: input.DigestSecondary,
			License:         input.License,
			PolicyType:      string(input.PolicyType),
			MinStake:        input.MinStake,
		},
	})
}

// RecordAccess validates the access policy off-chain first (fast
// fail), then anchors the grant. The ledger repeats the stake check
// authoritatively, the off-chain copy only exists for UX and must
// never be weaker.
func (self *Publisher) RecordAccess(ctx context.Context, input AccessInput) (receipt *TransactionReceipt, err error) {
	err = ValidateAccess(input)
	if err != nil {
		// Rejected before any ledger write is attempted
		return nil, err
	}

	if !self.accessCap.held() {
		return self.simulated(ActionRecordAccess, input.DatasetId, "access recorder capability not held"), nil
	}

	receipt = self.submit(ctx, &Transaction{
		Action:        ActionRecordAccess,
		DatasetId:     input.DatasetId,
		Sender:        self.sender,
		CapabilityRef: self.accessCap.ref(),
		Payload: &AccessPayload{
			Requester: input.Requester,
			Purpose:   input.Purpose,
			Stake:     input.Stake,
			MinStake:  input.MinStake,
			Price:     input.Price,
		},
	})
	return
}

// FileClaim anchors the tamper evident part of a claim
func (self *Publisher) FileClaim(ctx context.Context, input ClaimInput) (receipt *TransactionReceipt) {
	digest := sha256.Sum256([]byte(input.Statement))

	return self.submit(ctx, &Transaction{
		Action:    ActionFileClaim,
		DatasetId: input.DatasetId,
		Sender:    self.sender,
		Payload: &ClaimPayload{
			Author:          input.Author,
			Role:            string(input.Role),
			Severity:        input.Severity,
			StatementDigest: hex.EncodeToString(digest[:]),
		},
	})
}

// UpdateTrustScore anchors a plain score snapshot
func (self *Publisher) UpdateTrustScore(ctx context.Context, score *trust.Score) (receipt *TransactionReceipt) {
	return self.updateScore(ctx, score, nil)
}

// UpdateTrustScoreWithProof anchors a score snapshot together with
// the validated enclave proof
func (self *Publisher) UpdateTrustScoreWithProof(ctx context.Context, score *trust.Score, proof *enclave.Proof) (receipt *TransactionReceipt) {
	return self.updateScore(ctx, score, proof)
}

func (self *Publisher) updateScore(ctx context.Context, score *trust.Score, proof *enclave.Proof) (receipt *TransactionReceipt) {
	if !self.oracleCap.held() {
		return self.simulated(ActionUpdateTrustScore, score.DatasetId, "oracle capability not held")
	}

	payload := &ScorePayload{
		Total:             score.Total,
		Provenance:        score.Provenance,
		Integrity:         score.Integrity,
		Audit:             score.Audit,
		Usage:             score.Usage,
		VerifiedByEnclave: score.VerifiedByEnclave,
	}
	if proof != nil {
		serialized, err := json.Marshal(proof)
		if err == nil {
			payload.EnclaveProof = string(serialized)
		}
	}

	return self.submit(ctx, &Transaction{
		Action:        ActionUpdateTrustScore,
		DatasetId:     score.DatasetId,
		Sender:        self.sender,
		CapabilityRef: self.oracleCap.ref(),
		Payload:       payload,
	})
}

// ValidateAccess is the off-chain policy gate. Exposed so the API
// layer can fast-fail without constructing a publisher.
func ValidateAccess(input AccessInput) (err error) {
	switch input.PolicyType {
	case model.AccessPolicyStakeGated:
		if input.Stake < input.MinStake {
			return ErrInsufficientStake
		}
	case model.AccessPolicyTokenGated:
		for _, token := range input.AllowedTokens {
			if token == input.HolderToken {
				return nil
			}
		}
		return ErrTokenNotAllowed
	}
	return nil
}

// submit sends the transaction, retrying transient faults. On final
// failure it returns a degraded receipt and logs enough context to
// retry out-of-band. It never panics the workflow with a raw
// transport error.
func (self *Publisher) submit(ctx context.Context, tx *Transaction) (receipt *TransactionReceipt) {
	tx.Nonce = xid.New().String()
	tx.TimestampMs = uint64(time.Now().UnixMilli())

	err := task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.Ledger.SubmitMaxElapsedTime).
		WithMaxInterval(self.config.Ledger.SubmitMaxInterval).
		WithOnError(func(err error) error {
			self.log.WithError(err).
				WithField("action", tx.Action).
				WithField("dataset_id", tx.DatasetId).
				Warn("Ledger submission failed, retrying")
			return err
		}).
		Run(func() (err error) {
			receipt, err = self.client.Submit(ctx, tx)
			return
		})
	if err != nil {
		self.log.WithError(err).
			WithField("action", tx.Action).
			WithField("dataset_id", tx.DatasetId).
			Error("Ledger submission failed, returning degraded receipt")
		return self.simulated(tx.Action, tx.DatasetId, err.Error())
	}

	return receipt
}

func (self *Publisher) simulated(action, datasetId, reason string) *TransactionReceipt {
	return &TransactionReceipt{
		TransactionId: "sim-" + xid.New().String(),
		Anchored:      false,
		Simulated:     true,
		Action:        action,
		Error:         reason,
	}
}
