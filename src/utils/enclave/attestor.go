package enclave

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/build_info"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/go-resty/resty/v2"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// BlobRef identifies the blob the oracle should verify
type BlobRef struct {
	Locator        string
	ExpectedDigest string
	Gateway        string
}

// Attestor forwards verification requests to the remote trusted
// execution oracle and validates the returned proof before anyone
// gets to treat it as evidence.
type Attestor struct {
	config *config.Config
	log    *logrus.Entry
	client *resty.Client

	publicKey ed25519.PublicKey

	// Validated proofs by dataset id, refreshed on every new
	// attestation, expired by TTL otherwise
	proofs *cache.Cache
}

func NewAttestor(config *config.Config) (self *Attestor, err error) {
	self = new(Attestor)
	self.config = config
	self.log = logger.NewSublogger("enclave")
	self.proofs = cache.New(config.Enclave.CacheTtl, 2*config.Enclave.CacheTtl)

	self.client = resty.New().
		SetHeader("User-Agent", "datacert/"+build_info.Version).
		SetTimeout(config.Enclave.RequestTimeout)

	if config.Enclave.PublicKey != "" {
		var raw []byte
		raw, err = hex.DecodeString(blobstore.NormalizeHex(config.Enclave.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to decode enclave public key: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("enclave public key has %d bytes, want %d", len(raw), ed25519.PublicKeySize)
		}
		self.publicKey = ed25519.PublicKey(raw)
	}

	return
}

// CachedProof returns the last validated proof for the dataset, if any
func (self *Attestor) CachedProof(datasetId string) (proof *Proof, ok bool) {
	cached, ok := self.proofs.Get(datasetId)
	if !ok {
		return nil, false
	}
	return cached.(*Proof), true
}

// RequestAttestation asks the oracle to verify the blob and validates
// the returned proof. This is an explicit user-triggered action, so
// network failures propagate to the caller instead of degrading.
func (self *Attestor) RequestAttestation(ctx context.Context, datasetId string, ref BlobRef) (proof *Proof, err error) {
	request := attestationRequest{}
	request.Payload.BlobId = ref.Locator
	request.Payload.ExpectedSha256 = blobstore.NormalizeHex(ref.ExpectedDigest)
	request.Payload.Gateway = strings.TrimSuffix(ref.Gateway, "/")

	var envelope signedResponse
	resp, err := self.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", self.config.Enclave.ApiKey).
		SetBody(&request).
		SetResult(&envelope).
		Post(strings.TrimSuffix(self.config.Enclave.OracleUrl, "/") + "/process_data")
	if err != nil {
		self.log.WithError(err).
			WithField("dataset_id", datasetId).
			Error("Attestation request failed")
		return
	}
	if !resp.IsSuccess() {
		self.log.WithField("status", resp.StatusCode()).
			WithField("dataset_id", datasetId).
			Error("Trust oracle returned non-success status")
		return nil, fmt.Errorf("%w: status %d", ErrOracleRejected, resp.StatusCode())
	}

	proof, err = self.validate(datasetId, &envelope)
	if err != nil {
		// Hard security failure, nothing is merged
		self.log.WithError(err).
			WithField("dataset_id", datasetId).
			Error("Rejecting enclave proof")
		return nil, err
	}

	// New attestation replaces whatever was cached
	self.proofs.Set(datasetId, proof, cache.DefaultExpiration)

	self.log.WithFields(logrus.Fields{
		"dataset_id": datasetId,
		"blob_id":    proof.BlobId,
		"verified":   proof.Verified,
	}).Info("Enclave proof validated")

	return
}

// validate verifies the detached signature over the exact envelope
// bytes and only then looks at the parsed fields
func (self *Attestor) validate(datasetId string, envelope *signedResponse) (proof *Proof, err error) {
	err = VerifyEnvelope(self.publicKey, envelope.Response, envelope.Signature)
	if err != nil {
		return
	}

	var intent intentMessage
	err = json.Unmarshal(envelope.Response, &intent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse intent envelope: %w", err)
	}

	if intent.Intent != IntentScopeProcessData {
		return nil, fmt.Errorf("unexpected intent scope %d", intent.Intent)
	}

	err = self.checkMeasurements(intent.Data.Measurements)
	if err != nil {
		return
	}

	proof = &Proof{
		DatasetId:      datasetId,
		BlobId:         intent.Data.BlobId,
		ExpectedDigest: intent.Data.ExpectedSha256,
		ComputedDigest: intent.Data.ComputedSha256,
		Verified:       intent.Data.Verified,
		BlobSize:       intent.Data.BlobSize,
		Gateway:        intent.Data.Gateway,
		TimestampMs:    intent.TimestampMs,
		Signature:      envelope.Signature,
		Envelope:       envelope.Response,
	}
	return
}

// checkMeasurements compares the reported PCR set against the
// configured one. An empty expected set disables the check.
func (self *Attestor) checkMeasurements(reported []string) (err error) {
	expected := self.config.Enclave.ExpectedMeasurements
	if len(expected) == 0 {
		return nil
	}
	if len(reported) != len(expected) {
		return ErrMeasurementMismatch
	}

	a := make([]string, len(expected))
	b := make([]string, len(reported))
	for i := range expected {
		a[i] = blobstore.NormalizeHex(expected[i])
	}
	for i := range reported {
		b[i] = blobstore.NormalizeHex(reported[i])
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return ErrMeasurementMismatch
		}
	}
	return nil
}

// VerifyEnvelope checks the hex signature over the raw envelope bytes.
// Verification happens against the serialized envelope, never against
// re-encoded parsed fields.
func VerifyEnvelope(publicKey ed25519.PublicKey, envelope []byte, signature string) (err error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return ErrNoPublicKey
	}

	raw, err := hex.DecodeString(blobstore.NormalizeHex(signature))
	if err != nil {
		return fmt.Errorf("%w: malformed signature hex", ErrSignatureMismatch)
	}

	if !ed25519.Verify(publicKey, envelope, raw) {
		return ErrSignatureMismatch
	}
	return nil
}

// Merge forces the integrity checks true wherever the proof attests
// verified. Proofs that did not verify contribute nothing.
func (proof *Proof) Merge(base *trust.Checks) (checks *trust.Checks, verifiedByEnclave bool) {
	checks = &trust.Checks{}
	if base != nil {
		*checks = *base
	}
	if proof == nil || !proof.Verified {
		return checks, false
	}

	checks.PrimaryMatch = true
	checks.SecondaryMatch = true
	return checks, true
}
