package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/build_info"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// CheckResult is the outcome of one integrity verification.
// Verification failure is data, not an error: a download fault
// produces an all-false result and the scorer still runs.
type CheckResult struct {
	PrimaryMatch   bool `json:"primary_match"`
	SecondaryMatch bool `json:"secondary_match"`
	RootValid      bool `json:"root_valid"`

	// Set when no root probe answered and RootValid was derived
	// from the root value being non-empty. Lets callers tell
	// "actively verified" apart from "assumed valid".
	RootAssumed bool `json:"root_assumed"`

	ComputedPrimary   string        `json:"computed_primary"`
	ComputedSecondary string        `json:"computed_secondary"`
	BlobSize          int64         `json:"blob_size"`
	Latency           time.Duration `json:"latency"`
}

// Checks converts the result into the scorer's input triple
func (self *CheckResult) Checks() *trust.Checks {
	if self == nil {
		return nil
	}
	return &trust.Checks{
		PrimaryMatch:   self.PrimaryMatch,
		SecondaryMatch: self.SecondaryMatch,
		RootValid:      self.RootValid,
	}
}

// Verifier downloads the stored blob, recomputes both digests and
// probes the configured integrity root endpoints
type Verifier struct {
	config *config.Config
	log    *logrus.Entry
	blobs  *blobstore.Client
	client *resty.Client
}

func NewVerifier(config *config.Config) (self *Verifier) {
	self = new(Verifier)
	self.config = config
	self.log = logger.NewSublogger("integrity")
	self.client = resty.New().
		SetHeader("User-Agent", "datacert/"+build_info.Version).
		SetTimeout(config.Integrity.RootProbeTimeout)
	return
}

func (self *Verifier) WithBlobstore(blobs *blobstore.Client) *Verifier {
	self.blobs = blobs
	return self
}

// Evidence is what the verifier needs to know about the dataset
type Evidence struct {
	DatasetId       string
	BlobLocator     string
	DigestPrimary   string
	DigestSecondary string
	IntegrityRoot   string
}

// Verify never returns an error. Any network fault yields a result
// with all checks false so the caller can still produce a score.
func (self *Verifier) Verify(ctx context.Context, ev Evidence) (result CheckResult) {
	start := time.Now()
	defer func() {
		result.Latency = time.Since(start)
		self.log.WithFields(logrus.Fields{
			"dataset_id":      ev.DatasetId,
			"primary_match":   result.PrimaryMatch,
			"secondary_match": result.SecondaryMatch,
			"root_valid":      result.RootValid,
			"root_assumed":    result.RootAssumed,
			"latency":         result.Latency.String(),
		}).Info("Integrity verification finished")
	}()

	verifyCtx, cancel := context.WithTimeout(ctx, self.config.Integrity.Timeout)
	defer cancel()

	data, err := self.blobs.Read(verifyCtx, ev.BlobLocator)
	if err != nil {
		self.log.WithError(err).
			WithField("dataset_id", ev.DatasetId).
			WithField("locator", ev.BlobLocator).
			Error("Blob download failed, reporting all checks failed")
		return
	}

	result.BlobSize = int64(len(data))
	result.ComputedPrimary = blobstore.PrimaryDigest(data)
	result.ComputedSecondary = blobstore.SecondaryDigest(data)

	result.PrimaryMatch = ev.DigestPrimary != "" &&
		blobstore.NormalizeHex(ev.DigestPrimary) == result.ComputedPrimary
	result.SecondaryMatch = ev.DigestSecondary != "" &&
		blobstore.NormalizeHex(ev.DigestSecondary) == result.ComputedSecondary

	result.RootValid, result.RootAssumed = self.verifyRoot(verifyCtx, ev)

	return
}

// Probes root lookup endpoints in order, first success wins.
// When every probe fails at the network level the root is assumed
// valid if non-empty, a degraded confidence path rather than a
// verification failure.
func (self *Verifier) verifyRoot(ctx context.Context, ev Evidence) (valid bool, assumed bool) {
	if ev.IntegrityRoot == "" {
		return false, false
	}

	for _, probeUrl := range self.config.Integrity.RootProbeUrls {
		if probeUrl == "" {
			continue
		}

		var probed struct {
			Root string `json:"root"`
		}
		resp, err := self.client.R().
			SetContext(ctx).
			SetResult(&probed).
			Get(fmt.Sprintf("%s/%s", probeUrl, ev.DatasetId))
		if err != nil {
			self.log.WithError(err).
				WithField("probe", probeUrl).
				Debug("Root probe unreachable, trying next")
			continue
		}
		if !resp.IsSuccess() {
			self.log.WithField("probe", probeUrl).
				WithField("status", resp.StatusCode()).
				Debug("Root probe rejected, trying next")
			continue
		}

		return blobstore.NormalizeHex(probed.Root) == blobstore.NormalizeHex(ev.IntegrityRoot), false
	}

	// All probes failed network-level
	return true, true
}
