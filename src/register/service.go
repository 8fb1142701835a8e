package register

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ducnmm/datacert/src/register/request"
	"github.com/ducnmm/datacert/src/register/response"
	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/enclave"
	"github.com/ducnmm/datacert/src/utils/integrity"
	"github.com/ducnmm/datacert/src/utils/ledger"
	"github.com/ducnmm/datacert/src/utils/logger"
	"github.com/ducnmm/datacert/src/utils/model"
	monitor_registrar "github.com/ducnmm/datacert/src/utils/monitoring/registrar"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrBadTransition   = errors.New("status transition not allowed")
)

// Service implements the registration and scoring workflows on top
// of the projection, the blob store and the ledger publisher
type Service struct {
	config    *config.Config
	log       *logrus.Entry
	db        *gorm.DB
	blobs     *blobstore.Client
	verifier  *integrity.Verifier
	attestor  *enclave.Attestor
	publisher *ledger.Publisher
	notifier  *Notifier
	monitor   *monitor_registrar.Monitor
}

func NewService(config *config.Config) (self *Service) {
	self = new(Service)
	self.config = config
	self.log = logger.NewSublogger("register")
	return
}

func (self *Service) WithDB(db *gorm.DB) *Service {
	self.db = db
	return self
}

func (self *Service) WithBlobstore(blobs *blobstore.Client) *Service {
	self.blobs = blobs
	return self
}

func (self *Service) WithVerifier(verifier *integrity.Verifier) *Service {
	self.verifier = verifier
	return self
}

func (self *Service) WithAttestor(attestor *enclave.Attestor) *Service {
	self.attestor = attestor
	return self
}

func (self *Service) WithPublisher(publisher *ledger.Publisher) *Service {
	self.publisher = publisher
	return self
}

func (self *Service) WithNotifier(notifier *Notifier) *Service {
	self.notifier = notifier
	return self
}

func (self *Service) WithMonitor(monitor *monitor_registrar.Monitor) *Service {
	self.monitor = monitor
	return self
}

// RegisterDataset stores the blob, mints the certificate and produces
// the first score snapshot. A failed mint degrades to a simulated
// receipt, the dataset stays pending until the fact is anchored.
func (self *Service) RegisterDataset(ctx context.Context, in *request.RegisterDataset) (out *response.RegisterDataset, err error) {
	datasetId := xid.New().String()

	stored, err := self.blobs.Store(ctx, in.Data)
	if err != nil {
		self.monitor.Report.Registrar.Errors.RegistrationFailures.Inc()
		return
	}

	policyType := model.AccessPolicyType(in.PolicyType)
	if policyType == "" {
		policyType = model.AccessPolicyPublic
	}

	dataset := model.Dataset{
		DatasetId:          datasetId,
		Owner:              in.Owner,
		BlobLocator:        stored.Locator,
		BlobSize:           stored.SizeBytes,
		BlobExpiry:         stored.Expiry,
		DigestPrimary:      stored.DigestPrimary,
		DigestSecondary:    stored.DigestSecondary,
		IntegrityRoot:      blobstore.NormalizeHex(in.IntegrityRoot),
		Status:             model.DatasetStatusPending,
		PolicyType:         policyType,
		MinStake:           in.MinStake,
		AllowedTokens:      in.AllowedTokens,
		LicenseDescription: in.License,
	}

	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Create(&dataset).Error
		if err != nil {
			return
		}
		return tx.Create(&model.TimelineEvent{
			DatasetId: datasetId,
			Kind:      model.TimelineEventUploaded,
			Actor:     in.Owner,
			Note:      "dataset uploaded",
		}).Error
	})
	if err != nil {
		self.monitor.Report.Registrar.Errors.RegistrationFailures.Inc()
		return
	}

	receipt, err := self.mintCertificate(ctx, &dataset)
	if err != nil {
		self.monitor.Report.Registrar.Errors.RegistrationFailures.Inc()
		return
	}

	score := self.rescore(ctx, &dataset, false, nil)

	self.monitor.Report.Registrar.State.DatasetsRegistered.Inc()

	out = &response.RegisterDataset{
		DatasetId:       datasetId,
		CertificateId:   dataset.CertificateId,
		BlobLocator:     stored.Locator,
		BlobMock:        stored.Mock,
		DigestPrimary:   stored.DigestPrimary,
		DigestSecondary: stored.DigestSecondary,
		Status:          string(dataset.Status),
		Receipt:         receipt,
		Score:           score,
	}
	return
}

func (self *Service) mintCertificate(ctx context.Context, dataset *model.Dataset) (receipt *ledger.TransactionReceipt, err error) {
	receipt = self.publisher.MintCertificate(ctx, ledger.MintInput{
		DatasetId:       dataset.DatasetId,
		Owner:           dataset.Owner,
		BlobLocator:     dataset.BlobLocator,
		DigestPrimary:   dataset.DigestPrimary,
		DigestSecondary: dataset.DigestSecondary,
		License:         dataset.LicenseDescription,
		PolicyType:      dataset.PolicyType,
		MinStake:        dataset.MinStake,
	})
	if receipt.Simulated {
		self.monitor.Report.Registrar.State.SimulatedReceipts.Inc()
		// Stays pending, the indexer certifies it once the
		// out-of-band retry anchors the mint
		return
	}

	dataset.CertificateId = "cert-" + dataset.DatasetId
	dataset.Status = model.DatasetStatusCertified

	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Model(&model.Dataset{}).
			Where("dataset_id = ?", dataset.DatasetId).
			Updates(map[string]interface{}{
				"certificate_id": dataset.CertificateId,
				"status":         dataset.Status,
			}).Error
		if err != nil {
			return
		}
		return tx.Create(&model.TimelineEvent{
			DatasetId:     dataset.DatasetId,
			Kind:          model.TimelineEventMinted,
			Actor:         dataset.Owner,
			Note:          "certificate minted on ledger",
			TransactionId: receipt.TransactionId,
		}).Error
	})
	return
}

// FileClaim stores the full claim off-chain and anchors its digest
func (self *Service) FileClaim(ctx context.Context, datasetId string, in *request.FileClaim) (out *response.FileClaim, err error) {
	dataset, err := self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	receipt := self.publisher.FileClaim(ctx, ledger.ClaimInput{
		DatasetId: datasetId,
		Author:    in.Author,
		Role:      model.ClaimRole(in.Role),
		Severity:  model.ClaimSeverity(in.Severity),
		Statement: in.Statement,
	})
	if receipt.Simulated {
		self.monitor.Report.Registrar.State.SimulatedReceipts.Inc()
	}

	claim := model.Claim{
		DatasetId:   datasetId,
		Author:      in.Author,
		Role:        model.ClaimRole(in.Role),
		Severity:    model.ClaimSeverity(in.Severity),
		Statement:   in.Statement,
		EvidenceUri: sql.NullString{String: in.EvidenceUri, Valid: in.EvidenceUri != ""},
	}
	if receipt.Anchored {
		claim.TransactionId = sql.NullString{String: receipt.TransactionId, Valid: true}
	}

	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Create(&claim).Error
		if err != nil {
			return
		}
		return tx.Create(&model.TimelineEvent{
			DatasetId:     datasetId,
			Kind:          model.TimelineEventClaimed,
			Actor:         in.Author,
			Note:          "claim raised: " + model.ClaimSeverity(in.Severity).String(),
			TransactionId: receipt.TransactionId,
		}).Error
	})
	if err != nil {
		return
	}

	score := self.rescore(ctx, dataset, false, nil)

	self.monitor.Report.Registrar.State.ClaimsFiled.Inc()

	out = &response.FileClaim{
		DatasetId: datasetId,
		ClaimId:   claim.ID,
		Receipt:   receipt,
		Score:     score,
	}
	return
}

// GrantAccess checks the access policy before anything is written.
// The ledger repeats the same check authoritatively.
func (self *Service) GrantAccess(ctx context.Context, datasetId string, in *request.GrantAccess) (out *response.GrantAccess, err error) {
	dataset, err := self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	receipt, err := self.publisher.RecordAccess(ctx, ledger.AccessInput{
		DatasetId:     datasetId,
		Requester:     in.Requester,
		Purpose:       in.Purpose,
		Stake:         in.Stake,
		Price:         in.Price,
		MinStake:      dataset.MinStake,
		PolicyType:    dataset.PolicyType,
		AllowedTokens: dataset.AllowedTokens,
		HolderToken:   in.HolderToken,
	})
	if err != nil {
		// Policy rejection, nothing was written anywhere
		self.monitor.Report.Registrar.Errors.AccessRejections.Inc()
		return
	}
	if receipt.Simulated {
		self.monitor.Report.Registrar.State.SimulatedReceipts.Inc()
	}

	// The indexer applies the same grant when the event arrives,
	// the shared transaction id keeps this write and that one from
	// double counting, whichever lands first wins
	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).Create(&model.AccessRecord{
			DatasetId:     datasetId,
			Requester:     in.Requester,
			Purpose:       in.Purpose,
			Stake:         in.Stake,
			TransactionId: receipt.TransactionId,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// The indexer got here first, counters already moved
			return
		}
		err = tx.Model(&model.Dataset{}).
			Where("dataset_id = ?", datasetId).
			Updates(map[string]interface{}{
				"downloads": gorm.Expr("downloads + 1"),
				"revenue":   gorm.Expr("revenue + ?", in.Price),
			}).Error
		if err != nil {
			return
		}
		return tx.Create(&model.TimelineEvent{
			DatasetId:     datasetId,
			Kind:          model.TimelineEventAccessed,
			Actor:         in.Requester,
			Note:          "access granted",
			TransactionId: receipt.TransactionId,
		}).Error
	})
	if err != nil {
		return
	}

	self.monitor.Report.Registrar.State.AccessesGranted.Inc()

	out = &response.GrantAccess{
		DatasetId: datasetId,
		Receipt:   receipt,
	}
	return
}

// Attest asks the remote enclave oracle to verify the blob. Oracle
// failures propagate to the caller, an attestation is an explicit
// user action and must not silently degrade.
func (self *Service) Attest(ctx context.Context, datasetId string) (out *response.Attest, err error) {
	dataset, err := self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	proof, err := self.attestor.RequestAttestation(ctx, datasetId, enclave.BlobRef{
		Locator:        dataset.BlobLocator,
		ExpectedDigest: dataset.DigestPrimary,
		Gateway:        self.config.BlobStore.GatewayUrl,
	})
	if err != nil {
		self.monitor.Report.Registrar.Errors.AttestationFailures.Inc()
		return
	}

	self.monitor.Report.Registrar.State.AttestationsVerified.Inc()

	checks, verified := proof.Merge(nil)
	score := self.rescoreWithProof(ctx, dataset, verified, checks, proof)

	receipt := self.publisher.UpdateTrustScoreWithProof(ctx, score, proof)
	if receipt.Simulated {
		self.monitor.Report.Registrar.State.SimulatedReceipts.Inc()
	}

	out = &response.Attest{
		DatasetId: datasetId,
		Proof:     proof,
		Score:     score,
		Receipt:   receipt,
	}
	return
}

// Verify recomputes the digests from the stored blob and rescores.
// A failed download is a result, not an error.
func (self *Service) Verify(ctx context.Context, datasetId string) (out *response.Verify, err error) {
	dataset, err := self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	result := self.verifier.Verify(ctx, integrity.Evidence{
		DatasetId:       dataset.DatasetId,
		BlobLocator:     dataset.BlobLocator,
		DigestPrimary:   dataset.DigestPrimary,
		DigestSecondary: dataset.DigestSecondary,
		IntegrityRoot:   dataset.IntegrityRoot,
	})
	self.monitor.Report.Registrar.State.IntegrityLatencyMs.Store(result.Latency.Milliseconds())

	score := self.rescore(ctx, dataset, false, result.Checks())

	receipt := self.publisher.UpdateTrustScore(ctx, score)
	if receipt.Simulated {
		self.monitor.Report.Registrar.State.SimulatedReceipts.Inc()
	}

	out = &response.Verify{
		DatasetId: datasetId,
		Result:    result,
		Score:     score,
		Receipt:   receipt,
	}
	return
}

// SetStatus applies one of the explicit lifecycle transitions
func (self *Service) SetStatus(ctx context.Context, datasetId string, in *request.SetStatus) (out *response.SetStatus, err error) {
	dataset, err := self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	var next model.DatasetStatus
	switch in.Action {
	case "certify":
		next = model.DatasetStatusCertified
	case "dispute":
		next = model.DatasetStatusDisputed
	case "restore":
		if dataset.Status != model.DatasetStatusDisputed {
			return nil, ErrBadTransition
		}
		next = model.DatasetStatusCertified
	default:
		return nil, ErrBadTransition
	}

	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Model(&model.Dataset{}).
			Where("dataset_id = ?", datasetId).
			Update("status", next).Error
		if err != nil {
			return
		}
		return tx.Create(&model.TimelineEvent{
			DatasetId: datasetId,
			Kind:      model.TimelineEventStatus,
			Actor:     in.Actor,
			Note:      in.Action + ": " + in.Note,
		}).Error
	})
	if err != nil {
		return
	}

	out = &response.SetStatus{
		DatasetId: datasetId,
		Status:    string(next),
	}
	return
}

// GetScore returns the latest score columns from the projection
func (self *Service) GetScore(ctx context.Context, datasetId string) (out *response.Score, err error) {
	dataset, err := self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	out = &response.Score{
		DatasetId:         dataset.DatasetId,
		Total:             dataset.ScoreTotal,
		Provenance:        dataset.ScoreProvenance,
		Integrity:         dataset.ScoreIntegrity,
		Audit:             dataset.ScoreAudit,
		Usage:             dataset.ScoreUsage,
		VerifiedByEnclave: dataset.VerifiedByEnclave,
		ScoredAt:          dataset.ScoredAt,
	}
	return
}

// GetScoreHistory returns the append-only score history, newest first
func (self *Service) GetScoreHistory(ctx context.Context, datasetId string, limit int) (out *response.ScoreHistory, err error) {
	_, err = self.getDataset(ctx, datasetId)
	if err != nil {
		return
	}

	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var snapshots []model.ScoreSnapshot
	err = self.db.WithContext(ctx).
		Where("dataset_id = ?", datasetId).
		Order("scored_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return
	}

	out = &response.ScoreHistory{DatasetId: datasetId}
	for _, snapshot := range snapshots {
		out.Entries = append(out.Entries, response.ScoreHistoryEntry{
			Total:             snapshot.Total,
			Provenance:        snapshot.Provenance,
			Integrity:         snapshot.Integrity,
			Audit:             snapshot.Audit,
			Usage:             snapshot.Usage,
			VerifiedByEnclave: snapshot.VerifiedByEnclave,
			ScoredAt:          snapshot.ScoredAt,
		})
	}
	return
}

func (self *Service) getDataset(ctx context.Context, datasetId string) (dataset *model.Dataset, err error) {
	dataset = new(model.Dataset)
	err = self.db.WithContext(ctx).
		Where("dataset_id = ?", datasetId).
		First(dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetNotFound
	}
	return
}

func (self *Service) rescore(ctx context.Context, dataset *model.Dataset, verifiedByEnclave bool, checks *trust.Checks) (score *trust.Score) {
	return self.rescoreWithProof(ctx, dataset, verifiedByEnclave, checks, nil)
}

// rescoreWithProof gathers fresh evidence, computes the score and
// persists the snapshot together with the latest score columns.
// Persistence failures are logged, the computed score is still
// returned so the caller's response reflects the evidence.
func (self *Service) rescoreWithProof(ctx context.Context, dataset *model.Dataset, verifiedByEnclave bool, checks *trust.Checks, proof *enclave.Proof) (score *trust.Score) {
	var timelineCount int64
	err := self.db.WithContext(ctx).
		Model(&model.TimelineEvent{}).
		Where("dataset_id = ?", dataset.DatasetId).
		Count(&timelineCount).Error
	if err != nil {
		self.log.WithError(err).Error("Failed to count timeline events")
	}

	var claims []model.Claim
	err = self.db.WithContext(ctx).
		Where("dataset_id = ?", dataset.DatasetId).
		Find(&claims).Error
	if err != nil {
		self.log.WithError(err).Error("Failed to load claims")
	}

	// Counters may have moved since the dataset row was loaded
	fresh, err := self.getDataset(ctx, dataset.DatasetId)
	if err == nil {
		dataset = fresh
	}

	ev := trust.EvidenceFromModel(dataset, int(timelineCount), claims)
	computed := trust.Compute(ev, verifiedByEnclave, checks)
	score = &computed

	snapshot := model.ScoreSnapshot{
		DatasetId:         dataset.DatasetId,
		Total:             score.Total,
		Provenance:        score.Provenance,
		Integrity:         score.Integrity,
		Audit:             score.Audit,
		Usage:             score.Usage,
		VerifiedByEnclave: score.VerifiedByEnclave,
		Explanation:       explanationJson(score),
		ScoredAt:          score.Timestamp,
	}
	if proof != nil {
		snapshot.EnclaveProof = sql.NullString{String: proofJson(proof), Valid: true}
	}

	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Create(&snapshot).Error
		if err != nil {
			return
		}
		scoredAt := score.Timestamp
		return tx.Model(&model.Dataset{}).
			Where("dataset_id = ?", dataset.DatasetId).
			Updates(map[string]interface{}{
				"score_total":         score.Total,
				"score_provenance":    score.Provenance,
				"score_integrity":     score.Integrity,
				"score_audit":         score.Audit,
				"score_usage":         score.Usage,
				"verified_by_enclave": score.VerifiedByEnclave,
				"scored_at":           scoredAt,
			}).Error
	})
	if err != nil {
		self.log.WithError(err).
			WithField("dataset_id", dataset.DatasetId).
			Error("Failed to persist score snapshot")
	}

	self.monitor.Report.Registrar.State.ScoresComputed.Inc()

	if self.notifier != nil {
		self.notifier.Notify(score)
	}
	return
}

func explanationJson(score *trust.Score) string {
	serialized, err := json.Marshal(score.Explanation)
	if err != nil {
		return ""
	}
	return string(serialized)
}

func proofJson(proof *enclave.Proof) string {
	serialized, err := json.Marshal(proof)
	if err != nil {
		return ""
	}
	return string(serialized)
}
