package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/ledger"
	"github.com/ducnmm/datacert/src/utils/logger"
	"github.com/ducnmm/datacert/src/utils/model"
	monitor_indexer "github.com/ducnmm/datacert/src/utils/monitoring/indexer"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reconciles ledger events into the projection. Every apply is
// idempotent: the ledger transaction id is the dedup key, re-delivered
// events never double-count counters or create duplicate rows.
type Store struct {
	config  *config.Config
	log     *logrus.Entry
	db      *gorm.DB
	monitor *monitor_indexer.Monitor
}

func NewStore(config *config.Config) (self *Store) {
	self = new(Store)
	self.config = config
	self.log = logger.NewSublogger("index-store")
	return
}

func (self *Store) WithDB(db *gorm.DB) *Store {
	self.db = db
	return self
}

func (self *Store) WithMonitor(monitor *monitor_indexer.Monitor) *Store {
	self.monitor = monitor
	return self
}

// LoadCursor returns the last fully processed ledger sequence for the
// category. A missing row means the category was never indexed.
func (self *Store) LoadCursor(ctx context.Context, name model.SyncedComponent) (state model.IndexerState, err error) {
	err = self.db.WithContext(ctx).
		Where("name = ?", name).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.IndexerState{Name: name}, nil
	}
	return
}

// SaveCursor persists the cursor after a page was fully applied
func (self *Store) SaveCursor(ctx context.Context, state model.IndexerState) (err error) {
	err = self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_ledger_sequence", "backfill_done"}),
		}).
		Create(&state).Error
	if err != nil {
		self.monitor.Report.Indexer.Errors.CursorSaveFailures.Inc()
	}
	return
}

// Apply reconciles one event inside a single transaction. Returns
// whether the event was new; duplicates are a successful no-op.
func (self *Store) Apply(ctx context.Context, event *ledger.Event) (applied bool, err error) {
	applyCtx, cancel := context.WithTimeout(ctx, self.config.Indexer.ApplyTimeout)
	defer cancel()

	err = self.db.WithContext(applyCtx).Transaction(func(tx *gorm.DB) (err error) {
		// Aggregate creation order relative to events is not
		// guaranteed, a missing dataset becomes a placeholder
		// instead of a dropped event
		err = self.ensureDataset(tx, event.DatasetId)
		if err != nil {
			return
		}

		switch event.Category {
		case ledger.EventCertificateMinted:
			applied, err = self.applyCertificateMinted(tx, event)
		case ledger.EventClaimRaised:
			applied, err = self.applyClaimRaised(tx, event)
		case ledger.EventAccessGranted:
			applied, err = self.applyAccessGranted(tx, event)
		case ledger.EventTrustScoreUpdated:
			applied, err = self.applyTrustScoreUpdated(tx, event)
		default:
			err = fmt.Errorf("unknown event category %s", event.Category)
		}
		return
	})
	if err != nil {
		self.monitor.Report.Indexer.Errors.ApplyFailures.Inc()
		return
	}

	if applied {
		self.monitor.Report.Indexer.State.EventsApplied.Inc()
	} else {
		self.monitor.Report.Indexer.State.EventsSkippedDuplicate.Inc()
	}
	return
}

func (self *Store) ensureDataset(tx *gorm.DB, datasetId string) (err error) {
	if datasetId == "" {
		return errors.New("event without dataset id")
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset_id"}},
		DoNothing: true,
	}).Create(&model.Dataset{
		DatasetId: datasetId,
		Status:    model.DatasetStatusPending,
	})
	if result.Error != nil {
		self.monitor.Report.Indexer.Errors.PlaceholderFailures.Inc()
		return result.Error
	}
	if result.RowsAffected > 0 {
		self.log.WithField("dataset_id", datasetId).
			Info("Materialized placeholder dataset for out-of-order event")
		self.monitor.Report.Indexer.State.PlaceholdersCreated.Inc()
	}
	return
}

func (self *Store) applyCertificateMinted(tx *gorm.DB, event *ledger.Event) (applied bool, err error) {
	if event.Certificate == nil {
		return false, errors.New("CertificateMinted event without certificate payload")
	}

	// The certificate id column doubles as the dedup marker, a
	// dataset is minted at most once
	result := tx.Model(&model.Dataset{}).
		Where("dataset_id = ? AND certificate_id = ''", event.DatasetId).
		Updates(map[string]interface{}{
			"certificate_id":      event.Certificate.CertificateId,
			"owner":               event.Certificate.Owner,
			"blob_locator":        event.Certificate.BlobLocator,
			"digest_primary":      event.Certificate.DigestPrimary,
			"digest_secondary":    event.Certificate.DigestSecondary,
			"policy_type":         event.Certificate.PolicyType,
			"min_stake":           event.Certificate.MinStake,
			"license_description": event.Certificate.License,
			"status":              model.DatasetStatusCertified,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		// Already minted, re-delivery is a no-op
		return false, nil
	}

	return true, self.appendTimeline(tx, event, model.TimelineEventMinted, event.Certificate.Owner, "certificate minted on ledger")
}

func (self *Store) applyClaimRaised(tx *gorm.DB, event *ledger.Event) (applied bool, err error) {
	if event.Claim == nil {
		return false, errors.New("ClaimRaised event without claim payload")
	}

	// On-chain claim data is the eventual source of truth. When the
	// off-chain row is missing a minimal one is backfilled from the
	// anchored payload, the free-text statement stays off-chain.
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(&model.Claim{
		DatasetId:     event.DatasetId,
		Author:        event.Claim.Author,
		Role:          model.ClaimRole(event.Claim.Role),
		Severity:      event.Claim.Severity,
		TransactionId: sql.NullString{String: event.TransactionId, Valid: true},
		CreatedAt:     msToTime(event.TimestampMs),
	})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	return true, self.appendTimeline(tx, event, model.TimelineEventClaimed, event.Claim.Author, "claim raised: "+event.Claim.Severity.String())
}

// applyAccessGranted is the subsystem's most important path: an event
// whose transaction id already has a row must not create a second row
// or bump the counters again.
func (self *Store) applyAccessGranted(tx *gorm.DB, event *ledger.Event) (applied bool, err error) {
	if event.Access == nil {
		return false, errors.New("AccessGranted event without access payload")
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(&model.AccessRecord{
		DatasetId:     event.DatasetId,
		Requester:     event.Access.Requester,
		Purpose:       event.Access.Purpose,
		Stake:         event.Access.Stake,
		TransactionId: event.TransactionId,
		CreatedAt:     msToTime(event.TimestampMs),
	})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	// Counters only move for the freshly inserted row, and only
	// through increments, never overwrites
	err = tx.Model(&model.Dataset{}).
		Where("dataset_id = ?", event.DatasetId).
		Updates(map[string]interface{}{
			"downloads": gorm.Expr("downloads + 1"),
			"revenue":   gorm.Expr("revenue + ?", event.Access.Price),
		}).Error
	if err != nil {
		return false, err
	}

	return true, self.appendTimeline(tx, event, model.TimelineEventAccessed, event.Access.Requester, "access granted")
}

func (self *Store) applyTrustScoreUpdated(tx *gorm.DB, event *ledger.Event) (applied bool, err error) {
	if event.Score == nil {
		return false, errors.New("TrustScoreUpdated event without score payload")
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(&model.ScoreSnapshot{
		DatasetId:         event.DatasetId,
		Total:             event.Score.Total,
		Provenance:        event.Score.Provenance,
		Integrity:         event.Score.Integrity,
		Audit:             event.Score.Audit,
		Usage:             event.Score.Usage,
		VerifiedByEnclave: event.Score.VerifiedByEnclave,
		EnclaveProof:      nullable(event.Score.EnclaveProof),
		TransactionId:     sql.NullString{String: event.TransactionId, Valid: true},
		ScoredAt:          msToTime(event.TimestampMs),
	})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	scoredAt := msToTime(event.TimestampMs)
	err = tx.Model(&model.Dataset{}).
		Where("dataset_id = ?", event.DatasetId).
		Updates(map[string]interface{}{
			"score_total":         event.Score.Total,
			"score_provenance":    event.Score.Provenance,
			"score_integrity":     event.Score.Integrity,
			"score_audit":         event.Score.Audit,
			"score_usage":         event.Score.Usage,
			"verified_by_enclave": event.Score.VerifiedByEnclave,
			"scored_at":           scoredAt,
		}).Error
	if err != nil {
		return false, err
	}

	return true, nil
}

func (self *Store) appendTimeline(tx *gorm.DB, event *ledger.Event, kind model.TimelineEventKind, actor, note string) (err error) {
	return tx.Create(&model.TimelineEvent{
		DatasetId:     event.DatasetId,
		Kind:          kind,
		Actor:         actor,
		Note:          note,
		TransactionId: event.TransactionId,
		CreatedAt:     msToTime(event.TimestampMs),
	}).Error
}

func msToTime(ms uint64) time.Time {
	if ms == 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
