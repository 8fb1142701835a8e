package model

import "time"

const (
	TableAccessRecord = "dataset_access_records"
)

// AccessRecord is created exactly once per granted access, never mutated.
// TransactionId is the dedup key for event re-delivery.
type AccessRecord struct {
	ID        int64
	DatasetId string `gorm:"index"`
	Requester string
	Purpose   string
	Stake     int64

	TransactionId string `gorm:"uniqueIndex"`

	CreatedAt time.Time
}

func (AccessRecord) TableName() string {
	return TableAccessRecord
}
