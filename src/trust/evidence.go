package trust

import (
	"github.com/ducnmm/datacert/src/utils/model"
)

// ClaimEvidence is the part of a claim the scorer looks at
type ClaimEvidence struct {
	Severity model.ClaimSeverity
}

// Evidence is the raw fact bundle one score is computed from.
// All fields are optional, missing evidence degrades the
// corresponding factor to its lowest value.
type Evidence struct {
	DatasetId string

	DigestPrimary   string
	DigestSecondary string
	IntegrityRoot   string

	TimelineEventCount int
	Claims             []ClaimEvidence
	Downloads          int64
}

// EvidenceFromModel assembles an Evidence bundle from projection rows
func EvidenceFromModel(dataset *model.Dataset, timelineCount int, claims []model.Claim) (ev Evidence) {
	ev = Evidence{
		DatasetId:          dataset.DatasetId,
		DigestPrimary:      dataset.DigestPrimary,
		DigestSecondary:    dataset.DigestSecondary,
		IntegrityRoot:      dataset.IntegrityRoot,
		TimelineEventCount: timelineCount,
		Downloads:          dataset.Downloads,
	}
	for _, claim := range claims {
		ev.Claims = append(ev.Claims, ClaimEvidence{Severity: claim.Severity})
	}
	return
}
