package trust

import (
	"fmt"
	"time"

	"github.com/ducnmm/datacert/src/utils/model"
)

// Checks is the integrity verification triple the integrity factor
// is derived from. A nil *Checks means no explicit verification ran
// and the scorer falls back to non-empty hash fields as a weak proxy.
type Checks struct {
	PrimaryMatch   bool
	SecondaryMatch bool
	RootValid      bool
}

// Explanation carries the human readable reasoning per factor,
// kept for audit and dispute workflows
type Explanation struct {
	Provenance string `json:"provenance"`
	Integrity  string `json:"integrity"`
	Audit      string `json:"audit"`
	Usage      string `json:"usage"`
}

// Score is one point-in-time scoring snapshot.
// Total is always exactly the sum of the four factors.
type Score struct {
	DatasetId string `json:"dataset_id"`

	Total      int `json:"total"`
	Provenance int `json:"provenance"`
	Integrity  int `json:"integrity"`
	Audit      int `json:"audit"`
	Usage      int `json:"usage"`

	VerifiedByEnclave bool `json:"verified_by_enclave"`

	Explanation Explanation `json:"explanation"`

	Timestamp time.Time `json:"timestamp"`
}

// Compute maps an evidence bundle to a trust score. Pure function,
// re-scoring unchanged evidence yields identical factors, only the
// timestamp differs.
func Compute(ev Evidence, verifiedByEnclave bool, checks *Checks) (score Score) {
	score.DatasetId = ev.DatasetId
	score.VerifiedByEnclave = verifiedByEnclave
	score.Timestamp = time.Now().UTC()

	score.Provenance, score.Explanation.Provenance = provenanceFactor(ev)
	score.Integrity, score.Explanation.Integrity = integrityFactor(ev, checks)
	score.Audit, score.Explanation.Audit = auditFactor(ev)
	score.Usage, score.Explanation.Usage = usageFactor(ev)

	score.Total = score.Provenance + score.Integrity + score.Audit + score.Usage
	return
}

// Stepped by the number of recorded provenance events
func provenanceFactor(ev Evidence) (points int, explanation string) {
	switch {
	case ev.TimelineEventCount >= 5:
		points = 25
	case ev.TimelineEventCount >= 3:
		points = 20
	case ev.TimelineEventCount == 2:
		points = 15
	case ev.TimelineEventCount == 1:
		points = 10
	default:
		points = 0
	}
	explanation = fmt.Sprintf("%d provenance events recorded", ev.TimelineEventCount)
	return
}

func integrityFactor(ev Evidence, checks *Checks) (points int, explanation string) {
	var primary, secondary, root bool
	if checks != nil {
		primary = checks.PrimaryMatch
		secondary = checks.SecondaryMatch
		root = checks.RootValid
		explanation = "verified against stored blob"
	} else {
		// No verification result available, fall back to presence checks
		primary = ev.DigestPrimary != ""
		secondary = ev.DigestSecondary != ""
		root = ev.IntegrityRoot != ""
		explanation = "assumed from recorded digests, not verified"
	}

	switch {
	case primary && secondary && root:
		points = 25
	case primary && secondary:
		points = 20
	case primary:
		points = 15
	default:
		points = 0
		explanation = "no integrity evidence"
	}

	explanation = fmt.Sprintf("primary=%t secondary=%t root=%t, %s", primary, secondary, root, explanation)
	return
}

// Starts at the maximum and decreases with every claim, never below zero
func auditFactor(ev Evidence) (points int, explanation string) {
	points = 25

	var info, warning, critical int
	for _, claim := range ev.Claims {
		switch claim.Severity {
		case model.SeverityCritical:
			points -= 10
			critical++
		case model.SeverityWarning:
			points -= 5
			warning++
		default:
			points -= 2
			info++
		}
	}
	if points < 0 {
		points = 0
	}

	explanation = fmt.Sprintf("%d critical, %d warning, %d info claims filed", critical, warning, info)
	return
}

// Stepped by the download counter
func usageFactor(ev Evidence) (points int, explanation string) {
	switch {
	case ev.Downloads >= 100:
		points = 25
	case ev.Downloads >= 50:
		points = 20
	case ev.Downloads >= 20:
		points = 15
	case ev.Downloads >= 5:
		points = 10
	case ev.Downloads >= 1:
		points = 5
	default:
		points = 0
	}
	explanation = fmt.Sprintf("%d downloads", ev.Downloads)
	return
}
