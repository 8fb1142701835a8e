package trust

import (
	"testing"

	"github.com/ducnmm/datacert/src/utils/model"

	"github.com/stretchr/testify/suite"
)

func TestScorerTestSuite(t *testing.T) {
	suite.Run(t, new(ScorerTestSuite))
}

type ScorerTestSuite struct {
	suite.Suite
}

func (s *ScorerTestSuite) evidence() Evidence {
	return Evidence{
		DatasetId:          "ds-1",
		DigestPrimary:      "aa11",
		DigestSecondary:    "bb22",
		IntegrityRoot:      "cc33",
		TimelineEventCount: 5,
		Downloads:          4,
	}
}

func (s *ScorerTestSuite) TestHealthyDataset() {
	score := Compute(s.evidence(), false, &Checks{
		PrimaryMatch:   true,
		SecondaryMatch: true,
		RootValid:      true,
	})

	s.Equal(25, score.Provenance)
	s.Equal(25, score.Integrity)
	s.Equal(25, score.Audit)
	s.Equal(5, score.Usage)
	s.Equal(80, score.Total)
}

func (s *ScorerTestSuite) TestTotalIsSumOfFactors() {
	ev := s.evidence()
	ev.Claims = []ClaimEvidence{
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityInfo},
	}
	score := Compute(ev, true, &Checks{PrimaryMatch: true, SecondaryMatch: true})

	s.Equal(score.Total, score.Provenance+score.Integrity+score.Audit+score.Usage)
}

func (s *ScorerTestSuite) TestProvenanceSteps() {
	for _, tc := range []struct {
		events   int
		expected int
	}{
		{0, 0},
		{1, 10},
		{2, 15},
		{3, 20},
		{4, 20},
		{5, 25},
		{50, 25},
	} {
		ev := s.evidence()
		ev.TimelineEventCount = tc.events
		score := Compute(ev, false, nil)
		s.Equal(tc.expected, score.Provenance, "events=%d", tc.events)
	}
}

func (s *ScorerTestSuite) TestIntegrityFromChecks() {
	for _, tc := range []struct {
		checks   Checks
		expected int
	}{
		{Checks{true, true, true}, 25},
		{Checks{true, true, false}, 20},
		{Checks{true, false, false}, 15},
		{Checks{false, true, true}, 0},
		{Checks{false, false, false}, 0},
	} {
		score := Compute(s.evidence(), false, &tc.checks)
		s.Equal(tc.expected, score.Integrity, "checks=%+v", tc.checks)
	}
}

func (s *ScorerTestSuite) TestIntegrityProxyWithoutChecks() {
	// No verification run yet, non-empty hashes stand in for the checks
	score := Compute(s.evidence(), false, nil)
	s.Equal(25, score.Integrity)

	ev := s.evidence()
	ev.IntegrityRoot = ""
	score = Compute(ev, false, nil)
	s.Equal(20, score.Integrity)

	ev.DigestSecondary = ""
	score = Compute(ev, false, nil)
	s.Equal(15, score.Integrity)

	ev.DigestPrimary = ""
	score = Compute(ev, false, nil)
	s.Equal(0, score.Integrity)
}

func (s *ScorerTestSuite) TestAuditPenalties() {
	ev := s.evidence()
	ev.Claims = []ClaimEvidence{
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityWarning},
	}
	score := Compute(ev, false, nil)
	s.Equal(5, score.Audit)
}

func (s *ScorerTestSuite) TestAuditFloorsAtZero() {
	ev := s.evidence()
	for i := 0; i < 10; i++ {
		ev.Claims = append(ev.Claims, ClaimEvidence{Severity: model.SeverityCritical})
	}
	score := Compute(ev, false, nil)
	s.Equal(0, score.Audit)
	s.GreaterOrEqual(score.Total, 0)
}

func (s *ScorerTestSuite) TestUsageSteps() {
	for _, tc := range []struct {
		downloads int64
		expected  int
	}{
		{0, 0},
		{1, 5},
		{4, 5},
		{5, 10},
		{19, 10},
		{20, 15},
		{49, 15},
		{50, 20},
		{99, 20},
		{100, 25},
		{100000, 25},
	} {
		ev := s.evidence()
		ev.Downloads = tc.downloads
		score := Compute(ev, false, nil)
		s.Equal(tc.expected, score.Usage, "downloads=%d", tc.downloads)
	}
}

func (s *ScorerTestSuite) TestDeterminism() {
	ev := s.evidence()
	ev.Claims = []ClaimEvidence{{Severity: model.SeverityInfo}}
	checks := &Checks{PrimaryMatch: true, SecondaryMatch: true, RootValid: true}

	first := Compute(ev, true, checks)
	second := Compute(ev, true, checks)

	s.Equal(first.Total, second.Total)
	s.Equal(first.Provenance, second.Provenance)
	s.Equal(first.Integrity, second.Integrity)
	s.Equal(first.Audit, second.Audit)
	s.Equal(first.Usage, second.Usage)
	s.Equal(first.Explanation, second.Explanation)
}

func (s *ScorerTestSuite) TestBounds() {
	empty := Compute(Evidence{DatasetId: "ds-empty"}, false, nil)
	s.Equal(0, empty.Provenance)
	s.Equal(0, empty.Integrity)
	s.Equal(25, empty.Audit)
	s.Equal(0, empty.Usage)
	s.Equal(25, empty.Total)

	best := Compute(Evidence{
		DatasetId:          "ds-best",
		DigestPrimary:      "aa",
		DigestSecondary:    "bb",
		IntegrityRoot:      "cc",
		TimelineEventCount: 10,
		Downloads:          500,
	}, true, &Checks{true, true, true})
	s.Equal(100, best.Total)
}

func (s *ScorerTestSuite) TestVerifiedByEnclaveCarried() {
	score := Compute(s.evidence(), true, nil)
	s.True(score.VerifiedByEnclave)

	score = Compute(s.evidence(), false, nil)
	s.False(score.VerifiedByEnclave)
}
