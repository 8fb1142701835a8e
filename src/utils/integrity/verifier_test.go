package integrity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/config"

	"github.com/stretchr/testify/suite"
)

func TestVerifierTestSuite(t *testing.T) {
	suite.Run(t, new(VerifierTestSuite))
}

type VerifierTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	content []byte
}

func (s *VerifierTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.content = []byte("sensor readings, batch 7")
}

func (s *VerifierTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *VerifierTestSuite) gateway() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/blobs/blob-1" {
			_, _ = w.Write(s.content)
			return
		}
		http.NotFound(w, r)
	}))
}

func (s *VerifierTestSuite) verifier(gatewayUrl string, probeUrls []string) *Verifier {
	conf := config.Default()
	conf.BlobStore.GatewayUrl = gatewayUrl
	conf.Integrity.RootProbeUrls = probeUrls

	return NewVerifier(conf).
		WithBlobstore(blobstore.NewClient(conf))
}

func (s *VerifierTestSuite) evidence() Evidence {
	return Evidence{
		DatasetId:       "ds-1",
		BlobLocator:     "blob-1",
		DigestPrimary:   blobstore.PrimaryDigest(s.content),
		DigestSecondary: blobstore.SecondaryDigest(s.content),
	}
}

func (s *VerifierTestSuite) TestDigestsMatch() {
	server := s.gateway()
	defer server.Close()

	result := s.verifier(server.URL, nil).Verify(s.ctx, s.evidence())

	s.True(result.PrimaryMatch)
	s.True(result.SecondaryMatch)
	s.False(result.RootValid)
	s.Equal(int64(len(s.content)), result.BlobSize)
	s.Equal(blobstore.PrimaryDigest(s.content), result.ComputedPrimary)
}

func (s *VerifierTestSuite) TestDigestMismatchIsData() {
	server := s.gateway()
	defer server.Close()

	ev := s.evidence()
	ev.DigestPrimary = "0000000000000000000000000000000000000000000000000000000000000000"

	result := s.verifier(server.URL, nil).Verify(s.ctx, ev)

	s.False(result.PrimaryMatch)
	s.True(result.SecondaryMatch)
	s.NotEmpty(result.ComputedPrimary)
}

func (s *VerifierTestSuite) TestHexPrefixAndCaseIgnored() {
	server := s.gateway()
	defer server.Close()

	ev := s.evidence()
	ev.DigestPrimary = "0x" + ev.DigestPrimary

	result := s.verifier(server.URL, nil).Verify(s.ctx, ev)

	s.True(result.PrimaryMatch)
}

func (s *VerifierTestSuite) TestDownloadFailureFailsAllChecks() {
	server := s.gateway()
	defer server.Close()

	ev := s.evidence()
	ev.BlobLocator = "blob-missing"
	ev.IntegrityRoot = "cc33"

	result := s.verifier(server.URL, nil).Verify(s.ctx, ev)

	s.False(result.PrimaryMatch)
	s.False(result.SecondaryMatch)
	s.False(result.RootValid)
	s.Empty(result.ComputedPrimary)
}

func (s *VerifierTestSuite) TestRootProbeMatch() {
	server := s.gateway()
	defer server.Close()

	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/ds-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"root": "0xCC33"}`))
	}))
	defer probe.Close()

	ev := s.evidence()
	ev.IntegrityRoot = "cc33"

	result := s.verifier(server.URL, []string{probe.URL}).Verify(s.ctx, ev)

	s.True(result.RootValid)
	s.False(result.RootAssumed)
}

func (s *VerifierTestSuite) TestRootProbeMismatch() {
	server := s.gateway()
	defer server.Close()

	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"root": "dd44"}`))
	}))
	defer probe.Close()

	ev := s.evidence()
	ev.IntegrityRoot = "cc33"

	result := s.verifier(server.URL, []string{probe.URL}).Verify(s.ctx, ev)

	s.False(result.RootValid)
	s.False(result.RootAssumed)
}

func (s *VerifierTestSuite) TestRootProbeFallback() {
	server := s.gateway()
	defer server.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"root": "cc33"}`))
	}))
	defer probe.Close()

	ev := s.evidence()
	ev.IntegrityRoot = "cc33"

	result := s.verifier(server.URL, []string{failing.URL, probe.URL}).Verify(s.ctx, ev)

	s.True(result.RootValid)
	s.False(result.RootAssumed)
}

func (s *VerifierTestSuite) TestRootAssumedWhenNoProbeAnswers() {
	server := s.gateway()
	defer server.Close()

	ev := s.evidence()
	ev.IntegrityRoot = "cc33"

	result := s.verifier(server.URL, nil).Verify(s.ctx, ev)

	s.True(result.RootValid)
	s.True(result.RootAssumed)
}

func (s *VerifierTestSuite) TestEmptyRootNeverValid() {
	server := s.gateway()
	defer server.Close()

	result := s.verifier(server.URL, nil).Verify(s.ctx, s.evidence())

	s.False(result.RootValid)
	s.False(result.RootAssumed)
}
