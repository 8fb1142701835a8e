package enclave

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/config"

	"github.com/stretchr/testify/suite"
)

func TestAttestorTestSuite(t *testing.T) {
	suite.Run(t, new(AttestorTestSuite))
}

type AttestorTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

func (s *AttestorTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	var err error
	s.publicKey, s.privateKey, err = ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
}

func (s *AttestorTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *AttestorTestSuite) envelope(verified bool, measurements []string) (response []byte, signature string) {
	intent := intentMessage{
		Intent:      IntentScopeProcessData,
		TimestampMs: 1700000000000,
		Data: verificationResult{
			BlobId:         "blob-1",
			ExpectedSha256: "aa11",
			ComputedSha256: "aa11",
			Verified:       verified,
			BlobSize:       42,
			Measurements:   measurements,
		},
	}
	response, err := json.Marshal(&intent)
	s.Require().NoError(err)

	signature = hex.EncodeToString(ed25519.Sign(s.privateKey, response))
	return
}

func (s *AttestorTestSuite) attestor(oracleUrl string, measurements []string) *Attestor {
	conf := config.Default()
	conf.Enclave.OracleUrl = oracleUrl
	conf.Enclave.PublicKey = hex.EncodeToString(s.publicKey)
	conf.Enclave.ExpectedMeasurements = measurements

	attestor, err := NewAttestor(conf)
	s.Require().NoError(err)
	return attestor
}

func (s *AttestorTestSuite) TestVerifyEnvelope() {
	response, signature := s.envelope(true, nil)

	s.NoError(VerifyEnvelope(s.publicKey, response, signature))
}

func (s *AttestorTestSuite) TestVerifyEnvelopeHexPrefix() {
	response, signature := s.envelope(true, nil)

	s.NoError(VerifyEnvelope(s.publicKey, response, "0x"+signature))
}

func (s *AttestorTestSuite) TestTamperedEnvelopeRejected() {
	response, signature := s.envelope(true, nil)

	tampered := make([]byte, len(response))
	copy(tampered, response)
	tampered[len(tampered)/2] ^= 0x01

	s.ErrorIs(VerifyEnvelope(s.publicKey, tampered, signature), ErrSignatureMismatch)
}

func (s *AttestorTestSuite) TestReencodedEnvelopeRejected() {
	// Same fields, different serialization. The signature covers the
	// exact bytes, a re-encoded envelope must not pass.
	response, signature := s.envelope(true, nil)

	var intent intentMessage
	s.Require().NoError(json.Unmarshal(response, &intent))
	reencoded, err := json.MarshalIndent(&intent, "", " ")
	s.Require().NoError(err)
	s.NotEqual(response, reencoded)

	s.ErrorIs(VerifyEnvelope(s.publicKey, reencoded, signature), ErrSignatureMismatch)
}

func (s *AttestorTestSuite) TestUnknownKeyRejected() {
	otherPublic, _, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)

	response, signature := s.envelope(true, nil)
	s.ErrorIs(VerifyEnvelope(otherPublic, response, signature), ErrSignatureMismatch)
}

func (s *AttestorTestSuite) TestMissingKeyRejected() {
	response, signature := s.envelope(true, nil)
	s.ErrorIs(VerifyEnvelope(nil, response, signature), ErrNoPublicKey)
}

func (s *AttestorTestSuite) TestMalformedSignatureRejected() {
	response, _ := s.envelope(true, nil)
	s.ErrorIs(VerifyEnvelope(s.publicKey, response, "not-hex"), ErrSignatureMismatch)
}

func (s *AttestorTestSuite) TestRequestAttestation() {
	response, signature := s.envelope(true, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/process_data", r.URL.Path)

		var in attestationRequest
		s.NoError(json.NewDecoder(r.Body).Decode(&in))
		s.Equal("blob-1", in.Payload.BlobId)

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(&signedResponse{
			Response:  response,
			Signature: signature,
		})
		s.NoError(err)
	}))
	defer server.Close()

	attestor := s.attestor(server.URL, nil)

	proof, err := attestor.RequestAttestation(s.ctx, "ds-1", BlobRef{
		Locator:        "blob-1",
		ExpectedDigest: "0xAA11",
	})
	s.NoError(err)
	s.Require().NotNil(proof)
	s.True(proof.Verified)
	s.Equal("blob-1", proof.BlobId)
	s.Equal(signature, proof.Signature)

	cached, ok := attestor.CachedProof("ds-1")
	s.True(ok)
	s.Equal(proof, cached)
}

func (s *AttestorTestSuite) TestOracleFailurePropagates() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	attestor := s.attestor(server.URL, nil)

	proof, err := attestor.RequestAttestation(s.ctx, "ds-1", BlobRef{Locator: "blob-1"})
	s.ErrorIs(err, ErrOracleRejected)
	s.Nil(proof)

	_, ok := attestor.CachedProof("ds-1")
	s.False(ok)
}

func (s *AttestorTestSuite) TestMeasurementMismatchRejected() {
	response, signature := s.envelope(true, []string{"deadbeef"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&signedResponse{
			Response:  response,
			Signature: signature,
		})
	}))
	defer server.Close()

	attestor := s.attestor(server.URL, []string{"cafebabe"})

	proof, err := attestor.RequestAttestation(s.ctx, "ds-1", BlobRef{Locator: "blob-1"})
	s.ErrorIs(err, ErrMeasurementMismatch)
	s.Nil(proof)
}

func (s *AttestorTestSuite) TestMeasurementsOrderInsensitive() {
	response, signature := s.envelope(true, []string{"0xBB", "0xAA"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&signedResponse{
			Response:  response,
			Signature: signature,
		})
	}))
	defer server.Close()

	attestor := s.attestor(server.URL, []string{"aa", "bb"})

	proof, err := attestor.RequestAttestation(s.ctx, "ds-1", BlobRef{Locator: "blob-1"})
	s.NoError(err)
	s.NotNil(proof)
}

func (s *AttestorTestSuite) TestMergeVerified() {
	proof := &Proof{Verified: true}

	checks, verified := proof.Merge(&trust.Checks{RootValid: true})
	s.True(verified)
	s.True(checks.PrimaryMatch)
	s.True(checks.SecondaryMatch)
	s.True(checks.RootValid)
}

func (s *AttestorTestSuite) TestMergeUnverified() {
	proof := &Proof{Verified: false}

	checks, verified := proof.Merge(&trust.Checks{PrimaryMatch: true})
	s.False(verified)
	s.True(checks.PrimaryMatch)
	s.False(checks.SecondaryMatch)
}
