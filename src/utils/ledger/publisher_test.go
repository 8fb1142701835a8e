package ledger

import (
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/model"

	"github.com/stretchr/testify/suite"
)

func TestPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}

type PublisherTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *PublisherTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *PublisherTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *PublisherTestSuite) simulatedPublisher(conf *config.Config) *Publisher {
	client, err := NewClient(conf)
	s.Require().NoError(err)
	s.Require().True(client.IsSimulated())
	return NewPublisher(conf, client)
}

func (s *PublisherTestSuite) TestClientSelection() {
	client, err := NewClient(config.Default())
	s.NoError(err)
	s.True(client.IsSimulated())

	conf := config.Default()
	conf.Ledger.RpcUrl = "http://localhost:9000"
	conf.Ledger.SignerKey = hex.EncodeToString(make([]byte, 32))
	client, err = NewClient(conf)
	s.NoError(err)
	s.False(client.IsSimulated())
}

func (s *PublisherTestSuite) TestBadSignerKeyRejected() {
	conf := config.Default()
	conf.Ledger.RpcUrl = "http://localhost:9000"
	conf.Ledger.SignerKey = "abcd"
	_, err := NewClient(conf)
	s.ErrorIs(err, ErrBadSignerKey)
}

func (s *PublisherTestSuite) TestMintSimulatedReceipt() {
	publisher := s.simulatedPublisher(config.Default())

	receipt := publisher.MintCertificate(s.ctx, MintInput{
		DatasetId: "ds-1",
		Owner:     "alice",
	})
	s.Require().NotNil(receipt)
	s.True(receipt.Simulated)
	s.False(receipt.Anchored)
	s.Equal(ActionMintCertificate, receipt.Action)
	s.True(strings.HasPrefix(receipt.TransactionId, "sim-"))
}

func (s *PublisherTestSuite) TestStakeGateRejectsBeforeSubmit() {
	publisher := s.simulatedPublisher(config.Default())

	receipt, err := publisher.RecordAccess(s.ctx, AccessInput{
		DatasetId:  "ds-1",
		Requester:  "bob",
		Stake:      5,
		MinStake:   100,
		PolicyType: model.AccessPolicyStakeGated,
	})
	s.ErrorIs(err, ErrInsufficientStake)
	s.Nil(receipt)
}

func (s *PublisherTestSuite) TestTokenGateRejectsUnknownToken() {
	err := ValidateAccess(AccessInput{
		PolicyType:    model.AccessPolicyTokenGated,
		AllowedTokens: []string{"tok-a", "tok-b"},
		HolderToken:   "tok-c",
	})
	s.ErrorIs(err, ErrTokenNotAllowed)

	err = ValidateAccess(AccessInput{
		PolicyType:    model.AccessPolicyTokenGated,
		AllowedTokens: []string{"tok-a", "tok-b"},
		HolderToken:   "tok-b",
	})
	s.NoError(err)
}

func (s *PublisherTestSuite) TestPublicPolicyAlwaysPasses() {
	s.NoError(ValidateAccess(AccessInput{
		PolicyType: model.AccessPolicyPublic,
		Stake:      0,
		MinStake:   100,
	}))
}

func (s *PublisherTestSuite) TestAccessWithoutCapabilityIsSimulated() {
	// Capability missing, the grant degrades instead of attempting
	// an unauthorized write
	publisher := s.simulatedPublisher(config.Default())

	receipt, err := publisher.RecordAccess(s.ctx, AccessInput{
		DatasetId:  "ds-1",
		Requester:  "bob",
		Stake:      200,
		MinStake:   100,
		PolicyType: model.AccessPolicyStakeGated,
	})
	s.NoError(err)
	s.Require().NotNil(receipt)
	s.True(receipt.Simulated)
}

func (s *PublisherTestSuite) TestScoreWithoutOracleCapabilityIsSimulated() {
	publisher := s.simulatedPublisher(config.Default())

	receipt := publisher.UpdateTrustScore(s.ctx, &trust.Score{
		DatasetId: "ds-1",
		Total:     80,
	})
	s.Require().NotNil(receipt)
	s.True(receipt.Simulated)
	s.Equal(ActionUpdateTrustScore, receipt.Action)
}

func (s *PublisherTestSuite) TestSubmitFailureDegradesToSimulated() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of funds", http.StatusPaymentRequired)
	}))
	defer server.Close()

	conf := config.Default()
	conf.Ledger.RpcUrl = server.URL
	conf.Ledger.SignerKey = hex.EncodeToString(make([]byte, 32))
	conf.Ledger.SubmitMaxElapsedTime = time.Millisecond
	conf.Ledger.SubmitMaxInterval = time.Millisecond

	client, err := NewClient(conf)
	s.Require().NoError(err)

	receipt := NewPublisher(conf, client).MintCertificate(s.ctx, MintInput{
		DatasetId: "ds-1",
		Owner:     "alice",
	})
	s.Require().NotNil(receipt)
	s.True(receipt.Simulated)
	s.False(receipt.Anchored)
	s.NotEmpty(receipt.Error)
}

func (s *PublisherTestSuite) TestSignTransactionDeterministic() {
	conf := config.Default()
	conf.Ledger.RpcUrl = "http://localhost:9000"
	conf.Ledger.SignerKey = hex.EncodeToString(make([]byte, 32))

	signer, err := newSignerClient(conf)
	s.Require().NoError(err)

	tx := &Transaction{
		Action:      ActionFileClaim,
		DatasetId:   "ds-1",
		Sender:      "registry-1",
		Nonce:       "nonce-1",
		TimestampMs: 1700000000000,
	}

	canonicalA, signatureA, err := signer.SignTransaction(tx)
	s.Require().NoError(err)
	canonicalB, signatureB, err := signer.SignTransaction(tx)
	s.Require().NoError(err)

	s.Equal(canonicalA, canonicalB)
	s.Equal(signatureA, signatureB)
	s.Len(signatureA, 128)
}

func (s *PublisherTestSuite) TestClaimPayloadAnchorsDigestOnly() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.NotContains(string(body), "the raw statement text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transaction_id": "tx-1", "ledger_sequence": 7}`))
	}))
	defer server.Close()

	conf := config.Default()
	conf.Ledger.RpcUrl = server.URL
	conf.Ledger.SignerKey = hex.EncodeToString(make([]byte, 32))

	client, err := NewClient(conf)
	s.Require().NoError(err)

	receipt := NewPublisher(conf, client).FileClaim(s.ctx, ClaimInput{
		DatasetId: "ds-1",
		Author:    "carol",
		Role:      model.ClaimRoleAuditor,
		Severity:  model.SeverityWarning,
		Statement: "the raw statement text",
	})
	s.Require().NotNil(receipt)
	s.True(receipt.Anchored)
	s.Equal("tx-1", receipt.TransactionId)
	s.Equal(uint64(7), receipt.LedgerSequence)
}
