package blobstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ducnmm/datacert/src/utils/config"

	"github.com/stretchr/testify/suite"
)

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type ClientTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *ClientTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *ClientTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *ClientTestSuite) TestNormalizeHex() {
	s.Equal("abcdef", NormalizeHex("0xABCDEF"))
	s.Equal("abcdef", NormalizeHex("  abcDEF "))
	s.Equal("", NormalizeHex(""))
	s.Equal("", NormalizeHex("0x"))
}

func (s *ClientTestSuite) TestDigests() {
	data := []byte("hello")

	// sha256("hello")
	s.Equal("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", PrimaryDigest(data))

	s.Len(SecondaryDigest(data), 64)
	s.NotEqual(PrimaryDigest(data), SecondaryDigest(data))

	// Deterministic
	s.Equal(SecondaryDigest(data), SecondaryDigest([]byte("hello")))
	s.NotEqual(SecondaryDigest(data), SecondaryDigest([]byte("hello!")))
}

func (s *ClientTestSuite) TestStoreMockMode() {
	conf := config.Default()
	conf.BlobStore.MockMode = true

	out, err := NewClient(conf).Store(s.ctx, []byte("payload"))
	s.NoError(err)
	s.True(out.Mock)
	s.Contains(out.Locator, "mock-")
	s.Equal(PrimaryDigest([]byte("payload")), out.DigestPrimary)
	s.Equal(SecondaryDigest([]byte("payload")), out.DigestSecondary)
	s.Equal(int64(7), out.SizeBytes)
}

func (s *ClientTestSuite) TestStoreUpload() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPut, r.Method)
		s.Equal("/v1/blobs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"newlyCreated": {"blobObject": {"blobId": "blob-xyz"}}}`))
	}))
	defer server.Close()

	conf := config.Default()
	conf.BlobStore.PublisherUrl = server.URL

	out, err := NewClient(conf).Store(s.ctx, []byte("payload"))
	s.NoError(err)
	s.False(out.Mock)
	s.Equal("blob-xyz", out.Locator)
}

func (s *ClientTestSuite) TestStoreUploadAlreadyCertified() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"alreadyCertified": {"blobId": "blob-known"}}`))
	}))
	defer server.Close()

	conf := config.Default()
	conf.BlobStore.PublisherUrl = server.URL

	out, err := NewClient(conf).Store(s.ctx, []byte("payload"))
	s.NoError(err)
	s.Equal("blob-known", out.Locator)
}

func (s *ClientTestSuite) TestStoreUploadFailureDegrades() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "full", http.StatusInsufficientStorage)
	}))
	defer server.Close()

	conf := config.Default()
	conf.BlobStore.PublisherUrl = server.URL

	out, err := NewClient(conf).Store(s.ctx, []byte("payload"))
	s.NoError(err)
	s.True(out.Mock)
	// Digests are computed locally and survive the degraded path
	s.Equal(PrimaryDigest([]byte("payload")), out.DigestPrimary)
}

func (s *ClientTestSuite) TestReadRoundtrip() {
	content := []byte("stored bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/v1/blobs/blob-1", r.URL.Path)
		_, _ = w.Write(content)
	}))
	defer server.Close()

	conf := config.Default()
	conf.BlobStore.GatewayUrl = server.URL

	data, err := NewClient(conf).Read(s.ctx, "blob-1")
	s.NoError(err)
	s.Equal(content, data)
}

func (s *ClientTestSuite) TestReadMissingBlob() {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	conf := config.Default()
	conf.BlobStore.GatewayUrl = server.URL

	_, err := NewClient(conf).Read(s.ctx, "blob-1")
	s.Error(err)
}
