package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ducnmm/datacert/src/utils/build_info"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"
)

// StoreResult describes where the blob ended up.
// Mock results come from placeholder mode and are not retrievable.
type StoreResult struct {
	Locator         string
	DigestPrimary   string
	DigestSecondary string
	SizeBytes       int64
	Expiry          time.Time
	Mock            bool
}

// Client talks to a Walrus style blob gateway.
// Temporary gateway unavailability degrades Store into a clearly
// marked placeholder result instead of blocking registration.
type Client struct {
	client  *resty.Client
	config  *config.Config
	log     *logrus.Entry
	limiter *rate.Limiter
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("blobstore")

	if config.BlobStore.RequestsPerSecond > 0 {
		self.limiter = rate.NewLimiter(rate.Limit(config.BlobStore.RequestsPerSecond), 1)
	}

	self.client = resty.New().
		SetHeader("User-Agent", "datacert/"+build_info.Version).
		SetRetryCount(1).
		AddRetryAfterErrorCondition().
		OnAfterResponse(self.onStatusToError)

	return
}

func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("unexpected status: %s", resp.Status())
}

func (self *Client) wait(ctx context.Context) (err error) {
	if self.limiter == nil {
		return nil
	}
	return self.limiter.Wait(ctx)
}

// Store uploads the blob and returns its locator and both digests.
// Digests are always computed locally so even a mock result carries
// the real content hashes.
func (self *Client) Store(ctx context.Context, data []byte) (out *StoreResult, err error) {
	out = new(StoreResult)
	out.SizeBytes = int64(len(data))
	out.DigestPrimary = PrimaryDigest(data)
	out.DigestSecondary = SecondaryDigest(data)
	out.Expiry = time.Now().UTC().Add(time.Duration(self.config.BlobStore.RetentionEpochs) * 24 * time.Hour)

	if self.config.BlobStore.MockMode || self.config.BlobStore.PublisherUrl == "" {
		out.Locator = "mock-" + xid.New().String()
		out.Mock = true
		self.log.WithField("locator", out.Locator).Warn("Blob store in mock mode, returning placeholder locator")
		return
	}

	err = self.wait(ctx)
	if err != nil {
		return nil, err
	}

	var uploaded struct {
		NewlyCreated struct {
			BlobObject struct {
				BlobId string `json:"blobId"`
			} `json:"blobObject"`
		} `json:"newlyCreated"`
		AlreadyCertified struct {
			BlobId string `json:"blobId"`
		} `json:"alreadyCertified"`
	}

	reqCtx, cancel := context.WithTimeout(ctx, self.config.BlobStore.StoreTimeout)
	defer cancel()

	_, err = self.client.R().
		SetContext(reqCtx).
		SetBody(data).
		SetResult(&uploaded).
		Put(self.publisherUrl() + "/v1/blobs")
	if err != nil {
		// Upload failure falls back to a placeholder so the caller's
		// registration flow can still complete
		self.log.WithError(err).Error("Blob upload failed, returning placeholder locator")
		out.Locator = "mock-" + xid.New().String()
		out.Mock = true
		return out, nil
	}

	out.Locator = uploaded.NewlyCreated.BlobObject.BlobId
	if out.Locator == "" {
		out.Locator = uploaded.AlreadyCertified.BlobId
	}
	if out.Locator == "" {
		self.log.Error("Blob gateway returned no locator, returning placeholder")
		out.Locator = "mock-" + xid.New().String()
		out.Mock = true
	}
	return
}

// Read downloads the blob behind the locator
func (self *Client) Read(ctx context.Context, locator string) (data []byte, err error) {
	err = self.wait(ctx)
	if err != nil {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, self.config.BlobStore.ReadTimeout)
	defer cancel()

	resp, err := self.client.R().
		SetContext(reqCtx).
		Get(self.ResolveUrl(locator))
	if err != nil {
		return
	}

	return resp.Body(), nil
}

// ResolveUrl returns the fetchable URL for the locator
func (self *Client) ResolveUrl(locator string) string {
	return self.gatewayUrl() + "/v1/blobs/" + locator
}

func (self *Client) gatewayUrl() string {
	return strings.TrimSuffix(self.config.BlobStore.GatewayUrl, "/")
}

func (self *Client) publisherUrl() string {
	return strings.TrimSuffix(self.config.BlobStore.PublisherUrl, "/")
}

// PrimaryDigest is the sha256 hex of the content
func PrimaryDigest(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SecondaryDigest is the blake2b-256 hex of the content,
// kept alongside sha256 for proof friendly commitments
func SecondaryDigest(data []byte) string {
	digest := blake2b.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// NormalizeHex strips an optional 0x prefix and lowercases the digest
func NormalizeHex(input string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input), "0x"))
}
