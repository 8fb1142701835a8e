package config

import (
	"time"

	"github.com/spf13/viper"
)

type BlobStore struct {
	// Blob gateway used for reads, e.g. a Walrus aggregator
	GatewayUrl string

	// Publisher endpoint used for uploads
	PublisherUrl string

	// How long the stored blob is guaranteed to be retrievable
	RetentionEpochs int

	// Timeout for a single upload
	StoreTimeout time.Duration

	// Timeout for a single download
	ReadTimeout time.Duration

	// Outgoing requests per second, 0 disables limiting
	RequestsPerSecond float64

	// When true no network calls are made and placeholder
	// locators are returned instead
	MockMode bool
}

func setBlobStoreDefaults() {
	viper.SetDefault("BlobStore.GatewayUrl", "https://api.walrus.xyz")
	viper.SetDefault("BlobStore.PublisherUrl", "")
	viper.SetDefault("BlobStore.RetentionEpochs", "5")
	viper.SetDefault("BlobStore.StoreTimeout", "60s")
	viper.SetDefault("BlobStore.ReadTimeout", "30s")
	viper.SetDefault("BlobStore.RequestsPerSecond", "10")
	viper.SetDefault("BlobStore.MockMode", "false")
}
