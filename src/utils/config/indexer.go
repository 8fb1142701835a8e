package config

import (
	"time"

	"github.com/spf13/viper"
)

type Indexer struct {
	// How often each event category is polled in steady state
	PollInterval time.Duration

	// Max events fetched in one page
	PageSize int

	// Timeout for applying a single event to the projection
	ApplyTimeout time.Duration

	// Max time between failed poll retries
	BackoffMaxInterval time.Duration

	// Give up retrying one poll after this much time,
	// the next periodic tick starts over
	BackoffMaxElapsedTime time.Duration
}

func setIndexerDefaults() {
	viper.SetDefault("Indexer.PollInterval", "10s")
	viper.SetDefault("Indexer.PageSize", "100")
	viper.SetDefault("Indexer.ApplyTimeout", "30s")
	viper.SetDefault("Indexer.BackoffMaxInterval", "30s")
	viper.SetDefault("Indexer.BackoffMaxElapsedTime", "2m")
}
