package config

import (
	"time"

	"github.com/spf13/viper"
)

type Integrity struct {
	// Max time for the whole verification, including the blob download
	Timeout time.Duration

	// Integrity root lookup endpoints, tried in order
	RootProbeUrls []string

	// Timeout for a single root probe
	RootProbeTimeout time.Duration
}

func setIntegrityDefaults() {
	viper.SetDefault("Integrity.Timeout", "45s")
	viper.SetDefault("Integrity.RootProbeUrls", "")
	viper.SetDefault("Integrity.RootProbeTimeout", "5s")
}
