package config

import (
	"time"

	"github.com/spf13/viper"
)

type Registrar struct {
	// Registration/scoring REST API address
	ListenAddress string

	// Max time for a single registration request
	RequestTimeout time.Duration

	// Redis channel score updates are published to
	ScoreUpdateChannel string

	// Number of workers publishing notifications
	NotifierMaxWorkers int

	// Max notifier queue size
	NotifierMaxQueueSize int
}

func setRegistrarDefaults() {
	viper.SetDefault("Registrar.ListenAddress", ":8080")
	viper.SetDefault("Registrar.RequestTimeout", "2m")
	viper.SetDefault("Registrar.ScoreUpdateChannel", "datacert:scores")
	viper.SetDefault("Registrar.NotifierMaxWorkers", "2")
	viper.SetDefault("Registrar.NotifierMaxQueueSize", "100")
}
