package common

import (
	"context"
	"errors"

	"github.com/ducnmm/datacert/src/utils/config"
)

type contextKey int

const configKey contextKey = iota

// SetConfig stores the configuration in the context
func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

// GetConfig retrieves the configuration from the context
func GetConfig(ctx context.Context) (*config.Config, error) {
	config, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil, errors.New("config not present in the context")
	}
	return config, nil
}
