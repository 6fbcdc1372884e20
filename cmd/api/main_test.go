package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/config"
)

func TestRun_ConfigError(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "sqlite")

	err := run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestOpenStores_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Driver = config.DriverMemory

	ledgerRepo, profileRepo, closeStore, err := openStores(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, closeStore)

	assert.NotNil(t, ledgerRepo)
	assert.NotNil(t, profileRepo)

	closeStore()
}
