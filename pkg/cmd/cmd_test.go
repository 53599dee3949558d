package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/dukex/driveflow/pkg/config"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence/file"
	"github.com/dukex/driveflow/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"file://./data":                    "file",
		"./data":                           "file",
		"postgres://localhost/driveflow":   "postgres",
		"postgresql://localhost/driveflow": "postgresql",
		"redis://localhost:6379/0":         "redis",
		"mongodb://localhost":              "file",
	}

	for url, expected := range tests {
		assert.Equal(t, expected, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence_File(t *testing.T) {
	t.Parallel()

	store, err := NewPersistence(context.Background(), slog.New(slog.DiscardHandler), "file://"+t.TempDir())

	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, store)
}

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	bus, err := NewEventBus("gochannel", "", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", " , ", slog.New(slog.DiscardHandler))
	require.Error(t, err)

	_, err = NewEventBus("rabbitmq", "", slog.New(slog.DiscardHandler))
	require.Error(t, err)
}

func TestNewScheduler(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	logger := slog.New(slog.DiscardHandler)

	local, stop, err := NewScheduler(cfg, http.DefaultClient, logger)
	require.NoError(t, err)
	assert.IsType(t, &scheduler.LocalScheduler{}, local)
	stop(context.Background())

	cfg.Scheduler.Provider = scheduler.ProviderCronJob
	cfg.Scheduler.APIKey = "key"
	remote, _, err := NewScheduler(cfg, http.DefaultClient, logger)
	require.NoError(t, err)
	assert.IsType(t, &scheduler.CronJobScheduler{}, remote)

	cfg.Scheduler.Provider = "carrier-pigeon"
	_, _, err = NewScheduler(cfg, http.DefaultClient, logger)
	require.ErrorIs(t, err, scheduler.ErrUnknownProvider)
}

func TestNewRegistry_CoversEveryStepKind(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.New(slog.DiscardHandler), config.ConnectorsConfig{}, http.DefaultClient, nil)

	require.NoError(t, reg.Require(models.StepKinds()...))
	assert.Equal(t, models.StepKinds(), reg.Kinds())
}
