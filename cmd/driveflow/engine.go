package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/driveflow/pkg/cmd"
	"github.com/dukex/driveflow/pkg/config"
	"github.com/dukex/driveflow/pkg/connectors"
	"github.com/dukex/driveflow/pkg/dedupe"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/otelhelper"
	"github.com/dukex/driveflow/pkg/persistence"
	"github.com/dukex/driveflow/pkg/scheduler"
	"github.com/dukex/driveflow/pkg/workflow"
)

// Engine is the assembled runtime: store, dispatcher and the resources that
// need releasing on shutdown.
type Engine struct {
	Store      persistence.Persistence
	Dispatcher *workflow.Dispatcher

	closers []func(context.Context)
}

// NewEngine wires every component named by cfg.
func NewEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Engine, error) {
	engine := &Engine{}

	store, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	engine.Store = store
	engine.onClose(func(ctx context.Context) {
		err := store.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	})

	eventBus, err := cmd.NewEventBus(cfg.EventBus, cfg.KafkaBrokers, logger)
	if err != nil {
		engine.Close(ctx)

		return nil, err
	}

	engine.onClose(func(ctx context.Context) {
		err := eventBus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	})

	tracer := otelhelper.NoopTracer()

	if cfg.Tracing {
		var shutdown otelhelper.ShutdownFunc

		tracer, shutdown, err = otelhelper.NewTracer(ctx, "driveflow")
		if err != nil {
			engine.Close(ctx)

			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		engine.onClose(func(ctx context.Context) {
			err := shutdown(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		})
	}

	httpClient := connectors.NewHTTPClient(cfg.HTTPTimeout)

	wakeups, stop, err := cmd.NewScheduler(cfg, httpClient, logger)
	if err != nil {
		engine.Close(ctx)

		return nil, err
	}

	engine.onClose(stop)

	suspender := scheduler.NewSuspender(wakeups, store, cfg.CallbackBaseURL, logger)
	reg := cmd.NewRegistry(logger, cfg.Connectors, httpClient, suspender)

	err = reg.Require(models.StepKinds()...)
	if err != nil {
		engine.Close(ctx)

		return nil, fmt.Errorf("incomplete step registry: %w", err)
	}

	logger.DebugContext(ctx, "step handlers registered", "kinds", reg.Kinds())

	executor := workflow.NewExecutor(reg, eventBus, tracer, logger)

	engine.Dispatcher = workflow.NewDispatcher(store, executor, logger, workflow.Options{
		MaxConcurrent: cfg.MaxConcurrentWorkflows,
		Dedupe:        dedupe.New(cfg.DedupeTTL),
		Publisher:     eventBus,
		Tracer:        tracer,
	})

	return engine, nil
}

func (e *Engine) onClose(fn func(context.Context)) {
	e.closers = append(e.closers, fn)
}

// Close releases resources in reverse acquisition order.
func (e *Engine) Close(ctx context.Context) {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i](ctx)
	}

	e.closers = nil
}
