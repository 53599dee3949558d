// Package registry maps step kinds to the handlers that execute them.
package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/protocol"
)

type Registry struct {
	logger   *slog.Logger
	handlers map[models.StepKind]protocol.StepHandler
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log,
		handlers: make(map[models.StepKind]protocol.StepHandler),
	}
}

// Register adds a handler, replacing any previous one for the same kind.
func (r *Registry) Register(handler protocol.StepHandler) {
	if _, exists := r.handlers[handler.Kind()]; exists {
		r.logger.Warn("replacing step handler", "step_kind", handler.Kind().String())
	}

	r.handlers[handler.Kind()] = handler
}

// Handler returns the handler for kind.
func (r *Registry) Handler(kind models.StepKind) (protocol.StepHandler, bool) {
	handler, ok := r.handlers[kind]

	return handler, ok
}

// Kinds lists registered kinds in declaration order.
func (r *Registry) Kinds() []models.StepKind {
	kinds := make([]models.StepKind, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}

	slices.Sort(kinds)

	return kinds
}

// Require fails when any of the given kinds has no handler.
func (r *Registry) Require(kinds ...models.StepKind) error {
	for _, kind := range kinds {
		if _, ok := r.handlers[kind]; !ok {
			return fmt.Errorf("no handler registered for step kind %s", kind)
		}
	}

	return nil
}
