package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Rebuilder runs index rebuilds in the background. Triggers coalesce: the
// trigger channel holds at most one pending request, so a burst of gallery
// mutations during a rebuild results in exactly one follow-up rebuild, not
// a queue of redundant ones. A failed rebuild leaves the previously
// published snapshot serving.
type Rebuilder struct {
	builder   *Builder
	publisher *Publisher
	trigger   chan struct{}
	logger    *zap.Logger
}

// NewRebuilder wires a builder to a publisher.
func NewRebuilder(builder *Builder, publisher *Publisher, logger *zap.Logger) *Rebuilder {
	return &Rebuilder{
		builder:   builder,
		publisher: publisher,
		trigger:   make(chan struct{}, 1),
		logger:    logger,
	}
}

// Trigger requests a background rebuild. It never blocks; when a request
// is already pending the call is absorbed into it.
func (r *Rebuilder) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// RebuildNow builds and publishes a snapshot synchronously. On failure the
// previous snapshot stays published and the error is returned.
func (r *Rebuilder) RebuildNow(ctx context.Context) (*Snapshot, error) {
	snapshot, err := r.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("index rebuild failed: %w", err)
	}
	return r.publisher.Publish(snapshot), nil
}

// Run serves background triggers until the context is cancelled. Rebuild
// failures are logged and swallowed; the loop keeps serving so a transient
// store outage does not kill rebuilds for the rest of the process.
func (r *Rebuilder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			published, err := r.RebuildNow(ctx)
			if err != nil {
				r.logger.Error("background index rebuild failed, keeping previous snapshot",
					zap.Error(err))
				continue
			}
			r.logger.Info("index rebuilt",
				zap.Uint64("version", published.Version),
				zap.Int("identities", len(published.Entries)))
		}
	}
}
