package index

import (
	"sync/atomic"
)

// Publisher owns the currently published snapshot. Publish swaps in a new
// snapshot with a single atomic pointer store; Current loads it the same
// way, so readers never lock, never block a rebuild, and always see either
// the old snapshot or the new one in full.
type Publisher struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewPublisher creates a publisher with nothing published yet.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish assigns the next version to the snapshot and makes it current.
// Versions are monotonically increasing across the process lifetime.
func (p *Publisher) Publish(s *Snapshot) *Snapshot {
	s.Version = p.version.Add(1)
	p.current.Store(s)
	return s
}

// Current returns the published snapshot, or nil when nothing has been
// published yet. The returned snapshot is immutable and remains valid even
// after later publishes.
func (p *Publisher) Current() *Snapshot {
	return p.current.Load()
}

// Health summarizes the published snapshot.
func (p *Publisher) Health() Health {
	return HealthOf(p.Current())
}
