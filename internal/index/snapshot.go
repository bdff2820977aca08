// Package index holds the in-memory descriptor index used for recognition.
//
// A Snapshot is an immutable view of every enrolled identity's descriptors,
// built from the gallery store by a Builder and swapped in atomically by a
// Publisher. Readers match probe descriptors against whatever snapshot is
// current; a rebuild never blocks or tears a read.
package index

import (
	"time"
)

// Extractor modes an index can be built for.
const (
	ModeVector     = "vector"
	ModeClassifier = "classifier"
)

// Entry is one identity's row in a snapshot.
type Entry struct {
	IdentityID  string
	Name        string
	RollNo      string
	Descriptors [][]float32
}

// Snapshot is an immutable descriptor index. All fields are set at build
// time and never mutated afterwards, so a snapshot can be shared across
// any number of concurrent readers without locking.
type Snapshot struct {
	// Mode selects how probes are matched: ModeVector compares feature
	// vectors by correlation, ModeClassifier queries the trained model.
	Mode string

	// Entries are sorted by IdentityID ascending. The matcher relies on
	// this order to resolve score ties deterministically.
	Entries []Entry

	// Model is the trained classifier, set only in ModeClassifier.
	Model *CentroidModel

	// Version is assigned by the publisher; monotonically increasing.
	Version uint64

	BuiltAt time.Time

	// Excluded lists identity IDs skipped at build time because they had
	// no usable descriptors. They are reported in health, not matched.
	Excluded []string
}

// Empty reports whether the snapshot has no matchable identities.
func (s *Snapshot) Empty() bool {
	return len(s.Entries) == 0
}

// DescriptorCount returns the total number of descriptors across entries.
func (s *Snapshot) DescriptorCount() int {
	n := 0
	for i := range s.Entries {
		n += len(s.Entries[i].Descriptors)
	}
	return n
}

// Health is a point-in-time summary of the published index.
type Health struct {
	Version     uint64    `json:"version"`
	BuiltAt     time.Time `json:"built_at"`
	Mode        string    `json:"mode"`
	Identities  int       `json:"identities"`
	Descriptors int       `json:"descriptors"`
	Excluded    []string  `json:"excluded,omitempty"`
}

// HealthOf summarizes a snapshot. A nil snapshot (nothing published yet)
// reports version zero and no identities.
func HealthOf(s *Snapshot) Health {
	if s == nil {
		return Health{}
	}
	return Health{
		Version:     s.Version,
		BuiltAt:     s.BuiltAt,
		Mode:        s.Mode,
		Identities:  len(s.Entries),
		Descriptors: s.DescriptorCount(),
		Excluded:    s.Excluded,
	}
}
