package index

import (
	"errors"
	"testing"
)

// snapshotOf builds a vector-mode snapshot from entries already sorted by ID.
func snapshotOf(entries ...Entry) *Snapshot {
	return &Snapshot{Mode: ModeVector, Entries: entries}
}

func TestMatchProbeEmptyIndex(t *testing.T) {
	s := snapshotOf()
	if _, err := s.MatchProbe([]float32{1, 2, 3}, 0.5); !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestMatchProbeAcceptsAboveThreshold(t *testing.T) {
	probe := []float32{1, 2, 3, 4}
	s := snapshotOf(
		Entry{IdentityID: "alice", Name: "Alice", Descriptors: [][]float32{{1, 2, 3, 4}}},
		Entry{IdentityID: "bob", Name: "Bob", Descriptors: [][]float32{{4, 3, 2, 1}}},
	)

	m, err := s.MatchProbe(probe, 0.45)
	if err != nil {
		t.Fatalf("MatchProbe failed: %v", err)
	}
	if m.IdentityID != "alice" {
		t.Errorf("expected alice to win, got %s", m.IdentityID)
	}
	if !m.Accepted {
		t.Errorf("score %f should clear threshold 0.45", m.Score)
	}
}

func TestMatchProbeRejectsBelowThreshold(t *testing.T) {
	probe := []float32{1, 2, 3, 4}
	s := snapshotOf(
		Entry{IdentityID: "bob", Name: "Bob", Descriptors: [][]float32{{4, 3, 2, 1}}},
	)

	m, err := s.MatchProbe(probe, 0.45)
	if err != nil {
		t.Fatalf("MatchProbe failed: %v", err)
	}
	if m.Accepted {
		t.Errorf("anti-correlated descriptor (score %f) must not be accepted", m.Score)
	}
	if m.IdentityID != "bob" {
		t.Errorf("rejected match should still name the nearest identity, got %q", m.IdentityID)
	}
}

func TestMatchProbeBestOfMax(t *testing.T) {
	probe := []float32{1, 2, 3, 4}
	noise := []float32{4, 3, 2, 1}  // correlation -1
	medium := []float32{2, 1, 4, 3} // correlation 0.6

	// One excellent descriptor among junk must beat several mediocre ones.
	s := snapshotOf(
		Entry{IdentityID: "alice", Descriptors: [][]float32{noise, {1, 2, 3, 4}, noise}},
		Entry{IdentityID: "bob", Descriptors: [][]float32{medium, medium, medium}},
	)

	m, err := s.MatchProbe(probe, 0.45)
	if err != nil {
		t.Fatalf("MatchProbe failed: %v", err)
	}
	if m.IdentityID != "alice" {
		t.Errorf("best-of-max should pick alice, got %s (score %f)", m.IdentityID, m.Score)
	}
}

func TestMatchProbeTieBreakLowestID(t *testing.T) {
	probe := []float32{1, 2, 3, 4}
	exact := []float32{1, 2, 3, 4}

	s := snapshotOf(
		Entry{IdentityID: "id-001", Descriptors: [][]float32{exact}},
		Entry{IdentityID: "id-002", Descriptors: [][]float32{exact}},
	)

	for i := 0; i < 10; i++ {
		m, err := s.MatchProbe(probe, 0.45)
		if err != nil {
			t.Fatalf("MatchProbe failed: %v", err)
		}
		if m.IdentityID != "id-001" {
			t.Fatalf("tie must resolve to the lowest identity ID, got %s", m.IdentityID)
		}
	}
}

func TestMatchProbeClassifierMode(t *testing.T) {
	entries := []Entry{
		{IdentityID: "id-001", Name: "Alice", Descriptors: [][]float32{{0, 0}, {0, 2}}},
		{IdentityID: "id-002", Name: "Bob", Descriptors: [][]float32{{10, 10}}},
	}
	s := &Snapshot{
		Mode:    ModeClassifier,
		Entries: entries,
		Model:   TrainCentroidModel(entries),
	}

	m, err := s.MatchProbe([]float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("MatchProbe failed: %v", err)
	}
	if m.IdentityID != "id-001" || m.Name != "Alice" {
		t.Errorf("expected id-001/Alice, got %s/%s", m.IdentityID, m.Name)
	}
	if !m.Accepted {
		t.Errorf("distance %f should be under threshold 5", m.Score)
	}

	// Far from every centroid: nearest is reported but not accepted.
	far, err := s.MatchProbe([]float32{50, 50}, 5)
	if err != nil {
		t.Fatalf("MatchProbe failed: %v", err)
	}
	if far.Accepted {
		t.Errorf("distance %f must not pass threshold 5", far.Score)
	}
	if far.IdentityID != "id-002" {
		t.Errorf("nearest centroid should be id-002, got %s", far.IdentityID)
	}
}

func TestMatchProbeClassifierNoModel(t *testing.T) {
	s := &Snapshot{
		Mode:    ModeClassifier,
		Entries: []Entry{{IdentityID: "id-001", Descriptors: [][]float32{{1}}}},
	}
	if _, err := s.MatchProbe([]float32{1}, 100); !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("missing model should report ErrEmptyIndex, got %v", err)
	}
}

func TestMatchProbeClassifierLabelWithoutEntry(t *testing.T) {
	// A model trained against a roster the snapshot no longer carries:
	// its predicted label must not surface as a match.
	model := TrainCentroidModel([]Entry{
		{IdentityID: "id-gone", Descriptors: [][]float32{{0, 0}}},
	})
	s := &Snapshot{
		Mode:  ModeClassifier,
		Model: model,
		Entries: []Entry{
			{IdentityID: "id-kept", Name: "Kept", Descriptors: [][]float32{{9, 9}}},
		},
	}

	m, err := s.MatchProbe([]float32{0, 0}, 5)
	if err != nil {
		t.Fatalf("MatchProbe failed: %v", err)
	}
	if m.Accepted {
		t.Error("a label with no roster entry must not be accepted")
	}
	if m.IdentityID != "" || m.Name != "" {
		t.Errorf("expected an anonymous non-match, got %+v", m)
	}
}

func TestCentroidModelAveragesDescriptors(t *testing.T) {
	m := TrainCentroidModel([]Entry{
		{IdentityID: "id-001", Descriptors: [][]float32{{0, 0}, {2, 4}}},
	})
	if m.Classes() != 1 {
		t.Fatalf("expected 1 class, got %d", m.Classes())
	}

	// The centroid is (1, 2); a probe there has distance zero.
	id, distance, err := m.Predict([]float32{1, 2})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if id != "id-001" {
		t.Errorf("expected id-001, got %s", id)
	}
	if distance != 0 {
		t.Errorf("expected zero distance at centroid, got %f", distance)
	}
}

func TestCentroidModelUntrained(t *testing.T) {
	m := TrainCentroidModel(nil)
	if _, _, err := m.Predict([]float32{1}); !errors.Is(err, ErrUntrained) {
		t.Errorf("expected ErrUntrained, got %v", err)
	}
}
