package index

import (
	"errors"

	"github.com/facemark/facemark/internal/gallery"
)

// ErrEmptyIndex is returned when a match is attempted against an index
// with no enrolled identities. It is an expected state right after a fresh
// install, not a failure.
var ErrEmptyIndex = errors.New("index: no identities enrolled")

// Match is the result of comparing a probe descriptor against a snapshot.
type Match struct {
	IdentityID string
	Name       string
	RollNo     string

	// Score is the quantity the acceptance threshold was applied to:
	// correlation similarity in vector mode (higher is better), centroid
	// distance in classifier mode (lower is better).
	Score float64

	// Accepted reports whether the score cleared the threshold. A match
	// with Accepted=false still names the nearest identity, which callers
	// surface for diagnostics but must not treat as recognized.
	Accepted bool
}

// MatchProbe scores a probe descriptor against every identity and returns
// the best candidate. Aggregation is best-of-max: an identity's score is
// the best score among its own descriptors, and the winner is the identity
// with the best aggregate. Ties go to the lowest identity ID. Returns
// ErrEmptyIndex when the snapshot has no entries.
func (s *Snapshot) MatchProbe(descriptor []float32, threshold float64) (Match, error) {
	if s.Empty() {
		return Match{}, ErrEmptyIndex
	}

	if s.Mode == ModeClassifier {
		return s.matchClassifier(descriptor, threshold)
	}
	return s.matchVector(descriptor, threshold)
}

// matchVector scans all descriptors exhaustively. Entries are sorted by
// identity ID, so a strict improvement check makes the lowest ID win ties.
func (s *Snapshot) matchVector(descriptor []float32, threshold float64) (Match, error) {
	best := -1
	bestScore := 0.0
	for i := range s.Entries {
		score := -1.0
		for _, d := range s.Entries[i].Descriptors {
			if c := gallery.Correlation(descriptor, d); c > score {
				score = c
			}
		}
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}

	e := &s.Entries[best]
	return Match{
		IdentityID: e.IdentityID,
		Name:       e.Name,
		RollNo:     e.RollNo,
		Score:      bestScore,
		Accepted:   bestScore > threshold,
	}, nil
}

func (s *Snapshot) matchClassifier(descriptor []float32, threshold float64) (Match, error) {
	if s.Model == nil {
		return Match{}, ErrEmptyIndex
	}

	id, distance, err := s.Model.Predict(descriptor)
	if err != nil {
		if errors.Is(err, ErrUntrained) {
			return Match{}, ErrEmptyIndex
		}
		return Match{}, err
	}

	e := s.entryByID(id)
	if e == nil {
		// A label with no roster entry is never a match, whatever its
		// distance says.
		return Match{Score: distance}, nil
	}

	return Match{
		IdentityID: e.IdentityID,
		Name:       e.Name,
		RollNo:     e.RollNo,
		Score:      distance,
		Accepted:   distance < threshold,
	}, nil
}

// entryByID finds an entry by binary search over the sorted entries.
func (s *Snapshot) entryByID(id string) *Entry {
	lo, hi := 0, len(s.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.Entries[mid].IdentityID < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.Entries) && s.Entries[lo].IdentityID == id {
		return &s.Entries[lo]
	}
	return nil
}
