package index

import (
	"sort"

	"github.com/coder/hnsw"

	"github.com/facemark/facemark/internal/gallery"
)

// Approximate-neighbor graph parameters for the audit scan.
const (
	auditMaxNeighbors     = 16
	auditSearchCandidates = 8
)

// DuplicatePair reports two distinct identities whose descriptors are
// suspiciously similar. The pair is ordered so IdentityID < OtherID.
type DuplicatePair struct {
	IdentityID string
	Name       string
	OtherID    string
	OtherName  string
	Similarity float64
}

// FindDuplicates scans a snapshot for cross-identity descriptor pairs whose
// correlation clears the threshold. It is an offline check run over fully
// enrolled galleries where exact pairwise comparison would be quadratic, so
// candidates come from an approximate nearest-neighbor graph and only the
// shortlisted pairs are scored exactly. The enrollment guard remains the
// authoritative gate at enroll time; this catches duplicates that predate
// it or slipped past older thresholds.
func FindDuplicates(s *Snapshot, threshold float64) []DuplicatePair {
	if s == nil || len(s.Entries) < 2 {
		return nil
	}

	type descriptorRef struct {
		entry int
		desc  int
	}

	refs := make([]descriptorRef, 0, s.DescriptorCount())
	g := hnsw.NewGraph[int]()
	g.M = auditMaxNeighbors
	g.Ml = 1.0 / float64(auditMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	for i := range s.Entries {
		for j, d := range s.Entries[i].Descriptors {
			g.Add(hnsw.MakeNode(len(refs), d))
			refs = append(refs, descriptorRef{entry: i, desc: j})
		}
	}

	best := make(map[[2]string]DuplicatePair)
	for key, ref := range refs {
		query := s.Entries[ref.entry].Descriptors[ref.desc]
		for _, n := range g.Search(query, auditSearchCandidates) {
			if n.Key == key {
				continue
			}
			other := refs[n.Key]
			if other.entry == ref.entry {
				continue
			}

			// Score the shortlisted pair exactly.
			similarity := gallery.Correlation(query, s.Entries[other.entry].Descriptors[other.desc])
			if similarity <= threshold {
				continue
			}

			a, b := &s.Entries[ref.entry], &s.Entries[other.entry]
			if b.IdentityID < a.IdentityID {
				a, b = b, a
			}
			pairKey := [2]string{a.IdentityID, b.IdentityID}
			if existing, ok := best[pairKey]; ok && existing.Similarity >= similarity {
				continue
			}
			best[pairKey] = DuplicatePair{
				IdentityID: a.IdentityID,
				Name:       a.Name,
				OtherID:    b.IdentityID,
				OtherName:  b.Name,
				Similarity: similarity,
			}
		}
	}

	pairs := make([]DuplicatePair, 0, len(best))
	for _, p := range best {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		return pairs[i].IdentityID < pairs[j].IdentityID
	})
	return pairs
}
