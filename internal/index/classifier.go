package index

import (
	"errors"
	"math"

	"github.com/facemark/facemark/internal/gallery"
)

// ErrUntrained is returned when the classifier model has no classes.
var ErrUntrained = errors.New("index: classifier model not trained")

// CentroidModel is the classifier-mode recognition model. Each enrolled
// identity becomes one class whose centroid is the mean of its grayscale
// patch descriptors; prediction is nearest centroid by Euclidean distance.
// Like a snapshot, a trained model is immutable and safe to share.
type CentroidModel struct {
	// labels holds identity IDs sorted ascending; the slice index is the
	// class label. Ties in prediction resolve to the lowest label, which
	// by construction is the lowest identity ID.
	labels    []string
	centroids [][]float32
}

// TrainCentroidModel computes one centroid per entry. Entries must already
// be sorted by identity ID and carry at least one descriptor each.
func TrainCentroidModel(entries []Entry) *CentroidModel {
	m := &CentroidModel{
		labels:    make([]string, 0, len(entries)),
		centroids: make([][]float32, 0, len(entries)),
	}

	for i := range entries {
		e := &entries[i]
		if len(e.Descriptors) == 0 {
			continue
		}

		dims := len(e.Descriptors[0])
		centroid := make([]float64, dims)
		count := 0
		for _, d := range e.Descriptors {
			if len(d) != dims {
				continue
			}
			for j, v := range d {
				centroid[j] += float64(v)
			}
			count++
		}
		if count == 0 {
			continue
		}

		out := make([]float32, dims)
		for j := range centroid {
			out[j] = float32(centroid[j] / float64(count))
		}
		m.labels = append(m.labels, e.IdentityID)
		m.centroids = append(m.centroids, out)
	}

	return m
}

// Classes returns the number of trained classes.
func (m *CentroidModel) Classes() int {
	return len(m.labels)
}

// Predict returns the identity ID of the nearest centroid and its distance.
// Lower distance means a closer match. Returns ErrUntrained when the model
// has no classes.
func (m *CentroidModel) Predict(descriptor []float32) (string, float64, error) {
	if len(m.labels) == 0 {
		return "", 0, ErrUntrained
	}

	bestLabel := ""
	bestDistance := math.Inf(1)
	for i, centroid := range m.centroids {
		d := gallery.EuclideanDistance(descriptor, centroid)
		if d < bestDistance {
			bestDistance = d
			bestLabel = m.labels[i]
		}
	}

	// A shape mismatch leaves the distance at +Inf, which no acceptance
	// threshold passes; the caller reports an unknown face.
	return bestLabel, bestDistance, nil
}
