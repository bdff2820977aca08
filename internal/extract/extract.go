// Package extract converts camera frames into face descriptors.
//
// Two extractors are provided: a color-histogram extractor producing
// feature vectors compared by correlation, and a grayscale-patch extractor
// feeding the trained classifier model. Both localize the face region the
// same way and are deterministic for a fixed input image.
package extract

import (
	"errors"

	"github.com/facemark/facemark/internal/gallery"
)

// ErrNoFace is returned when no usable face region can be obtained from an
// image. It is an expected outcome, not a failure: callers branch on it and
// report "no face detected" to the user.
var ErrNoFace = errors.New("extract: no face found")

// ErrInvalidImage is returned when the payload cannot be decoded as an image.
var ErrInvalidImage = errors.New("extract: invalid image data")

// Probe is a descriptor extracted from a single image.
type Probe struct {
	Descriptor []float32
	// Fallback is true when the centered-crop fallback produced the region
	// instead of a real detection. Fallback probes carry lower confidence
	// and a true detection is always preferred over them.
	Fallback bool
}

// Extractor converts raw image bytes into a descriptor probe.
type Extractor interface {
	// Extract returns a probe for the dominant face in the image, or
	// ErrNoFace / ErrInvalidImage.
	Extract(imageData []byte) (*Probe, error)
	// Kind reports the descriptor space this extractor produces.
	Kind() gallery.DescriptorKind
}
