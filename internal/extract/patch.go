package extract

import (
	"github.com/facemark/facemark/internal/gallery"
)

// Patch descriptor shape: the face region is resized to a patchSide square
// of grayscale values scaled to [0, 1] and flattened row-major, giving the
// classifier model a 1024-dimensional input.
const (
	patchSide = 32
	patchDims = patchSide * patchSide
)

// PatchExtractor produces normalized grayscale patch vectors for
// classifier-mode matching.
type PatchExtractor struct {
	detector *Detector
}

// NewPatchExtractor creates a patch extractor. A nil detector makes every
// extraction use the centered-crop fallback.
func NewPatchExtractor(detector *Detector) *PatchExtractor {
	return &PatchExtractor{detector: detector}
}

// Kind reports the classifier descriptor space.
func (e *PatchExtractor) Kind() gallery.DescriptorKind {
	return gallery.KindPatch
}

// Extract localizes the face and flattens it into a grayscale patch vector.
func (e *PatchExtractor) Extract(imageData []byte) (*Probe, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	reg, err := e.detector.locate(img)
	if err != nil {
		return nil, err
	}

	gray := toGrayscale(resizeImage(cropImage(img, reg.rect), patchSide, patchSide))

	patch := make([]float32, 0, patchDims)
	for y := 0; y < patchSide; y++ {
		for x := 0; x < patchSide; x++ {
			patch = append(patch, float32(gray[x][y]/255.0))
		}
	}

	return &Probe{Descriptor: patch, Fallback: reg.fallback}, nil
}
