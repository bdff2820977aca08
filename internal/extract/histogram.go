package extract

import (
	"github.com/facemark/facemark/internal/gallery"
)

// Histogram descriptor shape: the face region is resized to faceSide and
// binned into an 8x8x8 RGB cube, giving a 512-dimensional L1-normalized
// vector compared by correlation.
const (
	faceSide      = 64
	binsPerChan   = 8
	histogramDims = binsPerChan * binsPerChan * binsPerChan
)

// HistogramExtractor produces fixed-function color-histogram descriptors.
// It needs no training and is the default extractor.
type HistogramExtractor struct {
	detector *Detector
}

// NewHistogramExtractor creates a histogram extractor. A nil detector makes
// every extraction use the centered-crop fallback.
func NewHistogramExtractor(detector *Detector) *HistogramExtractor {
	return &HistogramExtractor{detector: detector}
}

// Kind reports the feature-vector descriptor space.
func (e *HistogramExtractor) Kind() gallery.DescriptorKind {
	return gallery.KindVector
}

// Extract localizes the face and computes its color-histogram descriptor.
func (e *HistogramExtractor) Extract(imageData []byte) (*Probe, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	reg, err := e.detector.locate(img)
	if err != nil {
		return nil, err
	}

	face := resizeImage(cropImage(img, reg.rect), faceSide, faceSide)

	hist := make([]float32, histogramDims)
	for x := 0; x < faceSide; x++ {
		for y := 0; y < faceSide; y++ {
			r, g, b, _ := face.At(x, y).RGBA()
			ri := int(r>>8) * binsPerChan / 256
			gi := int(g>>8) * binsPerChan / 256
			bi := int(b>>8) * binsPerChan / 256
			hist[ri*binsPerChan*binsPerChan+gi*binsPerChan+bi]++
		}
	}

	// L1 normalization keeps the descriptor independent of face size.
	total := float32(faceSide * faceSide)
	for i := range hist {
		hist[i] /= total
	}

	return &Probe{Descriptor: hist, Fallback: reg.fallback}, nil
}
