package extract

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const (
	minImageSide = 16
	minFaceSize  = 20
	// detectionQuality is the minimum cascade score for a detection to be
	// trusted over the centered-crop fallback.
	detectionQuality = 5.0
)

// Detector localizes faces with a pigo cascade classifier. A nil Detector
// is valid and always falls back to a centered crop.
type Detector struct {
	classifier *pigo.Pigo
}

// NewDetector loads a pigo facefinder cascade from disk.
func NewDetector(cascadeFile string) (*Detector, error) {
	data, err := os.ReadFile(cascadeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade file: %w", err)
	}
	return &Detector{classifier: classifier}, nil
}

// region is a localized face candidate.
type region struct {
	rect     image.Rectangle
	fallback bool
}

// locate finds the face region of an image. A cascade detection wins when
// one clears the quality floor; otherwise the centered square crop is used
// and flagged as a fallback. Returns ErrNoFace for images too small to
// hold a face.
func (d *Detector) locate(img image.Image) (region, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < minImageSide || h < minImageSide {
		return region{}, ErrNoFace
	}

	if d != nil && d.classifier != nil {
		if rect, ok := d.detect(img); ok {
			return region{rect: rect}, nil
		}
	}

	// Deterministic fallback: centered square crop, lower confidence.
	side := min(w, h)
	x := bounds.Min.X + (w-side)/2
	y := bounds.Min.Y + (h-side)/2
	return region{
		rect:     image.Rect(x, y, x+side, y+side),
		fallback: true,
	}, nil
}

// detect runs the cascade over the grayscale image and returns the
// strongest detection above the quality floor, clamped to the image bounds.
func (d *Detector) detect(img image.Image) (image.Rectangle, bool) {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     min(cols, rows),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	var best pigo.Detection
	found := false
	for _, det := range dets {
		if det.Q < detectionQuality {
			continue
		}
		if !found || det.Q > best.Q {
			best = det
			found = true
		}
	}
	if !found {
		return image.Rectangle{}, false
	}

	half := best.Scale / 2
	rect := image.Rect(best.Col-half, best.Row-half, best.Col+half, best.Row+half).
		Add(bounds.Min).
		Intersect(bounds)
	if rect.Empty() {
		return image.Rectangle{}, false
	}
	return rect, true
}
