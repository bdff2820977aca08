package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/index"
)

// Outcome classifies a recognition attempt. No face, an unknown face, and
// an empty index are expected states reported to the caller, not errors.
type Outcome string

const (
	OutcomeMatched    Outcome = "matched"
	OutcomeUnknown    Outcome = "unknown"
	OutcomeNoFace     Outcome = "no_face"
	OutcomeEmptyIndex Outcome = "empty_index"
)

// Recognition is the result of matching one probe image.
type Recognition struct {
	Outcome    Outcome `json:"outcome"`
	IdentityID string  `json:"identity_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	RollNo     string  `json:"roll_no,omitempty"`
	Score      float64 `json:"score,omitempty"`
	// Fallback reports that no distinct face region was found and the
	// descriptor came from a centered crop.
	Fallback bool `json:"fallback,omitempty"`
}

// Recognize extracts a descriptor from the probe image and matches it
// against the published index using the recognition threshold. The probe
// image is never stored.
func (s *Service) Recognize(ctx context.Context, imageData []byte) (*Recognition, error) {
	probe, err := s.extractor.Extract(imageData)
	if err != nil {
		if errors.Is(err, extract.ErrNoFace) || errors.Is(err, extract.ErrInvalidImage) {
			return &Recognition{Outcome: OutcomeNoFace}, nil
		}
		return nil, fmt.Errorf("descriptor extraction failed: %w", err)
	}

	snapshot := s.publisher.Current()
	if snapshot == nil {
		return &Recognition{Outcome: OutcomeEmptyIndex, Fallback: probe.Fallback}, nil
	}

	match, err := snapshot.MatchProbe(probe.Descriptor, s.thresholds.Recognize)
	if err != nil {
		if errors.Is(err, index.ErrEmptyIndex) {
			return &Recognition{Outcome: OutcomeEmptyIndex, Fallback: probe.Fallback}, nil
		}
		return nil, err
	}

	r := &Recognition{
		Outcome:  OutcomeUnknown,
		Score:    match.Score,
		Fallback: probe.Fallback,
	}
	if match.Accepted {
		r.Outcome = OutcomeMatched
		r.IdentityID = match.IdentityID
		r.Name = match.Name
		r.RollNo = match.RollNo
	}
	return r, nil
}

// AttendanceResult is a recognition plus the attendance mark it produced.
type AttendanceResult struct {
	Recognition
	AlreadyMarked bool                      `json:"already_marked,omitempty"`
	Record        *gallery.AttendanceRecord `json:"record,omitempty"`
}

// MarkAttendance recognizes the probe image and, on a match, records
// presence for today. Marking twice on one day is idempotent; the second
// call reports AlreadyMarked without writing.
func (s *Service) MarkAttendance(ctx context.Context, imageData []byte) (*AttendanceResult, error) {
	recognition, err := s.Recognize(ctx, imageData)
	if err != nil {
		return nil, err
	}
	result := &AttendanceResult{Recognition: *recognition}
	if recognition.Outcome != OutcomeMatched {
		return result, nil
	}

	record := gallery.AttendanceRecord{
		IdentityID: recognition.IdentityID,
		Name:       recognition.Name,
		RollNo:     recognition.RollNo,
		Date:       today(),
		Time:       timeOfDay(),
		Status:     gallery.StatusPresent,
	}
	alreadyMarked, err := s.store.MarkAttendance(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	result.AlreadyMarked = alreadyMarked
	result.Record = &record
	if !alreadyMarked {
		s.logger.Info("attendance marked",
			zap.String("identity_id", recognition.IdentityID),
			zap.String("name", recognition.Name),
			zap.String("date", record.Date))
	}
	return result, nil
}
