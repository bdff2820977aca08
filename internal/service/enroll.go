package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/index"
)

// Validation errors returned by Enroll.
var (
	ErrMissingName   = errors.New("service: name is required")
	ErrMissingRollNo = errors.New("service: roll number is required")
	ErrNoImages      = errors.New("service: at least one image is required")
)

// ErrNoFaceInImages is returned when none of the supplied enrollment
// images yields a descriptor.
var ErrNoFaceInImages = errors.New("service: no usable face in enrollment images")

// DuplicateIdentityError rejects an enrollment whose face already matches
// an enrolled identity at the stricter enrollment threshold.
type DuplicateIdentityError struct {
	IdentityID string
	Name       string
	Score      float64
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("face already enrolled as %q (%s)", e.Name, e.IdentityID)
}

// EnrollRequest carries a new identity and its reference images.
type EnrollRequest struct {
	Name       string
	RollNo     string
	Department string
	Email      string
	Phone      string
	Images     [][]byte
}

// Enroll extracts descriptors from the reference images, runs the
// duplicate guard, stores the identity, saves the images, and triggers an
// index rebuild. The guard uses the enrollment threshold, which is
// stricter than the recognition one: a face that would merely be
// recognized is not necessarily a duplicate, but a near-certain match is.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*gallery.Identity, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.RollNo == "" {
		return nil, ErrMissingRollNo
	}
	if len(req.Images) == 0 {
		return nil, ErrNoImages
	}

	descriptors := make([]gallery.StoredDescriptor, 0, len(req.Images))
	usable := make([][]byte, 0, len(req.Images))
	for _, img := range req.Images {
		probe, err := s.extractor.Extract(img)
		if err != nil {
			if errors.Is(err, extract.ErrNoFace) || errors.Is(err, extract.ErrInvalidImage) {
				continue
			}
			return nil, fmt.Errorf("descriptor extraction failed: %w", err)
		}
		descriptors = append(descriptors, gallery.StoredDescriptor{
			Vector:    probe.Descriptor,
			Kind:      s.extractor.Kind(),
			Dim:       len(probe.Descriptor),
			CreatedAt: time.Now(),
		})
		usable = append(usable, img)
	}
	if len(descriptors) == 0 {
		return nil, ErrNoFaceInImages
	}

	if err := s.guardDuplicate(descriptors); err != nil {
		return nil, err
	}

	identity := gallery.Identity{
		Name:        req.Name,
		RollNo:      req.RollNo,
		Department:  req.Department,
		Email:       req.Email,
		Phone:       req.Phone,
		Descriptors: descriptors,
		Source:      gallery.SourceStore,
		CreatedAt:   time.Now(),
	}
	id, err := s.store.InsertIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	identity.ID = id

	for _, img := range usable {
		if _, err := s.images.Save(id, img); err != nil {
			s.logger.Warn("failed to save reference image",
				zap.String("identity_id", id), zap.Error(err))
		}
	}

	s.TriggerRebuild()
	s.logger.Info("identity enrolled",
		zap.String("identity_id", id),
		zap.String("name", identity.Name),
		zap.Int("descriptors", len(descriptors)))
	return &identity, nil
}

// guardDuplicate checks every new descriptor against the published index
// at the enrollment threshold. An empty or unpublished index admits
// everyone; there is nothing to be a duplicate of.
func (s *Service) guardDuplicate(descriptors []gallery.StoredDescriptor) error {
	snapshot := s.publisher.Current()
	if snapshot == nil {
		return nil
	}

	for _, d := range descriptors {
		match, err := snapshot.MatchProbe(d.Vector, s.thresholds.Enroll)
		if err != nil {
			if errors.Is(err, index.ErrEmptyIndex) {
				return nil
			}
			return err
		}
		if match.Accepted {
			return &DuplicateIdentityError{
				IdentityID: match.IdentityID,
				Name:       match.Name,
				Score:      match.Score,
			}
		}
	}
	return nil
}

// ReenrollDescriptors re-extracts an identity's descriptors from its
// stored reference images. Used after switching extractor modes, when the
// stored descriptors no longer match the index's descriptor space.
func (s *Service) ReenrollDescriptors(ctx context.Context, id string) (int, error) {
	paths, err := s.images.List(id)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("identity %s has no reference images", id)
	}

	descriptors := make([]gallery.StoredDescriptor, 0, len(paths))
	for _, path := range paths {
		img, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read reference image",
				zap.String("path", path), zap.Error(err))
			continue
		}
		probe, err := s.extractor.Extract(img)
		if err != nil {
			continue
		}
		descriptors = append(descriptors, gallery.StoredDescriptor{
			Vector:    probe.Descriptor,
			Kind:      s.extractor.Kind(),
			Dim:       len(probe.Descriptor),
			CreatedAt: time.Now(),
		})
	}
	if len(descriptors) == 0 {
		return 0, ErrNoFaceInImages
	}

	if err := s.store.ReplaceDescriptors(ctx, id, descriptors); err != nil {
		return 0, err
	}
	s.TriggerRebuild()
	return len(descriptors), nil
}
