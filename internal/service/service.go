// Package service orchestrates enrollment, recognition, and attendance on
// top of the gallery store, descriptor extractor, and published index.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/config"
	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/imagestore"
	"github.com/facemark/facemark/internal/index"
)

// Service wires the stores and the index together. All methods are safe
// for concurrent use; recognition reads the published snapshot without
// locking, and gallery mutations trigger a coalesced background rebuild.
type Service struct {
	store      gallery.Store
	images     *imagestore.Store
	extractor  extract.Extractor
	mode       string
	thresholds config.ModeThresholds
	publisher  *index.Publisher
	rebuilder  *index.Rebuilder
	logger     *zap.Logger
}

// New creates the service.
func New(
	store gallery.Store,
	images *imagestore.Store,
	extractor extract.Extractor,
	mode string,
	thresholds config.ModeThresholds,
	publisher *index.Publisher,
	rebuilder *index.Rebuilder,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:      store,
		images:     images,
		extractor:  extractor,
		mode:       mode,
		thresholds: thresholds,
		publisher:  publisher,
		rebuilder:  rebuilder,
		logger:     logger,
	}
}

// TriggerRebuild requests a background index rebuild.
func (s *Service) TriggerRebuild() {
	s.rebuilder.Trigger()
}

// RebuildNow rebuilds and publishes the index synchronously.
func (s *Service) RebuildNow(ctx context.Context) (*index.Snapshot, error) {
	return s.rebuilder.RebuildNow(ctx)
}

// IndexHealth summarizes the currently published index.
func (s *Service) IndexHealth() index.Health {
	return s.publisher.Health()
}

// ListIdentities returns all enrolled identities.
func (s *Service) ListIdentities(ctx context.Context) ([]gallery.Identity, error) {
	return s.store.ListIdentities(ctx)
}

// SearchIdentities returns the identities whose name contains the query,
// compared case- and diacritics-insensitively ("jiri" finds "Jiří"). An
// empty query returns the full roster.
func (s *Service) SearchIdentities(ctx context.Context, query string) ([]gallery.Identity, error) {
	identities, err := s.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return identities, nil
	}

	q := gallery.NormalizeName(query)
	matched := make([]gallery.Identity, 0, len(identities))
	for _, identity := range identities {
		if strings.Contains(gallery.NormalizeName(identity.Name), q) {
			matched = append(matched, identity)
		}
	}
	return matched, nil
}

// GetIdentity returns one identity by ID.
func (s *Service) GetIdentity(ctx context.Context, id string) (*gallery.Identity, error) {
	return s.store.FindIdentity(ctx, id)
}

// UpdateIdentity applies the non-nil fields of the update and triggers a
// rebuild so a renamed identity shows its new name in match results.
func (s *Service) UpdateIdentity(ctx context.Context, id string, update gallery.IdentityUpdate) error {
	if err := s.store.UpdateIdentity(ctx, id, update); err != nil {
		return err
	}
	s.TriggerRebuild()
	return nil
}

// DeleteIdentity removes an identity, its reference images, and triggers a
// rebuild so the identity stops matching.
func (s *Service) DeleteIdentity(ctx context.Context, id string) error {
	if err := s.store.DeleteIdentity(ctx, id); err != nil {
		return err
	}
	if err := s.images.Delete(id); err != nil {
		// The gallery row is gone; orphaned images are a cleanup problem,
		// not a reason to fail the delete.
		s.logger.Warn("failed to delete reference images",
			zap.String("identity_id", id), zap.Error(err))
	}
	s.TriggerRebuild()
	return nil
}

// Profile is an identity together with its attendance history and
// reference image paths.
type Profile struct {
	Identity   gallery.Identity           `json:"identity"`
	Attendance []gallery.AttendanceRecord `json:"attendance"`
	Samples    []string                   `json:"samples"`
}

// IdentityProfile assembles the profile view for one identity.
func (s *Service) IdentityProfile(ctx context.Context, id string) (*Profile, error) {
	identity, err := s.store.FindIdentity(ctx, id)
	if err != nil {
		return nil, err
	}

	attendance, err := s.store.ListByIdentity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance history: %w", err)
	}

	samples, err := s.images.List(id)
	if err != nil {
		s.logger.Warn("failed to list reference images",
			zap.String("identity_id", id), zap.Error(err))
		samples = nil
	}

	return &Profile{
		Identity:   *identity,
		Attendance: attendance,
		Samples:    samples,
	}, nil
}

// AttendanceByDate returns all attendance records for a date (YYYY-MM-DD).
func (s *Service) AttendanceByDate(ctx context.Context, date string) ([]gallery.AttendanceRecord, error) {
	return s.store.ListByDate(ctx, date)
}

// AttendanceToday returns today's attendance records.
func (s *Service) AttendanceToday(ctx context.Context) ([]gallery.AttendanceRecord, error) {
	return s.store.ListByDate(ctx, today())
}

// AttendanceStats computes presence counts for a date.
func (s *Service) AttendanceStats(ctx context.Context, date string) (*gallery.AttendanceStats, error) {
	total, err := s.store.CountIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count identities: %w", err)
	}
	present, err := s.store.CountByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}

	stats := &gallery.AttendanceStats{
		TotalIdentities: total,
		Present:         present,
		Absent:          total - present,
	}
	if total > 0 {
		stats.Percentage = float64(present) / float64(total) * 100
	}
	return stats, nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func timeOfDay() string {
	return time.Now().Format("15:04:05")
}
