package index

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/imagestore"
)

// Builder constructs snapshots from the gallery store. It is stateless;
// every Build reads the full gallery and produces a fresh snapshot, which
// keeps builds idempotent and rebuilds safe to retry.
type Builder struct {
	store  gallery.IdentityReader
	mode   string
	kind   gallery.DescriptorKind
	logger *zap.Logger

	// Optional disk fallback for identities whose stored descriptors do
	// not match the index kind (typically after an extractor mode switch).
	images    *imagestore.Store
	extractor extract.Extractor
}

// NewBuilder creates a builder for the given extractor mode. Mode selects
// which stored descriptor kind feeds the index.
func NewBuilder(store gallery.IdentityReader, mode string, logger *zap.Logger) *Builder {
	kind := gallery.KindVector
	if mode == ModeClassifier {
		kind = gallery.KindPatch
	}
	return &Builder{
		store:  store,
		mode:   mode,
		kind:   kind,
		logger: logger,
	}
}

// WithDiskFallback makes builds re-extract descriptors from an identity's
// reference images when none of its stored descriptors fit the index kind.
// The re-extracted descriptors live only in the snapshot; persisting them
// is the bootstrap command's job.
func (b *Builder) WithDiskFallback(images *imagestore.Store, extractor extract.Extractor) *Builder {
	b.images = images
	b.extractor = extractor
	return b
}

// Build reads every enrolled identity and assembles an immutable snapshot.
// Identities without a usable descriptor are excluded and logged, never
// silently matched against garbage. An empty gallery yields an empty
// snapshot, not an error.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	identities, err := b.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	snapshot := &Snapshot{
		Mode:    b.mode,
		Entries: make([]Entry, 0, len(identities)),
		BuiltAt: time.Now(),
	}

	for i := range identities {
		id := &identities[i]
		descriptors := usableDescriptors(id.Descriptors, b.kind)
		if len(descriptors) == 0 {
			descriptors = b.extractFromDisk(id.ID)
		}
		if len(descriptors) == 0 {
			snapshot.Excluded = append(snapshot.Excluded, id.ID)
			b.logger.Warn("identity has no usable descriptors, excluding from index",
				zap.String("identity_id", id.ID),
				zap.String("name", id.Name),
				zap.String("kind", string(b.kind)))
			continue
		}
		snapshot.Entries = append(snapshot.Entries, Entry{
			IdentityID:  id.ID,
			Name:        id.Name,
			RollNo:      id.RollNo,
			Descriptors: descriptors,
		})
	}

	// The matcher's tie-break depends on ascending ID order.
	sort.Slice(snapshot.Entries, func(i, j int) bool {
		return snapshot.Entries[i].IdentityID < snapshot.Entries[j].IdentityID
	})

	if b.mode == ModeClassifier && len(snapshot.Entries) > 0 {
		snapshot.Model = TrainCentroidModel(snapshot.Entries)
	}

	b.logger.Info("index built",
		zap.String("mode", b.mode),
		zap.Int("identities", len(snapshot.Entries)),
		zap.Int("descriptors", snapshot.DescriptorCount()),
		zap.Int("excluded", len(snapshot.Excluded)))

	return snapshot, nil
}

// extractFromDisk re-extracts descriptors from an identity's reference
// images. Failed reads and extractions are skipped, not fatal: the identity
// just ends up excluded when nothing works.
func (b *Builder) extractFromDisk(identityID string) [][]float32 {
	if b.images == nil || b.extractor == nil {
		return nil
	}

	paths, err := b.images.List(identityID)
	if err != nil {
		b.logger.Warn("failed to list reference images",
			zap.String("identity_id", identityID), zap.Error(err))
		return nil
	}

	var out [][]float32
	for _, path := range paths {
		img, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		probe, err := b.extractor.Extract(img)
		if err != nil {
			continue
		}
		out = append(out, probe.Descriptor)
	}
	if len(out) > 0 {
		b.logger.Info("re-extracted descriptors from reference images",
			zap.String("identity_id", identityID),
			zap.Int("descriptors", len(out)))
	}
	return out
}

// usableDescriptors keeps descriptors of the requested kind with a
// consistent shape. Mixed dims within one kind come from extractor changes;
// only the dominant (first seen) shape is kept.
func usableDescriptors(stored []gallery.StoredDescriptor, kind gallery.DescriptorKind) [][]float32 {
	var out [][]float32
	dims := 0
	for _, d := range stored {
		if d.Kind != kind || len(d.Vector) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(d.Vector)
		}
		if len(d.Vector) != dims {
			continue
		}
		out = append(out, d.Vector)
	}
	return out
}
