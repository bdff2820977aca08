package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/gallery/mock"
	"github.com/facemark/facemark/internal/imagestore"
)

func vectorDescriptor(values ...float32) gallery.StoredDescriptor {
	return gallery.StoredDescriptor{
		Vector: values,
		Kind:   gallery.KindVector,
		Dim:    len(values),
	}
}

func TestBuilderBuildsSortedEntries(t *testing.T) {
	store := mock.NewStore()
	store.AddIdentity(gallery.Identity{
		ID: "id-b", Name: "Bob", RollNo: "102",
		Descriptors: []gallery.StoredDescriptor{vectorDescriptor(4, 5, 6)},
	})
	store.AddIdentity(gallery.Identity{
		ID: "id-a", Name: "Alice", RollNo: "101",
		Descriptors: []gallery.StoredDescriptor{vectorDescriptor(1, 2, 3)},
	})

	b := NewBuilder(store, ModeVector, zap.NewNop())
	s, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(s.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(s.Entries))
	}
	if s.Entries[0].IdentityID != "id-a" || s.Entries[1].IdentityID != "id-b" {
		t.Errorf("entries not sorted by ID: %s, %s",
			s.Entries[0].IdentityID, s.Entries[1].IdentityID)
	}
	if s.Mode != ModeVector {
		t.Errorf("expected mode %s, got %s", ModeVector, s.Mode)
	}
	if s.Model != nil {
		t.Error("vector mode must not train a classifier model")
	}
}

func TestBuilderExcludesIdentityWithoutDescriptors(t *testing.T) {
	store := mock.NewStore()
	store.AddIdentity(gallery.Identity{
		ID: "id-a", Name: "Alice",
		Descriptors: []gallery.StoredDescriptor{vectorDescriptor(1, 2, 3)},
	})
	store.AddIdentity(gallery.Identity{ID: "id-b", Name: "Bob"})

	b := NewBuilder(store, ModeVector, zap.NewNop())
	s, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(s.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(s.Entries))
	}
	if len(s.Excluded) != 1 || s.Excluded[0] != "id-b" {
		t.Errorf("expected id-b excluded, got %v", s.Excluded)
	}
}

func TestBuilderFiltersForeignKinds(t *testing.T) {
	store := mock.NewStore()
	store.AddIdentity(gallery.Identity{
		ID: "id-a", Name: "Alice",
		Descriptors: []gallery.StoredDescriptor{
			vectorDescriptor(1, 2, 3),
			{Vector: []float32{9, 9}, Kind: gallery.KindPatch, Dim: 2},
		},
	})

	b := NewBuilder(store, ModeVector, zap.NewNop())
	s, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := s.DescriptorCount(); got != 1 {
		t.Errorf("patch descriptors must not enter a vector index; got %d descriptors", got)
	}
}

func TestBuilderEmptyGallery(t *testing.T) {
	b := NewBuilder(mock.NewStore(), ModeVector, zap.NewNop())
	s, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("empty gallery must not be a build error: %v", err)
	}
	if !s.Empty() {
		t.Errorf("expected empty snapshot, got %d entries", len(s.Entries))
	}
}

func TestBuilderClassifierModeTrainsModel(t *testing.T) {
	store := mock.NewStore()
	store.AddIdentity(gallery.Identity{
		ID: "id-a", Name: "Alice",
		Descriptors: []gallery.StoredDescriptor{
			{Vector: []float32{0, 0}, Kind: gallery.KindPatch, Dim: 2},
			{Vector: []float32{0, 2}, Kind: gallery.KindPatch, Dim: 2},
		},
	})

	b := NewBuilder(store, ModeClassifier, zap.NewNop())
	s, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Model == nil {
		t.Fatal("classifier mode must train a model")
	}
	if s.Model.Classes() != 1 {
		t.Errorf("expected 1 class, got %d", s.Model.Classes())
	}
}

// fixedExtractor returns one fixed descriptor for any decodable input.
type fixedExtractor struct {
	descriptor []float32
}

func (e *fixedExtractor) Extract(imageData []byte) (*extract.Probe, error) {
	if len(imageData) == 0 {
		return nil, extract.ErrInvalidImage
	}
	return &extract.Probe{Descriptor: e.descriptor}, nil
}

func (e *fixedExtractor) Kind() gallery.DescriptorKind {
	return gallery.KindVector
}

func TestBuilderDiskFallback(t *testing.T) {
	store := mock.NewStore()
	// Stored descriptors are patches, useless for a vector index.
	store.AddIdentity(gallery.Identity{
		ID: "id-a", Name: "Alice",
		Descriptors: []gallery.StoredDescriptor{
			{Vector: []float32{9, 9}, Kind: gallery.KindPatch, Dim: 2},
		},
	})

	images, err := imagestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("imagestore.New failed: %v", err)
	}
	if _, err := images.Save("id-a", []byte("reference jpeg")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	b := NewBuilder(store, ModeVector, zap.NewNop()).
		WithDiskFallback(images, &fixedExtractor{descriptor: []float32{1, 2, 3}})
	s, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(s.Entries) != 1 || s.DescriptorCount() != 1 {
		t.Fatalf("expected 1 re-extracted entry, got %+v", s.Entries)
	}
	if len(s.Excluded) != 0 {
		t.Errorf("identity with reference images must not be excluded, got %v", s.Excluded)
	}
}

func TestBuilderStoreUnavailable(t *testing.T) {
	store := mock.NewStore()
	store.ListError = errors.New("connection refused")

	b := NewBuilder(store, ModeVector, zap.NewNop())
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected error when the store is unavailable")
	}
}
