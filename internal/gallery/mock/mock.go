// Package mock provides an in-memory gallery store for tests and local
// development without PostgreSQL.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facemark/facemark/internal/gallery"
)

// Store is an in-memory implementation of gallery.Store.
type Store struct {
	mu         sync.RWMutex
	identities map[string]*gallery.Identity
	attendance []gallery.AttendanceRecord

	// Error injection
	FindError   error
	ListError   error
	InsertError error
	UpdateError error
	DeleteError error
	MarkError   error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		identities: make(map[string]*gallery.Identity),
	}
}

// AddIdentity seeds an identity directly, bypassing duplicate checks.
func (s *Store) AddIdentity(identity gallery.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	s.identities[identity.ID] = &identity
}

// FindIdentity retrieves an identity by ID.
func (s *Store) FindIdentity(ctx context.Context, id string) (*gallery.Identity, error) {
	if s.FindError != nil {
		return nil, s.FindError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, gallery.ErrNotFound
	}
	cp := *identity
	return &cp, nil
}

// FindIdentityByRollNo retrieves an identity by roll number.
func (s *Store) FindIdentityByRollNo(ctx context.Context, rollNo string) (*gallery.Identity, error) {
	if s.FindError != nil {
		return nil, s.FindError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if identity.RollNo == rollNo {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, gallery.ErrNotFound
}

// ListIdentities returns all identities ordered by ID.
func (s *Store) ListIdentities(ctx context.Context) ([]gallery.Identity, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]gallery.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		result = append(result, *identity)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CountIdentities returns the number of enrolled identities.
func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	if s.ListError != nil {
		return 0, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}

// InsertIdentity stores a new identity, enforcing roll number and email
// uniqueness like the PostgreSQL backend.
func (s *Store) InsertIdentity(ctx context.Context, identity gallery.Identity) (string, error) {
	if s.InsertError != nil {
		return "", s.InsertError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.identities {
		if existing.RollNo == identity.RollNo || (identity.Email != "" && existing.Email == identity.Email) {
			return "", gallery.ErrDuplicateKey
		}
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	s.identities[identity.ID] = &identity
	return identity.ID, nil
}

// UpdateIdentity applies the non-nil fields of the update.
func (s *Store) UpdateIdentity(ctx context.Context, id string, update gallery.IdentityUpdate) error {
	if s.UpdateError != nil {
		return s.UpdateError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return gallery.ErrNotFound
	}
	if update.Name != nil {
		identity.Name = *update.Name
	}
	if update.RollNo != nil {
		identity.RollNo = *update.RollNo
	}
	if update.Department != nil {
		identity.Department = *update.Department
	}
	if update.Email != nil {
		identity.Email = *update.Email
	}
	if update.Phone != nil {
		identity.Phone = *update.Phone
	}
	return nil
}

// DeleteIdentity removes an identity and its descriptors.
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	if s.DeleteError != nil {
		return s.DeleteError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[id]; !ok {
		return gallery.ErrNotFound
	}
	delete(s.identities, id)
	return nil
}

// ReplaceDescriptors replaces all stored descriptors for an identity.
func (s *Store) ReplaceDescriptors(ctx context.Context, id string, descriptors []gallery.StoredDescriptor) error {
	if s.UpdateError != nil {
		return s.UpdateError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return gallery.ErrNotFound
	}
	identity.Descriptors = descriptors
	return nil
}

// MarkAttendance records presence, once per identity per date.
func (s *Store) MarkAttendance(ctx context.Context, record gallery.AttendanceRecord) (bool, error) {
	if s.MarkError != nil {
		return false, s.MarkError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.attendance {
		if r.IdentityID == record.IdentityID && r.Date == record.Date {
			return true, nil
		}
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.attendance = append(s.attendance, record)
	return false, nil
}

// ListByDate returns attendance records for a date.
func (s *Store) ListByDate(ctx context.Context, date string) ([]gallery.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []gallery.AttendanceRecord
	for _, r := range s.attendance {
		if r.Date == date {
			result = append(result, r)
		}
	}
	return result, nil
}

// ListByIdentity returns an identity's attendance history, newest first.
func (s *Store) ListByIdentity(ctx context.Context, identityID string) ([]gallery.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []gallery.AttendanceRecord
	for _, r := range s.attendance {
		if r.IdentityID == identityID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].Time > result[j].Time
	})
	return result, nil
}

// CountByDate returns the number of identities marked present on a date.
func (s *Store) CountByDate(ctx context.Context, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.attendance {
		if r.Date == date {
			count++
		}
	}
	return count, nil
}
