package gallery

import (
	"context"
	"errors"
)

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound is returned when an identity does not exist.
	ErrNotFound = errors.New("gallery: identity not found")
	// ErrDuplicateKey is returned when an insert conflicts with an existing
	// roll number or email.
	ErrDuplicateKey = errors.New("gallery: duplicate key")
)

// IdentityReader provides read-only access to enrolled identities.
type IdentityReader interface {
	// FindIdentity retrieves an identity by ID, including its descriptors.
	// Returns ErrNotFound if it does not exist.
	FindIdentity(ctx context.Context, id string) (*Identity, error)
	// FindIdentityByRollNo retrieves an identity by its roll number.
	// Returns ErrNotFound if it does not exist.
	FindIdentityByRollNo(ctx context.Context, rollNo string) (*Identity, error)
	// ListIdentities returns all identities with their descriptors,
	// ordered by ID.
	ListIdentities(ctx context.Context) ([]Identity, error)
	// CountIdentities returns the number of enrolled identities.
	CountIdentities(ctx context.Context) (int, error)
}

// IdentityWriter provides write access to enrolled identities.
type IdentityWriter interface {
	IdentityReader

	// InsertIdentity stores a new identity and its descriptors, returning
	// the assigned ID. Returns ErrDuplicateKey when the roll number or
	// email is already enrolled.
	InsertIdentity(ctx context.Context, identity Identity) (string, error)
	// UpdateIdentity applies the non-nil fields of the update.
	// Returns ErrNotFound if the identity does not exist.
	UpdateIdentity(ctx context.Context, id string, update IdentityUpdate) error
	// DeleteIdentity removes an identity and its descriptors.
	// Returns ErrNotFound if the identity does not exist.
	DeleteIdentity(ctx context.Context, id string) error
	// ReplaceDescriptors replaces all stored descriptors for an identity.
	// Used by the bootstrap path after re-extraction.
	ReplaceDescriptors(ctx context.Context, id string, descriptors []StoredDescriptor) error
}

// AttendanceStore provides access to attendance records.
type AttendanceStore interface {
	// MarkAttendance records presence for an identity on a date. Marking
	// the same identity twice on one date is not an error; the second call
	// reports alreadyMarked=true and writes nothing.
	MarkAttendance(ctx context.Context, record AttendanceRecord) (alreadyMarked bool, err error)
	// ListByDate returns all attendance records for a date (YYYY-MM-DD).
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
	// ListByIdentity returns an identity's attendance history, newest first.
	ListByIdentity(ctx context.Context, identityID string) ([]AttendanceRecord, error)
	// CountByDate returns the number of identities marked present on a date.
	CountByDate(ctx context.Context, date string) (int, error)
}

// Store combines identity and attendance storage.
type Store interface {
	IdentityWriter
	AttendanceStore
}
