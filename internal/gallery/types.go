// Package gallery defines the enrollment data model and the store
// interfaces the rest of the system consumes.
package gallery

import (
	"time"
)

// DescriptorKind identifies the numeric space a descriptor lives in.
type DescriptorKind string

const (
	// KindVector is a fixed-length feature vector compared by correlation.
	KindVector DescriptorKind = "vector"
	// KindPatch is a flattened grayscale patch consumed by the classifier model.
	KindPatch DescriptorKind = "patch"
)

// IdentitySource records where an identity's descriptors came from.
type IdentitySource string

const (
	// SourceStore means descriptors were persisted at enrollment time.
	SourceStore IdentitySource = "store"
	// SourceDisk means descriptors were re-extracted from reference images.
	SourceDisk IdentitySource = "disk"
)

// StoredDescriptor is one reference descriptor persisted for an identity.
type StoredDescriptor struct {
	Vector    []float32
	Kind      DescriptorKind
	Dim       int
	CreatedAt time.Time
}

// Identity represents an enrolled person and their reference descriptors.
type Identity struct {
	ID           string
	Name         string
	RollNo       string
	Department   string
	Email        string
	Phone        string
	ProfileImage string
	Descriptors  []StoredDescriptor
	Source       IdentitySource
	CreatedAt    time.Time
}

// IdentityUpdate carries the mutable identity fields for an update.
// Nil fields are left unchanged.
type IdentityUpdate struct {
	Name       *string
	RollNo     *string
	Department *string
	Email      *string
	Phone      *string
}

// AttendanceRecord is one presence mark for an identity on a date.
type AttendanceRecord struct {
	ID         string `json:"id"`
	IdentityID string `json:"identity_id"`
	Name       string `json:"name"`
	RollNo     string `json:"roll_no"`
	Date       string `json:"date"` // YYYY-MM-DD
	Time       string `json:"time"` // HH:MM:SS
	Status     string `json:"status"`
}

// AttendanceStats summarises presence counts for a single date.
type AttendanceStats struct {
	TotalIdentities int     `json:"total_identities"`
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	Percentage      float64 `json:"percentage"`
}

// StatusPresent is the only attendance status written by recognition.
const StatusPresent = "Present"
