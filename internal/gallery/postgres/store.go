package postgres

// Store combines the identity and attendance repositories behind the
// gallery.Store interface.
type Store struct {
	*IdentityRepository
	*AttendanceRepository
}

// NewStore creates a combined PostgreSQL-backed gallery store.
func NewStore(pool *Pool) *Store {
	return &Store{
		IdentityRepository:   NewIdentityRepository(pool),
		AttendanceRepository: NewAttendanceRepository(pool),
	}
}
