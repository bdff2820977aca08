package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/facemark/facemark/internal/gallery"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// IdentityRepository provides PostgreSQL-backed identity storage.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

const identityColumns = "id, name, roll_no, department, email, phone, profile_image, source, created_at"

// scanIdentity reads one identity row without descriptors.
func scanIdentity(row interface{ Scan(...any) error }) (*gallery.Identity, error) {
	var identity gallery.Identity
	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.RollNo,
		&identity.Department,
		&identity.Email,
		&identity.Phone,
		&identity.ProfileImage,
		&identity.Source,
		&identity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// loadDescriptors fetches all descriptors for an identity.
func (r *IdentityRepository) loadDescriptors(ctx context.Context, identityID string) ([]gallery.StoredDescriptor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT vector, kind, dim, created_at
		FROM descriptors
		WHERE identity_id = $1
		ORDER BY id
	`, identityID)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	var descriptors []gallery.StoredDescriptor
	for rows.Next() {
		var d gallery.StoredDescriptor
		var vec pgvector.Vector
		if err := rows.Scan(&vec, &d.Kind, &d.Dim, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		d.Vector = vec.Slice()
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return descriptors, nil
}

// FindIdentity retrieves an identity by ID, including descriptors.
func (r *IdentityRepository) FindIdentity(ctx context.Context, id string) (*gallery.Identity, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+identityColumns+" FROM identities WHERE id = $1", id)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gallery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}

	identity.Descriptors, err = r.loadDescriptors(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// FindIdentityByRollNo retrieves an identity by roll number.
func (r *IdentityRepository) FindIdentityByRollNo(ctx context.Context, rollNo string) (*gallery.Identity, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+identityColumns+" FROM identities WHERE roll_no = $1", rollNo)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gallery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query identity by roll number: %w", err)
	}

	identity.Descriptors, err = r.loadDescriptors(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// ListIdentities returns all identities with descriptors, ordered by ID.
// Descriptors are fetched in one query and grouped in memory to avoid N+1.
func (r *IdentityRepository) ListIdentities(ctx context.Context) ([]gallery.Identity, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+identityColumns+" FROM identities ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []gallery.Identity
	indexByID := make(map[string]int)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		indexByID[identity.ID] = len(identities)
		identities = append(identities, *identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	descRows, err := r.pool.Query(ctx, `
		SELECT identity_id, vector, kind, dim, created_at
		FROM descriptors
		ORDER BY identity_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer descRows.Close()

	for descRows.Next() {
		var identityID string
		var d gallery.StoredDescriptor
		var vec pgvector.Vector
		if err := descRows.Scan(&identityID, &vec, &d.Kind, &d.Dim, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		d.Vector = vec.Slice()
		if i, ok := indexByID[identityID]; ok {
			identities[i].Descriptors = append(identities[i].Descriptors, d)
		}
	}
	if err := descRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}

	return identities, nil
}

// CountIdentities returns the number of enrolled identities.
func (r *IdentityRepository) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// InsertIdentity stores a new identity and its descriptors in one transaction.
func (r *IdentityRepository) InsertIdentity(ctx context.Context, identity gallery.Identity) (string, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	if identity.Source == "" {
		identity.Source = gallery.SourceStore
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (id, name, roll_no, department, email, phone, profile_image, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, identity.ID, identity.Name, identity.RollNo, identity.Department,
		identity.Email, identity.Phone, identity.ProfileImage, identity.Source, identity.CreatedAt)
	if isDuplicateKey(err) {
		return "", gallery.ErrDuplicateKey
	}
	if err != nil {
		return "", fmt.Errorf("insert identity: %w", err)
	}

	for _, d := range identity.Descriptors {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO descriptors (identity_id, vector, kind, dim)
			VALUES ($1, $2, $3, $4)
		`, identity.ID, pgvector.NewVector(d.Vector), d.Kind, len(d.Vector))
		if err != nil {
			return "", fmt.Errorf("insert descriptor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit identity insert: %w", err)
	}
	return identity.ID, nil
}

// UpdateIdentity applies the non-nil fields of the update.
func (r *IdentityRepository) UpdateIdentity(ctx context.Context, id string, update gallery.IdentityUpdate) error {
	setClauses := []string{}
	args := []any{}
	addField := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	addField("name", update.Name)
	addField("roll_no", update.RollNo)
	addField("department", update.Department)
	addField("email", update.Email)
	addField("phone", update.Phone)

	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE identities SET %s WHERE id = $%d",
		joinClauses(setClauses), len(args))

	result, err := r.pool.Exec(ctx, query, args...)
	if isDuplicateKey(err) {
		return gallery.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity rows affected: %w", err)
	}
	if affected == 0 {
		return gallery.ErrNotFound
	}
	return nil
}

func joinClauses(clauses []string) string {
	out := ""
	for i, c := range clauses {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// DeleteIdentity removes an identity; descriptors cascade.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM identities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity rows affected: %w", err)
	}
	if affected == 0 {
		return gallery.ErrNotFound
	}
	return nil
}

// ReplaceDescriptors replaces all stored descriptors for an identity.
func (r *IdentityRepository) ReplaceDescriptors(ctx context.Context, id string, descriptors []gallery.StoredDescriptor) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM identities WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("check identity exists: %w", err)
	}
	if !exists {
		return gallery.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM descriptors WHERE identity_id = $1", id); err != nil {
		return fmt.Errorf("clear descriptors: %w", err)
	}

	for _, d := range descriptors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO descriptors (identity_id, vector, kind, dim)
			VALUES ($1, $2, $3, $4)
		`, id, pgvector.NewVector(d.Vector), d.Kind, len(d.Vector))
		if err != nil {
			return fmt.Errorf("insert descriptor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit descriptor replace: %w", err)
	}
	return nil
}
