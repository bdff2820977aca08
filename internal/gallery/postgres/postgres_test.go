//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/facemark/facemark/internal/config"
	"github.com/facemark/facemark/internal/gallery"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testIdentity(rollNo string) gallery.Identity {
	vec := make([]float32, 512)
	for i := range vec {
		vec[i] = float32(i) / 512.0
	}
	return gallery.Identity{
		Name:       "Test Person " + rollNo,
		RollNo:     rollNo,
		Department: "CS",
		Email:      rollNo + "@example.edu",
		Descriptors: []gallery.StoredDescriptor{
			{Vector: vec, Kind: gallery.KindVector, Dim: len(vec)},
		},
	}
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	t.Run("InsertAndFind", func(t *testing.T) {
		id, err := repo.InsertIdentity(ctx, testIdentity("CS101"))
		if err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}

		found, err := repo.FindIdentity(ctx, id)
		if err != nil {
			t.Fatalf("FindIdentity failed: %v", err)
		}
		if found.RollNo != "CS101" {
			t.Errorf("expected roll number CS101, got %s", found.RollNo)
		}
		if len(found.Descriptors) != 1 {
			t.Fatalf("expected 1 descriptor, got %d", len(found.Descriptors))
		}
		if found.Descriptors[0].Dim != 512 {
			t.Errorf("expected descriptor dim 512, got %d", found.Descriptors[0].Dim)
		}
	})

	t.Run("DuplicateRollNo", func(t *testing.T) {
		identity := testIdentity("CS101")
		identity.Email = "different@example.edu"
		_, err := repo.InsertIdentity(ctx, identity)
		if !errors.Is(err, gallery.ErrDuplicateKey) {
			t.Errorf("expected ErrDuplicateKey for repeated roll number, got %v", err)
		}
	})

	t.Run("FindByRollNo", func(t *testing.T) {
		found, err := repo.FindIdentityByRollNo(ctx, "CS101")
		if err != nil {
			t.Fatalf("FindIdentityByRollNo failed: %v", err)
		}
		if found.Name != "Test Person CS101" {
			t.Errorf("unexpected name %s", found.Name)
		}
	})

	t.Run("UpdateFields", func(t *testing.T) {
		found, err := repo.FindIdentityByRollNo(ctx, "CS101")
		if err != nil {
			t.Fatalf("FindIdentityByRollNo failed: %v", err)
		}
		newName := "Renamed Person"
		if err := repo.UpdateIdentity(ctx, found.ID, gallery.IdentityUpdate{Name: &newName}); err != nil {
			t.Fatalf("UpdateIdentity failed: %v", err)
		}
		updated, err := repo.FindIdentity(ctx, found.ID)
		if err != nil {
			t.Fatalf("FindIdentity failed: %v", err)
		}
		if updated.Name != newName {
			t.Errorf("expected name %q, got %q", newName, updated.Name)
		}
	})

	t.Run("ListWithDescriptors", func(t *testing.T) {
		if _, err := repo.InsertIdentity(ctx, testIdentity("CS102")); err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
		identities, err := repo.ListIdentities(ctx)
		if err != nil {
			t.Fatalf("ListIdentities failed: %v", err)
		}
		if len(identities) != 2 {
			t.Fatalf("expected 2 identities, got %d", len(identities))
		}
		for _, identity := range identities {
			if len(identity.Descriptors) == 0 {
				t.Errorf("identity %s has no descriptors after list", identity.RollNo)
			}
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		found, err := repo.FindIdentityByRollNo(ctx, "CS102")
		if err != nil {
			t.Fatalf("FindIdentityByRollNo failed: %v", err)
		}
		if err := repo.DeleteIdentity(ctx, found.ID); err != nil {
			t.Fatalf("DeleteIdentity failed: %v", err)
		}
		if _, err := repo.FindIdentity(ctx, found.ID); !errors.Is(err, gallery.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		var orphans int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM descriptors WHERE identity_id = $1", found.ID).Scan(&orphans); err != nil {
			t.Fatalf("count orphan descriptors: %v", err)
		}
		if orphans != 0 {
			t.Errorf("expected descriptors to cascade on delete, found %d orphans", orphans)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		err := repo.DeleteIdentity(ctx, "00000000-0000-0000-0000-000000000000")
		if !errors.Is(err, gallery.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	identities := NewIdentityRepository(pool)
	attendance := NewAttendanceRepository(pool)

	id, err := identities.InsertIdentity(ctx, testIdentity("CS201"))
	if err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}

	record := gallery.AttendanceRecord{
		IdentityID: id,
		Name:       "Test Person CS201",
		RollNo:     "CS201",
		Date:       "2026-09-01",
		Time:       "09:15:00",
		Status:     gallery.StatusPresent,
	}

	already, err := attendance.MarkAttendance(ctx, record)
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}
	if already {
		t.Error("first mark should not report already marked")
	}

	already, err = attendance.MarkAttendance(ctx, record)
	if err != nil {
		t.Fatalf("second MarkAttendance failed: %v", err)
	}
	if !already {
		t.Error("second mark on the same date should report already marked")
	}

	records, err := attendance.ListByDate(ctx, "2026-09-01")
	if err != nil {
		t.Fatalf("ListByDate failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record for the date, got %d", len(records))
	}

	count, err := attendance.CountByDate(ctx, "2026-09-01")
	if err != nil {
		t.Fatalf("CountByDate failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}
