package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/voicelink/voicelink-core/internal/capability"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create devices table matching the schema
	schema := `
		CREATE TABLE devices (
			id TEXT NOT NULL,
			username TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			capabilities TEXT NOT NULL DEFAULT '[]',
			attributes TEXT NOT NULL DEFAULT '{}',
			report_state INTEGER NOT NULL DEFAULT 1,
			state TEXT NOT NULL DEFAULT '{}',
			state_updated_at TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (id)
		) STRICT;
		CREATE INDEX idx_devices_username ON devices(username);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testDevice creates a device for testing.
func testDevice(username, id, name string) *Device {
	return &Device{
		ID:       id,
		Username: username,
		Name:     name,
		Capabilities: []capability.Capability{
			capability.Power,
			capability.Brightness,
		},
		Attributes: map[string]any{
			AttrColorTempMin: float64(2200),
			AttrColorTempMax: float64(6500),
		},
		ReportState: true,
		State: map[string]any{
			FieldPower:      "ON",
			FieldBrightness: float64(80),
		},
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := testDevice("alice", "lamp-1", "Desk Lamp")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "alice", "lamp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Username != "alice" {
		t.Errorf("Username = %q, want %q", got.Username, "alice")
	}
	if got.Name != "Desk Lamp" {
		t.Errorf("Name = %q, want %q", got.Name, "Desk Lamp")
	}
	if len(got.Capabilities) != 2 {
		t.Errorf("Capabilities = %v, want 2 entries", got.Capabilities)
	}
	if !got.ReportState {
		t.Error("ReportState = false, want true")
	}
	if got.State[FieldPower] != "ON" {
		t.Errorf("State[power] = %v, want ON", got.State[FieldPower])
	}
	if min, ok := got.AttrFloat(AttrColorTempMin); !ok || min != 2200 {
		t.Errorf("AttrFloat(color_temp_min) = %v, %v; want 2200, true", min, ok)
	}
}

func TestSQLiteRepository_GetScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("alice", "lamp-1", "Desk Lamp")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Another user must not see alice's device.
	if _, err := repo.GetByID(ctx, "bob", "lamp-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID for wrong owner = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_CreateDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("alice", "lamp-1", "Desk Lamp")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repo.Create(ctx, testDevice("alice", "lamp-1", "Other Lamp"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("duplicate Create = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, d := range []*Device{
		testDevice("alice", "lamp-2", "Zebra Lamp"),
		testDevice("alice", "lamp-1", "Desk Lamp"),
		testDevice("bob", "plug-1", "Heater Plug"),
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create %s failed: %v", d.ID, err)
		}
	}

	devices, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("List returned %d devices, want 2", len(devices))
	}
	// Ordered by name
	if devices[0].ID != "lamp-1" || devices[1].ID != "lamp-2" {
		t.Errorf("List order = %s, %s; want lamp-1, lamp-2", devices[0].ID, devices[1].ID)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListAll returned %d devices, want 3", len(all))
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := testDevice("alice", "lamp-1", "Desk Lamp")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	d.Name = "Bedside Lamp"
	d.ReportState = false
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "alice", "lamp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Bedside Lamp" {
		t.Errorf("Name = %q, want %q", got.Name, "Bedside Lamp")
	}
	if got.ReportState {
		t.Error("ReportState = true, want false")
	}

	missing := testDevice("alice", "nope", "Ghost")
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Update missing = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("alice", "lamp-1", "Desk Lamp")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "alice", "lamp-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "alice", "lamp-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrDeviceNotFound", err)
	}
	if err := repo.Delete(ctx, "alice", "lamp-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second Delete = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_UpdateState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("alice", "lamp-1", "Desk Lamp")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	state := map[string]any{
		FieldPower:      "OFF",
		FieldBrightness: float64(0),
		FieldTime:       at.UnixMilli(),
	}
	if err := repo.UpdateState(ctx, "alice", "lamp-1", state, at); err != nil {
		t.Fatalf("UpdateState failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "alice", "lamp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.State[FieldPower] != "OFF" {
		t.Errorf("State[power] = %v, want OFF", got.State[FieldPower])
	}
	if got.StateUpdatedAt == nil || !got.StateUpdatedAt.Equal(at) {
		t.Errorf("StateUpdatedAt = %v, want %v", got.StateUpdatedAt, at)
	}

	err = repo.UpdateState(ctx, "alice", "nope", state, at)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateState missing = %v, want ErrDeviceNotFound", err)
	}
}
