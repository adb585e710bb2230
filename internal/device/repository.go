package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence.
//
// Devices are always scoped to their owning username; an ID only
// resolves together with the user it belongs to.
type Repository interface {
	// Create inserts a new device.
	// Returns ErrDeviceExists if the ID is already taken.
	Create(ctx context.Context, d *Device) error

	// GetByID retrieves a device by owner and ID.
	// Returns ErrDeviceNotFound if it does not exist.
	GetByID(ctx context.Context, username, id string) (*Device, error)

	// List retrieves all devices owned by a user, ordered by name.
	List(ctx context.Context, username string) ([]Device, error)

	// ListAll retrieves every device across all users. Used to warm
	// the registry cache on startup.
	ListAll(ctx context.Context) ([]Device, error)

	// Update replaces the stored metadata for a device.
	// Returns ErrDeviceNotFound if it does not exist.
	Update(ctx context.Context, d *Device) error

	// Delete removes a device.
	// Returns ErrDeviceNotFound if it does not exist.
	Delete(ctx context.Context, username, id string) error

	// UpdateState persists a new canonical state map and its
	// freshness timestamp without touching device metadata.
	UpdateState(ctx context.Context, username, id string, state map[string]any, updatedAt time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	capsJSON, err := json.Marshal(d.Capabilities)
	if err != nil {
		return fmt.Errorf("marshalling capabilities: %w", err)
	}
	attrsJSON, err := marshalMap(d.Attributes)
	if err != nil {
		return fmt.Errorf("marshalling attributes: %w", err)
	}
	stateJSON, err := marshalMap(d.State)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
		INSERT INTO devices (
			id, username, name, description,
			capabilities, attributes, report_state,
			state, state_updated_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.Username,
		d.Name,
		d.Description,
		string(capsJSON),
		string(attrsJSON),
		boolToInt(d.ReportState),
		string(stateJSON),
		nullableTime(d.StateUpdatedAt),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return nil
}

// GetByID retrieves a device by owner and ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, username, id string) (*Device, error) {
	query := selectColumns + ` FROM devices WHERE username = ? AND id = ?`

	row := r.db.QueryRowContext(ctx, query, username, id)
	d, err := scanDeviceRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("getting device: %w", err)
	}
	return d, nil
}

// List retrieves all devices owned by a user, ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, username string) ([]Device, error) {
	query := selectColumns + ` FROM devices WHERE username = ? ORDER BY name`
	return r.queryDevices(ctx, query, username)
}

// ListAll retrieves every device across all users.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]Device, error) {
	query := selectColumns + ` FROM devices ORDER BY username, name`
	return r.queryDevices(ctx, query)
}

// Update replaces the stored metadata for a device.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	capsJSON, err := json.Marshal(d.Capabilities)
	if err != nil {
		return fmt.Errorf("marshalling capabilities: %w", err)
	}
	attrsJSON, err := marshalMap(d.Attributes)
	if err != nil {
		return fmt.Errorf("marshalling attributes: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE devices
		SET name = ?, description = ?, capabilities = ?, attributes = ?,
		    report_state = ?, updated_at = ?
		WHERE username = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query,
		d.Name,
		d.Description,
		string(capsJSON),
		string(attrsJSON),
		boolToInt(d.ReportState),
		now.Format(time.RFC3339),
		d.Username,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	d.UpdatedAt = now
	return nil
}

// Delete removes a device.
func (r *SQLiteRepository) Delete(ctx context.Context, username, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM devices WHERE username = ? AND id = ?", username, id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// UpdateState persists a new canonical state map and its timestamp.
func (r *SQLiteRepository) UpdateState(ctx context.Context, username, id string, state map[string]any, updatedAt time.Time) error {
	stateJSON, err := marshalMap(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	query := `
		UPDATE devices
		SET state = ?, state_updated_at = ?, updated_at = ?
		WHERE username = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(stateJSON),
		updatedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		username,
		id,
	)
	if err != nil {
		return fmt.Errorf("updating device state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// selectColumns is the shared column list for device scans. Keep in
// sync with scanDeviceRow.
const selectColumns = `
	SELECT id, username, name, description,
	       capabilities, attributes, report_state,
	       state, state_updated_at,
	       created_at, updated_at`

// queryDevices executes a query and returns a slice of devices.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDeviceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDeviceRow scans a row or rows result into a Device.
func scanDeviceRow(scanner rowScanner) (*Device, error) {
	var d Device
	var description sql.NullString
	var capsJSON, attrsJSON, stateJSON string
	var stateUpdatedAt sql.NullString
	var reportState int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.Username,
		&d.Name,
		&description,
		&capsJSON,
		&attrsJSON,
		&reportState,
		&stateJSON,
		&stateUpdatedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		d.Description = description.String
	}
	d.ReportState = reportState != 0

	if stateUpdatedAt.Valid {
		t, err := time.Parse(time.RFC3339, stateUpdatedAt.String)
		if err == nil {
			d.StateUpdatedAt = &t
		}
	}

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	if err := json.Unmarshal([]byte(capsJSON), &d.Capabilities); err != nil {
		return nil, fmt.Errorf("unmarshalling capabilities: %w", err)
	}
	if err := json.Unmarshal([]byte(attrsJSON), &d.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshalling attributes: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &d.State); err != nil {
		return nil, fmt.Errorf("unmarshalling state: %w", err)
	}

	return &d, nil
}

// marshalMap marshals a map, storing nil maps as the empty JSON object
// so scans never see a NULL blob.
func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// nullableTime returns a sql.NullString for optional time pointers (as RFC3339 strings).
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
