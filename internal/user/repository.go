package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for user account persistence.
type Repository interface {
	// Create inserts a new user account.
	// Returns ErrUserExists if the username is taken.
	Create(ctx context.Context, u *User) error

	// GetByUsername retrieves a user by username.
	// Returns ErrUserNotFound if it does not exist.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List retrieves all users, ordered by username.
	List(ctx context.Context) ([]User, error)

	// SetVendorLink flips a vendor link flag for a user. Known vendor
	// names are "alexa" and "google".
	SetVendorLink(ctx context.Context, username, vendor string, linked bool) error

	// Delete removes a user account.
	Delete(ctx context.Context, username string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed user repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new user account.
func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	if err := validateUsername(u.Username); err != nil {
		return err
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, display_name, alexa_linked, google_linked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName,
		boolToInt(u.AlexaLinked), boolToInt(u.GoogleLinked),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByUsername retrieves a user by username.
func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT username, display_name, alexa_linked, google_linked, created_at, updated_at
		 FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// List retrieves all users, ordered by username.
func (r *SQLiteRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username, display_name, alexa_linked, google_linked, created_at, updated_at
		 FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// SetVendorLink flips a vendor link flag for a user.
func (r *SQLiteRepository) SetVendorLink(ctx context.Context, username, vendor string, linked bool) error {
	var column string
	switch vendor {
	case "alexa":
		column = "alexa_linked"
	case "google":
		column = "google_linked"
	default:
		return fmt.Errorf("user: unknown vendor %q", vendor)
	}

	query := fmt.Sprintf(
		"UPDATE users SET %s = ?, updated_at = ? WHERE username = ?", column)
	result, err := r.db.ExecContext(ctx, query,
		boolToInt(linked), time.Now().UTC().Format(time.RFC3339), username)
	if err != nil {
		return fmt.Errorf("updating vendor link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user account.
func (r *SQLiteRepository) Delete(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner rowScanner) (*User, error) {
	var u User
	var alexaLinked, googleLinked int
	var createdAt, updatedAt string

	err := scanner.Scan(&u.Username, &u.DisplayName, &alexaLinked, &googleLinked, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.AlexaLinked = alexaLinked != 0
	u.GoogleLinked = googleLinked != 0

	var parseErr error
	u.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	u.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &u, nil
}

// validateUsername enforces topic-safe usernames: non-empty and free of
// MQTT wildcard or separator characters.
func validateUsername(username string) error {
	if username == "" || len(username) > 64 {
		return ErrInvalidUsername
	}
	if strings.ContainsAny(username, "/+#") {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
