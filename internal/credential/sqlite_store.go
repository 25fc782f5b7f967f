package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore implements Store on the robot_credentials table.
// The table is created by the embedded migrations.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store over an open, migrated SQLite connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get retrieves the bundle for deviceID.
func (s *SQLiteStore) Get(ctx context.Context, deviceID string) (*Bundle, error) {
	query := `
		SELECT device_id, address, serial, certificate, token, updated_at
		FROM robot_credentials
		WHERE device_id = ?`

	b, err := scanBundle(s.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying credential by device id: %w", err)
	}
	return b, nil
}

// Save upserts a bundle, keeping the original created_at on replace.
func (s *SQLiteStore) Save(ctx context.Context, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	query := `
		INSERT INTO robot_credentials (device_id, address, serial, certificate, token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			address = excluded.address,
			serial = excluded.serial,
			certificate = excluded.certificate,
			token = excluded.token,
			updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query,
		b.DeviceID, b.Address, b.Serial, b.Certificate, b.Token, now, now,
	); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Delete removes the bundle for deviceID if present.
func (s *SQLiteStore) Delete(ctx context.Context, deviceID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM robot_credentials WHERE device_id = ?", deviceID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// List returns all bundles ordered by device id.
func (s *SQLiteStore) List(ctx context.Context) ([]Bundle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, address, serial, certificate, token, updated_at
		FROM robot_credentials
		ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var bundles []Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credential row: %w", err)
		}
		bundles = append(bundles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return bundles, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBundle(row rowScanner) (*Bundle, error) {
	var b Bundle
	var updatedAt string
	if err := row.Scan(&b.DeviceID, &b.Address, &b.Serial, &b.Certificate, &b.Token, &updatedAt); err != nil {
		return nil, err
	}
	b.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt) //nolint:errcheck // Format is controlled
	return &b, nil
}
