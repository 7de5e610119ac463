package bucket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeFormat is the ISO 8601 format used for timestamps stored in SQLite.
const timeFormat = "2006-01-02T15:04:05.000Z"

// SQLiteRepository persists bucket records in the embedded SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a repository over an opened SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new bucket record.
func (r *SQLiteRepository) Create(ctx context.Context, name string) (Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	createdAt := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO buckets (name, created_at) VALUES (?, ?);`,
		name, createdAt.Format(timeFormat))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return Bucket{}, ErrBucketNameExists
		}
		return Bucket{}, fmt.Errorf("create bucket: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Bucket{}, fmt.Errorf("create bucket: %w", err)
	}

	return Bucket{ID: id, Name: name, CreatedAt: createdAt}, nil
}

// GetByName fetches a single bucket record.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM buckets WHERE name = ?;`, name)

	b, err := scanBucket(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bucket{}, ErrBucketNotFound
		}
		return Bucket{}, fmt.Errorf("get bucket: %w", err)
	}
	return b, nil
}

// List returns all bucket records in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM buckets ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []Bucket
	for rows.Next() {
		b, err := scanBucket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}
	return buckets, nil
}

// Delete removes a bucket record by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM buckets WHERE name = ?;`, name)
	if err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	if affected == 0 {
		return ErrBucketNotFound
	}
	return nil
}

func scanBucket(scan func(dest ...any) error) (Bucket, error) {
	var (
		b   Bucket
		raw string
	)
	if err := scan(&b.ID, &b.Name, &raw); err != nil {
		return Bucket{}, err
	}
	parsed, err := time.Parse(timeFormat, raw)
	if err != nil {
		return Bucket{}, fmt.Errorf("parse created_at %q: %w", raw, err)
	}
	b.CreatedAt = parsed
	return b, nil
}

// modernc.org/sqlite surfaces constraint failures as plain error text.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
