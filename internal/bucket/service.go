package bucket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bucketstore/bucketstore/internal/storage"
)

// Store is the record-store contract implemented by both repository
// backends.
type Store interface {
	Create(ctx context.Context, name string) (Bucket, error)
	GetByName(ctx context.Context, name string) (Bucket, error)
	List(ctx context.Context) ([]Bucket, error)
	Delete(ctx context.Context, name string) error
}

// Service keeps bucket records and their backing directories in lockstep.
// The pairing is maintained by convention, not a transaction: a failed record
// insert after directory creation leaves an orphan directory behind, and a
// concurrent upload can race the emptiness check in Delete.
type Service struct {
	repo Store
	dir  *storage.Dir
}

// NewService constructs a bucket service over the given record store and
// storage root.
func NewService(repo Store, dir *storage.Dir) *Service {
	return &Service{repo: repo, dir: dir}
}

// NormalizeName trims surrounding whitespace and lowercases a candidate
// bucket name. Validation and storage both operate on the normalized form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateName checks a bucket name against the naming rules. Names are
// 3-50 characters of letters, digits, dash and underscore. Bounds count
// characters, not bytes, since non-ASCII letters are accepted.
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) < 3 {
		return &InvalidNameError{Reason: "name must be at least 3 characters"}
	}
	if utf8.RuneCountInString(name) > 50 {
		return &InvalidNameError{Reason: "name too long (max 50 characters)"}
	}
	stripped := strings.NewReplacer("-", "", "_", "").Replace(name)
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return &InvalidNameError{Reason: "only letters, numbers, dash and underscore allowed"}
		}
	}
	return nil
}

// Create normalizes and validates the name, creates the backing directory and
// inserts the record. The directory is created first; if the insert then
// fails the directory is left orphaned.
func (s *Service) Create(ctx context.Context, name string) (Bucket, error) {
	name = NormalizeName(name)

	if err := ValidateName(name); err != nil {
		return Bucket{}, err
	}

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return Bucket{}, ErrBucketNameExists
	} else if !errors.Is(err, ErrBucketNotFound) {
		return Bucket{}, err
	}

	// Idempotent on purpose: an orphan directory from an earlier partial
	// failure does not block re-creating the bucket.
	if err := s.dir.CreateBucket(name); err != nil {
		return Bucket{}, err
	}

	created, err := s.repo.Create(ctx, name)
	if err != nil {
		return Bucket{}, err
	}
	return created, nil
}

// Get returns the bucket record plus a live snapshot of its directory.
// A missing directory is reported through FolderExists, not as an error.
func (s *Service) Get(ctx context.Context, name string) (Detail, error) {
	b, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{
		Bucket:     b,
		FolderPath: s.dir.BucketPath(name),
		Files:      []storage.FileInfo{},
		TotalSize:  storage.FormatSize(0),
	}

	if !s.dir.Exists(name) {
		return detail, nil
	}
	detail.FolderExists = true

	files, err := s.dir.Files(name)
	if err != nil {
		return Detail{}, fmt.Errorf("inspect bucket directory: %w", err)
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	if files != nil {
		detail.Files = files
	}
	detail.FileCount = len(files)
	detail.TotalSize = storage.FormatSize(total)
	return detail, nil
}

// Delete removes an empty bucket: record and directory together. Buckets
// holding files must have them deleted first; there is no cascading delete.
// If directory removal fails after the emptiness check the record is kept,
// so record and directory can momentarily diverge under concurrent writes.
func (s *Service) Delete(ctx context.Context, name string) error {
	if _, err := s.repo.GetByName(ctx, name); err != nil {
		return err
	}

	if s.dir.Exists(name) {
		files, err := s.dir.Files(name)
		if err != nil {
			return fmt.Errorf("inspect bucket directory: %w", err)
		}
		if len(files) > 0 {
			return &NotEmptyError{FileCount: len(files)}
		}
		if err := s.dir.RemoveBucket(name); err != nil {
			return err
		}
	}

	return s.repo.Delete(ctx, name)
}

// List returns all bucket records in insertion order.
func (s *Service) List(ctx context.Context) ([]Bucket, error) {
	return s.repo.List(ctx)
}
