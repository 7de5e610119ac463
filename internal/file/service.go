package file

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bucketstore/bucketstore/internal/bucket"
	"github.com/bucketstore/bucketstore/internal/storage"
)

type bucketStore interface {
	GetByName(ctx context.Context, name string) (bucket.Bucket, error)
}

// Service manages files within bucket directories. Nothing about a file is
// persisted in the record store; all metadata is derived from the filesystem
// on every read.
type Service struct {
	buckets bucketStore
	dir     *storage.Dir
	allowed map[string]struct{}
}

// NewService constructs a file service. allowedExts lists accepted upload
// extensions without the leading dot, case-insensitive.
func NewService(buckets bucketStore, dir *storage.Dir, allowedExts []string) *Service {
	allowed := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &Service{buckets: buckets, dir: dir, allowed: allowed}
}

// Upload stores each incoming file independently, collecting per-file errors
// instead of failing the whole request. ErrNoFilesUploaded is returned only
// when every file failed; the result still carries the error list.
func (s *Service) Upload(ctx context.Context, bucketName string, files []*multipart.FileHeader) (UploadResult, error) {
	if _, err := s.buckets.GetByName(ctx, bucketName); err != nil {
		return UploadResult{}, translateBucketError(err)
	}

	// Recreate the directory if it drifted away from the record.
	if err := s.dir.CreateBucket(bucketName); err != nil {
		return UploadResult{}, err
	}

	var result UploadResult
	for _, fh := range files {
		if fh.Filename == "" {
			continue
		}

		if !s.extensionAllowed(fh.Filename) {
			result.Errors = append(result.Errors, fmt.Sprintf("file type not allowed: %s", fh.Filename))
			continue
		}

		name := SanitizeFilename(fh.Filename)
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid filename: %s", fh.Filename))
			continue
		}

		// Collisions rename the new upload; the existing file is untouched.
		if s.dir.FileExists(bucketName, name) {
			name = timestampName(name, time.Now())
		}

		if err := s.save(bucketName, name, fh); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to save %s: %v", name, err))
			continue
		}

		info, err := s.dir.Stat(bucketName, name)
		if err != nil {
			info = storage.FileInfo{
				Name:          name,
				SizeFormatted: "0 B",
				Modified:      "Unknown",
				ContentType:   "unknown",
				Extension:     strings.ToLower(filepath.Ext(name)),
				Error:         err.Error(),
			}
		}
		result.Files = append(result.Files, info)
	}

	if len(result.Files) == 0 {
		return result, ErrNoFilesUploaded
	}
	return result, nil
}

// List enumerates a bucket's files, newest first by modified time with name
// as the tie-break so listings stay deterministic at second resolution.
// A missing directory yields an empty list, not an error.
func (s *Service) List(ctx context.Context, bucketName string) ([]storage.FileInfo, error) {
	if _, err := s.buckets.GetByName(ctx, bucketName); err != nil {
		return nil, translateBucketError(err)
	}

	if !s.dir.Exists(bucketName) {
		return []storage.FileInfo{}, nil
	}

	files, err := s.dir.Files(bucketName)
	if err != nil {
		return nil, fmt.Errorf("list bucket files: %w", err)
	}
	if files == nil {
		files = []storage.FileInfo{}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Modified != files[j].Modified {
			return files[i].Modified > files[j].Modified
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Resolve locates a file for download and decides its disposition.
func (s *Service) Resolve(ctx context.Context, bucketName, filename string) (Download, error) {
	if _, err := s.buckets.GetByName(ctx, bucketName); err != nil {
		return Download{}, translateBucketError(err)
	}

	p, err := s.dir.FilePath(bucketName, filename)
	if err != nil {
		return Download{}, ErrFileNotFound
	}

	info, err := s.dir.Stat(bucketName, filename)
	if err != nil {
		return Download{}, ErrFileNotFound
	}

	inline := strings.HasPrefix(info.ContentType, "image/") || info.ContentType == "text/plain"
	return Download{Path: p, Info: info, Inline: inline}, nil
}

// Delete removes a file from a bucket. There is no soft-delete.
func (s *Service) Delete(ctx context.Context, bucketName, filename string) error {
	if _, err := s.buckets.GetByName(ctx, bucketName); err != nil {
		return translateBucketError(err)
	}

	if !s.dir.FileExists(bucketName, filename) {
		return ErrFileNotFound
	}
	if err := s.dir.DeleteFile(bucketName, filename); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *Service) save(bucketName, name string, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = s.dir.Save(bucketName, name, src)
	return err
}

func (s *Service) extensionAllowed(filename string) bool {
	ext := filepath.Ext(filename)
	if ext == "" {
		return false
	}
	_, ok := s.allowed[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// SanitizeFilename reduces a submitted filename to a safe base name: path
// components are stripped, spaces become underscores, anything outside
// [A-Za-z0-9._-] is dropped, and leading dots/dashes are trimmed. An empty
// result means the name was unusable.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".-")
	if out == "" || strings.Trim(out, "._-") == "" {
		return ""
	}
	return out
}

// timestampName appends a second-resolution suffix before the extension:
// notes.txt -> notes_20250901_153012.txt. Two uploads of the same name in the
// same second still collide; the second write then fails rather than
// overwriting.
func timestampName(name string, ts time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", base, ts.Format("20060102_150405"), ext)
}

func translateBucketError(err error) error {
	if err == bucket.ErrBucketNotFound {
		return ErrBucketNotFound
	}
	return err
}
