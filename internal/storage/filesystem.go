package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// modifiedFormat is the second-resolution timestamp used in derived metadata.
const modifiedFormat = "2006-01-02 15:04:05"

// ErrUnsafeName rejects names that would escape the bucket directory.
var ErrUnsafeName = errors.New("unsafe file name")

// FileInfo is metadata derived from the filesystem at read time. It is never
// persisted; every listing recomputes it.
type FileInfo struct {
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
	Modified      string `json:"modified"`
	ContentType   string `json:"type"`
	Extension     string `json:"extension"`
	Error         string `json:"error,omitempty"`
}

// Dir stores bucket contents under a single root directory: one subdirectory
// per bucket, files laid out flatly inside it.
type Dir struct {
	root string
}

// NewDir creates a directory store rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the storage root path.
func (d *Dir) Root() string {
	return d.root
}

// EnsureRoot creates the storage root if it doesn't exist.
func (d *Dir) EnsureRoot() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create storage root %s: %w", d.root, err)
	}
	return nil
}

// BucketPath returns the directory path backing a bucket.
func (d *Dir) BucketPath(bucket string) string {
	return filepath.Join(d.root, filepath.Base(bucket))
}

// Exists reports whether the bucket directory is present.
func (d *Dir) Exists(bucket string) bool {
	info, err := os.Stat(d.BucketPath(bucket))
	return err == nil && info.IsDir()
}

// CreateBucket creates the bucket directory. Succeeds if it already exists.
func (d *Dir) CreateBucket(bucket string) error {
	if err := os.MkdirAll(d.BucketPath(bucket), 0o755); err != nil {
		return fmt.Errorf("create bucket directory %s: %w", bucket, err)
	}
	return nil
}

// RemoveBucket removes the bucket directory. The directory must be empty;
// a missing directory is not an error.
func (d *Dir) RemoveBucket(bucket string) error {
	if err := os.Remove(d.BucketPath(bucket)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove bucket directory %s: %w", bucket, err)
	}
	return nil
}

// Files enumerates the immediate regular files of a bucket. Entries whose
// stat fails are still returned, zeroed and annotated with the error.
func (d *Dir) Files(bucket string) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.BucketPath(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fs.ErrNotExist
		}
		return nil, fmt.Errorf("read bucket directory %s: %w", bucket, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, describe(entry))
	}
	return files, nil
}

// Stat derives metadata for a single file in a bucket.
func (d *Dir) Stat(bucket, name string) (FileInfo, error) {
	path, err := d.filePath(bucket, name)
	if err != nil {
		return FileInfo{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fs.ErrNotExist
		}
		return FileInfo{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return fromOSInfo(info), nil
}

// FileExists reports whether a regular file with the given name is present.
func (d *Dir) FileExists(bucket, name string) bool {
	path, err := d.filePath(bucket, name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FilePath resolves the on-disk path of an existing file.
func (d *Dir) FilePath(bucket, name string) (string, error) {
	path, err := d.filePath(bucket, name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fs.ErrNotExist
		}
		return "", fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fs.ErrNotExist
	}
	return path, nil
}

// Save writes the reader's bytes to a new file in the bucket. An existing
// file is never overwritten; the partial file is removed on write failure.
func (d *Dir) Save(bucket, name string, r io.Reader) (int64, error) {
	path, err := d.filePath(bucket, name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", name, err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("write file %s: %w", name, err)
	}
	return n, nil
}

// DeleteFile removes a file from a bucket.
func (d *Dir) DeleteFile(bucket, name string) error {
	path, err := d.filePath(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fs.ErrNotExist
		}
		return fmt.Errorf("delete file %s: %w", name, err)
	}
	return nil
}

// filePath joins bucket and name under the root, rejecting anything that
// could traverse out of the bucket directory.
func (d *Dir) filePath(bucket, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrUnsafeName
	}
	return filepath.Join(d.BucketPath(bucket), name), nil
}

func describe(entry fs.DirEntry) FileInfo {
	info, err := entry.Info()
	if err != nil {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		return FileInfo{
			Name:          entry.Name(),
			Size:          0,
			SizeFormatted: "0 B",
			Modified:      "Unknown",
			ContentType:   "unknown",
			Extension:     ext,
			Error:         err.Error(),
		}
	}
	return fromOSInfo(info)
}

func fromOSInfo(info fs.FileInfo) FileInfo {
	return FileInfo{
		Name:          info.Name(),
		Size:          info.Size(),
		SizeFormatted: FormatSize(info.Size()),
		Modified:      info.ModTime().Format(modifiedFormat),
		ContentType:   GuessContentType(info.Name()),
		Extension:     strings.ToLower(filepath.Ext(info.Name())),
	}
}

// GuessContentType guesses a media type from the file extension, returning
// "unknown" when it cannot.
func GuessContentType(name string) string {
	guessed := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if guessed == "" {
		return "unknown"
	}
	// mime.TypeByExtension may append parameters such as "; charset=utf-8".
	if idx := strings.Index(guessed, ";"); idx >= 0 {
		guessed = strings.TrimSpace(guessed[:idx])
	}
	return guessed
}

// FormatSize renders a byte count with binary-prefix scaling: integral bytes,
// one decimal for KB and above, capped at GB.
func FormatSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	units := []string{"KB", "MB", "GB"}
	value := float64(size)
	idx := -1
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	return fmt.Sprintf("%.1f %s", value, units[idx])
}
