package bucket

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bucketstore/bucketstore/internal/storage"
)

func newTestService(t *testing.T) (*Service, *fakeStore, *storage.Dir) {
	t.Helper()
	dir := storage.NewDir(t.TempDir())
	store := newFakeStore()
	return NewService(store, dir), store, dir
}

func TestCreateBucketNormalizesAndCreatesDirectory(t *testing.T) {
	service, store, dir := newTestService(t)

	created, err := service.Create(context.Background(), "  My-Data ")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Name != "my-data" {
		t.Fatalf("expected normalized name my-data, got %s", created.Name)
	}
	if !dir.Exists("my-data") {
		t.Fatalf("expected backing directory to exist")
	}
	if _, err := store.GetByName(context.Background(), "my-data"); err != nil {
		t.Fatalf("expected record to exist: %v", err)
	}
}

func TestCreateBucketDuplicateName(t *testing.T) {
	service, _, _ := newTestService(t)

	if _, err := service.Create(context.Background(), "photos"); err != nil {
		t.Fatalf("unexpected error creating bucket: %v", err)
	}
	// Same normalized name, different case.
	if _, err := service.Create(context.Background(), "PHOTOS"); !errors.Is(err, ErrBucketNameExists) {
		t.Fatalf("expected ErrBucketNameExists, got %v", err)
	}
}

func TestCreateBucketInvalidNames(t *testing.T) {
	service, store, dir := newTestService(t)

	cases := []struct {
		name      string
		candidate string
	}{
		{"too short", "ab"},
		{"empty", ""},
		{"too long", "a123456789012345678901234567890123456789012345678901"},
		{"disallowed characters", "my bucket!"},
		{"path separator", "a/b/c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tc.candidate)
			var invalid *InvalidNameError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidNameError, got %v", err)
			}
		})
	}

	if len(store.order) != 0 {
		t.Fatalf("no records should have been created, got %d", len(store.order))
	}
	if dir.Exists("ab") {
		t.Fatalf("no directory should have been created")
	}
}

func TestValidateNameCountsCharactersNotBytes(t *testing.T) {
	// "éé" is four bytes but two characters, so it is too short.
	var invalid *InvalidNameError
	if err := ValidateName("éé"); !errors.As(err, &invalid) {
		t.Fatalf("expected two-character name to be rejected, got %v", err)
	}
	// 26 two-byte characters stay well within the 50-character cap.
	if err := ValidateName(strings.Repeat("é", 26)); err != nil {
		t.Fatalf("expected 26-character name to be accepted, got %v", err)
	}
	if err := ValidateName(strings.Repeat("é", 51)); !errors.As(err, &invalid) {
		t.Fatalf("expected 51-character name to be rejected, got %v", err)
	}
}

func TestCreateBucketKeepsDirectoryWhenInsertFails(t *testing.T) {
	dir := storage.NewDir(t.TempDir())
	service := NewService(&failingStore{newFakeStore()}, dir)

	if _, err := service.Create(context.Background(), "docs"); err == nil {
		t.Fatalf("expected insert failure to surface")
	}
	// The directory is created before the insert and stays behind as an
	// orphan; a later Create of the same name reuses it.
	if !dir.Exists("docs") {
		t.Fatalf("expected orphan directory to remain")
	}
}

func TestCreateBucketDashOnlyNameIsAccepted(t *testing.T) {
	// Stripping dashes and underscores leaves nothing to check, so these
	// names pass validation. Kept as-is.
	service, _, _ := newTestService(t)

	if _, err := service.Create(context.Background(), "---"); err != nil {
		t.Fatalf("expected dash-only name to be accepted, got %v", err)
	}
}

func TestGetBucketSnapshot(t *testing.T) {
	service, _, dir := newTestService(t)

	if _, err := service.Create(context.Background(), "docs"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := dir.Save("docs", "a.txt", bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := dir.Save("docs", "b.txt", bytes.NewReader([]byte("world!"))); err != nil {
		t.Fatalf("save: %v", err)
	}

	detail, err := service.Get(context.Background(), "docs")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !detail.FolderExists {
		t.Fatalf("expected FolderExists")
	}
	if detail.FileCount != 2 {
		t.Fatalf("expected 2 files, got %d", detail.FileCount)
	}
	if detail.TotalSize != "11 B" {
		t.Fatalf("expected total size 11 B, got %q", detail.TotalSize)
	}
}

func TestGetBucketReportsMissingDirectory(t *testing.T) {
	service, store, _ := newTestService(t)

	// Record without a directory: drift is reported, not treated as an error.
	if _, err := store.Create(context.Background(), "ghost"); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	detail, err := service.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if detail.FolderExists {
		t.Fatalf("expected FolderExists to be false")
	}
	if detail.FileCount != 0 || len(detail.Files) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", detail)
	}
}

func TestDeleteBucketBlockedWhenNotEmpty(t *testing.T) {
	service, store, dir := newTestService(t)

	if _, err := service.Create(context.Background(), "docs"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := dir.Save("docs", "a.txt", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("save: %v", err)
	}

	err := service.Delete(context.Background(), "docs")
	var notEmpty *NotEmptyError
	if !errors.As(err, &notEmpty) {
		t.Fatalf("expected NotEmptyError, got %v", err)
	}
	if notEmpty.FileCount != 1 {
		t.Fatalf("expected file count 1, got %d", notEmpty.FileCount)
	}

	// Both the record and the directory stay intact.
	if _, err := store.GetByName(context.Background(), "docs"); err != nil {
		t.Fatalf("record should remain: %v", err)
	}
	if !dir.Exists("docs") {
		t.Fatalf("directory should remain")
	}
}

func TestDeleteBucketRemovesRecordAndDirectory(t *testing.T) {
	service, store, dir := newTestService(t)

	if _, err := service.Create(context.Background(), "docs"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := service.Delete(context.Background(), "docs"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if dir.Exists("docs") {
		t.Fatalf("directory should be removed")
	}
	if _, err := store.GetByName(context.Background(), "docs"); !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("record should be removed, got %v", err)
	}
}

func TestDeleteBucketNotFound(t *testing.T) {
	service, _, _ := newTestService(t)
	if err := service.Delete(context.Background(), "ghost"); !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("expected ErrBucketNotFound, got %v", err)
	}
}

func TestListBucketsInsertionOrder(t *testing.T) {
	service, _, _ := newTestService(t)

	for _, name := range []string{"bbb", "aaa", "ccc"} {
		if _, err := service.Create(context.Background(), name); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	buckets, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	for i, want := range []string{"bbb", "aaa", "ccc"} {
		if buckets[i].Name != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, buckets[i].Name)
		}
	}
}

// --- fakes ---

type fakeStore struct {
	seq    int64
	byName map[string]Bucket
	order  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{byName: make(map[string]Bucket)}
}

func (f *fakeStore) Create(ctx context.Context, name string) (Bucket, error) {
	if _, exists := f.byName[name]; exists {
		return Bucket{}, ErrBucketNameExists
	}
	f.seq++
	b := Bucket{ID: f.seq, Name: name, CreatedAt: time.Now()}
	f.byName[name] = b
	f.order = append(f.order, name)
	return b, nil
}

func (f *fakeStore) GetByName(ctx context.Context, name string) (Bucket, error) {
	b, ok := f.byName[name]
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	return b, nil
}

func (f *fakeStore) List(ctx context.Context) ([]Bucket, error) {
	var buckets []Bucket
	for _, name := range f.order {
		buckets = append(buckets, f.byName[name])
	}
	return buckets, nil
}

// failingStore fails every insert, for exercising the create path where the
// directory already exists but the record cannot be written.
type failingStore struct {
	*fakeStore
}

func (f *failingStore) Create(ctx context.Context, name string) (Bucket, error) {
	return Bucket{}, errors.New("insert failed")
}

func (f *fakeStore) Delete(ctx context.Context, name string) error {
	if _, ok := f.byName[name]; !ok {
		return ErrBucketNotFound
	}
	delete(f.byName, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}
