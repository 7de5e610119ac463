package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDirSave(t *testing.T) {
	t.Run("writes file to the bucket directory", func(t *testing.T) {
		dir := NewDir(t.TempDir())
		if err := dir.CreateBucket("docs"); err != nil {
			t.Fatalf("CreateBucket: %v", err)
		}

		n, err := dir.Save("docs", "notes.txt", bytes.NewReader([]byte("test content")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 12 {
			t.Errorf("expected 12 bytes written, got %d", n)
		}

		content, err := os.ReadFile(filepath.Join(dir.Root(), "docs", "notes.txt"))
		if err != nil {
			t.Fatalf("failed to read saved file: %v", err)
		}
		if string(content) != "test content" {
			t.Errorf("expected 'test content', got %q", content)
		}
	})

	t.Run("never overwrites an existing file", func(t *testing.T) {
		dir := NewDir(t.TempDir())
		if err := dir.CreateBucket("docs"); err != nil {
			t.Fatalf("CreateBucket: %v", err)
		}

		if _, err := dir.Save("docs", "notes.txt", bytes.NewReader([]byte("original"))); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if _, err := dir.Save("docs", "notes.txt", bytes.NewReader([]byte("replacement"))); err == nil {
			t.Fatalf("expected second save to fail")
		}

		content, _ := os.ReadFile(filepath.Join(dir.Root(), "docs", "notes.txt"))
		if string(content) != "original" {
			t.Errorf("original bytes changed: %q", content)
		}
	})

	t.Run("rejects traversal names", func(t *testing.T) {
		dir := NewDir(t.TempDir())
		if _, err := dir.Save("docs", "../escape.txt", bytes.NewReader(nil)); err != ErrUnsafeName {
			t.Fatalf("expected ErrUnsafeName, got %v", err)
		}
	})
}

func TestDirFilesSkipsSubdirectories(t *testing.T) {
	dir := NewDir(t.TempDir())
	if err := dir.CreateBucket("docs"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	if _, err := dir.Save("docs", "a.txt", bytes.NewReader([]byte("aa"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir.Root(), "docs", "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := dir.Files("docs")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Name != "a.txt" || files[0].Size != 2 {
		t.Fatalf("unexpected entry: %+v", files[0])
	}
}

func TestDirRemoveBucket(t *testing.T) {
	t.Run("removes empty directory", func(t *testing.T) {
		dir := NewDir(t.TempDir())
		if err := dir.CreateBucket("docs"); err != nil {
			t.Fatalf("CreateBucket: %v", err)
		}
		if err := dir.RemoveBucket("docs"); err != nil {
			t.Fatalf("RemoveBucket: %v", err)
		}
		if dir.Exists("docs") {
			t.Fatalf("directory should be gone")
		}
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		dir := NewDir(t.TempDir())
		if err := dir.RemoveBucket("ghost"); err != nil {
			t.Fatalf("RemoveBucket: %v", err)
		}
	})

	t.Run("fails on non-empty directory", func(t *testing.T) {
		dir := NewDir(t.TempDir())
		if err := dir.CreateBucket("docs"); err != nil {
			t.Fatalf("CreateBucket: %v", err)
		}
		if _, err := dir.Save("docs", "a.txt", bytes.NewReader([]byte("x"))); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := dir.RemoveBucket("docs"); err == nil {
			t.Fatalf("expected error removing non-empty directory")
		}
	})
}

func TestStatDerivedMetadata(t *testing.T) {
	dir := NewDir(t.TempDir())
	if err := dir.CreateBucket("docs"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	if _, err := dir.Save("docs", "hello.txt", bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatalf("save: %v", err)
	}

	mtime := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	if err := os.Chtimes(filepath.Join(dir.Root(), "docs", "hello.txt"), mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	info, err := dir.Stat("docs", "hello.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("expected size 5, got %d", info.Size)
	}
	if info.SizeFormatted != "5 B" {
		t.Errorf("expected size_formatted '5 B', got %q", info.SizeFormatted)
	}
	if info.Modified != "2025-03-14 09:26:53" {
		t.Errorf("unexpected modified: %q", info.Modified)
	}
	if info.ContentType != "text/plain" {
		t.Errorf("expected text/plain, got %q", info.ContentType)
	}
	if info.Extension != ".txt" {
		t.Errorf("expected .txt, got %q", info.Extension)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{5, "5 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{2048 * 1024 * 1024 * 1024, "2048.0 GB"},
	}
	for _, tc := range cases {
		if got := FormatSize(tc.in); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGuessContentType(t *testing.T) {
	if got := GuessContentType("a.txt"); got != "text/plain" {
		t.Errorf("txt: got %q", got)
	}
	if got := GuessContentType("a.png"); got != "image/png" {
		t.Errorf("png: got %q", got)
	}
	if got := GuessContentType("archive"); got != "unknown" {
		t.Errorf("no extension: got %q", got)
	}
}
