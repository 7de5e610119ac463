package bucket

import (
	"time"

	"github.com/bucketstore/bucketstore/internal/storage"
)

// Bucket represents a named collection of files, backed by one directory
// under the storage root and one record in the relational store.
type Bucket struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a bucket record joined with a live snapshot of its directory.
// The snapshot is recomputed on every read; nothing here is cached.
type Detail struct {
	Bucket
	FolderExists bool               `json:"folder_exists"`
	FileCount    int                `json:"file_count"`
	TotalSize    string             `json:"total_size"`
	FolderPath   string             `json:"folder_path"`
	Files        []storage.FileInfo `json:"files"`
}
