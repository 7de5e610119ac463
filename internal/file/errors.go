package file

import "errors"

var (
	// ErrBucketNotFound signals the target bucket record does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrFileNotFound signals that the file could not be located.
	ErrFileNotFound = errors.New("file not found")
	// ErrNoFilesUploaded means every file in an upload request failed.
	ErrNoFilesUploaded = errors.New("no files were uploaded successfully")
)
