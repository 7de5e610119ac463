package bucket

import (
	"errors"
	"fmt"
)

var (
	// ErrBucketNotFound indicates the requested bucket record does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrBucketNameExists is returned when creating a duplicate bucket name.
	ErrBucketNameExists = errors.New("bucket name already exists")
)

// InvalidNameError carries the reason a bucket name was rejected.
type InvalidNameError struct {
	Reason string
}

func (e *InvalidNameError) Error() string {
	return e.Reason
}

// NotEmptyError blocks deletion of a bucket whose directory still holds files.
type NotEmptyError struct {
	FileCount int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("bucket has %d files, delete files first", e.FileCount)
}
