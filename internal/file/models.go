package file

import "github.com/bucketstore/bucketstore/internal/storage"

// UploadResult reports the outcome of a multi-file upload. Uploads have a
// partial-failure contract: individual files can fail without failing the
// request, as long as at least one file is stored.
type UploadResult struct {
	Files  []storage.FileInfo
	Errors []string
}

// Download resolves a stored file for serving. Inline controls the
// content-disposition: images and plain text render in the browser, anything
// else downloads as an attachment.
type Download struct {
	Path   string
	Info   storage.FileInfo
	Inline bool
}
