package filestorage

import (
	"io"
	"mime/multipart"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save stores the content of r under a generated name keeping the
	// extension of filename, and returns its accessible path or URL
	Save(r io.Reader, filename, subPath string) (string, error)

	// SaveFileWithPath saves an uploaded multipart file to a subdirectory
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a previously saved file given its path or URL
	DeleteFile(fileURL string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
