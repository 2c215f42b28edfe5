package server

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// allowedExtensions is the upload collaborator's allow-list. The core never
// re-validates file bytes or extensions.
var allowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
	"ppt":  {},
	"pptx": {},
	"zip":  {},
	"csv":  {},
	"xlsx": {},
	"json": {},
	"md":   {},
	"tex":  {},
}

var errUnsupportedFileType = errors.New("unsupported file type")

// StorageKeyProvider issues opaque storage keys for uploaded files.
type StorageKeyProvider interface {
	NewKey() (string, error)
}

type uuidKeyProvider struct{}

// NewUUIDKeyProvider constructs a StorageKeyProvider backed by UUIDv7 values.
func NewUUIDKeyProvider() StorageKeyProvider {
	return &uuidKeyProvider{}
}

func (p *uuidKeyProvider) NewKey() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// fileExtension extracts the lowercased extension without the leading dot.
func fileExtension(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	return ext
}

// validateUpload checks the declared file name against the allow-list and
// derives the storage URL for the descriptor handed to the core.
func validateUpload(keys StorageKeyProvider, fileName string) (fileURL, fileType string, err error) {
	ext := fileExtension(fileName)
	if ext == "" {
		return "", "", errUnsupportedFileType
	}
	if _, ok := allowedExtensions[ext]; !ok {
		return "", "", errUnsupportedFileType
	}
	key, err := keys.NewKey()
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("/files/%s.%s", key, ext), ext, nil
}
