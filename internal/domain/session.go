package domain

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalFile is a user-selected file held in memory until it is uploaded.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsImage reports whether the file declares an image MIME type.
func (f LocalFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// Extension returns the original extension without the dot, or "jpg" when
// the name carries none.
func (f LocalFile) Extension() string {
	ext := strings.TrimPrefix(filepath.Ext(f.Name), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}

// LoadLocalFile reads path and resolves its content type from the extension,
// falling back to sniffing the first bytes.
func LoadLocalFile(path string) (LocalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewLocalFile(filepath.Base(path), "", data), nil
}

// NewLocalFile builds a LocalFile, deriving the content type when the caller
// does not know it.
func NewLocalFile(name, contentType string, data []byte) LocalFile {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			contentType = byExt
		} else {
			contentType = http.DetectContentType(data)
		}
	}
	if base, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = base
	}
	return LocalFile{Name: name, ContentType: contentType, Data: data}
}

// UploadSession tracks the single live file selection. UploadedURL stays empty
// until the upload completes.
type UploadSession struct {
	ID          string
	File        LocalFile
	UploadedURL string
}

// NewUploadSession starts a session for file with a fresh identity.
func NewUploadSession(file LocalFile) *UploadSession {
	return &UploadSession{ID: uuid.NewString(), File: file}
}

// Uploaded reports whether the session has a retrievable URL.
func (s *UploadSession) Uploaded() bool {
	return s != nil && s.UploadedURL != ""
}
