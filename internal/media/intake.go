// Package media validates and stores photos attached to report submissions.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const MaxFileSize = 5 << 20 // 5 MiB

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

var allowedExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Store persists uploaded photos under a single directory and hands back
// web-servable /uploads/ references. Names are unique per request, so
// concurrent writers never clash; nothing is ever overwritten.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save validates and persists one uploaded file, returning its public
// reference path. A nil header is a no-op: the photo is optional.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if fh.Size > MaxFileSize {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExts[ext]; !ok {
		return "", ErrUnsupportedType
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// The extension is client-controlled; the bytes have to agree.
	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !mt.Is("image/jpeg") && !mt.Is("image/png") {
		return "", ErrUnsupportedType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	dst := filepath.Join(s.dir, name)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(src, MaxFileSize)); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return "/uploads/" + name, nil
}

// Remove deletes a previously saved file given its public reference.
// Used to compensate when the report row never makes it into the store.
func (s *Store) Remove(ref string) error {
	name := strings.TrimPrefix(ref, "/uploads/")
	if name == "" || strings.Contains(name, "/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
