package media

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
)

// formFile builds a *multipart.FileHeader the way a handler would see it.
func formFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/reports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	fhs := req.MultipartForm.File["photo"]
	require.Len(t, fhs, 1)
	return fhs[0]
}

func padded(header []byte, size int) []byte {
	b := make([]byte, size)
	copy(b, header)
	return b
}

func TestSaveNilHeaderIsNoop(t *testing.T) {
	s := NewStore(t.TempDir())
	ref, err := s.Save(nil)
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Save(formFile(t, "cat.gif", []byte("GIF89a")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Save(formFile(t, "big.png", padded(pngHeader, 6<<20)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveRejectsMismatchedContent(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Save(formFile(t, "fake.jpg", []byte("just text pretending")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveStoresJPEGAndReturnsReference(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	ref, err := s.Save(formFile(t, "pothole.JPG", padded(jpegHeader, 4<<20)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/uploads/"), "got %q", ref)
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	onDisk := filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/"))
	info, err := os.Stat(onDisk)
	require.NoError(t, err)
	assert.Equal(t, int64(4<<20), info.Size())
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	s := NewStore(t.TempDir())

	ref1, err := s.Save(formFile(t, "a.png", padded(pngHeader, 64)))
	require.NoError(t, err)
	ref2, err := s.Save(formFile(t, "a.png", padded(pngHeader, 64)))
	require.NoError(t, err)
	assert.NotEqual(t, ref1, ref2)
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	ref, err := s.Save(formFile(t, "a.jpeg", padded(jpegHeader, 64)))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ref))
	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	assert.True(t, os.IsNotExist(err))

	// second removal is a no-op
	assert.NoError(t, s.Remove(ref))
}

func TestRemoveIgnoresTraversal(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.NoError(t, s.Remove("/uploads/../../etc/passwd"))
}
