package blob

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLocalStore_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads/")

	url, err := s.Put(context.Background(), "feedback/a.txt", strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/feedback/a.txt", url)

	data, err := os.ReadFile(filepath.Join(dir, "feedback", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(context.Background(), "feedback/a.txt"))
	require.NoError(t, s.Delete(context.Background(), "feedback/a.txt"))
	_, err = os.Stat(filepath.Join(dir, "feedback", "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "/uploads")
	for _, key := range []string{"", "../etc/passwd", "a/../../b", "/abs"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads")

	key, url, err := SaveImage(context.Background(), s, DefaultImagePolicy, "feedback", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "feedback/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "/uploads/"+key, url)

	_, _, err = SaveImage(context.Background(), s, DefaultImagePolicy, "feedback", strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	small := DefaultImagePolicy
	small.MaxBytes = 64
	big := append(append([]byte{}, pngHeader...), make([]byte, 1024)...)
	_, _, err = SaveImage(context.Background(), s, small, "feedback", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(dir, "feedback"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "oversized upload leaves no file behind")
}
