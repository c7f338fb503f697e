package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ImagePolicy limits what SaveImage accepts.
type ImagePolicy struct {
	MaxBytes int64
	// Allowed maps a sniffed content type to the extension stored.
	Allowed map[string]string
}

// DefaultImagePolicy accepts common web image formats up to 5 MiB.
var DefaultImagePolicy = ImagePolicy{
	MaxBytes: 5 << 20,
	Allowed: map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	},
}

// SaveImage sniffs the content type of r, enforces p and stores the image
// under prefix/<uuid><ext>.  It returns the key and the public URL.
func SaveImage(ctx context.Context, s Store, p ImagePolicy, prefix string, r io.Reader) (string, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("read image: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := p.Allowed[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	limited := &limitReader{r: body, left: p.MaxBytes}

	key := prefix + "/" + uuid.NewString() + ext
	url, err := s.Put(ctx, key, limited, contentType)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return "", "", ErrTooLarge
		}
		return "", "", err
	}
	return key, url, nil
}

// limitReader fails with ErrTooLarge once more than left bytes are read.
type limitReader struct {
	r    io.Reader
	left int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
