// Package blob stores decoded image attachments under generated keys.
package blob

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyData = errors.New("empty image data")
	ErrDecode    = errors.New("invalid base64 image data")
	ErrTooLarge  = errors.New("image exceeds size limit")
)

// fallbackExt is used when neither the filename nor the content yields a media extension.
const fallbackExt = ".bin"

// mediaExts are the only extensions a stored key may carry. Anything else
// (.html, .js, .svg, ...) would be served as active content from the same origin.
var mediaExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".bmp": {},
	".avif": {}, ".heic": {}, ".heif": {}, ".ico": {}, ".tif": {}, ".tiff": {},
	".mp4": {}, ".webm": {}, ".mov": {}, ".mp3": {}, ".ogg": {}, ".wav": {}, ".m4a": {},
}

// Backend writes finished blobs somewhere an external server can read them.
type Backend interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
}

// Blob describes a stored attachment.
type Blob struct {
	Key         string
	Ref         string
	ContentType string
	Size        int
}

// Store decodes, names and writes attachments.
type Store struct {
	backend   Backend
	urlPrefix string
	maxBytes  int64
}

// New builds a Store. Refs are urlPrefix + "/" + key.
func New(backend Backend, urlPrefix string, maxBytes int64) *Store {
	return &Store{
		backend:   backend,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}
}

// Save decodes the base64 payload (plain or data URL) and writes it under a
// fresh ULID key. The client filename only contributes its extension.
func (s *Store) Save(ctx context.Context, encoded, filename string) (Blob, error) {
	data, err := s.decode(encoded)
	if err != nil {
		return Blob{}, err
	}

	mt := mimetype.Detect(data)
	ext := extensionFor(filename, mt)

	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return Blob{}, fmt.Errorf("generate blob key: %w", err)
	}
	key := id.String() + ext

	if err := s.backend.Write(ctx, key, data, mt.String()); err != nil {
		return Blob{}, fmt.Errorf("write blob %s: %w", key, err)
	}

	return Blob{
		Key:         key,
		Ref:         s.urlPrefix + "/" + key,
		ContentType: mt.String(),
		Size:        len(data),
	}, nil
}

func (s *Store) decode(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ",")
		if idx < 0 || !strings.HasSuffix(encoded[:idx], ";base64") {
			return nil, ErrDecode
		}
		encoded = encoded[idx+1:]
	}
	if encoded == "" {
		return nil, ErrEmptyData
	}
	if s.maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(encoded))) > s.maxBytes+2 {
		return nil, ErrTooLarge
	}

	var (
		data []byte
		err  error
	)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err = enc.DecodeString(encoded)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// extensionFor keeps a media extension from the client filename, otherwise
// falls back to the sniffed one, and finally to fallbackExt.
func extensionFor(filename string, mt *mimetype.MIME) string {
	if ext := strings.ToLower(filepath.Ext(filepath.Base(filename))); isMediaExt(ext) {
		return ext
	}
	if ext := mt.Extension(); isMediaExt(ext) {
		return ext
	}
	return fallbackExt
}

func isMediaExt(ext string) bool {
	_, ok := mediaExts[ext]
	return ok
}
