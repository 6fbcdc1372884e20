// Package upload stores expense images and avatars and returns their public URL.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrEmpty           = errors.New("empty upload")
	ErrTooLarge        = errors.New("upload too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Kind is the top-level folder an upload is stored under.
type Kind string

const (
	KindExpenseImage Kind = "expense-images"
	KindAvatar       Kind = "avatars"
)

// DefaultMaxBytes is the size limit applied when none is configured.
const DefaultMaxBytes = 5 << 20

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Storage persists upload bytes under a key.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader) error
}

type Service struct {
	storage   Storage
	publicURL string
	maxBytes  int64
	now       func() time.Time
}

func NewService(storage Storage, publicURL string, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Service{
		storage:   storage,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

type Result struct {
	Key  string
	URL  string
	MIME string
	Size int64
}

// Upload sniffs the content type, enforces the size limit and stores the file
// under {kind}/{owner}/{unixMillis}-{name}.
func (s *Service) Upload(ctx context.Context, kind Kind, owner uuid.UUID, name string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmpty
	}

	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	key := path.Join(string(kind), owner.String(), fmt.Sprintf("%d-%s", s.now().UnixMilli(), fileName(name, mt.Extension())))

	if err := s.storage.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	return &Result{
		Key:  key,
		URL:  s.publicURL + "/" + key,
		MIME: mt.String(),
		Size: int64(len(data)),
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func fileName(name, ext string) string {
	name = unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	name = strings.Trim(name, "._")

	if name == "" {
		name = "image"
	}

	if filepath.Ext(name) == "" {
		name += ext
	}

	return name
}

// DiskStorage writes uploads below a root directory.
type DiskStorage struct {
	root string
}

func NewDiskStorage(root string) *DiskStorage {
	return &DiskStorage{root: root}
}

func (d *DiskStorage) Put(_ context.Context, key string, r io.Reader) error {
	dest := filepath.Join(d.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("writing upload file: %w", err)
	}

	return nil
}
