package storage

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sharecircle/domain/mimetypes"
	"sharecircle/errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// UploadRule describes what a given upload slot accepts.
type UploadRule struct {
	Dir           string
	MaxBytes      int64
	Accept        func(mimetypes.MIME) bool
	RejectMessage string
}

var (
	AvatarRule = UploadRule{
		Dir:           "avatars",
		MaxBytes:      2 << 20,
		Accept:        mimetypes.MIME.IsJPEGOrPNG,
		RejectMessage: "Only JPEG and PNG files are allowed for avatars",
	}
	ItemImageRule = UploadRule{
		Dir:           "items",
		MaxBytes:      2 << 20,
		Accept:        mimetypes.MIME.IsImage,
		RejectMessage: "Only image files are allowed",
	}
)

// MaxItemImages is the number of images attached to one item.
const MaxItemImages = 5

const maxNameAttempts = 100

// UploadStore writes uploaded files under root and returns their public path.
// The content type is sniffed from the bytes, the client header is ignored.
type UploadStore struct {
	root string
	log  *slog.Logger
	now  func() time.Time
}

func NewUploadStore(root string, log *slog.Logger) (*UploadStore, error) {
	for _, dir := range []string{AvatarRule.Dir, ItemImageRule.Dir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}
	return &UploadStore{root: root, log: log, now: time.Now}, nil
}

// Root is the directory served under /uploads.
func (s *UploadStore) Root() string {
	return s.root
}

// Save validates and stores one file, returning "/uploads/<dir>/<name>".
func (s *UploadStore) Save(rule UploadRule, header *multipart.FileHeader) (string, error) {
	if header.Size > rule.MaxBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", errors.ErrFileTooLarge, header.Filename, rule.MaxBytes)
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if !rule.Accept(mimetypes.ToMIME(detected.String())) {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedMedia, rule.RejectMessage)
	}

	// Cursor needs to be at the beginning for the copy
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	name, target, out, err := s.create(rule.Dir, sanitizeFilename(header.Filename))
	if err != nil {
		return "", err
	}

	written, err := io.Copy(out, io.LimitReader(file, rule.MaxBytes+1))
	closeErr := out.Close()
	if err == nil && written > rule.MaxBytes {
		err = fmt.Errorf("%w: %s is larger than %d bytes", errors.ErrFileTooLarge, header.Filename, rule.MaxBytes)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}

	s.log.Debug("File uploaded", "path", target, "mime", detected.String(), "bytes", written)
	return path.Join("/uploads", rule.Dir, name), nil
}

// create opens a new file named after the upload time. Two uploads with the
// same name in the same millisecond get a counter.
func (s *UploadStore) create(dir, base string) (string, string, *os.File, error) {
	stamp := s.now().UnixMilli()
	for attempt := 0; ; attempt++ {
		name := fmt.Sprintf("%d_%s", stamp, base)
		if attempt > 0 {
			name = fmt.Sprintf("%d_%d_%s", stamp, attempt, base)
		}
		target := filepath.Join(s.root, dir, name)
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err == nil {
			return name, target, out, nil
		}
		if !os.IsExist(err) || attempt >= maxNameAttempts {
			return "", "", nil, err
		}
	}
}

// Remove deletes a previously saved file given its public path.
func (s *UploadStore) Remove(publicPath string) {
	rel := strings.TrimPrefix(publicPath, "/uploads/")
	if rel == publicPath {
		return
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil {
		s.log.Warn("Failed to remove upload", "path", publicPath, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == ':' || r == 0:
			return '_'
		case r == ' ':
			return '-'
		default:
			return r
		}
	}, base)
	if base == "." || base == ".." || base == "" {
		return "upload"
	}
	return base
}
