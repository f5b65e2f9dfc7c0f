package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
)

const (
	DefaultMaxBytes int64 = 5 << 20
	pdfMIME             = "application/pdf"
)

// AttachmentStore keeps uploaded PDFs as files under a single directory.
// A storage reference is the bare file name.
type AttachmentStore struct {
	Dir      string
	MaxBytes int64
	Log      logrus.FieldLogger
	now      func() time.Time
}

func NewAttachmentStore(dir string, maxBytes int64, log logrus.FieldLogger) (*AttachmentStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &AttachmentStore{Dir: dir, MaxBytes: maxBytes, Log: log, now: time.Now}, nil
}

// Save validates and writes one upload. Nothing touches the disk unless the
// body is a PDF within the size limit.
func (s *AttachmentStore) Save(field, originalName string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.MaxBytes+1))
	if err != nil {
		return "", apperrors.New(apperrors.KindUploadRejected, "Failed to read uploaded file", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", apperrors.New(apperrors.KindUploadRejected,
			fmt.Sprintf("%s exceeds the %d MB limit", field, s.MaxBytes>>20), nil)
	}
	if !mimetype.Detect(data).Is(pdfMIME) {
		return "", apperrors.New(apperrors.KindUploadRejected, "Only PDF files are allowed", nil)
	}

	ref := s.newRef(field, originalName)
	if err := os.WriteFile(filepath.Join(s.Dir, ref), data, 0o644); err != nil {
		return "", apperrors.Storage("failed to save file", err)
	}
	return ref, nil
}

func (s *AttachmentStore) newRef(field, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".pdf"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s%s", field, s.now().UnixMilli(), suffix, ext)
}

// Path resolves a reference to the file on disk.
func (s *AttachmentStore) Path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." {
		return "", apperrors.NotFound("File not found")
	}
	path := filepath.Join(s.Dir, ref)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", apperrors.NotFound("File not found")
	}
	if err != nil {
		return "", apperrors.Storage("failed to stat file", err)
	}
	return path, nil
}

func (s *AttachmentStore) Read(ref string) ([]byte, error) {
	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NotFound("File not found")
	}
	if err != nil {
		return nil, apperrors.Storage("failed to read file", err)
	}
	return data, nil
}

// Delete removes a stored file. Unknown references are a no-op.
func (s *AttachmentStore) Delete(ref string) error {
	if ref == "" || ref != filepath.Base(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every stored file. Individual failures are logged and
// skipped; only an unreadable directory is returned.
func (s *AttachmentStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil {
			s.Log.WithError(err).WithField("file", entry.Name()).Warn("failed to delete attachment")
			continue
		}
		removed++
	}
	return removed, nil
}
