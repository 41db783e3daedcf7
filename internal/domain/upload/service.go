package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DirName is the path segment every stored attachment lives under. Attachment
// URLs accepted by the send-email endpoint must contain it.
const DirName = "stream-api"

// Service stores uploaded attachments.
// Flow: filter -> unique name -> storage -> record.
type Service struct {
	storage Storage
	repo    Repository
	blocked map[string]bool
	now     func() time.Time
}

// NewService creates the upload service. repo may be nil, in which case no
// record is kept. blockedExtensions are matched case-insensitively without
// the leading dot.
func NewService(storage Storage, repo Repository, blockedExtensions []string) *Service {
	blocked := make(map[string]bool, len(blockedExtensions))
	for _, ext := range blockedExtensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			blocked[ext] = true
		}
	}
	return &Service{storage: storage, repo: repo, blocked: blocked, now: time.Now}
}

// PartitionKey returns the directory key for t: stream-api/<YYYY>/<MM>.
// It is evaluated per request so a long-running process rolls over to the
// new month without a restart.
func PartitionKey(t time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d", DirName, t.Year(), int(t.Month()))
}

// Store saves the file and returns its record. Errors are either a
// *TransportError (rejected by the upload filter) or wrap ErrCannotBeSaved.
func (s *Service) Store(ctx context.Context, username string, file *Incoming) (*Upload, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	if s.blocked[ext] {
		return nil, &TransportError{Code: CodeExtension, Err: fmt.Errorf("extension %q is blocked", ext)}
	}

	content := file.Reader()
	mimeType := detectMimeType(content)

	now := s.now()
	name := CreateSanitizedUniqueFileName(file.Filename, now)
	key := PartitionKey(now) + "/" + name

	fileURL, err := s.storage.Save(ctx, key, content, file.Size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotBeSaved, err)
	}

	upload := &Upload{
		ID:           uuid.New().String(),
		Username:     username,
		OriginalName: file.Filename,
		FilePath:     key,
		FileURL:      fileURL,
		MimeType:     mimeType,
		Size:         file.Size,
		CreatedAt:    now,
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, upload); err != nil {
			if delErr := s.storage.Delete(ctx, key); delErr != nil {
				log.Printf("upload_rollback_failed key=%s error=%q", key, delErr.Error())
			}
			return nil, fmt.Errorf("%w: record: %v", ErrCannotBeSaved, err)
		}
	}

	return upload, nil
}

// detectMimeType sniffs the first 512 bytes and rewinds the file.
func detectMimeType(file io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := http.DetectContentType(buf[:n])
	mimeType = strings.Split(mimeType, ";")[0]
	_, _ = file.Seek(0, io.SeekStart)
	return mimeType
}
