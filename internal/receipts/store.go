package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ledger "freelance-tax/internal/ledger/domain"
)

const (
	defaultBucket  = "receipts"
	maxNameLength  = 50
	defaultExt     = "bin"
	sniffBytes     = 512
	dirPermission  = 0o755
	filePermission = 0o644
)

// FileInfo describes a stored receipt.
type FileInfo struct {
	Key          string    `json:"key"`
	PublicURL    string    `json:"public_url"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// Stats summarizes the store content.
type Stats struct {
	TotalFiles     int            `json:"total_files"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	FilesByType    map[string]int `json:"files_by_type"`
}

// Config locates the store on disk and on the web.
type Config struct {
	Root      string
	PublicURL string
	Bucket    string
}

// LocalStore keeps receipts under Root/<bucket>/YYYY-MM/ and serves them
// from PublicURL/<bucket>/<key>.
type LocalStore struct {
	root      string
	publicURL string
	bucket    string
	clock     ledger.Clock
	newID     func() string
	logger    zerolog.Logger
}

// NewLocalStore creates the bucket directory if needed.
func NewLocalStore(cfg Config, clock ledger.Clock, logger zerolog.Logger) (*LocalStore, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("receipts: root required")
	}
	if strings.TrimSpace(cfg.PublicURL) == "" {
		return nil, errors.New("receipts: public url required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	s := &LocalStore{
		root:      cfg.Root,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		bucket:    cfg.Bucket,
		clock:     clock,
		newID:     uuid.NewString,
		logger:    logger.With().Str("component", "receipts").Logger(),
	}
	if err := os.MkdirAll(s.bucketDir(), dirPermission); err != nil {
		return nil, fmt.Errorf("receipts: create bucket: %w", err)
	}
	return s, nil
}

// Upload stores content under a unique dated key and returns its public URL.
func (s *LocalStore) Upload(ctx context.Context, content io.Reader, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if content == nil {
		return "", ledger.NewValidationError("file", "fichier requis")
	}
	key := s.objectKey(originalName, s.clock.Now())
	target := filepath.Join(s.bucketDir(), filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), dirPermission); err != nil {
		return "", ledger.WrapRepo("upload receipt", err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermission)
	if err != nil {
		return "", ledger.WrapRepo("upload receipt", err)
	}
	written, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", ledger.WrapRepo("upload receipt", err)
	}
	url := s.urlFor(key)
	s.logger.Info().Str("key", key).Int64("size", written).Msg("receipt uploaded")
	return url, nil
}

// Delete removes the receipt behind a public URL.
func (s *LocalStore) Delete(ctx context.Context, fileURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := s.keyFromURL(fileURL)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.bucketDir(), filepath.FromSlash(key))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ledger.ErrNotFound
		}
		return ledger.WrapRepo("delete receipt", err)
	}
	return nil
}

// ListByMonth lists the receipts uploaded in month, ordered by key.
func (s *LocalStore) ListByMonth(ctx context.Context, month ledger.MonthID) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !month.Valid() {
		return nil, ledger.NewValidationError("month", "mois invalide")
	}
	prefix := month.String()
	entries, err := os.ReadDir(filepath.Join(s.bucketDir(), prefix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, ledger.WrapRepo("list receipts", err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, ledger.WrapRepo("list receipts", err)
		}
		key := path.Join(prefix, entry.Name())
		files = append(files, FileInfo{
			Key:          key,
			PublicURL:    s.urlFor(key),
			SizeBytes:    info.Size(),
			ContentType:  s.detectContentType(key),
			LastModified: info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	return files, nil
}

// Stats counts every stored receipt by lowercase extension.
func (s *LocalStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{FilesByType: map[string]int{}}
	err := filepath.WalkDir(s.bucketDir(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.TotalFiles++
		stats.TotalSizeBytes += info.Size()
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		if ext == "" {
			ext = "unknown"
		}
		stats.FilesByType[ext]++
		return nil
	})
	if err != nil {
		return Stats{}, ledger.WrapRepo("receipt stats", err)
	}
	return stats, nil
}

// ContentType reports the content type of a stored key.
func (s *LocalStore) ContentType(key string) string {
	return s.detectContentType(key)
}

func (s *LocalStore) bucketDir() string {
	return filepath.Join(s.root, s.bucket)
}

func (s *LocalStore) urlFor(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

func (s *LocalStore) keyFromURL(fileURL string) (string, error) {
	base := s.publicURL + "/" + s.bucket + "/"
	key, ok := strings.CutPrefix(fileURL, base)
	if !ok || key == "" {
		return "", ledger.NewValidationError("url", "URL invalide: "+fileURL)
	}
	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ledger.NewValidationError("url", "URL invalide: "+fileURL)
	}
	return key, nil
}

func (s *LocalStore) objectKey(originalName string, now time.Time) string {
	now = now.UTC()
	id := s.newID()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%04d-%02d/%s_%s_%s.%s",
		now.Year(), int(now.Month()),
		now.Format("02_150405"), id,
		SanitizeName(originalName), Extension(originalName))
}

func (s *LocalStore) detectContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	f, err := os.Open(filepath.Join(s.bucketDir(), filepath.FromSlash(key)))
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	buf := make([]byte, sniffBytes)
	n, _ := io.ReadFull(f, buf)
	return http.DetectContentType(buf[:n])
}

// SanitizeName keeps the stem's letters, digits, dashes and underscores,
// replaces everything else with '_' and caps the result at 50 characters.
func SanitizeName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "file"
	}
	var b strings.Builder
	count := 0
	for _, r := range stem {
		if count == maxNameLength {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		count++
	}
	return b.String()
}

// Extension returns the file extension without the dot, "bin" when absent.
func Extension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))), ".")
	if ext == "" {
		return defaultExt
	}
	return ext
}
