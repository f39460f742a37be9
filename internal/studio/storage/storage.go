package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"

	"invite-studio/internal/studio/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidName  = errors.New("invalid name")
	ErrUnsupported  = errors.New("unsupported media type")
	projectNameExpr = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	uploadIDExpr    = regexp.MustCompile(`^[0-9a-z]{26}$`)
)

// ============================================================
// File Storage
// ============================================================

// FileStorage keeps one directory per user:
//
//	<root>/<user>/projects/<name>.json
//	<root>/<user>/uploads/<id>       raw bytes
//	<root>/<user>/uploads/<id>.json  Upload metadata
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) UserDir(userID string) string {
	return filepath.Join(s.root, userID)
}

func (s *FileStorage) ProjectsDir(userID string) string {
	return filepath.Join(s.UserDir(userID), "projects")
}

func (s *FileStorage) ProjectPath(userID, name string) string {
	return filepath.Join(s.ProjectsDir(userID), name+".json")
}

func (s *FileStorage) UploadsDir(userID string) string {
	return filepath.Join(s.UserDir(userID), "uploads")
}

func (s *FileStorage) UploadPath(userID, id string) string {
	return filepath.Join(s.UploadsDir(userID), id)
}

func (s *FileStorage) UploadMetaPath(userID, id string) string {
	return s.UploadPath(userID, id) + ".json"
}

func (s *FileStorage) EnsureProjectsDir(userID string) error {
	if err := os.MkdirAll(s.ProjectsDir(userID), 0o755); err != nil {
		return fmt.Errorf("mkdir projects dir: %w", err)
	}
	return nil
}

func (s *FileStorage) EnsureUploadsDir(userID string) error {
	if err := os.MkdirAll(s.UploadsDir(userID), 0o755); err != nil {
		return fmt.Errorf("mkdir uploads dir: %w", err)
	}
	return nil
}

// ValidProjectName reports whether name is usable as a file name.
func ValidProjectName(name string) bool {
	return projectNameExpr.MatchString(name)
}

// ============================================================
// Projects
// ============================================================

// ListProjects returns the stored project names, sorted.
func (s *FileStorage) ListProjects(userID string) ([]string, error) {
	entries, err := os.ReadDir(s.ProjectsDir(userID))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(out)
	return out, nil
}

// LoadProject reads and validates a stored document.
func (s *FileStorage) LoadProject(userID, name string) (models.Project, error) {
	if !ValidProjectName(name) {
		return models.Project{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	data, err := os.ReadFile(s.ProjectPath(userID, name))
	if errors.Is(err, os.ErrNotExist) {
		return models.Project{}, fmt.Errorf("project %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("read project: %w", err)
	}

	p, err := models.ParseProject(data)
	if err != nil {
		return models.Project{}, fmt.Errorf("parse project %s: %w", name, err)
	}
	return p, nil
}

// SaveProject writes the document atomically (temp file, then rename).
func (s *FileStorage) SaveProject(userID, name string, p models.Project) error {
	if !ValidProjectName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	data, err := models.EncodeProject(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := s.EnsureProjectsDir(userID); err != nil {
		return err
	}
	return writeAtomic(s.ProjectPath(userID, name), data)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ============================================================
// Uploads
// ============================================================

// Upload describes one stored binary.
type Upload struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int    `json:"size"`
}

// Handle is the reference a project document stores for this upload.
func (u Upload) Handle() models.PendingUpload {
	return models.PendingUpload{ID: u.ID, Filename: u.Filename}
}

// Media kinds accepted as backgrounds and music.
func (u Upload) IsVideo() bool { return strings.HasPrefix(u.MIME, "video/") }
func (u Upload) IsImage() bool { return strings.HasPrefix(u.MIME, "image/") }
func (u Upload) IsAudio() bool { return strings.HasPrefix(u.MIME, "audio/") }

// SaveUpload sniffs the content type and stores data under a fresh id.
// Only image, video and audio content is accepted.
func (s *FileStorage) SaveUpload(userID, filename string, data []byte) (Upload, error) {
	mime := mimetype.Detect(data)
	u := Upload{
		ID:       strings.ToLower(ulid.Make().String()),
		Filename: filepath.Base(filename),
		MIME:     mime.String(),
		Size:     len(data),
	}
	if i := strings.IndexByte(u.MIME, ';'); i >= 0 {
		u.MIME = u.MIME[:i]
	}
	if !u.IsImage() && !u.IsVideo() && !u.IsAudio() {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupported, u.MIME)
	}
	if u.Filename == "." || u.Filename == string(filepath.Separator) {
		u.Filename = "upload" + mime.Extension()
	}

	if err := s.EnsureUploadsDir(userID); err != nil {
		return Upload{}, err
	}
	if err := os.WriteFile(s.UploadPath(userID, u.ID), data, 0o644); err != nil {
		return Upload{}, fmt.Errorf("write upload: %w", err)
	}

	meta, err := json.Marshal(u)
	if err != nil {
		return Upload{}, fmt.Errorf("encode upload meta: %w", err)
	}
	if err := writeAtomic(s.UploadMetaPath(userID, u.ID), meta); err != nil {
		return Upload{}, err
	}
	return u, nil
}

// GetUpload returns the metadata of a stored upload.
func (s *FileStorage) GetUpload(userID, id string) (Upload, error) {
	if !uploadIDExpr.MatchString(id) {
		return Upload{}, fmt.Errorf("%w: upload %q", ErrInvalidName, id)
	}
	data, err := os.ReadFile(s.UploadMetaPath(userID, id))
	if errors.Is(err, os.ErrNotExist) {
		return Upload{}, fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Upload{}, fmt.Errorf("read upload meta: %w", err)
	}

	var u Upload
	if err := json.Unmarshal(data, &u); err != nil {
		return Upload{}, fmt.Errorf("decode upload meta: %w", err)
	}
	return u, nil
}

// ReadUpload returns the stored bytes.
func (s *FileStorage) ReadUpload(userID, id string) ([]byte, error) {
	if !uploadIDExpr.MatchString(id) {
		return nil, fmt.Errorf("%w: upload %q", ErrInvalidName, id)
	}
	data, err := os.ReadFile(s.UploadPath(userID, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// Blobs scopes upload reads to one user for the exporter and preview.
func (s *FileStorage) Blobs(userID string) *UserBlobs {
	return &UserBlobs{storage: s, userID: userID}
}

type UserBlobs struct {
	storage *FileStorage
	userID  string
}

func (b *UserBlobs) ReadBlob(ctx context.Context, upload models.PendingUpload) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.storage.ReadUpload(b.userID, upload.ID)
}
