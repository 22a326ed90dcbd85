// Package fsstore is the plain-file Store implementation. Each record is
// one markdown file under <root>/users/<token>/memories (hot) or
// <root>/users/<token>/archive (cold).
package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/zcf0508/mem-mcp/internal/frontmatter"
	"github.com/zcf0508/mem-mcp/internal/model"
	"github.com/zcf0508/mem-mcp/internal/safename"
	"github.com/zcf0508/mem-mcp/internal/store"
)

// FS stores records as files under a single data root.
type FS struct {
	root string
	log  zerolog.Logger
	now  func() time.Time
}

// Option configures an FS store.
type Option func(*FS)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *FS) { s.now = now }
}

// New returns an FS store rooted at dataDir.
func New(dataDir string, log zerolog.Logger, opts ...Option) *FS {
	s := &FS{root: dataDir, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*FS)(nil)

func (s *FS) classDir(token string, class store.Class) (string, error) {
	if err := safename.ValidateToken(token); err != nil {
		return "", err
	}
	sub := "memories"
	if class == store.Archive {
		sub = "archive"
	}
	return filepath.Join(s.root, "users", token, sub), nil
}

func (s *FS) recordPath(token, filename string, class store.Class) (string, error) {
	dir, err := s.classDir(token, class)
	if err != nil {
		return "", err
	}
	return safename.Resolve(dir, filename)
}

func (s *FS) List(ctx context.Context, token string, class store.Class) ([]string, error) {
	dir, err := s.classDir(token, class)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), safename.Ext) {
			continue
		}
		if _, err := safename.Normalize(e.Name()); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *FS) Load(ctx context.Context, token, filename string, class store.Class) (*model.Record, error) {
	path, err := s.recordPath(token, filename, class)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "record %q", filename)
		}
		return nil, errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}

	content := string(raw)
	meta, body, ok := frontmatter.Decode(content)
	rec := &model.Record{Filename: filepath.Base(path), Body: body, Meta: meta}
	if ok {
		return rec, nil
	}

	// Legacy record: infer metadata and rewrite in canonical form. The
	// body is preserved byte for byte, footer line included.
	var modTime time.Time
	if fi, statErr := os.Stat(path); statErr == nil {
		modTime = fi.ModTime()
	}
	rec.Meta = frontmatter.InferLegacy(content, modTime, s.now())
	rec.Body = content
	if err := os.WriteFile(path, []byte(frontmatter.Encode(rec.Meta, rec.Body)), 0o600); err != nil {
		return nil, errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	s.log.Debug().Str("token", token).Str("file", rec.Filename).Msg("migrated legacy record")
	return rec, nil
}

func (s *FS) Save(ctx context.Context, token string, rec *model.Record, class store.Class) error {
	path, err := s.recordPath(token, rec.Filename, class)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	if err := os.WriteFile(path, []byte(frontmatter.Encode(rec.Meta, rec.Body)), 0o600); err != nil {
		return errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	return nil
}

func (s *FS) Delete(ctx context.Context, token, filename string, class store.Class) error {
	path, err := s.recordPath(token, filename, class)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(model.ErrNotFound, "record %q", filename)
		}
		return errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	return nil
}

func (s *FS) MoveToArchive(ctx context.Context, token, filename string) error {
	src, err := s.recordPath(token, filename, store.Hot)
	if err != nil {
		return err
	}
	dst, err := s.recordPath(token, filename, store.Archive)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	if err := os.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(model.ErrNotFound, "record %q", filename)
		}
		return errors.Wrap(model.ErrStorageUnavailable, err.Error())
	}
	return nil
}
