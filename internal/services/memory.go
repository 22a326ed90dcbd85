// Package services orchestrates the record store, search engine, and
// eviction engine into the operations exposed by the transports.
package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zcf0508/mem-mcp/internal/eviction"
	"github.com/zcf0508/mem-mcp/internal/frontmatter"
	"github.com/zcf0508/mem-mcp/internal/model"
	"github.com/zcf0508/mem-mcp/internal/safename"
	"github.com/zcf0508/mem-mcp/internal/search"
	"github.com/zcf0508/mem-mcp/internal/store"
)

// MemoryService implements the per-user record lifecycle: CRUD over hot
// storage, fuzzy recall, archive search, and the lazily triggered sweep.
type MemoryService struct {
	store    store.Store
	sweeper  *eviction.Sweeper
	throttle *eviction.Throttle
	maxHot   int
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a MemoryService.
type Option func(*MemoryService)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryService) { s.now = now }
}

// WithMaxHotRecords overrides the hot-directory capacity.
func WithMaxHotRecords(n int) Option {
	return func(s *MemoryService) {
		if n > 0 {
			s.maxHot = n
		}
	}
}

// NewMemoryService wires the service. throttle gates automatic sweeps and
// is owned per instance so isolated stores do not share state.
func NewMemoryService(st store.Store, sw *eviction.Sweeper, th *eviction.Throttle, log zerolog.Logger, opts ...Option) *MemoryService {
	s := &MemoryService{
		store:    st,
		sweeper:  sw,
		throttle: th,
		maxHot:   eviction.DefaultMaxHot,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List enumerates hot records as summaries, migrating legacy records as a
// side effect. It does not refresh access times.
func (s *MemoryService) List(ctx context.Context, token string) ([]model.RecordSummary, error) {
	names, err := s.store.List(ctx, token, store.Hot)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.RecordSummary, 0, len(names))
	for _, name := range names {
		rec, err := s.store.Load(ctx, token, name, store.Hot)
		if err != nil {
			s.log.Warn().Err(err).Str("token", token).Str("file", name).Msg("list: skipping unreadable record")
			continue
		}
		summaries = append(summaries, model.RecordSummary{
			Filename:       rec.Filename,
			Title:          rec.Title(),
			Priority:       rec.Meta.Priority,
			LastAccessedAt: rec.Meta.LastAccessedAt,
		})
	}
	return summaries, nil
}

// Read returns formatted hot records matching query (all of them when the
// query is empty). Matched records get their last-access time refreshed and
// persisted, then a throttled sweep may run. The pipeline is
// enumerate -> filter -> refresh -> maybe-sweep -> format.
func (s *MemoryService) Read(ctx context.Context, token, query string) ([]string, error) {
	records, err := s.loadAll(ctx, token, store.Hot)
	if err != nil {
		return nil, err
	}
	matched := filterRecords(records, query)

	now := s.now()
	for _, rec := range matched {
		rec.Meta.LastAccessedAt = now
		if err := s.store.Save(ctx, token, rec, store.Hot); err != nil {
			s.log.Warn().Err(err).Str("token", token).Str("file", rec.Filename).Msg("read: access refresh failed")
		}
	}

	if s.throttle.TryAcquire(token, now) {
		if _, err := s.sweeper.Sweep(ctx, token, eviction.Options{MaxHot: s.maxHot}); err != nil {
			s.log.Warn().Err(err).Str("token", token).Msg("read: automatic sweep failed")
		}
	}

	return formatRecords(matched), nil
}

// Write creates a record from title and body. The filename is derived from
// the title; an existing record with the same name is silently overwritten.
func (s *MemoryService) Write(ctx context.Context, token, title, body string, priority model.Priority) (string, error) {
	if priority == "" {
		priority = model.PriorityP2
	}
	if !priority.Valid() {
		return "", model.ErrValidation
	}
	filename, err := safename.Normalize(Slugify(title))
	if err != nil {
		return "", err
	}
	now := s.now()
	rec := &model.Record{
		Filename: filename,
		Body:     composeBody(title, body),
		Meta: model.Metadata{
			Priority:       priority,
			CreatedAt:      now,
			UpdatedAt:      now,
			LastAccessedAt: now,
		},
	}
	if err := s.store.Save(ctx, token, rec, store.Hot); err != nil {
		return "", err
	}
	s.log.Debug().Str("token", token).Str("file", filename).Str("priority", string(priority)).Msg("record written")
	return filename, nil
}

// Update replaces a record's body and optionally its priority. The filename
// is immutable identity; createdAt and lastAccessedAt are preserved.
func (s *MemoryService) Update(ctx context.Context, token, filename, title, body string, priority *model.Priority) error {
	rec, err := s.store.Load(ctx, token, filename, store.Hot)
	if err != nil {
		return err
	}
	rec.Body = composeBody(title, body)
	rec.Meta.UpdatedAt = s.now()
	if priority != nil {
		if !priority.Valid() {
			return model.ErrValidation
		}
		rec.Meta.Priority = *priority
	}
	return s.store.Save(ctx, token, rec, store.Hot)
}

// Delete permanently removes a hot record. Archived records are not
// reachable by this operation.
func (s *MemoryService) Delete(ctx context.Context, token, filename string) error {
	return s.store.Delete(ctx, token, filename, store.Hot)
}

// Archive relocates a hot record to the archive, metadata untouched.
func (s *MemoryService) Archive(ctx context.Context, token, filename string) error {
	return s.store.MoveToArchive(ctx, token, filename)
}

// SearchArchive behaves like Read over the archive directory, except that
// access times are not refreshed and no sweep is triggered.
func (s *MemoryService) SearchArchive(ctx context.Context, token, query string) ([]string, error) {
	records, err := s.loadAll(ctx, token, store.Archive)
	if err != nil {
		return nil, err
	}
	return formatRecords(filterRecords(records, query)), nil
}

// Sweep runs the eviction policy immediately. Manual invocation is never
// throttled.
func (s *MemoryService) Sweep(ctx context.Context, token string, dryRun bool, maxHot int) (eviction.Result, error) {
	if maxHot <= 0 {
		maxHot = s.maxHot
	}
	return s.sweeper.Sweep(ctx, token, eviction.Options{DryRun: dryRun, MaxHot: maxHot})
}

func (s *MemoryService) loadAll(ctx context.Context, token string, class store.Class) ([]*model.Record, error) {
	names, err := s.store.List(ctx, token, class)
	if err != nil {
		return nil, err
	}
	records := make([]*model.Record, 0, len(names))
	for _, name := range names {
		rec, err := s.store.Load(ctx, token, name, class)
		if err != nil {
			s.log.Warn().Err(err).Str("token", token).Str("file", name).Msg("skipping unreadable record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func filterRecords(records []*model.Record, query string) []*model.Record {
	docs := make([]search.Document, len(records))
	for i, rec := range records {
		docs[i] = search.Document{Name: rec.Filename, Content: rec.Body}
	}
	idxs := search.Match(docs, query)
	out := make([]*model.Record, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, records[i])
	}
	return out
}

// FormatRecord renders one record for transport output: a filename banner
// followed by the canonical encoded content.
func FormatRecord(rec *model.Record) string {
	return "=== " + rec.Filename + " ===\n" + frontmatter.Encode(rec.Meta, rec.Body)
}

func formatRecords(records []*model.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = FormatRecord(rec)
	}
	return out
}

var slugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a filename stem from a title: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, hyphens trimmed.
func Slugify(title string) string {
	slug := slugRuns.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

func composeBody(title, body string) string {
	if strings.HasPrefix(strings.TrimSpace(body), "#") {
		return body
	}
	return "# " + title + "\n\n" + body
}
