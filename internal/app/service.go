// Package service provides the editing session behind the HTTP API: it keeps
// working copies of open files, applies group and player edits through the
// record model and hands every change to the debounced auto-saver.
package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/handball/internal/adapters/kv"
	"github.com/okian/handball/internal/adapters/mq/autosave"
	"github.com/okian/handball/internal/adapters/repository"
	"github.com/okian/handball/internal/adapters/spreadsheet"
	"github.com/okian/handball/internal/domain/model"
	"github.com/okian/handball/pkg/logger"
	"github.com/okian/handball/pkg/metrics"
)

const defaultQuietWindow = 300 * time.Millisecond

// File is an open file: its catalog entry and its groups with derived fields.
type File struct {
	Info   repository.FileInfo `json:"info"`
	Groups []model.Group       `json:"groups"`
}

type workingCopy struct {
	info   repository.FileInfo
	groups []model.Group
}

func (w *workingCopy) view() File {
	return File{Info: w.info, Groups: model.CloneGroups(w.groups)}
}

// Service implements the API dependencies for the test recorder.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   kv.Store
	catalog *repository.Catalog
	codec   *spreadsheet.Codec
	saver   *autosave.Scheduler

	// Configuration
	quietWindow time.Duration
	catalogOpts []repository.Option
	now         func() time.Time

	// State
	started bool
	open    map[string]*workingCopy

	edits   atomic.Int64
	imports atomic.Int64
	exports atomic.Int64

	// Logging
	logger logger.Logger
}

// New constructs a Service over store. Call Start before use.
func New(store kv.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		quietWindow: defaultQuietWindow,
		now:         time.Now,
		open:        make(map[string]*workingCopy),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires the catalog, codec and auto-saver.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.OrNop("service")
	}
	s.logger.Info(ctx, "starting recorder service...")

	catalogOpts := append([]repository.Option{repository.WithLogger(s.logger.Named("catalog"))}, s.catalogOpts...)
	s.catalog = repository.NewCatalog(s.store, catalogOpts...)
	if s.codec == nil {
		s.codec = spreadsheet.New(spreadsheet.WithLogger(s.logger.Named("spreadsheet")))
	}
	s.saver = autosave.New(s.catalog,
		autosave.WithQuietWindow(s.quietWindow),
		autosave.WithLogger(s.logger.Named("autosave")),
	)

	s.started = true
	s.logger.Info(ctx, "recorder service started",
		logger.String("store", string(s.store.Driver())),
		logger.Duration("quietWindow", s.quietWindow),
	)
	return nil
}

// Stop writes every pending change and drops the working copies.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping recorder service...")
	err := s.saver.Stop(ctx)
	if err != nil {
		s.logger.Error(ctx, "pending saves not written", logger.Error(err))
	}
	s.open = make(map[string]*workingCopy)
	s.started = false
	s.logger.Info(ctx, "recorder service stopped")
	return err
}

// ListFiles returns the catalog, most recently modified first.
func (s *Service) ListFiles(ctx context.Context) ([]repository.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	files := s.catalog.ListFiles(ctx)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LastModified.After(files[j].LastModified)
	})
	return files, nil
}

// CreateFile registers a new file holding the default group and opens it.
func (s *Service) CreateFile(ctx context.Context, name string) (File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return File{}, fmt.Errorf("%w: file name is empty", ErrInvalidInput)
	}
	return s.createWith(ctx, name, model.DefaultGroups())
}

// ImportWorkbook creates a new file from a spreadsheet. Derived values are
// kept as they appear in the workbook. A workbook without sheets yields the
// default group.
func (s *Service) ImportWorkbook(ctx context.Context, name string, r io.Reader) (File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return File{}, fmt.Errorf("%w: file name is empty", ErrInvalidInput)
	}
	s.mu.RLock()
	started, codec := s.started, s.codec
	s.mu.RUnlock()
	if !started {
		return File{}, ErrNotStarted
	}
	groups, err := codec.Read(ctx, r)
	if err != nil {
		return File{}, err
	}
	if len(groups) == 0 {
		groups = model.DefaultGroups()
	}
	f, err := s.createWith(ctx, name, groups)
	if err != nil {
		return File{}, err
	}
	s.imports.Add(1)
	return f, nil
}

func (s *Service) createWith(ctx context.Context, name string, groups []model.Group) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return File{}, ErrNotStarted
	}
	id, err := s.catalog.CreateFile(ctx, name)
	if err != nil {
		return File{}, err
	}
	if err := s.catalog.SaveFile(ctx, id, name, groups); err != nil {
		return File{}, err
	}
	info, _ := s.catalog.FileInfo(ctx, id)
	wc := &workingCopy{info: info, groups: model.CloneGroups(groups)}
	s.open[id] = wc
	s.logger.Info(ctx, "file opened", logger.String("id", id), logger.Int("groups", len(groups)))
	return wc.view(), nil
}

// OpenFile returns the working copy of id, loading it on first access.
func (s *Service) OpenFile(ctx context.Context, id string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return File{}, ErrNotStarted
	}
	wc, err := s.openLocked(ctx, id)
	if err != nil {
		return File{}, err
	}
	return wc.view(), nil
}

// CloseFile writes pending changes of id and drops its working copy.
func (s *Service) CloseFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if err := s.saver.FlushFile(ctx, id); err != nil {
		return err
	}
	delete(s.open, id)
	return nil
}

func (s *Service) openLocked(ctx context.Context, id string) (*workingCopy, error) {
	if wc, ok := s.open[id]; ok {
		return wc, nil
	}
	info, ok := s.catalog.FileInfo(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	groups, ok := s.catalog.LoadFile(ctx, id)
	if !ok {
		s.logger.Warn(ctx, "file payload unreadable, starting empty", logger.String("id", id))
	}
	if len(groups) == 0 {
		groups = model.DefaultGroups()
	}
	wc := &workingCopy{info: info, groups: groups}
	s.open[id] = wc
	return wc, nil
}

// RenameFile changes the name of id.
func (s *Service) RenameFile(ctx context.Context, id, name string) (File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return File{}, fmt.Errorf("%w: file name is empty", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return File{}, ErrNotStarted
	}
	wc, err := s.openLocked(ctx, id)
	if err != nil {
		return File{}, err
	}
	// A pending snapshot carries the old name.
	if err := s.saver.FlushFile(ctx, id); err != nil {
		return File{}, err
	}
	if err := s.catalog.RenameFile(ctx, id, name); err != nil {
		return File{}, err
	}
	wc.info.Name = name
	return wc.view(), nil
}

// DeleteFile drops pending changes, the working copy and the stored file.
// Deleting an unknown id is a no-op.
func (s *Service) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.saver.Cancel(id)
	delete(s.open, id)
	return s.catalog.DeleteFile(ctx, id)
}

// AddGroup appends a group named after its position.
func (s *Service) AddGroup(ctx context.Context, id string) (File, error) {
	return s.mutate(ctx, id, func(wc *workingCopy) error {
		wc.groups = model.AddGroup(wc.groups)
		return nil
	})
}

// RemoveGroup drops group gi. The last group cannot be removed.
func (s *Service) RemoveGroup(ctx context.Context, id string, gi int) (File, error) {
	return s.mutate(ctx, id, func(wc *workingCopy) error {
		groups, err := model.RemoveGroup(wc.groups, gi)
		if err != nil {
			return err
		}
		wc.groups = groups
		return nil
	})
}

// RenameGroup sets the name of group gi. Blank names are rejected.
func (s *Service) RenameGroup(ctx context.Context, id string, gi int, name string) (File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return File{}, fmt.Errorf("%w: group name is empty", ErrInvalidInput)
	}
	return s.mutate(ctx, id, func(wc *workingCopy) error {
		groups, err := model.RenameGroup(wc.groups, gi, name)
		if err != nil {
			return err
		}
		wc.groups = groups
		return nil
	})
}

// AddPlayer appends an empty player to group gi.
func (s *Service) AddPlayer(ctx context.Context, id string, gi int) (File, error) {
	return s.mutate(ctx, id, func(wc *workingCopy) error {
		return wc.editGroup(gi, func(g model.Group) (model.Group, error) {
			return model.AddPlayer(g), nil
		})
	})
}

// RemovePlayer drops player pi of group gi.
func (s *Service) RemovePlayer(ctx context.Context, id string, gi, pi int) (File, error) {
	return s.mutate(ctx, id, func(wc *workingCopy) error {
		return wc.editGroup(gi, func(g model.Group) (model.Group, error) {
			return model.RemovePlayer(g, pi)
		})
	})
}

// UpdatePlayerField applies form input raw to one field of player pi in group
// gi and returns the updated player. Numeric input that is blank or not a
// number clears the field; values outside the accepted entry range are
// rejected.
func (s *Service) UpdatePlayerField(ctx context.Context, id string, gi, pi int, field model.Field, raw string) (model.Player, error) {
	v, err := model.ParseValue(field, raw)
	if err == nil {
		err = model.ValidateInput(field, v)
	}
	if err != nil {
		metrics.RecordFieldUpdateError(string(field))
		return model.Player{}, err
	}

	var updated model.Player
	_, err = s.mutate(ctx, id, func(wc *workingCopy) error {
		return wc.editGroup(gi, func(g model.Group) (model.Group, error) {
			out, err := model.UpdatePlayer(g, pi, field, v)
			if err != nil {
				return g, err
			}
			updated = out.Players[pi]
			return out, nil
		})
	})
	if err != nil {
		metrics.RecordFieldUpdateError(string(field))
		return model.Player{}, err
	}
	metrics.RecordFieldUpdate(string(field))
	return updated, nil
}

// ExportWorkbook writes pending changes of id and encodes its groups as a
// workbook. It returns the bytes and the download file name.
func (s *Service) ExportWorkbook(ctx context.Context, id string) ([]byte, string, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, "", ErrNotStarted
	}
	wc, err := s.openLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, "", err
	}
	if err := s.saver.FlushFile(ctx, id); err != nil {
		s.logger.Warn(ctx, "flush before export failed", logger.String("id", id), logger.Error(err))
	}
	groups := model.CloneGroups(wc.groups)
	codec := s.codec
	name := spreadsheet.ExportFileName(s.now())
	s.mu.Unlock()

	data, err := codec.Write(ctx, groups)
	if err != nil {
		return nil, "", err
	}
	s.exports.Add(1)
	return data, name, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*workingCopy) error) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return File{}, ErrNotStarted
	}
	wc, err := s.openLocked(ctx, id)
	if err != nil {
		return File{}, err
	}
	if err := fn(wc); err != nil {
		return File{}, err
	}
	if err := s.saver.Schedule(id, wc.info.Name, wc.groups); err != nil {
		return File{}, err
	}
	s.edits.Add(1)
	return wc.view(), nil
}

func (w *workingCopy) editGroup(gi int, fn func(model.Group) (model.Group, error)) error {
	if gi < 0 || gi >= len(w.groups) {
		return fmt.Errorf("%w: group %d (len %d)", model.ErrIndex, gi, len(w.groups))
	}
	g, err := fn(w.groups[gi])
	if err != nil {
		return err
	}
	groups := make([]model.Group, len(w.groups))
	copy(groups, w.groups)
	groups[gi] = g
	w.groups = groups
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"quietWindowMs": s.quietWindow.Milliseconds(),
		"openFiles":     len(s.open),
		"edits":         s.edits.Load(),
		"imports":       s.imports.Load(),
		"exports":       s.exports.Load(),
	}
	if s.store != nil {
		stats["store"] = string(s.store.Driver())
	}
	if s.started {
		stats["pendingSaves"] = s.saver.Pending()
	}
	return stats
}
