// Package autosave debounces file saves: rapid edits to the same file
// coalesce into a single write once the file has been quiet for a while.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/handball/internal/domain/model"
	"github.com/okian/handball/pkg/logger"
	"github.com/okian/handball/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultQuietWindow = 300 * time.Millisecond
	defaultSaveTimeout = 10 * time.Second
)

// Saver persists a file snapshot.
type Saver interface {
	SaveFile(ctx context.Context, id, name string, groups []model.Group) error
}

type snapshot struct {
	name   string
	groups []model.Group
}

type pending struct {
	snap  snapshot
	gen   uint64
	timer *time.Timer
}

// Scheduler holds the latest unsaved snapshot of each file and writes it after
// the quiet window. Writes are serialised, so a newer snapshot of a file is
// never overwritten by an older one.
type Scheduler struct {
	saver       Saver
	quiet       time.Duration
	saveTimeout time.Duration
	log         logger.Logger

	mu      sync.Mutex
	pending map[string]*pending
	gen     uint64
	stopped bool

	// writeMu serialises every save.
	writeMu sync.Mutex
	timers  sync.WaitGroup
}

// New returns a scheduler that writes through saver.
func New(saver Saver, opts ...Option) *Scheduler {
	s := &Scheduler{
		saver:       saver,
		quiet:       defaultQuietWindow,
		saveTimeout: defaultSaveTimeout,
		log:         logger.OrNop("autosave"),
		pending:     make(map[string]*pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuietWindow returns the configured debounce window.
func (s *Scheduler) QuietWindow() time.Duration { return s.quiet }

// Schedule records the latest snapshot of a file and restarts its timer. Any
// earlier unsaved snapshot of the same file is replaced.
func (s *Scheduler) Schedule(id, name string, groups []model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	s.gen++
	gen := s.gen
	snap := snapshot{name: name, groups: model.CloneGroups(groups)}

	if p, ok := s.pending[id]; ok {
		s.stopTimerLocked(p)
		p.snap = snap
		p.gen = gen
		p.timer = s.startTimerLocked(id, gen)
		metrics.RecordAutosaveCoalesced()
	} else {
		s.pending[id] = &pending{snap: snap, gen: gen, timer: s.startTimerLocked(id, gen)}
	}
	metrics.RecordAutosaveScheduled()
	metrics.UpdateAutosavePending(len(s.pending))
	return nil
}

// Pending returns the number of files with an unsaved snapshot.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// IsPending reports whether id has an unsaved snapshot.
func (s *Scheduler) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Cancel drops the unsaved snapshot of id, if any.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		s.stopTimerLocked(p)
		delete(s.pending, id)
		metrics.UpdateAutosavePending(len(s.pending))
	}
}

// FlushFile writes the unsaved snapshot of id now.
func (s *Scheduler) FlushFile(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	p, ok := s.take(id, 0)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.save(ctx, id, p)
}

// Flush writes every unsaved snapshot now. Snapshots that fail to save stay
// pending and the failures are joined into the returned error.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	batch := make(map[string]*pending, len(s.pending))
	for id := range s.pending {
		if p, ok := s.take(id, 0); ok {
			batch[id] = p
		}
	}
	s.mu.Unlock()

	var errs []error
	for id, p := range batch {
		if err := s.save(ctx, id, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop refuses further snapshots, writes the pending ones and waits for
// in-flight background writes.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	err := s.Flush(ctx)

	done := make(chan struct{})
	go func() {
		s.timers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, fmt.Errorf("autosave stop timed out: %w", ctx.Err()))
	}
	return err
}

func (s *Scheduler) startTimerLocked(id string, gen uint64) *time.Timer {
	s.timers.Add(1)
	return time.AfterFunc(s.quiet, func() {
		defer s.timers.Done()
		s.fire(id, gen)
	})
}

func (s *Scheduler) stopTimerLocked(p *pending) {
	if p.timer != nil && p.timer.Stop() {
		s.timers.Done()
	}
	p.timer = nil
}

// fire writes the snapshot of id if it is still the one the timer was set for.
func (s *Scheduler) fire(id string, gen uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	p, ok := s.take(id, gen)
	s.mu.Unlock()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	_ = s.save(ctx, id, p)
}

// take removes the entry of id. A non-zero gen must match the entry.
// Callers hold s.mu.
func (s *Scheduler) take(id string, gen uint64) (*pending, bool) {
	p, ok := s.pending[id]
	if !ok || (gen != 0 && p.gen != gen) {
		return nil, false
	}
	s.stopTimerLocked(p)
	delete(s.pending, id)
	metrics.UpdateAutosavePending(len(s.pending))
	return p, true
}

// save writes p. On failure the snapshot is put back unless a newer one
// arrived meanwhile. Callers hold s.writeMu.
func (s *Scheduler) save(ctx context.Context, id string, p *pending) error {
	err := s.saver.SaveFile(ctx, id, p.snap.name, p.snap.groups)
	if err == nil {
		metrics.RecordAutosaveFlushed()
		s.log.Debug(ctx, "file auto-saved", logger.String("id", id))
		return nil
	}
	metrics.RecordAutosaveError()
	s.log.Error(ctx, "auto-save failed", logger.String("id", id), logger.Error(err))

	s.mu.Lock()
	if _, newer := s.pending[id]; !newer {
		s.pending[id] = &pending{snap: p.snap, gen: p.gen}
		metrics.UpdateAutosavePending(len(s.pending))
	}
	s.mu.Unlock()
	return fmt.Errorf("save %s: %w", id, err)
}
