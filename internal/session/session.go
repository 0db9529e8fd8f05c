// Package session implements the capture controller: a two-state machine
// (idle, capturing) that drives the generator on a timer and owns the feed.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gamesniff/internal/analysis"
	"gamesniff/internal/feed"
	"gamesniff/internal/generator"
	"gamesniff/internal/models"
	"gamesniff/internal/output"
)

// Config holds the capture timing and sizing.
type Config struct {
	Capacity     int
	TickPeriod   time.Duration
	ResetOnStart bool
	ImportDelay  time.Duration
	ImportBatch  int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:    feed.DefaultCapacity,
		TickPeriod:  1 * time.Second,
		ImportDelay: 1500 * time.Millisecond,
		ImportBatch: 25,
	}
}

// Option configures a Session.
type Option func(*Session)

func WithGenerator(g *generator.Generator) Option {
	return func(s *Session) { s.gen = g }
}

func WithScheduler(sched Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithSinks registers consumers that receive every generated record. The
// session closes them on Close.
func WithSinks(sinks ...output.RecordConsumer) Option {
	return func(s *Session) { s.sinks = append(s.sinks, sinks...) }
}

// Session is the capture controller. All methods are safe for concurrent
// use; ticks and actions are serialized by one mutex.
type Session struct {
	mu sync.Mutex

	id    string
	cfg   Config
	gen   *generator.Generator
	store *feed.Store
	stats *analysis.FeedStats
	sched Scheduler
	sinks []output.RecordConsumer
	log   logrus.FieldLogger

	filter   string
	selected uint64 // 0 means none
	capture  *task
	pending  *task // delayed import
	closed   bool
	version  uint64
}

// New creates an idle session.
func New(cfg Config, opts ...Option) *Session {
	def := DefaultConfig()
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = def.TickPeriod
	}
	if cfg.ImportBatch < 1 {
		cfg.ImportBatch = def.ImportBatch
	}
	if cfg.ImportDelay < 0 {
		cfg.ImportDelay = 0
	}

	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		store: feed.NewStore(cfg.Capacity),
		stats: analysis.NewFeedStats(),
		sched: TimerScheduler{},
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = generator.New()
	}
	s.cfg.Capacity = s.store.Cap()
	s.log = s.log.WithFields(logrus.Fields{"component": "session", "session": s.id})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Start begins capturing. It is a no-op while already capturing.
func (s *Session) Start() {
	s.mu.Lock()
	if s.closed || s.capture != nil {
		s.mu.Unlock()
		return
	}

	pending := s.takePendingLocked()
	if s.cfg.ResetOnStart {
		s.clearLocked()
	}

	t := newTask()
	t.done = s.sched.Every(t.ctx, s.cfg.TickPeriod, func() { s.tick(t) })
	s.capture = t
	s.version++
	s.mu.Unlock()

	pending.wait()
	s.log.WithField("period", s.cfg.TickPeriod).Info("capture started")
}

// Stop cancels the capture timer. Once Stop returns no tick appends a record.
func (s *Session) Stop() {
	s.mu.Lock()
	t := s.capture
	if t == nil {
		s.mu.Unlock()
		return
	}
	s.capture = nil
	t.cancel()
	s.version++
	s.mu.Unlock()

	t.wait()
	s.log.Info("capture stopped")
}

// Clear empties the feed, resets the selection and the stats, and drops a
// pending import.
func (s *Session) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	pending := s.takePendingLocked()
	s.clearLocked()
	s.version++
	s.mu.Unlock()

	pending.wait()
	s.log.Debug("feed cleared")
}

// SetFilter sets the text filter applied to Snapshot records.
func (s *Session) SetFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == text {
		return
	}
	s.filter = text
	s.version++
}

// Select marks the record with id as selected. An id not in the feed
// clears the selection. It reports whether a record is now selected.
func (s *Session) Select(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.store.Get(id)
	if !ok {
		id = 0
	}
	if s.selected != id {
		s.selected = id
		s.version++
	}
	return ok
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	s.Select(0)
}

// Import simulates loading a capture file. The file itself is never read:
// after the configured delay the feed is replaced by a batch of generated
// records. An empty name, a running capture or a closed session make it a
// no-op, reported by a false return.
func (s *Session) Import(name string) bool {
	if name == "" {
		return false
	}

	s.mu.Lock()
	if s.closed || s.capture != nil {
		s.mu.Unlock()
		return false
	}
	prev := s.takePendingLocked()

	t := newTask()
	t.done = s.sched.After(t.ctx, s.cfg.ImportDelay, func() { s.completeImport(t) })
	s.pending = t
	s.version++
	s.mu.Unlock()

	prev.wait()
	s.log.WithField("file", name).Info("simulated import scheduled")
	return true
}

// Close cancels every scheduled task and closes the sinks. The session
// ignores all actions afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	capture := s.capture
	s.capture = nil
	if capture != nil {
		capture.cancel()
	}
	pending := s.takePendingLocked()
	s.version++
	s.mu.Unlock()

	capture.wait()
	pending.wait()

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Info("session closed")
	return errors.Join(errs...)
}

// Snapshot returns the observable state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SessionID: s.id,
		Running:   s.capture != nil,
		Importing: s.pending != nil,
		Filter:    s.filter,
		Records:   s.store.Filter(s.filter),
		Total:     s.store.Len(),
		Capacity:  s.store.Cap(),
		Stats:     s.stats.Summary(),
		Version:   s.version,
	}
	if s.selected != 0 {
		if rec, ok := s.store.Get(s.selected); ok {
			st.Selected = &rec
		}
	}
	return st
}

// Records returns every record in the feed, ignoring the filter.
func (s *Session) Records() []models.PacketRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Records()
}

// Get looks up a record in the feed.
func (s *Session) Get(id uint64) (models.PacketRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Stats exposes the running statistics.
func (s *Session) Stats() *analysis.FeedStats {
	return s.stats
}

func (s *Session) tick(t *task) {
	s.mu.Lock()
	if !t.live() || s.capture != t {
		s.mu.Unlock()
		return
	}
	rec := s.gen.Generate()
	if evicted, ok := s.store.Append(rec); ok && evicted.ID == s.selected {
		s.selected = 0
	}
	s.stats.ProcessRecord(rec)
	s.version++
	s.mu.Unlock()

	s.publish(rec)
}

func (s *Session) completeImport(t *task) {
	s.mu.Lock()
	if !t.live() || s.pending != t {
		s.mu.Unlock()
		return
	}
	batch := s.gen.GenerateBatch(s.cfg.ImportBatch)
	s.store.Replace(batch)
	s.stats.Reset()
	for _, rec := range batch {
		s.stats.ProcessRecord(rec)
	}
	s.selected = 0
	s.pending = nil
	t.cancel()
	s.version++
	s.mu.Unlock()

	s.log.WithField("records", len(batch)).Info("simulated import finished")
	s.publish(batch...)
}

func (s *Session) publish(records ...models.PacketRecord) {
	for _, sink := range s.sinks {
		for _, rec := range records {
			if err := sink.Consume(rec); err != nil {
				s.log.WithError(err).Warn("sink rejected record")
			}
		}
	}
}

// takePendingLocked cancels a pending import and hands it back so the
// caller can wait for it after releasing the lock.
func (s *Session) takePendingLocked() *task {
	t := s.pending
	s.pending = nil
	if t != nil {
		t.cancel()
	}
	return t
}

func (s *Session) clearLocked() {
	s.store.Clear()
	s.stats.Reset()
	s.selected = 0
}
