package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamesniff/internal/feed"
	"gamesniff/internal/generator"
	"gamesniff/internal/models"
)

// manualScheduler lets tests fire ticks and delayed callbacks by hand.
type manualScheduler struct {
	mu    sync.Mutex
	every []*manualJob
	after []*manualJob
}

type manualJob struct {
	ctx context.Context
	fn  func()
}

func doneOnCancel(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(done)
	}()
	return done
}

func (m *manualScheduler) Every(ctx context.Context, _ time.Duration, fn func()) <-chan struct{} {
	m.mu.Lock()
	m.every = append(m.every, &manualJob{ctx: ctx, fn: fn})
	m.mu.Unlock()
	return doneOnCancel(ctx)
}

func (m *manualScheduler) After(ctx context.Context, _ time.Duration, fn func()) <-chan struct{} {
	m.mu.Lock()
	m.after = append(m.after, &manualJob{ctx: ctx, fn: fn})
	m.mu.Unlock()
	return doneOnCancel(ctx)
}

// Tick fires every periodic job once, including cancelled ones, the way a
// late timer would.
func (m *manualScheduler) Tick() {
	m.mu.Lock()
	jobs := append([]*manualJob(nil), m.every...)
	m.mu.Unlock()
	for _, j := range jobs {
		j.fn()
	}
}

// FireAfter fires every delayed job.
func (m *manualScheduler) FireAfter() {
	m.mu.Lock()
	jobs := append([]*manualJob(nil), m.after...)
	m.mu.Unlock()
	for _, j := range jobs {
		j.fn()
	}
}

func (m *manualScheduler) everyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.every)
}

type collectSink struct {
	mu      sync.Mutex
	records []models.PacketRecord
	closed  bool
	err     error
}

func (c *collectSink) Consume(rec models.PacketRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return c.err
}

func (c *collectSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *collectSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func quietLogger() logrus.FieldLogger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

func newTestSession(t *testing.T, cfg Config, opts ...Option) (*Session, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	opts = append([]Option{
		WithScheduler(sched),
		WithGenerator(generator.New(generator.WithRand(rand.New(rand.NewSource(1))))),
		WithLogger(quietLogger()),
	}, opts...)
	s := New(cfg, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, sched
}

func TestStartTickStop(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())

	assert.False(t, s.Snapshot().Running)
	s.Start()
	assert.True(t, s.Snapshot().Running)

	sched.Tick()
	s.Stop()

	st := s.Snapshot()
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Total)
	require.Len(t, st.Records, 1)
	assert.Equal(t, uint64(1), st.Records[0].ID)
}

func TestTickAfterStopIsIgnored(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())

	s.Start()
	sched.Tick()
	s.Stop()
	sched.Tick()
	sched.Tick()

	assert.Equal(t, 1, s.Snapshot().Total)
}

func TestStartIsIdempotentWhileCapturing(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())

	s.Start()
	s.Start()

	assert.Equal(t, 1, sched.everyCount())
	sched.Tick()
	assert.Equal(t, 1, s.Snapshot().Total)
}

func TestRestartKeepsRecordsByDefault(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())

	s.Start()
	sched.Tick()
	s.Stop()
	s.Start()
	sched.Tick()
	s.Stop()

	assert.Equal(t, 2, s.Snapshot().Total)
}

func TestResetOnStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResetOnStart = true
	s, sched := newTestSession(t, cfg)

	s.Start()
	sched.Tick()
	sched.Tick()
	s.Stop()
	s.Start()

	st := s.Snapshot()
	assert.Zero(t, st.Total)
	assert.Zero(t, st.Stats.TotalPackets)
}

func TestCapacityBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 3
	s, sched := newTestSession(t, cfg)

	s.Start()
	for i := 0; i < 5; i++ {
		sched.Tick()
	}

	st := s.Snapshot()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 3, st.Capacity)
	assert.Equal(t, uint64(3), st.Records[0].ID)
	assert.Equal(t, uint64(5), st.Records[2].ID)
	assert.Equal(t, int64(5), st.Stats.TotalPackets, "stats count evicted records too")
}

func TestClearResetsRecordsAndSelection(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())
	s.Start()
	sched.Tick()
	sched.Tick()
	require.True(t, s.Select(2))

	s.Clear()

	st := s.Snapshot()
	assert.Zero(t, st.Total)
	assert.Empty(t, st.Records)
	assert.Nil(t, st.Selected)
	assert.True(t, st.Running, "clear does not stop the capture")
}

func TestSelect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 2
	s, sched := newTestSession(t, cfg)
	s.Start()
	sched.Tick()
	sched.Tick()

	assert.True(t, s.Select(1))
	st := s.Snapshot()
	require.NotNil(t, st.Selected)
	assert.Equal(t, uint64(1), st.Selected.ID)

	assert.False(t, s.Select(42))
	assert.Nil(t, s.Snapshot().Selected)

	s.Select(1)
	sched.Tick() // evicts record 1
	assert.Nil(t, s.Snapshot().Selected)

	s.Select(3)
	s.Deselect()
	assert.Nil(t, s.Snapshot().Selected)
}

func TestSetFilter(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())
	s.Start()
	for i := 0; i < 15; i++ {
		sched.Tick()
	}
	all := s.Snapshot().Records
	target := string(all[0].Protocol)

	s.SetFilter(target)
	st := s.Snapshot()

	assert.Equal(t, target, st.Filter)
	assert.NotEmpty(t, st.Records)
	assert.Equal(t, 15, st.Total)
	for _, rec := range st.Records {
		assert.True(t, feed.Matches(rec, target))
	}

	s.SetFilter("")
	assert.Equal(t, all, s.Snapshot().Records)
}

func TestImport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 30
	s, sched := newTestSession(t, cfg)

	assert.False(t, s.Import(""), "no file selected")
	assert.False(t, s.Snapshot().Importing)

	require.True(t, s.Import("match.pcap"))
	st := s.Snapshot()
	assert.True(t, st.Importing)
	assert.False(t, st.Running)
	assert.Equal(t, MsgImporting, st.FeedPlaceholder())

	sched.FireAfter()

	st = s.Snapshot()
	assert.False(t, st.Importing)
	assert.False(t, st.Running)
	assert.Equal(t, 25, st.Total)
	assert.Equal(t, int64(25), st.Stats.TotalPackets)
}

func TestImportReplacesExistingRecords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 30
	cfg.ImportBatch = 4
	s, sched := newTestSession(t, cfg)
	s.Start()
	sched.Tick()
	sched.Tick()
	s.Stop()
	s.Select(1)

	require.True(t, s.Import("lan.pcap"))
	sched.FireAfter()

	st := s.Snapshot()
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, uint64(3), st.Records[0].ID)
	assert.Nil(t, st.Selected)
}

func TestImportRefusedWhileCapturing(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	s.Start()

	assert.False(t, s.Import("match.pcap"))
	assert.False(t, s.Snapshot().Importing)
}

func TestStartCancelsPendingImport(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())

	require.True(t, s.Import("match.pcap"))
	s.Start()
	sched.FireAfter()

	st := s.Snapshot()
	assert.False(t, st.Importing)
	assert.Zero(t, st.Total)
}

func TestClearCancelsPendingImport(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())

	require.True(t, s.Import("match.pcap"))
	s.Clear()
	sched.FireAfter()

	assert.Zero(t, s.Snapshot().Total)
}

func TestSinksReceiveRecords(t *testing.T) {
	sink := &collectSink{}
	failing := &collectSink{err: errors.New("broker down")}
	cfg := DefaultConfig()
	cfg.ImportBatch = 3
	s, sched := newTestSession(t, cfg, WithSinks(sink, failing))

	s.Start()
	sched.Tick()
	sched.Tick()
	s.Stop()
	s.Import("x.pcap")
	sched.FireAfter()

	assert.Equal(t, 5, sink.count())
	assert.Equal(t, 5, failing.count(), "a failing sink keeps receiving records")
	assert.Equal(t, 3, s.Snapshot().Total)

	require.NoError(t, s.Close())
	assert.True(t, sink.closed)
}

func TestClosedSessionIgnoresActions(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())
	require.NoError(t, s.Close())

	s.Start()
	sched.Tick()

	assert.False(t, s.Snapshot().Running)
	assert.False(t, s.Import("match.pcap"))
	assert.Zero(t, s.Snapshot().Total)
	assert.NoError(t, s.Close())
}

func TestVersionChangesOnMutation(t *testing.T) {
	s, sched := newTestSession(t, DefaultConfig())
	v0 := s.Snapshot().Version

	s.Start()
	v1 := s.Snapshot().Version
	sched.Tick()
	v2 := s.Snapshot().Version
	s.SetFilter("tcp")
	v3 := s.Snapshot().Version
	s.SetFilter("tcp")

	assert.Less(t, v0, v1)
	assert.Less(t, v1, v2)
	assert.Less(t, v2, v3)
	assert.Equal(t, v3, s.Snapshot().Version)
}

func TestTimerSchedulerStopHaltsGeneration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickPeriod = 5 * time.Millisecond
	s := New(cfg, WithLogger(quietLogger()))
	defer s.Close()

	s.Start()
	require.Eventually(t, func() bool { return s.Snapshot().Total >= 2 }, time.Second, time.Millisecond)
	s.Stop()

	n := s.Snapshot().Total
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, s.Snapshot().Total)
}

func TestCloseWhileCapturingHaltsGeneration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickPeriod = 5 * time.Millisecond
	s := New(cfg, WithLogger(quietLogger()))

	s.Start()
	require.Eventually(t, func() bool { return s.Snapshot().Total >= 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())

	st := s.Snapshot()
	assert.False(t, st.Running)
	n := st.Total
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, s.Snapshot().Total)
}

func TestTimerSchedulerImport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 30
	cfg.ImportDelay = 5 * time.Millisecond
	s := New(cfg, WithLogger(quietLogger()))
	defer s.Close()

	require.True(t, s.Import("match.pcap"))
	require.Eventually(t, func() bool { return s.Snapshot().Total == 25 }, time.Second, time.Millisecond)
	assert.False(t, s.Snapshot().Importing)
}

func TestStatePlaceholders(t *testing.T) {
	rec := models.PacketRecord{ID: 1}

	assert.Equal(t, MsgNoCapture, State{}.FeedPlaceholder())
	assert.Equal(t, MsgWaiting, State{Running: true}.FeedPlaceholder())
	assert.Equal(t, MsgNoMatch, State{Total: 3, Filter: "zzz"}.FeedPlaceholder())
	assert.Empty(t, State{Total: 1, Records: []models.PacketRecord{rec}}.FeedPlaceholder())

	assert.Equal(t, MsgNoSelection, State{}.DetailPlaceholder())
	assert.Empty(t, State{Selected: &rec}.DetailPlaceholder())
}
