package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/sim"
)

const (
	testTick  = 10 * time.Millisecond
	testSpawn = 500 * time.Millisecond
	waitFor   = time.Second
)

// manualTicker fires only when the test says so.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// tickers records every ticker the loop creates, keyed by interval.
type tickers struct {
	mu      sync.Mutex
	created map[time.Duration][]*manualTicker
}

func (ts *tickers) factory(d time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.created == nil {
		ts.created = make(map[time.Duration][]*manualTicker)
	}
	t := &manualTicker{ch: make(chan time.Time)}
	ts.created[d] = append(ts.created[d], t)
	return t
}

func (ts *tickers) latest(d time.Duration) *manualTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	list := ts.created[d]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func (ts *tickers) count(d time.Duration) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.created[d])
}

// fire delivers one tick and reports whether the loop consumed it.
func fire(t *manualTicker) bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

type harness struct {
	loop    *Loop
	tickers *tickers
	snaps   chan sim.Snapshot
	cancel  context.CancelFunc
	errc    chan error
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()

	h := &harness{
		tickers: &tickers{},
		snaps:   make(chan sim.Snapshot, 1024),
		errc:    make(chan error, 1),
	}
	game := sim.New(cfg, sim.NewRand(7))
	h.loop = New(game, Options{
		TickInterval:  testTick,
		SpawnInterval: testSpawn,
		NewTicker:     h.tickers.factory,
	})
	h.loop.Subscribe(func(s sim.Snapshot) { h.snaps <- s })

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- h.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.errc
	})

	h.next(t) // initial publish
	return h
}

func (h *harness) next(t *testing.T) sim.Snapshot {
	t.Helper()
	select {
	case s := <-h.snaps:
		return s
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for snapshot")
		return sim.Snapshot{}
	}
}

func (h *harness) jump(t *testing.T) sim.Snapshot {
	t.Helper()
	require.NoError(t, h.loop.Jump(context.Background()))
	return h.next(t)
}

func (h *harness) reset(t *testing.T) sim.Snapshot {
	t.Helper()
	require.NoError(t, h.loop.Reset(context.Background()))
	return h.next(t)
}

func (h *harness) tick(t *testing.T) sim.Snapshot {
	t.Helper()
	tk := h.tickers.latest(testTick)
	require.NotNil(t, tk, "no world ticker")
	require.True(t, fire(tk), "world tick not consumed")
	return h.next(t)
}

func TestLoopStartsTimersOnFirstJump(t *testing.T) {
	h := newHarness(t, config.Default())

	assert.Zero(t, h.tickers.count(testTick), "no timers before the session starts")
	assert.Equal(t, sim.PhaseNotStarted, h.loop.Snapshot().Phase)

	s := h.jump(t)
	assert.Equal(t, sim.PhaseRunning, s.Phase)
	assert.Equal(t, config.Default().Physics.JumpVelocity, s.Bird.Velocity)
	assert.Equal(t, 1, h.tickers.count(testTick))
	assert.Equal(t, 1, h.tickers.count(testSpawn))

	// Further jumps do not create more timers
	h.jump(t)
	assert.Equal(t, 1, h.tickers.count(testTick))
}

func TestLoopTickAndSpawn(t *testing.T) {
	h := newHarness(t, config.Default())
	h.jump(t)

	s := h.tick(t)
	assert.Equal(t, uint64(1), s.Tick)

	require.True(t, fire(h.tickers.latest(testSpawn)))
	s = h.next(t)
	require.Len(t, s.Pipes, 1)
	assert.Equal(t, 820.0, s.Pipes[0].X)

	s = h.tick(t)
	assert.Equal(t, 816.0, s.Pipes[0].X)
	assert.Equal(t, s, h.loop.Snapshot())
}

func TestLoopCancelsTimersOnGameOver(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg)
	h.jump(t)

	world := h.tickers.latest(testTick)
	spawn := h.tickers.latest(testSpawn)

	var s sim.Snapshot
	for i := 0; i < 500; i++ {
		s = h.tick(t)
		if s.Phase == sim.PhaseOver {
			break
		}
	}
	require.Equal(t, sim.PhaseOver, s.Phase)
	assert.Equal(t, sim.EndOutOfBounds, s.Ended)

	assert.True(t, world.isStopped(), "world ticker must be stopped on game over")
	assert.True(t, spawn.isStopped(), "spawn ticker must be stopped on game over")
	assert.False(t, fire(world), "stopped world ticker must not be read")
	assert.False(t, fire(spawn), "stopped spawn ticker must not be read")

	// Jump while over is ignored and starts nothing
	s = h.jump(t)
	assert.Equal(t, sim.PhaseOver, s.Phase)
	assert.Equal(t, 1, h.tickers.count(testTick))
}

func TestLoopResetThenJumpStartsFreshSession(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg)
	h.jump(t)
	first := h.tickers.latest(testTick)
	h.tick(t)

	s := h.reset(t)
	assert.Equal(t, sim.PhaseNotStarted, s.Phase)
	assert.Zero(t, s.Score)
	assert.Empty(t, s.Pipes)
	assert.Equal(t, cfg.Bird.StartY, s.Bird.Pos.Y)
	assert.True(t, first.isStopped(), "reset must cancel running timers")
	assert.False(t, fire(first))

	s = h.jump(t)
	assert.Equal(t, sim.PhaseRunning, s.Phase)
	assert.Equal(t, cfg.Physics.JumpVelocity, s.Bird.Velocity)
	assert.Equal(t, 2, h.tickers.count(testTick), "new session gets new timers")
}

func TestLoopRunTwice(t *testing.T) {
	h := newHarness(t, config.Default())
	err := h.loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestLoopCommandsAfterStop(t *testing.T) {
	h := newHarness(t, config.Default())
	h.cancel()
	require.NoError(t, <-h.errc)
	h.errc <- nil // keep cleanup from blocking

	// Fill the buffer so the only ready case is the closed done channel
	var err error
	for i := 0; i < 32 && err == nil; i++ {
		err = h.loop.Jump(context.Background())
	}
	assert.ErrorIs(t, err, ErrStopped)
}

func TestLoopCommandHonoursContext(t *testing.T) {
	game := sim.New(config.Default(), sim.NewRand(1))
	loop := New(game, Options{TickInterval: testTick, SpawnInterval: testSpawn})

	// Nobody is running the loop; once the buffer is full posts block
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var err error
	for i := 0; i < 32 && err == nil; i++ {
		err = loop.Reset(ctx)
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoopWithRealTimers(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.Gravity = 0
	game := sim.New(cfg, sim.NewRand(3))
	loop := New(game, Options{
		TickInterval:  time.Millisecond,
		SpawnInterval: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.NoError(t, loop.Jump(ctx))
	require.Eventually(t, func() bool {
		s := loop.Snapshot()
		return s.Tick > 10 && len(s.Pipes) > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestLatestKeepsNewest(t *testing.T) {
	observe, ch := Latest()
	observe(sim.Snapshot{Tick: 1})
	observe(sim.Snapshot{Tick: 2})
	observe(sim.Snapshot{Tick: 3})

	assert.Equal(t, uint64(3), (<-ch).Tick)
	select {
	case s := <-ch:
		t.Errorf("unexpected extra snapshot %+v", s)
	default:
	}
}
