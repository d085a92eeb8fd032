// Package clock runs a sim.Game in real time.
//
// A Loop owns the game and serializes everything that touches it on a single
// goroutine: the world tick, the pipe spawn tick and the jump/reset commands
// are multiplexed by one select. Both periodic tasks exist only while a
// session is running; they are stopped and dropped the moment the session
// ends or is reset, so no stale tick can mutate a finished game.
package clock

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-flappy/internal/sim"
)

var (
	// ErrStopped is returned by commands posted after Run has returned.
	ErrStopped = errors.New("clock: loop stopped")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("clock: loop already running")
)

// Options configures a Loop.
type Options struct {
	TickInterval  time.Duration
	SpawnInterval time.Duration

	// NewTicker creates the periodic tasks. Defaults to NewTimeTicker.
	NewTicker TickerFunc

	// Logger receives session lifecycle events. Defaults to a discarding logger.
	Logger *log.Logger
}

type command int

const (
	cmdJump command = iota
	cmdReset
)

// Loop drives a game from two periodic tasks and a command queue.
type Loop struct {
	game      *sim.Game
	opts      Options
	logger    *log.Logger
	cmds      chan command
	done      chan struct{}
	running   atomic.Bool
	observers []func(sim.Snapshot)

	mu   sync.RWMutex
	last sim.Snapshot

	// Owned by the Run goroutine
	tick    Ticker
	spawn   Ticker
	session uuid.UUID
	began   time.Time
}

// New creates a loop for game. The loop takes ownership of the game:
// after Run starts, nothing else may call its methods.
func New(game *sim.Game, opts Options) *Loop {
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{
		game:   game,
		opts:   opts,
		logger: logger,
		cmds:   make(chan command, 16),
		done:   make(chan struct{}),
		last:   game.Snapshot(),
	}
}

// Subscribe registers fn to receive a snapshot after every processed event.
// Observers run on the loop goroutine and must not block.
// Must be called before Run.
func (l *Loop) Subscribe(fn func(sim.Snapshot)) {
	l.observers = append(l.observers, fn)
}

// Snapshot returns the most recently published snapshot.
// Safe to call from any goroutine.
func (l *Loop) Snapshot() sim.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Jump posts a jump command.
func (l *Loop) Jump(ctx context.Context) error {
	return l.post(ctx, cmdJump)
}

// Reset posts a reset command.
func (l *Loop) Reset(ctx context.Context) error {
	return l.post(ctx, cmdReset)
}

func (l *Loop) post(ctx context.Context, c command) error {
	select {
	case l.cmds <- c:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(l.done)
	defer l.stopTimers()

	l.publish()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped", "phase", l.game.Phase())
			return nil
		case c := <-l.cmds:
			l.handle(c)
		case <-chanOf(l.tick):
			l.onTick()
		case <-chanOf(l.spawn):
			l.onSpawn()
		}
	}
}

func (l *Loop) handle(c command) {
	switch c {
	case cmdJump:
		before := l.game.Phase()
		l.game.Jump()
		if before == sim.PhaseNotStarted && l.game.Phase() == sim.PhaseRunning {
			l.startTimers()
			l.session = uuid.New()
			l.began = time.Now()
			l.logger.Info("session started", "session", l.session)
		}
	case cmdReset:
		l.stopTimers()
		if l.game.Phase() == sim.PhaseRunning {
			l.logger.Info("session abandoned", "session", l.session, "score", l.game.Score())
		}
		l.game.Reset()
		l.logger.Debug("reset")
	}
	l.publish()
}

func (l *Loop) onTick() {
	res := l.game.Tick()
	if res.Scored > 0 {
		l.logger.Debug("pipe passed", "session", l.session, "score", l.game.Score())
	}
	if res.Ended != sim.EndNone {
		l.stopTimers()
		l.logger.Info("session over",
			"session", l.session,
			"reason", res.Ended,
			"score", l.game.Score(),
			"duration", time.Since(l.began).Round(time.Millisecond),
		)
	}
	l.publish()
}

func (l *Loop) onSpawn() {
	if l.game.Spawn() {
		l.publish()
	}
}

func (l *Loop) startTimers() {
	l.stopTimers()
	l.tick = l.opts.NewTicker(l.opts.TickInterval)
	l.spawn = l.opts.NewTicker(l.opts.SpawnInterval)
}

// stopTimers cancels both periodic tasks. A nil ticker is never selected on
// again, so any tick already buffered in a stopped ticker is discarded.
func (l *Loop) stopTimers() {
	if l.tick != nil {
		l.tick.Stop()
		l.tick = nil
	}
	if l.spawn != nil {
		l.spawn.Stop()
		l.spawn = nil
	}
}

func (l *Loop) publish() {
	snap := l.game.Snapshot()
	l.mu.Lock()
	l.last = snap
	l.mu.Unlock()
	for _, fn := range l.observers {
		fn(snap)
	}
}

// chanOf returns t's channel, or nil (blocks forever in select) if t is nil.
func chanOf(t Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

// Latest returns an observer and the channel it feeds. The channel holds
// only the newest snapshot; older unread ones are dropped so a slow reader
// never stalls the loop. The observer must be called from one goroutine,
// which Subscribe guarantees.
func Latest() (func(sim.Snapshot), <-chan sim.Snapshot) {
	ch := make(chan sim.Snapshot, 1)
	return func(s sim.Snapshot) {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}, ch
}
