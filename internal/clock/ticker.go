package clock

import "time"

// Ticker is a cancellable periodic task source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

// NewTimeTicker is the TickerFunc backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }
