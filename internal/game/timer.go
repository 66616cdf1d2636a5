package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// CountdownTimer is a cancellable, restartable one-second countdown.
// At most one countdown runs at a time: Start fully cancels any previous
// run before beginning, so a restarted question can never double-decrement.
// Built on clockwork.Clock so tests can drive it with a fake clock.
type CountdownTimer struct {
	clock clockwork.Clock
	mu    sync.Mutex
	stop  chan struct{}
}

// NewCountdownTimer creates an idle timer. Pass clockwork.NewRealClock()
// in production.
func NewCountdownTimer(clock clockwork.Clock) *CountdownTimer {
	return &CountdownTimer{clock: clock}
}

// Start cancels any running countdown and begins a new one. onTick fires
// once per elapsed second with the new remaining value, down to 0; when
// remaining reaches 0 onExpire fires exactly once and the timer
// self-cancels.
func (t *CountdownTimer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
	}
	stop := make(chan struct{})
	t.stop = stop
	// Ticker is created before Start returns so a caller observing Start's
	// completion is guaranteed the countdown is armed.
	ticker := t.clock.NewTicker(time.Second)
	t.mu.Unlock()

	go t.run(ticker, seconds, stop, onTick, onExpire)
}

// Cancel stops the running countdown, if any. Idempotent and safe to call
// when the timer is idle.
func (t *CountdownTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *CountdownTimer) run(ticker clockwork.Ticker, seconds int, stop chan struct{}, onTick func(int), onExpire func()) {
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			// A tick racing a cancellation must not fire callbacks.
			select {
			case <-stop:
				return
			default:
			}

			remaining--
			onTick(remaining)
			if remaining <= 0 {
				t.expire(stop)
				onExpire()
				return
			}
		}
	}
}

// expire clears the stop handle if it still belongs to this run, so a
// later Cancel is a no-op rather than closing a foreign channel.
func (t *CountdownTimer) expire(stop chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == stop {
		t.stop = nil
	}
}
