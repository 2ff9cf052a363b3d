package bundle

import (
	"time"

	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
)

// DefaultWindow is the accumulation window used when none is configured.
const DefaultWindow = 10 * time.Second

// Config holds configuration for the buffer.
type Config struct {
	Window time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// Buffer accumulates opportunities over a rolling window so a burst of
// detections for one event collapses into a single bundle.
// It is not safe for concurrent use.
type Buffer struct {
	items     []*arbitrage.Opportunity
	window    time.Duration
	lastFlush time.Time
	logger    *zap.Logger
	now       func() time.Time
}

// NewBuffer creates a new buffer. The flush timer starts at construction.
func NewBuffer(cfg Config) *Buffer {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Buffer{
		window:    cfg.Window,
		lastFlush: cfg.Now(),
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Add appends opps to the buffer.
func (b *Buffer) Add(opps []*arbitrage.Opportunity) {
	b.items = append(b.items, opps...)
	BufferSize.Set(float64(len(b.items)))
}

// ShouldFlush reports whether the window has elapsed since the last flush.
func (b *Buffer) ShouldFlush() bool {
	return b.now().Sub(b.lastFlush) >= b.window
}

// Flush bundles the buffered opportunities, empties the buffer and resets the timer.
func (b *Buffer) Flush(maxPerEvent int) []Bundled {
	bundles := ByEvent(b.items, maxPerEvent)

	FlushesTotal.Inc()
	BundlesPerFlush.Observe(float64(len(bundles)))
	b.logger.Debug("buffer-flushed",
		zap.Int("buffered", len(b.items)),
		zap.Int("bundles", len(bundles)))

	b.items = nil
	b.lastFlush = b.now()
	BufferSize.Set(0)

	return bundles
}

// Size returns the number of buffered opportunities.
func (b *Buffer) Size() int {
	return len(b.items)
}

// Peek returns a copy of the buffered opportunities.
func (b *Buffer) Peek() []*arbitrage.Opportunity {
	out := make([]*arbitrage.Opportunity, len(b.items))
	copy(out, b.items)
	return out
}

// Clear drops the buffered opportunities and resets the timer.
func (b *Buffer) Clear() {
	b.items = nil
	b.lastFlush = b.now()
	BufferSize.Set(0)
}
