package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Severity string

const (
	Info        Severity = "info"
	Success     Severity = "success"
	Destructive Severity = "destructive"
)

// Toast is a short user-facing message about the outcome of an action.
type Toast struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	At          time.Time `json:"at"`
}

// Sink receives toasts. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(ctx context.Context, t Toast)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, t Toast)

func (f SinkFunc) Notify(ctx context.Context, t Toast) { f(ctx, t) }

// LogSink writes every toast to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, t Toast) {
	if s.Logger == nil {
		return
	}
	level := slog.LevelInfo
	if t.Severity == Destructive {
		level = slog.LevelWarn
	}
	s.Logger.Log(ctx, level, "toast", "title", t.Title, "description", t.Description, "severity", string(t.Severity))
}

// Feed keeps the most recent toasts so clients can poll for them.
type Feed struct {
	mu    sync.Mutex
	limit int
	items []Toast
	Now   func() time.Time
}

const defaultFeedLimit = 50

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	return &Feed{limit: limit, Now: time.Now}
}

func (f *Feed) Notify(_ context.Context, t Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.At.IsZero() {
		t.At = f.Now().UTC()
	}
	f.items = append(f.items, t)
	if over := len(f.items) - f.limit; over > 0 {
		f.items = append([]Toast(nil), f.items[over:]...)
	}
}

// Recent returns up to n toasts, newest first. n <= 0 returns all of them.
func (f *Feed) Recent(n int) []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n <= 0 || n > len(f.items) {
		n = len(f.items)
	}
	out := make([]Toast, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}

// Fanout delivers each toast to every sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, t Toast) {
	if t.At.IsZero() {
		t.At = time.Now().UTC()
	}
	for _, s := range f {
		if s != nil {
			s.Notify(ctx, t)
		}
	}
}

// Discard drops every toast.
var Discard Sink = SinkFunc(func(context.Context, Toast) {})
