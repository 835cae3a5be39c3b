package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFeedKeepsNewestFirstWithinLimit(t *testing.T) {
	feed := NewFeed(3)
	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	feed.Now = func() time.Time { return fixed }

	for _, title := range []string{"a", "b", "c", "d"} {
		feed.Notify(context.Background(), Toast{Title: title, Severity: Info})
	}

	got := feed.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 toasts, got %d", len(got))
	}
	if got[0].Title != "d" || got[2].Title != "b" {
		t.Fatalf("expected d..b, got %+v", got)
	}
	if !got[0].At.Equal(fixed) {
		t.Fatalf("expected timestamp to be filled, got %v", got[0].At)
	}
	if one := feed.Recent(1); len(one) != 1 || one[0].Title != "d" {
		t.Fatalf("expected only newest, got %+v", one)
	}
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	feed := NewFeed(10)

	sink := Fanout{LogSink{Logger: logger}, feed, nil}
	sink.Notify(context.Background(), Toast{Title: "Error", Description: "Slot already assigned", Severity: Destructive})

	if got := feed.Recent(0); len(got) != 1 || got[0].At.IsZero() {
		t.Fatalf("expected one stamped toast, got %+v", got)
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "Slot already assigned") {
		t.Fatalf("expected warn log, got %q", buf.String())
	}
}
