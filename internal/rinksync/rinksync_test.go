package rinksync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"icetime-service/internal/metrics"
	"icetime-service/internal/schedule"
	"icetime-service/internal/store"
)

var rinkFeed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//Rink//Open Ice//EN",
	"BEGIN:VEVENT",
	"UID:open-1",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240116T180000Z",
	"DTEND:20240116T193000Z",
	"SUMMARY:Open ice - Game",
	"LOCATION:Sheet A",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:weekly-1",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240108T070000Z",
	"DTEND:20240108T080000Z",
	"RRULE:FREQ=WEEKLY;BYDAY=MO,TH",
	"EXDATE:20240118T070000Z",
	"SUMMARY:Morning skate",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:late-1",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240119T233000Z",
	"DTEND:20240120T010000Z",
	"SUMMARY:Late practice",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:next-week",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240125T180000Z",
	"DTEND:20240125T190000Z",
	"SUMMARY:Practice",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

var week = schedule.WeekOf(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

func TestParseICSExpandsRecurrence(t *testing.T) {
	from, to := Bounds(week, time.UTC)
	events, err := ParseICS([]byte(rinkFeed), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events in range, got %d: %+v", len(events), events)
	}

	var weekly []Event
	for _, ev := range events {
		if strings.HasPrefix(ev.UID, "weekly-1") {
			weekly = append(weekly, ev)
		}
	}
	if len(weekly) != 1 || !weekly[0].Start.Equal(time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected only Monday occurrence after EXDATE, got %+v", weekly)
	}
	if weekly[0].End.Sub(weekly[0].Start) != time.Hour {
		t.Fatalf("expected occurrence to keep its length, got %v", weekly[0].End.Sub(weekly[0].Start))
	}
}

func TestEventsToSlots(t *testing.T) {
	from, to := Bounds(week, time.UTC)
	events, _ := ParseICS([]byte(rinkFeed), from, to)
	slots := EventsToSlots(schedule.SourceICS, "Main Rink", events, week, time.UTC)

	if len(slots) != 2 {
		t.Fatalf("expected cross-midnight event to be skipped, got %+v", slots)
	}
	byID := map[string]schedule.IceSlot{}
	for _, s := range slots {
		if err := s.Validate(); err != nil {
			t.Fatalf("slot %s invalid: %v", s.ID, err)
		}
		byID[s.ID] = s
	}

	game, ok := byID["ics-open-1-2024-01-16"]
	if !ok {
		t.Fatalf("expected open-1 slot, got %+v", slots)
	}
	if game.Type != schedule.Game || game.Rink != "Sheet A" || game.StartTime != "18:00" || game.EndTime != "19:30" {
		t.Fatalf("unexpected game slot %+v", game)
	}
	skate, ok := byID["ics-weekly-1-20240115t0700-2024-01-15"]
	if !ok {
		t.Fatalf("expected weekly slot, got %+v", slots)
	}
	if skate.Type != schedule.Practice || skate.Rink != "Main Rink" {
		t.Fatalf("unexpected practice slot %+v", skate)
	}
}

func TestEventsToSlotsUsesLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ev := Event{
		UID:   "evening",
		Start: time.Date(2024, 1, 16, 1, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 16, 2, 30, 0, 0, time.UTC),
	}
	slots := EventsToSlots(schedule.SourceGoogle, "", []Event{ev}, week, loc)
	if len(slots) != 1 || slots[0].Date != "2024-01-15" || slots[0].StartTime != "20:00" {
		t.Fatalf("expected Monday 20:00 local slot, got %+v", slots)
	}
}

func TestRunOnceImportsFeedsAndTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(rinkFeed))
	}))
	defer srv.Close()

	backend := store.NewMemoryStore()
	rec := metrics.NewRecorder()
	runner := NewRunner(Options{
		Backend: backend,
		Templates: []schedule.Template{{
			Name: "Wed league", RRule: "FREQ=WEEKLY;BYDAY=WE", Start: "20:00", End: "21:00", Type: schedule.Game,
		}},
		Feeds:   []Feed{{ID: "main", URL: srv.URL, Rink: "Main Rink"}},
		Metrics: rec,
		Now:     func() time.Time { return time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC) },
	})

	res, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed != 3 || res.Weeks != 1 {
		t.Fatalf("expected 3 new slots in 1 week, got %+v", res)
	}

	slots, _ := backend.FetchWeek(context.Background(), week)
	if len(slots) != 3 {
		t.Fatalf("expected 3 stored slots, got %d", len(slots))
	}

	again, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Changed != 0 {
		t.Fatalf("expected idempotent resync, got %d changes", again.Changed)
	}
	if snap := rec.Snapshot(); snap.SyncCycles != 2 || snap.SlotsImported != 3 {
		t.Fatalf("unexpected sync metrics %+v", snap)
	}
}

func TestRunOnceReportsFeedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	runner := NewRunner(Options{
		Backend:    store.NewMemoryStore(),
		Feeds:      []Feed{{ID: "broken", URL: srv.URL}},
		WeeksAhead: 1,
	})
	res, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("feed errors should not fail the cycle: %v", err)
	}
	if len(res.Errors) != 2 || !strings.Contains(res.Errors[0], "502") {
		t.Fatalf("expected one error per week, got %+v", res.Errors)
	}
	if runner.Last().Weeks != 2 {
		t.Fatalf("expected last result to be kept, got %+v", runner.Last())
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	runner := NewRunner(Options{Backend: store.NewMemoryStore()})
	if err := runner.Start(context.Background(), "every tuesday"); err == nil {
		t.Fatal("expected invalid cron spec to fail")
	}
	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("stop without start: %v", err)
	}

	if err := runner.Start(context.Background(), DefaultSchedule); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
}
