package rinksync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// Feed is a rink's published ICS calendar of available ice.
type Feed struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	// Rink labels imported slots whose events carry no LOCATION.
	Rink string `yaml:"rink" json:"rink,omitempty"`
}

// Fetcher downloads ICS payloads.
type Fetcher struct {
	Client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// maxFeedBytes caps a single ICS download.
const maxFeedBytes = 10 << 20

func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]byte, error) {
	if feed.URL == "" {
		return nil, fmt.Errorf("feed %s: url is empty", feed.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: unexpected status %s", feed.ID, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}

// ParseICS reads the VEVENTs of an ICS payload and expands recurring ones
// into the occurrences that start within [from, to).
func ParseICS(body []byte, from, to time.Time) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	var out []Event
	for _, ve := range cal.Events() {
		ev, rule, exdates, err := parseVEvent(ve)
		if err != nil {
			continue
		}
		if rule == "" {
			if !ev.Start.Before(from) && ev.Start.Before(to) {
				out = append(out, ev)
			}
			continue
		}
		occurrences, err := expand(ev, rule, exdates, from, to)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.UID, err)
		}
		out = append(out, occurrences...)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (Event, string, []time.Time, error) {
	var ev Event
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, "", nil, errors.New("missing UID")
	}
	ev.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, "", nil, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return ev, "", nil, err
	}
	ev.Start, ev.End = start, end
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && !strings.Contains(p.Value, "T") {
		ev.AllDay = true
	}

	var rule string
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rule = p.Value
	}
	var exdates []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), start.Location()); err == nil {
				exdates = append(exdates, t)
			}
		}
	}
	return ev, rule, exdates, nil
}

func expand(ev Event, rule string, exdates []time.Time, from, to time.Time) ([]Event, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex)
	}

	length := ev.End.Sub(ev.Start)
	var out []Event
	for _, at := range set.Between(from, to, true) {
		if !at.Before(to) {
			continue
		}
		occ := ev
		occ.UID = ev.UID + "-" + at.UTC().Format("20060102T1504")
		occ.Start = at
		occ.End = at.Add(length)
		out = append(out, occ)
	}
	return out, nil
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
