package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"icetime-service/internal/logging"
	"icetime-service/internal/notify"
	"icetime-service/internal/rinksync"
	"icetime-service/internal/schedule"
)

const (
	headerGoogleToken = "X-Google-Token"
	oauthStateTTL     = 10 * time.Minute
)

// oauthStates tracks the state values handed out by GoogleAuthHandler. Each
// one is accepted by the callback once, within oauthStateTTL.
type oauthStates struct {
	mu     sync.Mutex
	issued map[string]time.Time
}

func (s *oauthStates) issue(state string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issued == nil {
		s.issued = make(map[string]time.Time)
	}
	for k, at := range s.issued {
		if now.Sub(at) > oauthStateTTL {
			delete(s.issued, k)
		}
	}
	s.issued[state] = now
}

func (s *oauthStates) consume(state string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.issued[state]
	if !ok {
		return false
	}
	delete(s.issued, state)
	return now.Sub(at) <= oauthStateTTL
}

// googleOAuth builds the OAuth2 config for read-only calendar access, or nil
// when Google is not configured.
func (a *App) googleOAuth() *oauth2.Config {
	if !a.Google.Enabled() {
		return nil
	}
	return &oauth2.Config{
		ClientID:     a.Google.ClientID,
		ClientSecret: a.Google.ClientSecret,
		RedirectURL:  a.Google.RedirectURL,
		Scopes: []string{
			calendar.CalendarReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}
}

// calendarService opens the Calendar API for the token in the request header.
func (a *App) calendarService(c *gin.Context) (*calendar.Service, bool) {
	cfg := a.googleOAuth()
	if cfg == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured", "code": CodeUnavailable})
		return nil, false
	}
	tokenStr := c.GetHeader(headerGoogleToken)
	if tokenStr == "" {
		badRequest(c, "Google token required in "+headerGoogleToken+" header")
		return nil, false
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		badRequest(c, "invalid token format")
		return nil, false
	}

	ctx := c.Request.Context()
	opts := []option.ClientOption{option.WithHTTPClient(cfg.Client(ctx, &token))}
	if a.Google.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.Google.Endpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		a.writeError(c, schedule.Failed("open calendar", err))
		return nil, false
	}
	return srv, true
}

// GET /api/calendar/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	cfg := a.googleOAuth()
	if cfg == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured", "code": CodeUnavailable})
		return
	}
	state := uuid.New().String()
	a.states.issue(state, a.now())
	c.JSON(http.StatusOK, gin.H{
		"auth_url": cfg.AuthCodeURL(state, oauth2.AccessTypeOffline),
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	cfg := a.googleOAuth()
	if cfg == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured", "code": CodeUnavailable})
		return
	}
	code := c.Query("code")
	if code == "" {
		badRequest(c, "authorization code required")
		return
	}
	if !a.states.consume(c.Query("state"), a.now()) {
		badRequest(c, "invalid or expired state")
		return
	}
	token, err := cfg.Exchange(c.Request.Context(), code)
	if err != nil {
		badRequest(c, "failed to exchange code for token")
		return
	}
	// the client keeps the token and sends it back in X-Google-Token
	tokenJSON, _ := json.Marshal(token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

// CalendarInfo is a Google calendar the rink schedule can be imported from.
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"access_role"`
}

// GET /api/calendar/calendars
func (a *App) GetGoogleCalendarList(c *gin.Context) {
	srv, ok := a.calendarService(c)
	if !ok {
		return
	}
	list, err := srv.CalendarList.List().Context(c.Request.Context()).Do()
	if err != nil {
		a.writeError(c, schedule.Failed("list calendars", err))
		return
	}
	calendars := []CalendarInfo{}
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"calendars": calendars,
		"count":     len(calendars),
	})
}

// POST /api/calendar/import
// Imports the rink events of one week from a Google calendar as open slots.
func (a *App) ImportGoogleWeekHandler(c *gin.Context) {
	var req importReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.CalendarID == "" {
		req.CalendarID = "primary"
	}
	date := a.today()
	if req.Week != "" {
		d, err := schedule.ParseDate(req.Week)
		if err != nil {
			badRequest(c, "invalid week, want yyyy-mm-dd")
			return
		}
		date = d
	}
	srv, ok := a.calendarService(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	week := schedule.WeekOf(date)
	events, err := a.fetchGoogleEvents(ctx, srv, req.CalendarID, week)
	if err != nil {
		a.writeError(c, schedule.Failed("import calendar", err))
		return
	}
	slots := rinksync.EventsToSlots(schedule.SourceGoogle, req.Rink, events, week, a.location())
	changed, err := a.Backend.UpsertSlots(ctx, slots)
	if err != nil {
		a.writeError(c, err)
		return
	}

	logging.Info(logging.FromContext(ctx, a.Logger), "google calendar imported",
		logging.FieldWeek, week.String(), logging.FieldCount, len(slots), "changed", changed)
	a.notify(ctx, notify.Success, "Calendar Imported",
		fmt.Sprintf("%d ice slots imported for the week of %s", len(slots), week))
	c.JSON(http.StatusOK, gin.H{
		"week":     week.String(),
		"events":   len(events),
		"imported": len(slots),
		"changed":  changed,
	})
}

func (a *App) fetchGoogleEvents(ctx context.Context, srv *calendar.Service, calendarID string, week schedule.Week) ([]rinksync.Event, error) {
	from, to := rinksync.Bounds(week, a.location())
	var out []rinksync.Event
	err := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(250).
		Pages(ctx, func(page *calendar.Events) error {
			out = append(out, googleEvents(page.Items)...)
			return nil
		})
	return out, err
}

// googleEvents converts Calendar API items, dropping cancelled entries.
func googleEvents(items []*calendar.Event) []rinksync.Event {
	out := make([]rinksync.Event, 0, len(items))
	for _, item := range items {
		if item == nil || item.Status == "cancelled" || item.Start == nil || item.End == nil {
			continue
		}
		ev := rinksync.Event{
			UID:      item.Id,
			Summary:  item.Summary,
			Location: item.Location,
		}
		if item.Start.DateTime == "" {
			ev.AllDay = true
			out = append(out, ev)
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}
		ev.Start, ev.End = start, end
		out = append(out, ev)
	}
	return out
}
