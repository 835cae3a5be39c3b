package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"icetime-service/internal/config"
	"icetime-service/internal/schedule"
)

const rinkEventsJSON = `{
  "kind": "calendar#events",
  "items": [
    {"id": "evt1", "status": "confirmed", "summary": "Game vs Hawks", "location": "Sheet A",
     "start": {"dateTime": "2024-01-16T19:00:00Z"}, "end": {"dateTime": "2024-01-16T20:30:00Z"}},
    {"id": "evt2", "status": "confirmed", "summary": "Public skate",
     "start": {"date": "2024-01-17"}, "end": {"date": "2024-01-18"}},
    {"id": "evt3", "status": "cancelled", "summary": "Practice",
     "start": {"dateTime": "2024-01-18T06:00:00Z"}, "end": {"dateTime": "2024-01-18T07:00:00Z"}},
    {"id": "evt4", "status": "confirmed", "summary": "Learn to skate",
     "start": {"dateTime": "2024-01-19T06:00:00Z"}, "end": {"dateTime": "2024-01-19T07:00:00Z"}}
  ]
}`

func newGoogleAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer g-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
			if r.URL.Query().Get("singleEvents") != "true" {
				t.Errorf("expected singleEvents=true, got %q", r.URL.RawQuery)
			}
			w.Write([]byte(rinkEventsJSON))
		case strings.HasSuffix(r.URL.Path, "/users/me/calendarList"):
			w.Write([]byte(`{"items": [{"id": "primary", "summary": "Rink", "primary": true, "accessRole": "owner"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func withGoogle(env *testEnv, endpoint string) {
	env.app.Google = config.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/oauth2callback",
		Endpoint:     endpoint + "/",
	}
}

func googleRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerGoogleToken, `{"access_token":"g-token","token_type":"Bearer"}`)
	return req
}

func TestImportGoogleWeek(t *testing.T) {
	env := newTestEnv(t)
	withGoogle(env, newGoogleAPI(t).URL)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, googleRequest(t, http.MethodPost, "/api/calendar/import", importReq{Week: "2024-01-17", Rink: "Main Rink"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	body := decode[map[string]any](t, rr)
	if body["imported"] != float64(2) || body["week"] != "2024-01-15" {
		t.Fatalf("unexpected import result %+v", body)
	}

	game, err := env.app.Backend.GetSlot(context.Background(), "google-evt1-2024-01-16")
	if err != nil {
		t.Fatalf("expected imported slot: %v", err)
	}
	if game.Type != schedule.Game || game.StartTime != "19:00" || game.Rink != "Sheet A" || game.Source != schedule.SourceGoogle {
		t.Fatalf("unexpected slot %+v", game)
	}
	skate, _ := env.app.Backend.GetSlot(context.Background(), "google-evt4-2024-01-19")
	if skate.Type != schedule.Practice || skate.Rink != "Main Rink" {
		t.Fatalf("expected practice on the default rink, got %+v", skate)
	}

	// importing again changes nothing
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, googleRequest(t, http.MethodPost, "/api/calendar/import", importReq{Week: "2024-01-17", Rink: "Main Rink"}))
	if body := decode[map[string]any](t, rr); body["changed"] != float64(0) {
		t.Fatalf("expected idempotent import, got %+v", body)
	}
}

func TestGoogleCalendarList(t *testing.T) {
	env := newTestEnv(t)
	withGoogle(env, newGoogleAPI(t).URL)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, googleRequest(t, http.MethodGet, "/api/calendar/calendars", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var body struct {
		Calendars []CalendarInfo `json:"calendars"`
		Count     int            `json:"count"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Count != 1 || !body.Calendars[0].Primary || body.Calendars[0].AccessRole != "owner" {
		t.Fatalf("unexpected calendars %+v", body)
	}
}

func TestGoogleNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/calendar/auth", nil)
	expectError(t, rr, http.StatusServiceUnavailable, CodeUnavailable)

	rr = env.do(t, http.MethodPost, "/api/calendar/import", importReq{})
	expectError(t, rr, http.StatusServiceUnavailable, CodeUnavailable)
}

func TestGoogleAuthURL(t *testing.T) {
	env := newTestEnv(t)
	withGoogle(env, "http://unused")

	rr := env.do(t, http.MethodGet, "/api/calendar/auth", nil)
	body := decode[map[string]string](t, rr)
	if !strings.Contains(body["auth_url"], "client_id=client") || !strings.Contains(body["auth_url"], "state="+body["state"]) {
		t.Fatalf("unexpected auth url %+v", body)
	}

	rr = env.do(t, http.MethodGet, "/oauth2callback", nil)
	expectError(t, rr, http.StatusBadRequest, CodeValidation)
}

func TestOAuthCallbackRejectsUnknownState(t *testing.T) {
	env := newTestEnv(t)
	withGoogle(env, "http://unused")

	rr := env.do(t, http.MethodGet, "/oauth2callback?code=abc&state=forged", nil)
	expectError(t, rr, http.StatusBadRequest, CodeValidation)
	if !strings.Contains(rr.Body.String(), "state") {
		t.Fatalf("expected state error, got %s", rr.Body.String())
	}

	body := decode[map[string]string](t, env.do(t, http.MethodGet, "/api/calendar/auth", nil))
	if !env.app.states.consume(body["state"], fixedNow) {
		t.Fatalf("expected issued state %q to be accepted", body["state"])
	}
	if env.app.states.consume(body["state"], fixedNow) {
		t.Fatal("expected state to be single use")
	}
}

func TestOAuthStatesExpire(t *testing.T) {
	var states oauthStates
	states.issue("fresh", fixedNow)
	states.issue("stale", fixedNow)

	if !states.consume("fresh", fixedNow.Add(time.Minute)) {
		t.Fatal("expected fresh state to be accepted")
	}
	if states.consume("stale", fixedNow.Add(oauthStateTTL+time.Second)) {
		t.Fatal("expected stale state to be rejected")
	}
	if states.consume("never-issued", fixedNow) {
		t.Fatal("expected unknown state to be rejected")
	}
}

func TestImportRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	withGoogle(env, "http://unused")
	rr := env.do(t, http.MethodPost, "/api/calendar/import", importReq{})
	expectError(t, rr, http.StatusBadRequest, CodeValidation)
}

func TestGoogleEventsSkipsCancelled(t *testing.T) {
	var events calendar.Events
	if err := json.Unmarshal([]byte(rinkEventsJSON), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := googleEvents(events.Items)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if !got[1].AllDay || got[0].AllDay {
		t.Fatalf("expected only the second event to be all-day, got %+v", got)
	}
	if got[0].End.Sub(got[0].Start).Minutes() != 90 {
		t.Fatalf("unexpected duration %v", got[0].End.Sub(got[0].Start))
	}
}
