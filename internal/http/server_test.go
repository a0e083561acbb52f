package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/connectivity"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/storage/memory"
	"fintrack/internal/store"
	"fintrack/internal/voice"
)

type testServer struct {
	*Server
	kv     *memory.Store
	store  *store.Store
	banner *connectivity.Banner
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, mutate ...func(*Dependencies)) *testServer {
	t.Helper()
	kv := memory.New()
	st := store.Open(context.Background(), kv, store.Options{Logger: quietLogger()})
	banner := connectivity.NewBanner()

	seq := 0
	deps := Dependencies{
		Store:        st,
		Banner:       banner,
		Logger:       quietLogger(),
		VoiceEnabled: true,
		Voice:        voice.DefaultSettings(),
		Now:          func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
	for _, m := range mutate {
		m(&deps)
	}
	return &testServer{Server: NewServer(":0", deps), kv: kv, store: st, banner: banner}
}

func (ts *testServer) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPost, path, "application/json", body)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Finance Tracker", "Food &amp; Dining", "No entries yet.", "Add some income"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if got := rr.Header().Get("Permissions-Policy"); !strings.Contains(got, "microphone=(self)") {
		t.Errorf("Permissions-Policy = %q", got)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr = ts.do(http.MethodGet, "/static/app.js", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("static status=%d", rr.Code)
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Error("static asset without Cache-Control")
	}
}

func TestIndexRendersEntriesAndInvalidFilter(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON("/api/entries", `{"type":"income","amount":"1000","description":"Salary","category":"Other"}`)
	ts.postJSON("/api/entries", `{"type":"expense","amount":"400","description":"Dinner","category":"Food & Dining"}`)

	rr := ts.do(http.MethodGet, "/?month=Smarch", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Salary", "Dinner", "Available Balance", "60.0%", "40.0%", "invalid month filter"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
}

func TestCreateEntry(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"empty amount is a no-op", "application/json", `{"amount":"","description":"x"}`, http.StatusNoContent},
		{"empty description is a no-op", "application/x-www-form-urlencoded", "amount=12&description=+", http.StatusNoContent},
		{"invalid amount", "application/x-www-form-urlencoded", "amount=abc&description=x", http.StatusUnprocessableEntity},
		{"zero amount", "application/json", `{"amount":"0","description":"x"}`, http.StatusUnprocessableEntity},
		{"unknown category", "application/json", `{"amount":"5","description":"x","category":"Gym"}`, http.StatusUnprocessableEntity},
		{"unknown type", "application/json", `{"amount":"5","description":"x","type":"transfer"}`, http.StatusUnprocessableEntity},
		{"malformed json", "application/json", `{"amount":`, http.StatusBadRequest},
		{"form success", "application/x-www-form-urlencoded", "amount=12.50&description=Tea&category=Food+%26+Dining", http.StatusCreated},
		{"json number amount", "application/json", `{"amount":2500,"description":"Pay","type":"income"}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rr := ts.do(http.MethodPost, "/api/entries", tt.contentType, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			wantLen := 0
			if tt.wantStatus == http.StatusCreated {
				wantLen = 1
			}
			if ts.store.Len() != wantLen {
				t.Errorf("store has %d entries, want %d", ts.store.Len(), wantLen)
			}
		})
	}
}

func TestCreateEntryResponse(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.postJSON("/api/entries", `{"type":"expense","amount":"1200","description":"Gym Membership","category":"Healthcare"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[entryView](t, rr)
	want := entryView{
		ID:          "id-1",
		Type:        "expense",
		Amount:      moneyView{Value: "1200", Display: "₹1,200.00"},
		Description: "Gym Membership",
		Category:    "Healthcare",
		Date:        "2024-03-15",
		Month:       "March",
	}
	if got != want {
		t.Errorf("entry = %+v, want %+v", got, want)
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, part := range []string{`"entries:changed"`, `"form:reset"`, `"type":"success"`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %s: %s", part, trigger)
		}
	}
}

func TestCreateEntryPersistFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.kv.FailPuts = errors.New("quota exceeded")

	rr := ts.postJSON("/api/entries", `{"amount":"10","description":"Tea"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if ts.store.Len() != 0 {
		t.Errorf("failed save left %d entries", ts.store.Len())
	}
}

func TestCreateEntryDuplicateID(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) {
		d.NewID = func() string { return "same" }
	})
	if rr := ts.postJSON("/api/entries", `{"amount":"10","description":"a"}`); rr.Code != http.StatusCreated {
		t.Fatalf("first status=%d", rr.Code)
	}
	if rr := ts.postJSON("/api/entries", `{"amount":"10","description":"b"}`); rr.Code != http.StatusConflict {
		t.Fatalf("second status=%d, want 409", rr.Code)
	}
}

func TestListEntriesFilters(t *testing.T) {
	ts := newTestServer(t)
	seed := []string{
		`{"type":"income","amount":"1000","description":"Salary","category":"Other"}`,
		`{"type":"expense","amount":"400","description":"Dinner","category":"Food & Dining"}`,
		`{"type":"expense","amount":"60","description":"Bus","category":"Transportation"}`,
	}
	for _, body := range seed {
		if rr := ts.postJSON("/api/entries", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed status=%d", rr.Code)
		}
	}

	tests := []struct {
		query     string
		wantDescs []string
	}{
		{"", []string{"Bus", "Dinner", "Salary"}},
		{"?type=expense", []string{"Bus", "Dinner"}},
		{"?category=Other", []string{"Salary"}},
		{"?month=March&type=income", []string{"Salary"}},
		{"?month=April", nil},
		{"?month=All+Months&category=Transportation", []string{"Bus"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := ts.do(http.MethodGet, "/api/entries"+tt.query, "", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			resp := decode[entriesResponse](t, rr)
			var descs []string
			for _, e := range resp.Entries {
				descs = append(descs, e.Description)
			}
			if strings.Join(descs, ",") != strings.Join(tt.wantDescs, ",") {
				t.Errorf("entries = %v, want %v", descs, tt.wantDescs)
			}
			if resp.Total != 3 || resp.Count != len(tt.wantDescs) {
				t.Errorf("count/total = %d/%d", resp.Count, resp.Total)
			}
		})
	}

	if rr := ts.do(http.MethodGet, "/api/entries?category=Gym", "", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid filter status=%d, want 400", rr.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON("/api/entries", `{"amount":"10","description":"Tea"}`)

	rr := ts.do(http.MethodDelete, "/api/entries/id-1", "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "entries:changed") {
		t.Errorf("missing entries:changed trigger")
	}
	if ts.store.Len() != 0 {
		t.Errorf("entry not removed")
	}

	rr = ts.do(http.MethodDelete, "/api/entries/id-1", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rr.Code)
	}
}

func TestSummaryAndChart(t *testing.T) {
	ts := newTestServer(t)

	chart := decode[chartView](t, ts.do(http.MethodGet, "/api/chart", "", ""))
	if !chart.Empty || len(chart.Slices) != 0 {
		t.Errorf("empty store chart = %+v", chart)
	}

	ts.postJSON("/api/entries", `{"type":"income","amount":"1000","description":"Salary","category":"Other"}`)
	ts.postJSON("/api/entries", `{"type":"expense","amount":"400","description":"Dinner","category":"Food & Dining"}`)

	totals := decode[totalsView](t, ts.do(http.MethodGet, "/api/summary", "", ""))
	if totals.Income.Value != "1000" || totals.Expense.Value != "400" || totals.Balance.Display != "₹600.00" {
		t.Errorf("totals = %+v", totals)
	}

	chart = decode[chartView](t, ts.do(http.MethodGet, "/api/chart", "", ""))
	if chart.Empty || len(chart.Slices) != 2 {
		t.Fatalf("chart = %+v", chart)
	}
	if chart.Slices[0].Name != core.AvailableBalanceLabel || chart.Slices[0].Percentage != "60.0" {
		t.Errorf("first slice = %+v", chart.Slices[0])
	}
	if chart.Slices[1].Name != "Food & Dining" || chart.Slices[1].Percentage != "40.0" {
		t.Errorf("second slice = %+v", chart.Slices[1])
	}
}

func TestSummaryMemoisedPerRevision(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON("/api/entries", `{"type":"income","amount":"50","description":"Gift","category":"Other"}`)

	ts.do(http.MethodGet, "/api/summary", "", "")
	ts.do(http.MethodGet, "/api/summary", "", "")
	if stats := ts.summaryCache.Stats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats after two reads = %+v", stats)
	}

	ts.postJSON("/api/entries", `{"type":"income","amount":"50","description":"Gift","category":"Other"}`)
	totals := decode[totalsView](t, ts.do(http.MethodGet, "/api/summary", "", ""))
	if totals.Income.Value != "100" {
		t.Errorf("stale summary after add: %+v", totals)
	}
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t)
	resp := decode[categoriesResponse](t, ts.do(http.MethodGet, "/api/categories", "", ""))
	if len(resp.Categories) != 10 || resp.Categories[0] != "Food & Dining" || resp.Default != "Food & Dining" {
		t.Errorf("categories = %+v", resp)
	}
	if len(resp.Months) != 13 || resp.Months[0] != core.AllMonths {
		t.Errorf("months = %v", resp.Months)
	}
}

func TestVoice(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.postJSON("/api/voice", `{"transcript":"expense 1200 into gym membership category health","draft":{"type":"income","amount":"5","description":"old","category":"Travel"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	resp := decode[voiceResponse](t, rr)
	if !resp.Parsed {
		t.Fatal("transcript not parsed")
	}
	d := resp.Draft
	if d.Kind != core.Expense || d.Amount != "1200" || d.Description != "Gym Membership" || d.Category != core.Healthcare {
		t.Errorf("draft = %+v", d)
	}

	rr = ts.postJSON("/api/voice", `{"transcript":"income 2500"}`)
	d = decode[voiceResponse](t, rr).Draft
	if d.Kind != core.Income || d.Amount != "2500" || d.Description != "" || d.Category != core.DefaultCategory {
		t.Errorf("income draft = %+v", d)
	}
}

func TestVoiceNoResultKeepsDraft(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.postJSON("/api/voice", `{"transcript":"   ","draft":{"type":"expense","amount":"7","description":"keep","category":"Travel"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	resp := decode[voiceResponse](t, rr)
	if resp.Parsed || resp.Draft.Description != "keep" || resp.Draft.Category != core.Travel {
		t.Errorf("response = %+v", resp)
	}
}

func TestVoiceUnavailable(t *testing.T) {
	t.Run("offline", func(t *testing.T) {
		ts := newTestServer(t)
		ts.banner.SetOnline(false)
		if rr := ts.postJSON("/api/voice", `{"transcript":"income 5"}`); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status=%d, want 503", rr.Code)
		}
		settings := decode[voiceSettingsResponse](t, ts.do(http.MethodGet, "/api/voice", "", ""))
		if settings.Supported {
			t.Error("voice reported supported while offline")
		}
	})
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, func(d *Dependencies) { d.VoiceEnabled = false })
		if rr := ts.postJSON("/api/voice", `{"transcript":"income 5"}`); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status=%d, want 503", rr.Code)
		}
	})
	t.Run("bad body", func(t *testing.T) {
		ts := newTestServer(t)
		if rr := ts.postJSON("/api/voice", `nope`); rr.Code != http.StatusBadRequest {
			t.Fatalf("status=%d, want 400", rr.Code)
		}
	})
}

func TestVoiceSettings(t *testing.T) {
	ts := newTestServer(t)
	got := decode[voiceSettingsResponse](t, ts.do(http.MethodGet, "/api/voice", "", ""))
	want := voiceSettingsResponse{Supported: true, Locale: "en-US"}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestMicButtonStaysVisibleWhenVoiceUnavailable(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) { d.VoiceEnabled = false })

	body := ts.do(http.MethodGet, "/", "", "").Body.String()
	if !strings.Contains(body, `id="voice-button" class="mic unavailable"`) {
		t.Fatalf("mic button not rendered as unavailable:\n%s", body)
	}

	script := ts.do(http.MethodGet, "/static/app.js", "", "").Body.String()
	for _, want := range []string{
		"Your browser does not support voice recognition.",
		"Could not recognize your voice. Please try again.",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("app.js missing alert %q", want)
		}
	}
}

func TestCreateEntryLongDescription(t *testing.T) {
	ts := newTestServer(t)
	desc := strings.Repeat("a", 300)
	rr := ts.postJSON("/api/entries", `{"type":"expense","amount":"10","description":"`+desc+`","category":"Other"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := ts.store.Entries()[0].Description; got != desc {
		t.Fatalf("stored description has %d chars", len(got))
	}
}

func TestConnectivityBanner(t *testing.T) {
	ts := newTestServer(t)

	status := decode[connectivity.Status](t, ts.do(http.MethodGet, "/api/connectivity", "", ""))
	if !status.Online || status.BannerVisible {
		t.Errorf("initial status = %+v", status)
	}

	ts.banner.SetOnline(false)
	status = decode[connectivity.Status](t, ts.do(http.MethodGet, "/api/connectivity", "", ""))
	if !status.BannerVisible {
		t.Errorf("offline status = %+v", status)
	}

	rr := ts.do(http.MethodPost, "/api/connectivity/dismiss", "", "")
	status = decode[connectivity.Status](t, rr)
	if status.BannerVisible || !status.Dismissed {
		t.Errorf("dismissed status = %+v", status)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "connectivity:changed") {
		t.Errorf("missing connectivity trigger")
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) {
		d.Limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 1})
	})

	if rr := ts.postJSON("/api/entries", `{"amount":"1","description":"a"}`); rr.Code != http.StatusCreated {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := ts.postJSON("/api/entries", `{"amount":"1","description":"b"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d, want 429", rr.Code)
	}
	// reads are not limited
	if rr := ts.do(http.MethodGet, "/api/entries", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("read status=%d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON("/api/entries", `{"amount":"1","description":"a"}`)
	ts.do(http.MethodDelete, "/api/entries/missing", "", "")

	rr := ts.do(http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"fintrack_http_requests_total 3\n",
		"fintrack_http_client_errors_total 1\n",
		"fintrack_entries 1\n",
		"fintrack_store_revision 1\n",
		"fintrack_connectivity_online 1\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q in:\n%s", want, body)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	if rr := ts.do(http.MethodGet, "/expenses", "", ""); rr.Code != http.StatusNotFound {
		t.Errorf("status=%d, want 404", rr.Code)
	}
	if rr := ts.do(http.MethodPut, "/api/entries/id-1", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d, want 405", rr.Code)
	}
}
