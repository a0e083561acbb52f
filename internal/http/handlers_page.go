package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"fintrack/internal/connectivity"
	"fintrack/internal/core"
	"fintrack/internal/form"
	"fintrack/internal/log"
)

var templateFuncs = template.FuncMap{
	"kindLabel": func(kind string) string {
		if kind == "" {
			return ""
		}
		return strings.ToUpper(kind[:1]) + kind[1:]
	},
}

type indexData struct {
	Totals      totalsView
	Chart       chartView
	Entries     []entryView
	Total       int
	Filter      filterView
	FilterError string
	Categories  []string
	Months      []string
	Kinds       []string
	Draft       form.Draft
	Banner      connectivity.Status
	Voice       voiceSettingsResponse
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		HTMLErrorResponse(http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}

	f, err := ParseFilterQuery(r.URL.Query())
	filterErr := ""
	if err != nil {
		filterErr = err.Error()
		f = core.NoFilter()
	}

	entries, _ := s.store.Snapshot()
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}

	data := indexData{
		Totals:      newTotalsView(s.summary()),
		Chart:       newChartView(s.chart()),
		Entries:     newEntryViews(f.Apply(entries)),
		Total:       len(entries),
		Filter:      newFilterView(f),
		FilterError: filterErr,
		Categories:  names,
		Months:      core.Months(),
		Kinds:       []string{string(core.Expense), string(core.Income)},
		Draft:       form.NewDraft(),
		Banner:      s.banner.Status(),
		Voice: voiceSettingsResponse{
			Supported:      s.voiceAvailable(),
			Locale:         s.voiceSettings.Locale,
			Continuous:     s.voiceSettings.Continuous,
			InterimResults: s.voiceSettings.InterimResults,
		},
	}

	// Render into a buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Index template execution failed",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender,
			log.FieldError, err.Error())
		HTMLErrorResponse(http.StatusInternalServerError, "page rendering failed").Write(w)
		return
	}
	NewResponse().BodyHTML(buf.String()).Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.templates == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	req := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	summary := s.summaryCache.Stats()
	chart := s.chartCache.Stats()
	online := 0
	if s.banner.Online() {
		online = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "fintrack_http_requests_total %d\n", req.TotalRequests)
	fmt.Fprintf(&b, "fintrack_http_client_errors_total %d\n", req.ClientErrors)
	fmt.Fprintf(&b, "fintrack_http_server_errors_total %d\n", req.ServerErrors)
	fmt.Fprintf(&b, "fintrack_http_last_response_microseconds %d\n", req.LastResponseTimeUs)
	fmt.Fprintf(&b, "fintrack_rate_limit_rejected_total %d\n", rl.Rejected)
	fmt.Fprintf(&b, "fintrack_rate_limit_clients %d\n", rl.ClientCount)
	fmt.Fprintf(&b, "fintrack_security_suspicious_total %d\n", s.detector.SuspiciousCount())
	fmt.Fprintf(&b, "fintrack_entries %d\n", s.store.Len())
	fmt.Fprintf(&b, "fintrack_store_revision %d\n", s.store.Revision())
	fmt.Fprintf(&b, "fintrack_view_cache_hits_total %d\n", summary.Hits+chart.Hits)
	fmt.Fprintf(&b, "fintrack_view_cache_misses_total %d\n", summary.Misses+chart.Misses)
	fmt.Fprintf(&b, "fintrack_view_cache_size %d\n", summary.Size+chart.Size)
	fmt.Fprintf(&b, "fintrack_connectivity_online %d\n", online)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}
