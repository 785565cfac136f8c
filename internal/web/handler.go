package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/reporter"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/tracker"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/utils"
)

const (
	defaultSessionLimit = 100
	maxSessionLimit     = 1000
)

// Store is the part of the repository the API reads and writes.
type Store interface {
	reporter.Store
	GetRecentSessions(ctx context.Context, limit int) ([]*models.Session, error)
	GetLatest(ctx context.Context) (*models.Session, error)
	GetRecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error)
	GetCustomCategories(ctx context.Context) ([]string, error)
	ListOverrides(ctx context.Context) ([]models.Override, error)
	RenameField(ctx context.Context, field, original, renamed string) (int64, error)
	CategorizeField(ctx context.Context, field, original, category string) (int64, error)
	RenameApp(ctx context.Context, original, renamed, category string) (int64, error)
}

// StatusSource exposes the live tracker state.
type StatusSource interface {
	Status() tracker.Status
}

type Handler struct {
	config   *config.Config
	repo     Store
	reporter *reporter.Reporter
	status   StatusSource
}

func NewHandler(cfg *config.Config, repo Store, status StatusSource) *Handler {
	// Validated at load; nil falls back to local time.
	loc, _ := cfg.Location()
	return &Handler{
		config:   cfg,
		repo:     repo,
		reporter: reporter.New(repo, cfg.Report.TopN, loc),
		status:   status,
	}
}

func period(r *http.Request) string {
	if p := r.URL.Query().Get("period"); p != "" {
		return p
	}
	return "day"
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 {
			http.Error(w, fmt.Sprintf("invalid limit: %s", s), http.StatusBadRequest)
			return
		}
		limit = min(l, maxSessionLimit)
	}

	var (
		sessions []*models.Session
		err      error
	)
	if r.URL.Query().Get("period") != "" {
		p, perr := h.reporter.Period(period(r))
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		sessions, err = h.repo.GetSessionsSince(r.Context(), p.Start)
		if len(sessions) > limit {
			sessions = sessions[:limit]
		}
	} else {
		sessions, err = h.repo.GetRecentSessions(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch sessions: %v", err), http.StatusInternalServerError)
		return
	}

	if sessions == nil {
		sessions = []*models.Session{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleLatestSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.repo.GetLatest(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest session: %v", err), http.StatusInternalServerError)
		return
	}

	if session == nil {
		http.Error(w, "No sessions found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		respondJSON(w, http.StatusOK, tracker.Status{})
		return
	}

	st := h.status.Status()
	if r.Header.Get("HX-Request") == "true" {
		respondCurrentHTML(w, st)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func respondCurrentHTML(w http.ResponseWriter, st tracker.Status) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if st.Session == nil {
		w.Write([]byte(`<div class="loading">Tracker not running in this process</div>`))
		return
	}

	state := st.Session.State()
	if st.AFK {
		state = "AFK"
	}
	fmt.Fprintf(w, `<div class="app-item"><span class="app-name">%s</span><div><span class="app-time">%s</span><span class="app-percentage">%s</span></div></div><div class="total">%s</div>`,
		html.EscapeString(st.Session.AppName),
		utils.FormatDuration(st.Session.Duration),
		state,
		html.EscapeString(st.Session.Window()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.GenerateReport(r.Context(), period(r))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.GenerateReport(r.Context(), period(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		respondSummaryHTML(w, report)
		return
	}

	response := map[string]interface{}{
		"period":        report.Period,
		"apps":          report.Apps,
		"total_seconds": report.TotalSeconds,
		"total_minutes": report.TotalMinutes,
		"total_hours":   report.TotalHours,
		"afk_seconds":   report.AFKSeconds,
		"idle_seconds":  report.IdleSeconds,
	}

	respondJSON(w, http.StatusOK, response)
}

func respondSummaryHTML(w http.ResponseWriter, report *reporter.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Apps) == 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, app := range report.Apps {
		percentStr := fmt.Sprintf("%.1f%%", app.Percentage)
		if app.Percentage < 10 {
			percentStr = "&nbsp;&nbsp;" + percentStr
		} else if app.Percentage < 100 {
			percentStr = "&nbsp;" + percentStr
		}

		fmt.Fprintf(&b, `
		<div class="app-item" style="--bar-width: %.1f%%">
			<span class="app-name">%s</span>
			<div>
				<span class="app-time">%s</span>
				<span class="app-percentage">%s</span>
			</div>
		</div>`, app.Percentage, html.EscapeString(app.AppName), utils.FormatRoundedUnit(app.TotalSeconds), percentStr)
	}
	b.WriteString(`</div>`)

	fmt.Fprintf(&b, `<div class="total">Total: %s</div>`, utils.FormatRoundedUnit(report.TotalSeconds))

	w.Write([]byte(b.String()))
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.GenerateReport(r.Context(), period(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var data any
	switch kind := mux.Vars(r)["kind"]; kind {
	case "browsers":
		data = report.Browsers
	case "projects":
		data = report.Projects
	case "terminals":
		data = report.Terminals
	case "files":
		data = report.Files
	case "hierarchy":
		data = report.Hierarchy
	default:
		http.Error(w, fmt.Sprintf("unknown breakdown: %s", kind), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	custom, err := h.repo.GetCustomCategories(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list categories: %v", err), http.StatusInternalServerError)
		return
	}
	if custom == nil {
		custom = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"custom": custom})
}

func (h *Handler) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.repo.ListOverrides(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list overrides: %v", err), http.StatusInternalServerError)
		return
	}
	if overrides == nil {
		overrides = []models.Override{}
	}
	respondJSON(w, http.StatusOK, overrides)
}

// OverrideRequest renames and/or categorizes one field value.
type OverrideRequest struct {
	Field    string `json:"field"`
	Original string `json:"original"`
	Renamed  string `json:"renamed,omitempty"`
	Category string `json:"category,omitempty"`
}

func (h *Handler) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if !models.IsOverrideField(req.Field) {
		http.Error(w, fmt.Sprintf("unknown field: %q", req.Field), http.StatusBadRequest)
		return
	}
	if req.Original == "" || (req.Renamed == "" && req.Category == "") {
		http.Error(w, "original and one of renamed or category are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var (
		affected int64
		err      error
	)
	switch {
	case req.Field == models.FieldAppName && req.Renamed != "":
		affected, err = h.repo.RenameApp(ctx, req.Original, req.Renamed, req.Category)
	default:
		if req.Renamed != "" {
			affected, err = h.repo.RenameField(ctx, req.Field, req.Original, req.Renamed)
		}
		if err == nil && req.Category != "" {
			var n int64
			n, err = h.repo.CategorizeField(ctx, req.Field, req.Original, req.Category)
			affected = max(affected, n)
		}
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to save override: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"field":    req.Field,
		"original": req.Original,
		"updated":  affected,
	})
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	logs, err := h.repo.GetRecentErrors(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []models.ErrorLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest, _ := h.repo.GetLatest(r.Context())

	status := map[string]interface{}{
		"running":        h.status != nil && h.status.Status().Running,
		"poll_interval":  h.config.Tracker.PollInterval.String(),
		"afk_threshold":  h.config.Tracker.AFKThreshold.String(),
		"idle_threshold": h.config.Tracker.IdleThreshold.String(),
		"database_path":  h.config.Database.Path,
	}

	if latest != nil {
		status["latest_session"] = map[string]interface{}{
			"app_name":    latest.AppName,
			"window_name": latest.Window(),
			"start_time":  latest.StartTime,
			"duration":    latest.Duration,
			"is_afk":      latest.AFK(),
			"is_idle":     latest.Idle(),
		}
	}

	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

func respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}
