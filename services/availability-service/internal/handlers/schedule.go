package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/calendso/calendso-sub002/services/availability-service/internal/model"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/storage"
)

type ScheduleHandler struct {
	repo   *storage.ScheduleRepository
	logger *slog.Logger
}

func NewScheduleHandler(repo *storage.ScheduleRepository, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{repo: repo, logger: logger}
}

func usernameParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("username"))
}

// Route dispatches /api/v1/schedules by method.
func (h *ScheduleHandler) Route(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Get(w, r)
	case http.MethodPut:
		h.Update(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Overrides dispatches /api/v1/schedules/overrides by method.
func (h *ScheduleHandler) Overrides(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateOverride(w, r)
	case http.MethodGet:
		h.ListOverrides(w, r)
	case http.MethodDelete:
		h.DeleteOverride(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type weeklyRuleItem struct {
	Days        []int `json:"days"`
	StartMinute int   `json:"start_minute"`
	EndMinute   int   `json:"end_minute"`
}

type overrideItem struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

type scheduleResponse struct {
	Username  string           `json:"username"`
	TimeZone  string           `json:"timezone"`
	Weekly    []weeklyRuleItem `json:"working_hours"`
	Overrides []overrideItem   `json:"date_overrides"`
}

// Get handles GET /api/v1/schedules. A default Mon-Fri 09:00-17:00 UTC
// schedule is created on first access.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username := usernameParam(r)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.GetOrCreate(r.Context(), username)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	items, err := h.repo.ListItems(r.Context(), rec.ID)
	if err != nil {
		http.Error(w, "failed to load schedule items", http.StatusInternalServerError)
		return
	}

	resp := scheduleResponse{
		Username:  rec.Username,
		TimeZone:  rec.TimeZone,
		Weekly:    []weeklyRuleItem{},
		Overrides: []overrideItem{},
	}
	for _, it := range items {
		if it.Date != nil {
			resp.Overrides = append(resp.Overrides, overrideItem{
				ID:          it.ID,
				Date:        it.Date.Format("2006-01-02"),
				StartMinute: it.StartMinute,
				EndMinute:   it.EndMinute,
			})
			continue
		}
		resp.Weekly = append(resp.Weekly, weeklyRuleItem{
			Days:        it.Days,
			StartMinute: it.StartMinute,
			EndMinute:   it.EndMinute,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type updateScheduleRequest struct {
	TimeZone string           `json:"timezone"`
	Weekly   []weeklyRuleItem `json:"working_hours"`
}

// Update handles PUT /api/v1/schedules, replacing the weekly rules and
// optionally the timezone. Overrides are managed separately.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username := usernameParam(r)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	rules := make([]model.ScheduleItemRecord, 0, len(req.Weekly))
	for _, rule := range req.Weekly {
		if !validMinutes(rule.StartMinute, rule.EndMinute) {
			http.Error(w, "invalid start_minute/end_minute", http.StatusBadRequest)
			return
		}
		for _, d := range rule.Days {
			if d < 0 || d > 6 {
				http.Error(w, "days must be between 0 and 6", http.StatusBadRequest)
				return
			}
		}
		rules = append(rules, model.ScheduleItemRecord{
			Days:        rule.Days,
			StartMinute: rule.StartMinute,
			EndMinute:   rule.EndMinute,
		})
	}

	rec, err := h.repo.GetOrCreate(r.Context(), username)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}

	if tz := strings.TrimSpace(req.TimeZone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			http.Error(w, "invalid timezone", http.StatusBadRequest)
			return
		}
		if err := h.repo.UpdateTimeZone(r.Context(), username, tz); err != nil {
			http.Error(w, "failed to update timezone", http.StatusInternalServerError)
			return
		}
	}

	if err := h.repo.ReplaceWeeklyRules(r.Context(), rec.ID, rules); err != nil {
		http.Error(w, "failed to update working hours", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createOverrideRequest struct {
	Date        string `json:"date"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

// CreateOverride handles POST /api/v1/schedules/overrides. An override
// with start_minute == end_minute blocks the whole date. A new override
// for a date that already has one replaces it.
func (h *ScheduleHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username := usernameParam(r)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	var req createOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	blocked := req.StartMinute == req.EndMinute
	if !blocked && !validMinutes(req.StartMinute, req.EndMinute) {
		http.Error(w, "invalid start_minute/end_minute", http.StatusBadRequest)
		return
	}
	if blocked && (req.StartMinute < 0 || req.StartMinute > 1440) {
		http.Error(w, "invalid start_minute/end_minute", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.GetOrCreate(r.Context(), username)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	id, err := h.repo.UpsertOverride(r.Context(), rec.ID, date, req.StartMinute, req.EndMinute)
	if err != nil {
		http.Error(w, "failed to create override", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

// ListOverrides handles GET /api/v1/schedules/overrides.
func (h *ScheduleHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.GetOrCreate(r.Context(), username)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	items, err := h.repo.ListItems(r.Context(), rec.ID)
	if err != nil {
		http.Error(w, "failed to load schedule items", http.StatusInternalServerError)
		return
	}

	overrides := []overrideItem{}
	for _, it := range items {
		if it.Date == nil {
			continue
		}
		overrides = append(overrides, overrideItem{
			ID:          it.ID,
			Date:        it.Date.Format("2006-01-02"),
			StartMinute: it.StartMinute,
			EndMinute:   it.EndMinute,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"date_overrides": overrides})
}

// DeleteOverride handles DELETE /api/v1/schedules/overrides?id=...
func (h *ScheduleHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username := usernameParam(r)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.GetOrCreate(r.Context(), username)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	if err := h.repo.DeleteOverride(r.Context(), rec.ID, id); err != nil {
		http.Error(w, "failed to delete override", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validMinutes(start, end int) bool {
	return start >= 0 && start < 1440 && end > 0 && end <= 1440 && start < end
}
