package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/calendso/calendso-sub002/services/availability-service/internal/availability"
)

type SlotsHandler struct {
	schedules ScheduleSource
	bookings  BusySource
	holds     BusySource
	placer    HoldPlacer
	logger    *slog.Logger
	now       func() time.Time
}

func NewSlotsHandler(schedules ScheduleSource, bookings, holds BusySource, placer HoldPlacer, logger *slog.Logger) *SlotsHandler {
	return &SlotsHandler{
		schedules: schedules,
		bookings:  bookings,
		holds:     holds,
		placer:    placer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type slotItem struct {
	Time string `json:"time"`
}

type slotsResponse struct {
	Slots map[string][]slotItem `json:"slots"`
}

// Resolve handles GET /api/v1/slots. The response groups slot start
// times by calendar date in the viewer's timezone; formatting lives
// here, never in the engine.
func (h *SlotsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	usernames := splitUsernames(r.URL.Query().Get("usernames"))
	if len(usernames) == 0 {
		http.Error(w, "usernames is required", http.StatusBadRequest)
		return
	}

	from, to, err := parseDateWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := parseSlotQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	viewerZone := strings.TrimSpace(r.URL.Query().Get("timezone"))
	if viewerZone == "" {
		viewerZone = "UTC"
	}
	viewerLoc, err := time.LoadLocation(viewerZone)
	if err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}

	now := h.now()
	participants, err := h.loadParticipants(r, usernames, from, to, now)
	if err != nil {
		h.logger.Error("participant load failed", "err", err)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	slots, err := availability.ResolveSlots(participants, from, to, q, now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := slotsResponse{Slots: make(map[string][]slotItem)}
	for _, s := range slots {
		local := s.In(viewerLoc)
		key := local.Format("2006-01-02")
		resp.Slots[key] = append(resp.Slots[key], slotItem{Time: local.Format(time.RFC3339)})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// loadParticipants fetches schedules concurrently (the stages before
// intersection are independent per participant) and attaches each
// user's busy intervals. The busy fetch window is padded by a day on
// both sides so timezone offsets cannot push a blocking interval out
// of range.
func (h *SlotsHandler) loadParticipants(r *http.Request, usernames []string, from, to availability.Date, now time.Time) ([]availability.Participant, error) {
	ctx := r.Context()
	busyFrom := from.In(time.UTC).AddDate(0, 0, -1)
	busyTo := to.Next().In(time.UTC).AddDate(0, 0, 1)

	participants := make([]availability.Participant, len(usernames))
	errs := make([]error, len(usernames))
	var wg sync.WaitGroup
	for i, username := range usernames {
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			schedule, err := h.schedules.ScheduleForUser(ctx, username)
			if err != nil {
				errs[i] = err
				return
			}
			busy, err := h.busyFor(ctx, username, busyFrom, busyTo)
			if err != nil {
				errs[i] = err
				return
			}
			participants[i] = availability.Participant{Schedule: schedule, Busy: busy}
		}(i, username)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return participants, nil
}

func (h *SlotsHandler) busyFor(ctx context.Context, username string, from, to time.Time) ([]availability.TimeRange, error) {
	users := []string{username}
	busy, err := h.bookings.BusyIntervals(ctx, users, from, to)
	if err != nil {
		return nil, err
	}
	if h.holds != nil {
		held, err := h.holds.BusyIntervals(ctx, users, from, to)
		if err != nil {
			return nil, err
		}
		busy = append(busy, held...)
	}
	return busy, nil
}

type holdRequest struct {
	Username  string `json:"username"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Hold handles POST /api/v1/slots/hold, reserving a slot for a short
// period while the visitor completes the booking flow.
func (h *SlotsHandler) Hold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.placer == nil {
		http.Error(w, "slot holds not available", http.StatusServiceUnavailable)
		return
	}

	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	if err := h.placer.Place(r.Context(), req.Username, start.UTC(), end.UTC()); err != nil {
		h.logger.Error("hold placement failed", "err", err)
		http.Error(w, "failed to place hold", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func splitUsernames(raw string) []string {
	var out []string
	for _, u := range strings.Split(raw, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func parseDateWindow(r *http.Request) (availability.Date, availability.Date, error) {
	from, err := availability.ParseDate(strings.TrimSpace(r.URL.Query().Get("date_from")))
	if err != nil {
		return availability.Date{}, availability.Date{}, errBadParam("date_from")
	}
	to, err := availability.ParseDate(strings.TrimSpace(r.URL.Query().Get("date_to")))
	if err != nil {
		return availability.Date{}, availability.Date{}, errBadParam("date_to")
	}
	if to.Before(from) {
		return availability.Date{}, availability.Date{}, errBadParam("date window: date_to before date_from")
	}
	return from, to, nil
}

func parseSlotQuery(r *http.Request) (availability.SlotQuery, error) {
	duration, err := minutesParam(r, "duration_minutes", 0)
	if err != nil || duration <= 0 {
		return availability.SlotQuery{}, errBadParam("duration_minutes")
	}
	interval, err := minutesParam(r, "slot_interval_minutes", duration)
	if err != nil {
		return availability.SlotQuery{}, errBadParam("slot_interval_minutes")
	}
	notice, err := minutesParam(r, "minimum_notice_minutes", 0)
	if err != nil {
		return availability.SlotQuery{}, errBadParam("minimum_notice_minutes")
	}
	before, err := minutesParam(r, "buffer_before_minutes", 0)
	if err != nil {
		return availability.SlotQuery{}, errBadParam("buffer_before_minutes")
	}
	after, err := minutesParam(r, "buffer_after_minutes", 0)
	if err != nil {
		return availability.SlotQuery{}, errBadParam("buffer_after_minutes")
	}
	return availability.SlotQuery{
		Duration:      time.Duration(duration) * time.Minute,
		Interval:      time.Duration(interval) * time.Minute,
		MinimumNotice: time.Duration(notice) * time.Minute,
		BufferBefore:  time.Duration(before) * time.Minute,
		BufferAfter:   time.Duration(after) * time.Minute,
	}, nil
}

func minutesParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errBadParam(name)
	}
	return n, nil
}

type errBadParam string

func (e errBadParam) Error() string { return "invalid " + string(e) }
