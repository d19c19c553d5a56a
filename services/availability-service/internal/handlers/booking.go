package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/calendso/calendso-sub002/services/availability-service/internal/availability"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/model"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/outbox"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/storage"
	"github.com/jackc/pgx/v5"
)

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	schedules  ScheduleSource
	logger     *slog.Logger
	now        func() time.Time
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, schedules ScheduleSource, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		schedules:  schedules,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type createBookingRequest struct {
	Username      string `json:"username"`
	Title         string `json:"title"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type createBookingResponse struct {
	BookingID string `json:"booking_id"`
}

type cancelBookingRequest struct {
	Username  string `json:"username"`
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

type cancelBookingResponse struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

type listBookingItem struct {
	BookingID   string `json:"booking_id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Route dispatches /api/v1/bookings by method.
func (h *BookingHandler) Route(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.Create(w, r)
	case http.MethodGet:
		h.List(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Title = strings.TrimSpace(req.Title)
	req.AttendeeName = strings.TrimSpace(req.AttendeeName)
	if req.Username == "" || req.AttendeeName == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !endTime.After(startTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	booking := &model.Booking{
		Username:      req.Username,
		Title:         req.Title,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: strings.TrimSpace(req.AttendeeEmail),
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		Status:        "booked",
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, booking.Username, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			if len(rec.ResponsePayload) > 0 {
				_, _ = w.Write(rec.ResponsePayload)
				return
			}
			_ = json.NewEncoder(w).Encode(createBookingResponse{BookingID: rec.BookingID})
			return
		}
	}

	ok, err := h.withinAvailability(ctx, booking)
	if err != nil {
		http.Error(w, "failed to resolve availability", http.StatusInternalServerError)
		return
	}
	if !ok {
		const msg = "requested time is outside availability"
		if idempotencyKey != "" && h.finalizeIdempotencyError(ctx, tx, booking.Username, idempotencyKey, http.StatusUnprocessableEntity, msg) {
			_ = tx.Commit(ctx)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
		return
	}

	id, err := h.repo.Create(ctx, tx, booking)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"booking_id":     id,
		"username":       booking.Username,
		"title":          booking.Title,
		"attendee_email": booking.AttendeeEmail,
		"start_time":     booking.StartTime.Format(time.RFC3339),
		"end_time":       booking.EndTime.Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   id,
		EventType:     outbox.EventBookingCreated,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(createBookingResponse{BookingID: id})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, booking.Username, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// withinAvailability re-resolves the organizer's free windows for the
// booking date and checks the requested interval is fully contained in
// one of them. Only committed bookings count as busy here: a hold is
// typically placed by the same visitor who is now booking the slot, and
// the exclusion constraint catches booking races anyway.
func (h *BookingHandler) withinAvailability(ctx context.Context, booking *model.Booking) (bool, error) {
	schedule, err := h.schedules.ScheduleForUser(ctx, booking.Username)
	if err != nil {
		return false, err
	}

	// The organizer's local date may differ from the UTC date, so try
	// the UTC date and its neighbors.
	from := availability.DateOf(booking.StartTime.UTC().AddDate(0, 0, -1))
	to := availability.DateOf(booking.EndTime.UTC().AddDate(0, 0, 1))

	busyFrom := from.In(time.UTC).AddDate(0, 0, -1)
	busyTo := to.Next().In(time.UTC).AddDate(0, 0, 1)
	users := []string{booking.Username}
	busy, err := h.repo.BusyIntervals(ctx, users, busyFrom, busyTo)
	if err != nil {
		return false, err
	}

	free, err := availability.FreeRanges(
		[]availability.Participant{{Schedule: schedule, Busy: busy}},
		from, to, h.now(),
	)
	if err != nil {
		return false, err
	}
	for _, f := range free {
		if !booking.StartTime.Before(f.Start) && !booking.EndTime.After(f.End) {
			return true, nil
		}
	}
	return false, nil
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Username == "" || req.BookingID == "" {
		http.Error(w, "username and booking_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetForUpdate(ctx, tx, req.Username, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	if booking.Status == "cancelled" && booking.CancelledAt != nil {
		h.writeCancelResponse(w, booking.ID, booking.CancelledAt.UTC())
		return
	}
	if booking.Status != "booked" {
		http.Error(w, "booking cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.repo.Cancel(ctx, tx, req.Username, booking.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	cancelPayload, err := json.Marshal(map[string]any{
		"booking_id":   booking.ID,
		"username":     booking.Username,
		"start_time":   booking.StartTime.UTC().Format(time.RFC3339),
		"end_time":     booking.EndTime.UTC().Format(time.RFC3339),
		"cancelled_at": cancelledAt.UTC().Format(time.RFC3339),
		"reason":       req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     outbox.EventBookingCancelled,
		Payload:       cancelPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeCancelResponse(w, booking.ID, cancelledAt.UTC())
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	bookings, err := h.repo.ListByUser(r.Context(), username, limit)
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	items := make([]listBookingItem, 0, len(bookings))
	for _, b := range bookings {
		item := listBookingItem{
			BookingID: b.ID,
			Title:     b.Title,
			StartTime: b.StartTime.UTC().Format(time.RFC3339),
			EndTime:   b.EndTime.UTC().Format(time.RFC3339),
			Status:    b.Status,
			CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if b.CancelledAt != nil {
			item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

func (h *BookingHandler) writeCancelResponse(w http.ResponseWriter, bookingID string, cancelledAt time.Time) {
	resp := cancelBookingResponse{
		BookingID:   bookingID,
		Status:      "cancelled",
		CancelledAt: cancelledAt.Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *BookingHandler) finalizeIdempotencyError(ctx context.Context, tx pgx.Tx, username, key string, statusCode int, msg string) bool {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return false
	}
	if err := h.repo.FinalizeIdempotency(ctx, tx, username, key, "", statusCode, body); err != nil {
		h.logger.Error("failed to finalize idempotency (error)", "err", err)
		return false
	}
	return true
}
