package storage

import (
	"context"
	"errors"
	"time"

	"github.com/calendso/calendso-sub002/libs/db"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/availability"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	Username        string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, username, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, username, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (username, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (username, idempotency_key) DO NOTHING
	`, username, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, username, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, username, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE username = $1 AND idempotency_key = $2
	`, username, key, bookingID, statusCode, response)
	return err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(username, title, attendee_name, attendee_email, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, b.Username, b.Title, b.AttendeeName, b.AttendeeEmail, b.StartTime, b.EndTime, b.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, username, bookingID string) (model.Booking, error) {
	var b model.Booking
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT id, username, title, attendee_name, attendee_email,
			start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM bookings
		WHERE id = $1 AND username = $2
		FOR UPDATE
	`, bookingID, username).Scan(
		&b.ID,
		&b.Username,
		&b.Title,
		&b.AttendeeName,
		&b.AttendeeEmail,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&cancelledAt,
		&b.CancelReason,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.CancelledAt = cancelledAt
	return b, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, username, bookingID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND username = $2
		RETURNING cancelled_at
	`, bookingID, username, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// BusyIntervals returns the booked intervals overlapping [from, to) for
// the given users. Cancelled bookings do not block.
func (r *BookingRepository) BusyIntervals(ctx context.Context, usernames []string, from, to time.Time) ([]availability.TimeRange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE username = ANY($1)
			AND status = 'booked'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, usernames, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var busy []availability.TimeRange
	for rows.Next() {
		var tr availability.TimeRange
		if err := rows.Scan(&tr.Start, &tr.End); err != nil {
			return nil, err
		}
		busy = append(busy, tr)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return busy, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, username string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, title, attendee_name, attendee_email,
			start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM bookings
		WHERE username = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		var cancelledAt *time.Time
		if err := rows.Scan(
			&b.ID,
			&b.Username,
			&b.Title,
			&b.AttendeeName,
			&b.AttendeeEmail,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&cancelledAt,
			&b.CancelReason,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.CancelledAt = cancelledAt
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, username, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT username,
			idempotency_key,
			COALESCE(booking_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE username = $1 AND idempotency_key = $2
		FOR UPDATE
	`, username, key).Scan(
		&rec.Username,
		&rec.IdempotencyKey,
		&rec.BookingID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
