package storage

import (
	"context"
	"time"

	"github.com/calendso/calendso-sub002/libs/db"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/availability"
	"github.com/calendso/calendso-sub002/services/availability-service/internal/model"
	"github.com/google/uuid"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// GetOrCreate returns the user's schedule, creating a default Mon-Fri
// 09:00-17:00 UTC one on first access.
func (r *ScheduleRepository) GetOrCreate(ctx context.Context, username string) (model.ScheduleRecord, error) {
	var rec model.ScheduleRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, name, timezone, created_at
		FROM schedules
		WHERE username = $1
	`, username).Scan(&rec.ID, &rec.Username, &rec.Name, &rec.TimeZone, &rec.CreatedAt)
	if err == nil {
		return rec, nil
	}
	if !IsNotFound(err) {
		return model.ScheduleRecord{}, err
	}

	id := uuid.NewString()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO schedules (id, username, name, timezone)
		VALUES ($1, $2, 'Working Hours', 'UTC')
		ON CONFLICT (username) DO NOTHING
	`, id, username)
	if err != nil {
		return model.ScheduleRecord{}, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT id::text, username, name, timezone, created_at
		FROM schedules
		WHERE username = $1
	`, username).Scan(&rec.ID, &rec.Username, &rec.Name, &rec.TimeZone, &rec.CreatedAt)
	if err != nil {
		return model.ScheduleRecord{}, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO schedule_items (id, schedule_id, days, start_minute, end_minute)
		SELECT $1, $2, '{1,2,3,4,5}'::int[], 540, 1020
		WHERE NOT EXISTS (SELECT 1 FROM schedule_items WHERE schedule_id = $2)
	`, uuid.NewString(), rec.ID)
	if err != nil {
		return model.ScheduleRecord{}, err
	}
	return rec, nil
}

func (r *ScheduleRepository) UpdateTimeZone(ctx context.Context, username, timezone string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET timezone = $2 WHERE username = $1
	`, username, timezone)
	return err
}

func (r *ScheduleRepository) ListItems(ctx context.Context, scheduleID string) ([]model.ScheduleItemRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, schedule_id::text, COALESCE(days, '{}'::int[]), start_minute, end_minute, date
		FROM schedule_items
		WHERE schedule_id = $1
		ORDER BY date NULLS FIRST, id
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.ScheduleItemRecord
	for rows.Next() {
		var it model.ScheduleItemRecord
		if err := rows.Scan(&it.ID, &it.ScheduleID, &it.Days, &it.StartMinute, &it.EndMinute, &it.Date); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// ReplaceWeeklyRules swaps the weekly-rule rows of a schedule in one
// transaction. Override rows (date IS NOT NULL) are untouched.
func (r *ScheduleRepository) ReplaceWeeklyRules(ctx context.Context, scheduleID string, rules []model.ScheduleItemRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM schedule_items WHERE schedule_id = $1 AND date IS NULL
	`, scheduleID); err != nil {
		return err
	}
	for _, rule := range rules {
		if _, err := tx.Exec(ctx, `
			INSERT INTO schedule_items (id, schedule_id, days, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), scheduleID, rule.Days, rule.StartMinute, rule.EndMinute); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// UpsertOverride replaces any existing override for the same date.
// start == end marks the whole day unavailable.
func (r *ScheduleRepository) UpsertOverride(ctx context.Context, scheduleID string, date time.Time, startMinute, endMinute int) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM schedule_items WHERE schedule_id = $1 AND date = $2
	`, scheduleID, date); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO schedule_items (id, schedule_id, start_minute, end_minute, date)
		VALUES ($1, $2, $3, $4, $5)
	`, id, scheduleID, startMinute, endMinute, date); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *ScheduleRepository) DeleteOverride(ctx context.Context, scheduleID, itemID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM schedule_items WHERE schedule_id = $1 AND id = $2 AND date IS NOT NULL
	`, scheduleID, itemID)
	return err
}

// ScheduleForUser loads a user's schedule in engine shape.
func (r *ScheduleRepository) ScheduleForUser(ctx context.Context, username string) (availability.Schedule, error) {
	rec, err := r.GetOrCreate(ctx, username)
	if err != nil {
		return availability.Schedule{}, err
	}
	items, err := r.ListItems(ctx, rec.ID)
	if err != nil {
		return availability.Schedule{}, err
	}
	return availability.Schedule{
		TimeZone: rec.TimeZone,
		Items:    toEngineItems(items),
	}, nil
}

func toEngineItems(items []model.ScheduleItemRecord) []availability.ScheduleItem {
	out := make([]availability.ScheduleItem, 0, len(items))
	for _, it := range items {
		if it.Date != nil {
			out = append(out, availability.DateOverride{
				Date:        availability.DateOf(*it.Date),
				StartMinute: it.StartMinute,
				EndMinute:   it.EndMinute,
			})
			continue
		}
		days := make([]time.Weekday, 0, len(it.Days))
		for _, d := range it.Days {
			if d >= 0 && d <= 6 {
				days = append(days, time.Weekday(d))
			}
		}
		out = append(out, availability.WeeklyRule{
			Days:        days,
			StartMinute: it.StartMinute,
			EndMinute:   it.EndMinute,
		})
	}
	return out
}
