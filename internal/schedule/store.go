package schedule

import (
	"context"
	"database/sql"
	"errors"

	"TEMPO-backend/internal/platform/db"
)

func insertScheduleTx(ctx context.Context, tx db.DBTX, req CreateScheduleRequest) (int64, error) {
	const q = `
INSERT INTO schedules (name, entry_time, exit_time, tolerance_minutes, schedule_type, active)
VALUES (?, ?, ?, ?, ?, 1)
`
	res, err := tx.ExecContext(ctx, q,
		req.Name, req.EntryTime, req.ExitTime, req.ToleranceMinutes, req.ScheduleType)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDaysTx(ctx context.Context, tx db.DBTX, scheduleID int64, weekdays []int) error {
	const q = `INSERT INTO schedule_days (schedule_id, weekday, active) VALUES (?, ?, 1)`
	for _, d := range weekdays {
		if _, err := tx.ExecContext(ctx, q, scheduleID, d); err != nil {
			return err
		}
	}
	return nil
}

func deleteDaysTx(ctx context.Context, tx db.DBTX, scheduleID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM schedule_days WHERE schedule_id = ?`, scheduleID)
	return err
}

func insertBindingTx(ctx context.Context, tx db.DBTX, linkID, scheduleID int64) error {
	const q = `INSERT INTO property_area_schedules (property_area_id, schedule_id, active) VALUES (?, ?, 1)`
	_, err := tx.ExecContext(ctx, q, linkID, scheduleID)
	return err
}

func deactivateBindingTx(ctx context.Context, tx db.DBTX, scheduleID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE property_area_schedules SET active = 0 WHERE schedule_id = ?`, scheduleID)
	return err
}

// linkHasScheduleTx: リンクに有効なシフトが既に張られているか。
// exceptScheduleID は編集中の自分自身を除外する（0 で除外なし）。
func linkHasScheduleTx(ctx context.Context, tx db.DBTX, linkID, exceptScheduleID int64) (bool, error) {
	const q = `
SELECT 1 FROM property_area_schedules
WHERE property_area_id = ? AND active = 1 AND schedule_id <> ?
LIMIT 1
`
	var one int
	err := tx.QueryRowContext(ctx, q, linkID, exceptScheduleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func linkExistsTx(ctx context.Context, tx db.DBTX, linkID int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM property_areas WHERE property_area_id = ? AND active = 1`, linkID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

const selectSchedule = `
SELECT s.schedule_id, s.name,
       TIME_FORMAT(s.entry_time, '%H:%i:%s'), TIME_FORMAT(s.exit_time, '%H:%i:%s'),
       s.tolerance_minutes, s.schedule_type,
       pas.property_area_id, COALESCE(p.name, ''), COALESCE(a.name, ''), s.active
FROM schedules s
JOIN property_area_schedules pas ON pas.schedule_id = s.schedule_id AND pas.active = 1
JOIN property_areas pa ON pa.property_area_id = pas.property_area_id
JOIN properties p ON p.property_id = pa.property_id
JOIN areas a ON a.area_id = pa.area_id
`

func listActive(ctx context.Context, dbtx db.DBTX) ([]ScheduleResponse, error) {
	q := selectSchedule + ` WHERE s.active = 1 ORDER BY s.schedule_id ASC`
	rows, err := dbtx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleResponse
	for rows.Next() {
		var s ScheduleResponse
		if err := rows.Scan(&s.ScheduleID, &s.Name, &s.EntryTime, &s.ExitTime,
			&s.ToleranceMinutes, &s.ScheduleType, &s.PropertyAreaID,
			&s.PropertyName, &s.AreaName, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		days, err := listDays(ctx, dbtx, out[i].ScheduleID)
		if err != nil {
			return nil, err
		}
		out[i].Weekdays = days
	}
	return out, nil
}

func getByID(ctx context.Context, dbtx db.DBTX, id int64) (*ScheduleResponse, error) {
	q := selectSchedule + ` WHERE s.schedule_id = ? LIMIT 1`
	var s ScheduleResponse
	err := dbtx.QueryRowContext(ctx, q, id).Scan(&s.ScheduleID, &s.Name, &s.EntryTime, &s.ExitTime,
		&s.ToleranceMinutes, &s.ScheduleType, &s.PropertyAreaID,
		&s.PropertyName, &s.AreaName, &s.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	days, err := listDays(ctx, dbtx, s.ScheduleID)
	if err != nil {
		return nil, err
	}
	s.Weekdays = days
	return &s, nil
}

func listDays(ctx context.Context, dbtx db.DBTX, scheduleID int64) ([]int, error) {
	rows, err := dbtx.QueryContext(ctx,
		`SELECT weekday FROM schedule_days WHERE schedule_id = ? AND active = 1 ORDER BY weekday ASC`,
		scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func updateScheduleTx(ctx context.Context, tx db.DBTX, id int64, req UpdateScheduleRequest) error {
	const q = `
UPDATE schedules
SET name = ?, entry_time = ?, exit_time = ?, tolerance_minutes = ?, schedule_type = ?
WHERE schedule_id = ?
`
	_, err := tx.ExecContext(ctx, q,
		req.Name, req.EntryTime, req.ExitTime, req.ToleranceMinutes, req.ScheduleType, id)
	return err
}

func deactivateScheduleTx(ctx context.Context, tx db.DBTX, id int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE schedules SET active = 0 WHERE schedule_id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE schedule_days SET active = 0 WHERE schedule_id = ?`, id)
	return err
}

func unassignEmployeesByLinkTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE employees SET property_area_id = NULL WHERE property_area_id = ?`, linkID)
	return err
}

// listAvailableLinks: 有効なシフトがまだ張られていないリンク。
// exceptScheduleID > 0 なら、そのシフトが現在張っているリンクも候補に含める（編集用）。
func listAvailableLinks(ctx context.Context, dbtx db.DBTX, exceptScheduleID int64) ([]LinkOption, error) {
	const q = `
SELECT pa.property_area_id, p.property_id, p.name, a.name
FROM property_areas pa
JOIN properties p ON p.property_id = pa.property_id AND p.active = 1
JOIN areas a ON a.area_id = pa.area_id AND a.active = 1
WHERE pa.active = 1
  AND NOT EXISTS (
    SELECT 1 FROM property_area_schedules pas
    WHERE pas.property_area_id = pa.property_area_id
      AND pas.active = 1
      AND pas.schedule_id <> ?
  )
ORDER BY p.name ASC, a.name ASC
`
	rows, err := dbtx.QueryContext(ctx, q, exceptScheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LinkOption
	for rows.Next() {
		var o LinkOption
		if err := rows.Scan(&o.PropertyAreaID, &o.PropertyID, &o.PropertyName, &o.AreaName); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
