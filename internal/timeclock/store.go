package timeclock

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"TEMPO-backend/internal/platform/db"
)

// 打刻系の書き込みは全て同一Tx内で発行する前提。tx は db.RunInTx から渡す。

// findEmployeeByPINTx: 有効な従業員を PIN で解決し、リンク先の物件・エリア・
// 有効シフトまで一括で引く。シフトまで辿れなければ打刻対象外（nil）。
func findEmployeeByPINTx(ctx context.Context, tx db.DBTX, pin string) (*EmployeeSchedule, error) {
	const q = `
SELECT e.employee_id,
       CONCAT(e.first_name, ' ', e.last_name) AS display_name,
       e.employee_number,
       pa.property_area_id,
       p.name AS property_name,
       a.name AS area_name,
       TIME_FORMAT(s.entry_time, '%H:%i:%s'),
       TIME_FORMAT(s.exit_time, '%H:%i:%s'),
       s.tolerance_minutes
FROM employees e
JOIN property_areas pa ON pa.property_area_id = e.property_area_id AND pa.active = 1
JOIN properties p ON p.property_id = pa.property_id AND p.active = 1
JOIN areas a ON a.area_id = pa.area_id AND a.active = 1
JOIN property_area_schedules pas ON pas.property_area_id = pa.property_area_id AND pas.active = 1
JOIN schedules s ON s.schedule_id = pas.schedule_id AND s.active = 1
WHERE e.pin = ? AND e.active = 1
LIMIT 1
`
	var es EmployeeSchedule
	err := tx.QueryRowContext(ctx, q, pin).Scan(
		&es.EmployeeID,
		&es.DisplayName,
		&es.EmployeeNumber,
		&es.PropertyAreaID,
		&es.PropertyName,
		&es.AreaName,
		&es.EntryTime,
		&es.ExitTime,
		&es.ToleranceMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &es, nil
}

// listDayRecordsTx: 当日分の打刻を時刻昇順で
func listDayRecordsTx(ctx context.Context, tx db.DBTX, employeeID int64, date string) ([]Record, error) {
	const q = `
SELECT kind, TIME_FORMAT(clocked_at, '%H:%i:%s')
FROM attendances
WHERE employee_id = ? AND attended_on = ?
ORDER BY clocked_at ASC
`
	rows, err := tx.QueryContext(ctx, q, employeeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Kind, &r.ClockedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func insertAttendanceTx(ctx context.Context, tx db.DBTX, employeeID int64, kind, date, clock string) (int64, error) {
	const q = `
INSERT INTO attendances (employee_id, kind, attended_on, clocked_at)
VALUES (?, ?, ?, ?)
`
	res, err := tx.ExecContext(ctx, q, employeeID, kind, date, clock)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// insertHistoryTx: 打刻時点の名前・物件・エリアをスナップショットで残す。
// 後からのリネームで履歴表示が書き換わらないようにするため非正規化している。
func insertHistoryTx(ctx context.Context, tx db.DBTX, emp *EmployeeSchedule, kind, date, clock string) error {
	const q = `
INSERT INTO attendance_history
(employee_id, employee_name, employee_number, property_name, area_name, kind, attended_on, clocked_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	_, err := tx.ExecContext(ctx, q,
		emp.EmployeeID,
		emp.DisplayName,
		emp.EmployeeNumber,
		emp.PropertyName,
		emp.AreaName,
		kind,
		date,
		clock,
	)
	return err
}

func insertIncidenceTx(ctx context.Context, tx db.DBTX, employeeID int64, date string) error {
	const q = `
INSERT INTO incidences (employee_id, kind, incidence_on, justified)
VALUES (?, 'LATE', ?, 0)
`
	_, err := tx.ExecContext(ctx, q, employeeID, date)
	return err
}

func updateAttendancePhotoTx(ctx context.Context, tx db.DBTX, attendanceID int64, ref string) (int64, error) {
	const q = `UPDATE attendances SET photo_ref = ? WHERE attendance_id = ?`
	res, err := tx.ExecContext(ctx, q, ref, attendanceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// updateHistoryPhotoTx: 履歴側の同一打刻行にも参照を入れる
func updateHistoryPhotoTx(ctx context.Context, tx db.DBTX, attendanceID int64, ref string) error {
	const q = `
UPDATE attendance_history h
JOIN attendances a ON a.attendance_id = ?
SET h.photo_ref = ?
WHERE h.employee_id = a.employee_id
  AND h.attended_on = a.attended_on
  AND h.kind = a.kind
`
	_, err := tx.ExecContext(ctx, q, attendanceID, ref)
	return err
}

// isDuplicateKey: UNIQUE(employee_id, attended_on, kind) 違反の検出。
// 同一従業員の同時打刻はここで片方が弾かれる（MySQL error 1062）。
func isDuplicateKey(err error) bool {
	var my *mysql.MySQLError
	return errors.As(err, &my) && my.Number == 1062
}
