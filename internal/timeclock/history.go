package timeclock

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"TEMPO-backend/internal/platform/db"
)

const (
	SortClockedAtDesc  = "clocked_at_desc"
	SortClockedAtAsc   = "clocked_at_asc"
	SortAttendedOnDesc = "attended_on_desc"
	SortAttendedOnAsc  = "attended_on_asc"
	DefaultPageLimit   = 50
	MaxPageLimit       = 200
	DefaultSort        = SortClockedAtDesc
)

type HistoryQuery struct {
	EmployeeID *int64
	On         *string
	From       *string
	To         *string
	Limit      int
	Offset     int
	Sort       string
}

type HistoryRow struct {
	HistoryID      int64   `json:"history_id"`
	EmployeeID     int64   `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	EmployeeNumber *string `json:"employee_number,omitempty"`
	PropertyName   string  `json:"property_name"`
	AreaName       string  `json:"area_name"`
	Kind           string  `json:"kind"`
	AttendedOn     string  `json:"attended_on"`
	ClockedAt      string  `json:"clocked_at"`
	PhotoRef       *string `json:"photo_ref,omitempty"`
}

// listHistory: 条件に応じて動的WHERE + ORDER + LIMIT/OFFSET
func listHistory(ctx context.Context, dbtx db.DBTX, q HistoryQuery) ([]HistoryRow, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(`
SELECT history_id, employee_id, employee_name, employee_number,
       property_name, area_name, kind,
       DATE_FORMAT(attended_on, '%Y-%m-%d'),
       TIME_FORMAT(clocked_at, '%H:%i:%s'),
       photo_ref
FROM attendance_history
`)
	if q.EmployeeID != nil {
		wheres = append(wheres, "employee_id = ?")
		args = append(args, *q.EmployeeID)
	}
	if q.On != nil && *q.On != "" {
		wheres = append(wheres, "attended_on = ?")
		args = append(args, *q.On)
	} else {
		if q.From != nil && *q.From != "" {
			wheres = append(wheres, "attended_on >= ?")
			args = append(args, *q.From)
		}
		if q.To != nil && *q.To != "" {
			wheres = append(wheres, "attended_on <= ?")
			args = append(args, *q.To)
		}
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}

	switch q.Sort {
	case SortClockedAtAsc:
		buf.WriteString(" ORDER BY attended_on ASC, clocked_at ASC, history_id ASC")
	case SortAttendedOnDesc:
		buf.WriteString(" ORDER BY attended_on DESC, clocked_at DESC, history_id DESC")
	case SortAttendedOnAsc:
		buf.WriteString(" ORDER BY attended_on ASC, clocked_at ASC, history_id ASC")
	default:
		buf.WriteString(" ORDER BY attended_on DESC, clocked_at DESC, history_id DESC")
	}

	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset))

	rows, err := dbtx.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		if err := rows.Scan(
			&r.HistoryID,
			&r.EmployeeID,
			&r.EmployeeName,
			&r.EmployeeNumber,
			&r.PropertyName,
			&r.AreaName,
			&r.Kind,
			&r.AttendedOn,
			&r.ClockedAt,
			&r.PhotoRef,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// COUNT（ORDER BY より前までを再構築）
	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM attendance_history")
	if len(wheres) > 0 {
		cntBuf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := dbtx.QueryRowContext(ctx, cntBuf.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
