package area

import (
	"context"
	"database/sql"
	"errors"

	"TEMPO-backend/internal/platform/db"
)

func insertAreaTx(ctx context.Context, tx db.DBTX, name string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO areas (name, active) VALUES (?, 1)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertLinkTx(ctx context.Context, tx db.DBTX, propertyID, areaID int64) (int64, error) {
	const q = `INSERT INTO property_areas (property_id, area_id, active) VALUES (?, ?, 1)`
	res, err := tx.ExecContext(ctx, q, propertyID, areaID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func propertyExistsTx(ctx context.Context, tx db.DBTX, propertyID int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM properties WHERE property_id = ? AND active = 1`, propertyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func listActive(ctx context.Context, dbtx db.DBTX, propertyID int64) ([]AreaResponse, error) {
	q := `
SELECT a.area_id, a.name, pa.property_area_id, p.property_id, p.name, a.active
FROM areas a
JOIN property_areas pa ON pa.area_id = a.area_id AND pa.active = 1
JOIN properties p ON p.property_id = pa.property_id AND p.active = 1
WHERE a.active = 1
`
	args := []any{}
	if propertyID > 0 {
		q += ` AND p.property_id = ?`
		args = append(args, propertyID)
	}
	q += ` ORDER BY pa.property_area_id ASC`

	rows, err := dbtx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AreaResponse
	for rows.Next() {
		var a AreaResponse
		if err := rows.Scan(&a.AreaID, &a.Name, &a.PropertyAreaID, &a.PropertyID, &a.PropertyName, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// getByLinkID は property_areas 経由で 1 件取得。見つからなければ nil。
func getByLinkID(ctx context.Context, dbtx db.DBTX, linkID int64) (*AreaResponse, error) {
	const q = `
SELECT a.area_id, a.name, pa.property_area_id, p.property_id, p.name, a.active
FROM property_areas pa
JOIN areas a ON a.area_id = pa.area_id
JOIN properties p ON p.property_id = pa.property_id
WHERE pa.property_area_id = ? AND pa.active = 1
LIMIT 1
`
	var a AreaResponse
	err := dbtx.QueryRowContext(ctx, q, linkID).Scan(
		&a.AreaID, &a.Name, &a.PropertyAreaID, &a.PropertyID, &a.PropertyName, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func updateAreaNameTx(ctx context.Context, tx db.DBTX, areaID int64, name string) error {
	_, err := tx.ExecContext(ctx, `UPDATE areas SET name = ? WHERE area_id = ?`, name, areaID)
	return err
}

func moveLinkTx(ctx context.Context, tx db.DBTX, linkID, propertyID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE property_areas SET property_id = ? WHERE property_area_id = ?`, propertyID, linkID)
	return err
}

func unassignEmployeesTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE employees SET property_area_id = NULL WHERE property_area_id = ?`, linkID)
	return err
}

// listScheduleIDsTx はリンクに紐付く有効なシフト ID を返す
func listScheduleIDsTx(ctx context.Context, tx db.DBTX, linkID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT schedule_id FROM property_area_schedules WHERE property_area_id = ? AND active = 1`, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func deactivateScheduleTx(ctx context.Context, tx db.DBTX, scheduleID int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE schedules SET active = 0 WHERE schedule_id = ?`, scheduleID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE schedule_days SET active = 0 WHERE schedule_id = ?`, scheduleID)
	return err
}

func deactivateScheduleLinksTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE property_area_schedules SET active = 0 WHERE property_area_id = ?`, linkID)
	return err
}

func deactivateLinkTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE property_areas SET active = 0 WHERE property_area_id = ?`, linkID)
	return err
}

func deactivateAreaTx(ctx context.Context, tx db.DBTX, areaID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE areas SET active = 0 WHERE area_id = ?`, areaID)
	return err
}

// countLinksForAreaTx: エリアが他の物件からも参照されているか（共有エリアは本体を消さない）
func countLinksForAreaTx(ctx context.Context, tx db.DBTX, areaID int64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM property_areas WHERE area_id = ? AND active = 1`, areaID).Scan(&n)
	return n, err
}
