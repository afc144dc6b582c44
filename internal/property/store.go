package property

import (
	"context"
	"database/sql"
	"errors"

	"TEMPO-backend/internal/platform/db"
)

func insertPropertyTx(ctx context.Context, tx db.DBTX, name, address string) (int64, error) {
	const q = `INSERT INTO properties (name, address, active) VALUES (?, ?, 1)`
	res, err := tx.ExecContext(ctx, q, name, address)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func listActive(ctx context.Context, dbtx db.DBTX) ([]PropertyResponse, error) {
	const q = `
SELECT property_id, name, address, active
FROM properties
WHERE active = 1
ORDER BY property_id ASC
`
	rows, err := dbtx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PropertyResponse
	for rows.Next() {
		var p PropertyResponse
		if err := rows.Scan(&p.PropertyID, &p.Name, &p.Address, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func getByID(ctx context.Context, dbtx db.DBTX, id int64) (*PropertyResponse, error) {
	const q = `
SELECT property_id, name, address, active
FROM properties
WHERE property_id = ?
LIMIT 1
`
	var p PropertyResponse
	err := dbtx.QueryRowContext(ctx, q, id).Scan(&p.PropertyID, &p.Name, &p.Address, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func updatePropertyTx(ctx context.Context, tx db.DBTX, id int64, name, address string) (int64, error) {
	const q = `UPDATE properties SET name = ?, address = ? WHERE property_id = ?`
	res, err := tx.ExecContext(ctx, q, name, address, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func getNameTx(ctx context.Context, tx db.DBTX, id int64) (string, error) {
	var name string
	err := tx.QueryRowContext(ctx, `SELECT name FROM properties WHERE property_id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

func deactivatePropertyTx(ctx context.Context, tx db.DBTX, id int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE properties SET active = 0 WHERE property_id = ?`, id)
	return err
}

func listAreaLinkIDsTx(ctx context.Context, tx db.DBTX, propertyID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT property_area_id FROM property_areas WHERE property_id = ?`, propertyID)
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

func deactivateEmployeesByLinkTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE employees SET active = 0 WHERE property_area_id = ?`, linkID)
	return err
}

func deactivateUsersByLinkTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	const q = `
UPDATE users SET active = 0
WHERE employee_id IN (SELECT employee_id FROM employees WHERE property_area_id = ?)
`
	_, err := tx.ExecContext(ctx, q, linkID)
	return err
}

func unassignEmployeesByLinkTx(ctx context.Context, tx db.DBTX, linkID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE employees SET property_area_id = NULL WHERE property_area_id = ?`, linkID)
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
