package employee

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"TEMPO-backend/internal/platform/db"
)

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func insertEmployeeTx(ctx context.Context, tx db.DBTX, req CreateEmployeeRequest, pin string) (int64, error) {
	const q = `
INSERT INTO employees (first_name, last_name, employee_number, pin, property_area_id, active)
VALUES (?, ?, ?, ?, ?, 1)
`
	var number any
	if req.EmployeeNumber != "" {
		number = req.EmployeeNumber
	}
	res, err := tx.ExecContext(ctx, q, req.FirstName, req.LastName, number, pin, req.PropertyAreaID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func pinExistsTx(ctx context.Context, tx db.DBTX, pin string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM employees WHERE pin = ?`, pin).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// linkPropertyIDTx: リンクが有効なら属する property_id を返す。無効・不存在は 0。
func linkPropertyIDTx(ctx context.Context, dbtx db.DBTX, linkID int64) (int64, error) {
	var propertyID int64
	err := dbtx.QueryRowContext(ctx,
		`SELECT property_id FROM property_areas WHERE property_area_id = ? AND active = 1`,
		linkID).Scan(&propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return propertyID, err
}

const selectEmployee = `
SELECT e.employee_id, e.first_name, e.last_name, e.employee_number, e.pin,
       e.property_area_id, COALESCE(p.name, ''), COALESCE(a.name, ''), e.active
FROM employees e
LEFT JOIN property_areas pa ON pa.property_area_id = e.property_area_id
LEFT JOIN properties p ON p.property_id = pa.property_id
LEFT JOIN areas a ON a.area_id = pa.area_id
`

func scanEmployee(rows interface{ Scan(...any) error }) (EmployeeResponse, error) {
	var e EmployeeResponse
	var number sql.NullString
	var linkID sql.NullInt64
	err := rows.Scan(&e.EmployeeID, &e.FirstName, &e.LastName, &number, &e.PIN,
		&linkID, &e.PropertyName, &e.AreaName, &e.Active)
	if err != nil {
		return e, err
	}
	if number.Valid {
		e.EmployeeNumber = &number.String
	}
	if linkID.Valid {
		e.PropertyAreaID = &linkID.Int64
	}
	return e, nil
}

func listActive(ctx context.Context, dbtx db.DBTX, propertyID int64) ([]EmployeeResponse, error) {
	q := selectEmployee + ` WHERE e.active = 1`
	args := []any{}
	if propertyID > 0 {
		q += ` AND p.property_id = ?`
		args = append(args, propertyID)
	}
	q += ` ORDER BY e.employee_id ASC`

	rows, err := dbtx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeeResponse
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func getByID(ctx context.Context, dbtx db.DBTX, id int64) (*EmployeeResponse, error) {
	q := selectEmployee + ` WHERE e.employee_id = ? LIMIT 1`
	e, err := scanEmployee(dbtx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func updateEmployeeTx(ctx context.Context, tx db.DBTX, id int64, req UpdateEmployeeRequest) error {
	const q = `
UPDATE employees
SET first_name = ?, last_name = ?, employee_number = ?, property_area_id = ?
WHERE employee_id = ?
`
	var number any
	if req.EmployeeNumber != "" {
		number = req.EmployeeNumber
	}
	_, err := tx.ExecContext(ctx, q, req.FirstName, req.LastName, number, req.PropertyAreaID, id)
	return err
}

func deactivateEmployeeTx(ctx context.Context, tx db.DBTX, id int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE employees SET active = 0 WHERE employee_id = ?`, id)
	return err
}

func deactivateUserForEmployeeTx(ctx context.Context, tx db.DBTX, employeeID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET active = 0 WHERE employee_id = ?`, employeeID)
	return err
}

// listAreaLinks: 配置先候補。PROPERTY_ADMIN 用に物件で絞れる（0 で全件）。
func listAreaLinks(ctx context.Context, dbtx db.DBTX, propertyID int64) ([]AreaLinkOption, error) {
	q := `
SELECT pa.property_area_id, p.property_id, p.name, a.name
FROM property_areas pa
JOIN properties p ON p.property_id = pa.property_id AND p.active = 1
JOIN areas a ON a.area_id = pa.area_id AND a.active = 1
WHERE pa.active = 1
`
	args := []any{}
	if propertyID > 0 {
		q += ` AND p.property_id = ?`
		args = append(args, propertyID)
	}
	q += ` ORDER BY p.name ASC, a.name ASC`

	rows, err := dbtx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AreaLinkOption
	for rows.Next() {
		var o AreaLinkOption
		if err := rows.Scan(&o.PropertyAreaID, &o.PropertyID, &o.PropertyName, &o.AreaName); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
