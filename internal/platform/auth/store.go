package auth

import (
	"context"
	"database/sql"
	"errors"
)

type Account struct {
	UserID       int64
	EmployeeID   sql.NullInt64
	Username     string
	PasswordHash string
	Role         string
	PropertyID   sql.NullInt64
	IsActive     bool
}

type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Create(ctx context.Context, a *Account) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	const q = `
SELECT u.user_id, u.employee_id, u.username, u.password_hash, u.role, u.active,
       pa.property_id
FROM users u
LEFT JOIN employees e ON e.employee_id = u.employee_id
LEFT JOIN property_areas pa ON pa.property_area_id = e.property_area_id
WHERE u.username = ?
LIMIT 1
`
	var a Account
	var activeInt int
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&a.UserID,
		&a.EmployeeID,
		&a.Username,
		&a.PasswordHash,
		&a.Role,
		&activeInt,
		&a.PropertyID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.IsActive = activeInt != 0
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) (int64, error) {
	const q = `
INSERT INTO users (employee_id, username, password_hash, role, active)
VALUES (?, ?, ?, ?, 1)
`
	res, err := s.db.ExecContext(ctx, q, a.EmployeeID, a.Username, a.PasswordHash, a.Role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
