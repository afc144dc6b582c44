package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrDisabled      = errors.New("account disabled")
)

type Service struct {
	store     AccountStore
	blacklist *TokenBlacklist
	secret    []byte
	expires   time.Duration
}

func NewService(db *sql.DB, secret []byte, expires time.Duration, blacklist *TokenBlacklist) *Service {
	return &Service{
		store:     NewStore(db),
		blacklist: blacklist,
		secret:    secret,
		expires:   expires,
	}
}

type LoginResult struct {
	Token    string
	UserID   int64
	Username string
	Role     string
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAuthFailed
	}
	if !acct.IsActive {
		return nil, ErrDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthFailed
	}

	claims := jwt.MapClaims{
		"sub":      acct.UserID,
		"username": acct.Username,
		"role":     acct.Role,
		"exp":      time.Now().Add(s.expires).Unix(),
	}
	// 物件スコープを持つロールはトークンに載せてスコープ判定に使う
	if acct.PropertyID.Valid {
		claims["property_id"] = acct.PropertyID.Int64
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:    tokenString,
		UserID:   acct.UserID,
		Username: acct.Username,
		Role:     acct.Role,
	}, nil
}

// Logout: トークンを失効集合へ。以後 RequireAuth で弾かれる。
func (s *Service) Logout(_ context.Context, token string) {
	s.blacklist.Add(token)
}

// Register: 管理画面からのユーザ作成。従業員に紐付ける。
func (s *Service) Register(ctx context.Context, employeeID int64, username, password, role string) (int64, error) {
	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	acct := &Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if employeeID > 0 {
		acct.EmployeeID = sql.NullInt64{Int64: employeeID, Valid: true}
	}
	return s.store.Create(ctx, acct)
}
