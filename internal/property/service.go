package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"TEMPO-backend/internal/audit"
	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/db"
	"TEMPO-backend/internal/platform/events"
)

// ===== Error model (timeclock と同型) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) *APIError {
	return &APIError{Code: CodeForbidden, Message: msg}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeForbidden:
			return http.StatusForbidden
		case CodeConflict:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// ===== Service =====

type Service struct {
	db  *sql.DB
	hub *events.Hub
}

func NewService(dbc *sql.DB, hub *events.Hub) *Service {
	return &Service{db: dbc, hub: hub}
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, req CreatePropertyRequest) (int64, error) {
	var id int64
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		id, err = insertPropertyTx(ctx, tx, req.Name, req.Address)
		if err != nil {
			return err
		}
		action := fmt.Sprintf("%s created property %q (ID: %d)", ident.Username, req.Name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return 0, err
	}

	s.hub.Publish(events.TopicProperties, "property-created", PropertyResponse{
		PropertyID: id,
		Name:       req.Name,
		Address:    req.Address,
		Active:     true,
	})
	return id, nil
}

func (s *Service) ListActive(ctx context.Context) ([]PropertyResponse, error) {
	return listActive(ctx, s.db)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*PropertyResponse, error) {
	p, err := getByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound("property not found")
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, id int64, req UpdatePropertyRequest) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		n, err := updatePropertyTx(ctx, tx, id, req.Name, req.Address)
		if err != nil {
			return err
		}
		if n == 0 {
			// 変更なし更新と不存在を区別するため存在確認
			if p, err := getByID(ctx, tx, id); err != nil {
				return err
			} else if p == nil {
				return ErrNotFound("property not found")
			}
		}
		action := fmt.Sprintf("%s updated property %q (ID: %d)", ident.Username, req.Name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicProperties, "property-updated", PropertyResponse{
		PropertyID: id,
		Name:       req.Name,
		Address:    req.Address,
		Active:     true,
	})
	return nil
}

// DeleteFull: 物件と配下（リンク・シフト紐付け・従業員・そのユーザ）を全て論理削除
func (s *Service) DeleteFull(ctx context.Context, ident auth.Identity, id int64) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		name, err := getNameTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if name == "" {
			return ErrNotFound("property not found")
		}

		if err := deactivatePropertyTx(ctx, tx, id); err != nil {
			return err
		}

		links, err := listAreaLinkIDsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, link := range links {
			if err := deactivateUsersByLinkTx(ctx, tx, link); err != nil {
				return err
			}
			if err := deactivateEmployeesByLinkTx(ctx, tx, link); err != nil {
				return err
			}
			if err := deactivateScheduleLinksTx(ctx, tx, link); err != nil {
				return err
			}
			if err := deactivateLinkTx(ctx, tx, link); err != nil {
				return err
			}
		}

		action := fmt.Sprintf("%s fully deactivated property %q (ID: %d)", ident.Username, name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicProperties, "property-deleted-full", map[string]any{
		"property_id": id, "active": false,
	})
	return nil
}

// DeleteOnly: 物件だけ外す。従業員は未割当のまま残す
func (s *Service) DeleteOnly(ctx context.Context, ident auth.Identity, id int64) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		name, err := getNameTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if name == "" {
			return ErrNotFound("property not found")
		}

		if err := deactivatePropertyTx(ctx, tx, id); err != nil {
			return err
		}

		links, err := listAreaLinkIDsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, link := range links {
			if err := unassignEmployeesByLinkTx(ctx, tx, link); err != nil {
				return err
			}
			if err := deactivateScheduleLinksTx(ctx, tx, link); err != nil {
				return err
			}
			if err := deactivateLinkTx(ctx, tx, link); err != nil {
				return err
			}
		}

		action := fmt.Sprintf("%s deactivated property %q (ID: %d), employees kept", ident.Username, name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicProperties, "property-deleted-only", map[string]any{
		"property_id": id, "active": false,
	})
	return nil
}
