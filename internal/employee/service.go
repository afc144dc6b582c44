package employee

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

func (e *APIError) Error() string       { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError   { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError  { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) *APIError { return &APIError{Code: CodeForbidden, Message: msg} }
func ErrConflict(msg string) *APIError  { return &APIError{Code: CodeConflict, Message: msg} }

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

func scopeCheck(ident auth.Identity, propertyID int64) error {
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	if ident.Role == auth.RolePropertyAdmin && ident.PropertyID == propertyID {
		return nil
	}
	return ErrForbidden("not allowed for this property")
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, req CreateEmployeeRequest) (*EmployeeResponse, error) {
	var out *EmployeeResponse
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		propertyID, err := linkPropertyIDTx(ctx, tx, req.PropertyAreaID)
		if err != nil {
			return err
		}
		if propertyID == 0 {
			return ErrNotFound("area link not found")
		}
		if err := scopeCheck(ident, propertyID); err != nil {
			return err
		}

		pin, err := generatePIN(ctx, tx, propertyID)
		if err != nil {
			return err
		}
		id, err := insertEmployeeTx(ctx, tx, req, pin)
		if isDuplicateKey(err) {
			return ErrConflict("employee number or pin already in use")
		}
		if err != nil {
			return err
		}

		out = &EmployeeResponse{
			EmployeeID:     id,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			PIN:            pin,
			PropertyAreaID: &req.PropertyAreaID,
			Active:         true,
		}
		if req.EmployeeNumber != "" {
			num := req.EmployeeNumber
			out.EmployeeNumber = &num
		}
		action := fmt.Sprintf("%s created employee %s %s (ID: %d)", ident.Username, req.FirstName, req.LastName, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(events.TopicEmployees, "employee-created", out)
	return out, nil
}

func (s *Service) ListActive(ctx context.Context, ident auth.Identity, propertyID int64) ([]EmployeeResponse, error) {
	if ident.Role == auth.RolePropertyAdmin {
		propertyID = ident.PropertyID
	}
	return listActive(ctx, s.db, propertyID)
}

func (s *Service) ListAreaLinks(ctx context.Context, ident auth.Identity) ([]AreaLinkOption, error) {
	var propertyID int64
	if ident.Role == auth.RolePropertyAdmin {
		propertyID = ident.PropertyID
	}
	return listAreaLinks(ctx, s.db, propertyID)
}

func (s *Service) GetByID(ctx context.Context, ident auth.Identity, id int64) (*EmployeeResponse, error) {
	e, err := getByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound("employee not found")
	}
	if ident.Role == auth.RolePropertyAdmin {
		// 未割当従業員は物件が特定できないので PROPERTY_ADMIN には見せない
		if e.PropertyAreaID == nil {
			return nil, ErrForbidden("not allowed for this property")
		}
		propertyID, err := linkPropertyIDTx(ctx, s.db, *e.PropertyAreaID)
		if err != nil {
			return nil, err
		}
		if propertyID != ident.PropertyID {
			return nil, ErrForbidden("not allowed for this property")
		}
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, id int64, req UpdateEmployeeRequest) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		cur, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound("employee not found")
		}
		if cur.PropertyAreaID != nil {
			curProperty, err := linkPropertyIDTx(ctx, tx, *cur.PropertyAreaID)
			if err != nil {
				return err
			}
			if err := scopeCheck(ident, curProperty); err != nil {
				return err
			}
		} else if ident.Role != auth.RoleAdmin {
			return ErrForbidden("only an admin can reassign an unassigned employee")
		}

		newProperty, err := linkPropertyIDTx(ctx, tx, req.PropertyAreaID)
		if err != nil {
			return err
		}
		if newProperty == 0 {
			return ErrNotFound("area link not found")
		}
		if err := scopeCheck(ident, newProperty); err != nil {
			return err
		}

		if err := updateEmployeeTx(ctx, tx, id, req); err != nil {
			if isDuplicateKey(err) {
				return ErrConflict("employee number already in use")
			}
			return err
		}
		action := fmt.Sprintf("%s updated employee %s %s (ID: %d)", ident.Username, req.FirstName, req.LastName, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicEmployees, "employee-updated", map[string]any{
		"employee_id": id, "first_name": req.FirstName, "last_name": req.LastName,
		"property_area_id": req.PropertyAreaID,
	})
	return nil
}

// Delete: 従業員を停止し、紐付くログインユーザも止める
func (s *Service) Delete(ctx context.Context, ident auth.Identity, id int64) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		cur, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound("employee not found")
		}
		if cur.PropertyAreaID != nil {
			curProperty, err := linkPropertyIDTx(ctx, tx, *cur.PropertyAreaID)
			if err != nil {
				return err
			}
			if err := scopeCheck(ident, curProperty); err != nil {
				return err
			}
		} else if ident.Role != auth.RoleAdmin {
			return ErrForbidden("not allowed for this property")
		}

		if err := deactivateEmployeeTx(ctx, tx, id); err != nil {
			return err
		}
		if err := deactivateUserForEmployeeTx(ctx, tx, id); err != nil {
			return err
		}
		action := fmt.Sprintf("%s deactivated employee %s %s (ID: %d)", ident.Username, cur.FirstName, cur.LastName, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicEmployees, "employee-deleted", map[string]any{
		"employee_id": id, "active": false,
	})
	return nil
}
