package area

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

// scopeCheck: PROPERTY_ADMIN は自物件のみ操作可。ADMIN は全物件。
func scopeCheck(ident auth.Identity, propertyID int64) error {
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	if ident.Role == auth.RolePropertyAdmin && ident.PropertyID == propertyID {
		return nil
	}
	return ErrForbidden("not allowed for this property")
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, req CreateAreaRequest) (*AreaResponse, error) {
	if err := scopeCheck(ident, req.PropertyID); err != nil {
		return nil, err
	}

	var out *AreaResponse
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		ok, err := propertyExistsTx(ctx, tx, req.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound("property not found")
		}

		areaID, err := insertAreaTx(ctx, tx, req.Name)
		if err != nil {
			return err
		}
		linkID, err := insertLinkTx(ctx, tx, req.PropertyID, areaID)
		if err != nil {
			return err
		}

		out = &AreaResponse{
			AreaID:         areaID,
			Name:           req.Name,
			PropertyAreaID: linkID,
			PropertyID:     req.PropertyID,
			Active:         true,
		}
		action := fmt.Sprintf("%s created area %q (link ID: %d)", ident.Username, req.Name, linkID)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(events.TopicAreas, "area-created", out)
	return out, nil
}

// ListActive: PROPERTY_ADMIN は自物件に絞る。ADMIN/READ_ONLY は propertyID 指定可（0 で全件）。
func (s *Service) ListActive(ctx context.Context, ident auth.Identity, propertyID int64) ([]AreaResponse, error) {
	if ident.Role == auth.RolePropertyAdmin {
		propertyID = ident.PropertyID
	}
	return listActive(ctx, s.db, propertyID)
}

func (s *Service) GetByLinkID(ctx context.Context, ident auth.Identity, linkID int64) (*AreaResponse, error) {
	a, err := getByLinkID(ctx, s.db, linkID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound("area not found")
	}
	// 閲覧は READ_ONLY にも開く。PROPERTY_ADMIN だけ自物件に制限
	if ident.Role == auth.RolePropertyAdmin && ident.PropertyID != a.PropertyID {
		return nil, ErrForbidden("not allowed for this property")
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, linkID int64, req UpdateAreaRequest) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		cur, err := getByLinkID(ctx, tx, linkID)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound("area not found")
		}
		// 現在の物件と移動先の両方に権限が要る
		if err := scopeCheck(ident, cur.PropertyID); err != nil {
			return err
		}
		if req.PropertyID != cur.PropertyID {
			if err := scopeCheck(ident, req.PropertyID); err != nil {
				return err
			}
			ok, err := propertyExistsTx(ctx, tx, req.PropertyID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound("target property not found")
			}
			if err := moveLinkTx(ctx, tx, linkID, req.PropertyID); err != nil {
				return err
			}
		}
		if err := updateAreaNameTx(ctx, tx, cur.AreaID, req.Name); err != nil {
			return err
		}

		action := fmt.Sprintf("%s updated area %q (link ID: %d)", ident.Username, req.Name, linkID)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicAreas, "area-updated", map[string]any{
		"property_area_id": linkID, "name": req.Name, "property_id": req.PropertyID,
	})
	return nil
}

// Delete: リンクを落とし、従業員は未割当へ。紐付くシフトも停止する。
// エリア本体は他物件から共有されていなければ一緒に落とす。
func (s *Service) Delete(ctx context.Context, ident auth.Identity, linkID int64) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		cur, err := getByLinkID(ctx, tx, linkID)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound("area not found")
		}
		if err := scopeCheck(ident, cur.PropertyID); err != nil {
			return err
		}

		if err := unassignEmployeesTx(ctx, tx, linkID); err != nil {
			return err
		}
		schedIDs, err := listScheduleIDsTx(ctx, tx, linkID)
		if err != nil {
			return err
		}
		for _, sid := range schedIDs {
			if err := deactivateScheduleTx(ctx, tx, sid); err != nil {
				return err
			}
		}
		if err := deactivateScheduleLinksTx(ctx, tx, linkID); err != nil {
			return err
		}
		if err := deactivateLinkTx(ctx, tx, linkID); err != nil {
			return err
		}

		n, err := countLinksForAreaTx(ctx, tx, cur.AreaID)
		if err != nil {
			return err
		}
		if n == 0 {
			if err := deactivateAreaTx(ctx, tx, cur.AreaID); err != nil {
				return err
			}
		}

		action := fmt.Sprintf("%s deactivated area %q (link ID: %d)", ident.Username, cur.Name, linkID)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicAreas, "area-deleted", map[string]any{
		"property_area_id": linkID, "active": false,
	})
	return nil
}
