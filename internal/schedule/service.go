package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

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
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// ===== Service =====

const clockLayout = "15:04:05"

type Service struct {
	db  *sql.DB
	hub *events.Hub
}

func NewService(dbc *sql.DB, hub *events.Hub) *Service {
	return &Service{db: dbc, hub: hub}
}

func validateTimes(entry, exit string, weekdays []int) error {
	et, err := time.Parse(clockLayout, entry)
	if err != nil {
		return ErrInvalid("entry_time must be HH:MM:SS")
	}
	xt, err := time.Parse(clockLayout, exit)
	if err != nil {
		return ErrInvalid("exit_time must be HH:MM:SS")
	}
	if !et.Before(xt) {
		return ErrInvalid("entry_time must be before exit_time")
	}
	if len(weekdays) == 0 {
		return ErrInvalid("weekdays must not be empty")
	}
	seen := map[int]bool{}
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return ErrInvalid("weekday must be 0 (Sunday) through 6 (Saturday)")
		}
		if seen[d] {
			return ErrInvalid("duplicate weekday")
		}
		seen[d] = true
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, req CreateScheduleRequest) (int64, error) {
	if err := validateTimes(req.EntryTime, req.ExitTime, req.Weekdays); err != nil {
		return 0, err
	}

	var id int64
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		ok, err := linkExistsTx(ctx, tx, req.PropertyAreaID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound("area link not found")
		}
		taken, err := linkHasScheduleTx(ctx, tx, req.PropertyAreaID, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict("area link already has an active schedule")
		}

		id, err = insertScheduleTx(ctx, tx, req)
		if err != nil {
			return err
		}
		if err := insertDaysTx(ctx, tx, id, req.Weekdays); err != nil {
			return err
		}
		if err := insertBindingTx(ctx, tx, req.PropertyAreaID, id); err != nil {
			return err
		}

		action := fmt.Sprintf("%s created schedule %q (ID: %d)", ident.Username, req.Name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return 0, err
	}

	s.hub.Publish(events.TopicSchedules, "schedule-created", map[string]any{
		"schedule_id": id, "name": req.Name, "property_area_id": req.PropertyAreaID,
	})
	return id, nil
}

func (s *Service) ListActive(ctx context.Context) ([]ScheduleResponse, error) {
	return listActive(ctx, s.db)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*ScheduleResponse, error) {
	out, err := getByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound("schedule not found")
	}
	return out, nil
}

// ListAvailableLinks: シフト未割当のリンク。scheduleID > 0 なら編集中シフトの現リンクも含む。
func (s *Service) ListAvailableLinks(ctx context.Context, scheduleID int64) ([]LinkOption, error) {
	return listAvailableLinks(ctx, s.db, scheduleID)
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, id int64, req UpdateScheduleRequest) error {
	if err := validateTimes(req.EntryTime, req.ExitTime, req.Weekdays); err != nil {
		return err
	}

	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		cur, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound("schedule not found")
		}

		if req.PropertyAreaID != cur.PropertyAreaID {
			ok, err := linkExistsTx(ctx, tx, req.PropertyAreaID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound("area link not found")
			}
			taken, err := linkHasScheduleTx(ctx, tx, req.PropertyAreaID, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict("area link already has an active schedule")
			}
			if err := deactivateBindingTx(ctx, tx, id); err != nil {
				return err
			}
			if err := insertBindingTx(ctx, tx, req.PropertyAreaID, id); err != nil {
				return err
			}
		}

		if err := updateScheduleTx(ctx, tx, id, req); err != nil {
			return err
		}
		// 曜日は入れ替え
		if err := deleteDaysTx(ctx, tx, id); err != nil {
			return err
		}
		if err := insertDaysTx(ctx, tx, id, req.Weekdays); err != nil {
			return err
		}

		action := fmt.Sprintf("%s updated schedule %q (ID: %d)", ident.Username, req.Name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicSchedules, "schedule-updated", map[string]any{
		"schedule_id": id, "name": req.Name, "property_area_id": req.PropertyAreaID,
	})
	return nil
}

// Delete: シフトを停止。リンクの従業員はシフトなしでは打刻できないので未割当へ戻す。
func (s *Service) Delete(ctx context.Context, ident auth.Identity, id int64) error {
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		cur, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound("schedule not found")
		}

		if err := unassignEmployeesByLinkTx(ctx, tx, cur.PropertyAreaID); err != nil {
			return err
		}
		if err := deactivateBindingTx(ctx, tx, id); err != nil {
			return err
		}
		if err := deactivateScheduleTx(ctx, tx, id); err != nil {
			return err
		}

		action := fmt.Sprintf("%s deactivated schedule %q (ID: %d)", ident.Username, cur.Name, id)
		return audit.Record(ctx, tx, ident.UserID, action)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.TopicSchedules, "schedule-deleted", map[string]any{
		"schedule_id": id, "active": false,
	})
	return nil
}
