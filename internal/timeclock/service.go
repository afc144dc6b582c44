package timeclock

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"TEMPO-backend/internal/platform/db"
	"TEMPO-backend/internal/platform/events"
	"TEMPO-backend/internal/platform/photos"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Publisher: 打刻成功の通知先。配送はベストエフォートで、
// 失敗しても打刻の成否には影響させない。
type Publisher interface {
	Publish(topic, name string, data any)
}

// ===== Service本体 =====

type Service struct {
	db     *sql.DB
	clock  Clock
	hub    Publisher
	photos photos.Storage
}

func NewService(db *sql.DB, hub Publisher, store photos.Storage) *Service {
	return &Service{
		db:     db,
		clock:  realClock{},
		hub:    hub,
		photos: store,
	}
}

// CheckIn: PIN打刻の本体。
// 解決 → 種別判定 → (ENTRYなら)退勤境界・遅刻判定 → 永続化 を
// 1トランザクションで行う。遅刻時の incidence も同じTx内なので、
// 後続のINSERTが失敗すれば incidence だけ残ることはない。
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error) {
	if req.PIN == "" {
		return CheckInResponse{}, ErrInvalid("pin is required")
	}

	now := s.clock.Now()
	date := now.Format(DateLayout)
	clocked := now.Format(ClockLayout)

	var resp CheckInResponse
	err := db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		emp, err := findEmployeeByPINTx(ctx, tx, req.PIN)
		if err != nil {
			return err
		}
		if emp == nil {
			// PIN不一致も「シフト未設定で打刻不能」もまとめて NOT_FOUND
			return ErrNotFound("pin not recognized")
		}

		records, err := listDayRecordsTx(ctx, tx, emp.EmployeeID, date)
		if err != nil {
			return err
		}
		kind, apiErr := ClassifyKind(records)
		if apiErr != nil {
			return apiErr
		}

		var punctuality *string
		if kind == KindEntry {
			ok, apiErr := WithinEntryWindow(emp.ExitTime, now)
			if apiErr != nil {
				return apiErr
			}
			if !ok {
				return errPastExitWindow()
			}

			verdict, apiErr := EvaluatePunctuality(emp.EntryTime, emp.ToleranceMinutes, now)
			if apiErr != nil {
				return apiErr
			}
			punctuality = &verdict

			if verdict == Late {
				if err := insertIncidenceTx(ctx, tx, emp.EmployeeID, date); err != nil {
					return err
				}
			}
		}

		id, err := insertAttendanceTx(ctx, tx, emp.EmployeeID, kind, date, clocked)
		if err != nil {
			if isDuplicateKey(err) {
				// 同時打刻の敗者。全体がロールバック済みなので先頭から再試行可
				return ErrConflict("attendance already recorded for this moment, retry")
			}
			return err
		}
		if err := insertHistoryTx(ctx, tx, emp, kind, date, clocked); err != nil {
			return err
		}

		resp = CheckInResponse{
			AttendanceID: id,
			DisplayName:  emp.DisplayName,
			Kind:         kind,
			Punctuality:  punctuality,
		}
		return nil
	})
	if err != nil {
		return CheckInResponse{}, err
	}

	if s.hub != nil {
		s.hub.Publish(events.TopicAttendances, "attendance-recorded", resp)
	}
	return resp, nil
}

// AttachPhoto: 打刻写真の後付け。ファイル名は打刻IDから決定的に作るので
// リトライしても二重保存にならない（同名上書き + 同値UPDATE）。
func (s *Service) AttachPhoto(ctx context.Context, req AttachPhotoRequest) (AttachPhotoResponse, error) {
	if req.AttendanceID <= 0 {
		return AttachPhotoResponse{}, ErrInvalid("attendance_id is required")
	}

	raw := req.ImageBase64
	if i := strings.Index(raw, ";base64,"); i >= 0 {
		raw = raw[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return AttachPhotoResponse{}, ErrInvalid("image_base64 is not valid base64")
	}
	if len(data) == 0 {
		return AttachPhotoResponse{}, ErrInvalid("image is empty")
	}

	name := fmt.Sprintf("attendance_%d.jpg", req.AttendanceID)
	ref, err := s.photos.Save(name, data)
	if err != nil {
		return AttachPhotoResponse{}, ErrInternal("photo store failed")
	}

	err = db.Write(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		n, err := updateAttendancePhotoTx(ctx, tx, req.AttendanceID, ref)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound("attendance not found")
		}
		return updateHistoryPhotoTx(ctx, tx, req.AttendanceID, ref)
	})
	if err != nil {
		return AttachPhotoResponse{}, err
	}

	return AttachPhotoResponse{AttendanceID: req.AttendanceID, PhotoRef: ref}, nil
}

// ServerTime: キオスクの時計合わせ
func (s *Service) ServerTime(_ context.Context) ServerTimeResponse {
	now := s.clock.Now()
	return ServerTimeResponse{
		Timestamp: now.UnixMilli(),
		ISO:       now,
		Date:      now.Format(DateLayout),
		Clock:     now.Format(ClockLayout),
	}
}

// ListHistory: 管理画面向けの履歴一覧（スナップショット行）
func (s *Service) ListHistory(ctx context.Context, q HistoryQuery) ([]HistoryRow, int64, error) {
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return listHistory(ctx, s.db, q)
}
