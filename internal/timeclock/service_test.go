package timeclock

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type capturePublisher struct{ events []string }

func (p *capturePublisher) Publish(topic, name string, _ any) {
	p.events = append(p.events, topic+"/"+name)
}

type memPhotoStore struct{ saves map[string]int }

func (m *memPhotoStore) Save(name string, _ []byte) (string, error) {
	if m.saves == nil {
		m.saves = make(map[string]int)
	}
	m.saves[name]++
	return "photos/" + name, nil
}

func newTestService(t *testing.T, now time.Time) (*Service, sqlmock.Sqlmock, *capturePublisher, *memPhotoStore) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	pub := &capturePublisher{}
	store := &memPhotoStore{}
	svc := NewService(mockDB, pub, store)
	svc.clock = fixedClock{t: now}
	return svc, mock, pub, store
}

// シフト: 09:00-18:00、猶予15分
func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"employee_id", "display_name", "employee_number", "property_area_id",
		"property_name", "area_name", "entry_time", "exit_time", "tolerance_minutes",
	}).AddRow(42, "Ana Flores", "E-0042", 7, "Plaza Norte", "Reception", "09:00:00", "18:00:00", 15)
}

func dayRows(records ...Record) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"kind", "clocked_at"})
	for _, r := range records {
		rows.AddRow(r.Kind, r.ClockedAt)
	}
	return rows
}

func TestCheckInFirstOfDayIsOnTimeEntry(t *testing.T) {
	svc, mock, pub, _ := newTestService(t, at("09:10:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").WillReturnRows(dayRows())
	mock.ExpectExec("INSERT INTO attendances").
		WithArgs(int64(42), KindEntry, "2026-08-31", "09:10:00").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO attendance_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.AttendanceID)
	assert.Equal(t, "Ana Flores", res.DisplayName)
	assert.Equal(t, KindEntry, res.Kind)
	require.NotNil(t, res.Punctuality)
	assert.Equal(t, OnTime, *res.Punctuality)
	assert.Contains(t, pub.events, "attendances/attendance-recorded")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInLateEntryWritesIncidenceInSameTx(t *testing.T) {
	svc, mock, _, _ := newTestService(t, at("09:20:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").WillReturnRows(dayRows())
	mock.ExpectExec("INSERT INTO incidences").
		WithArgs(int64(42), "2026-08-31").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendances").
		WithArgs(int64(42), KindEntry, "2026-08-31", "09:20:00").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("INSERT INTO attendance_history").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	res, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	require.NoError(t, err)
	require.NotNil(t, res.Punctuality)
	assert.Equal(t, Late, *res.Punctuality)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInSecondCallIsExitWithoutPunctuality(t *testing.T) {
	svc, mock, _, _ := newTestService(t, at("18:05:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").
		WillReturnRows(dayRows(Record{Kind: KindEntry, ClockedAt: "09:10:00"}))
	mock.ExpectExec("INSERT INTO attendances").
		WithArgs(int64(42), KindExit, "2026-08-31", "18:05:00").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO attendance_history").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	res, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	require.NoError(t, err)
	assert.Equal(t, KindExit, res.Kind)
	assert.Nil(t, res.Punctuality)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInAfterExitIsRejectedWithoutWrites(t *testing.T) {
	svc, mock, pub, _ := newTestService(t, at("19:00:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").
		WillReturnRows(dayRows(Record{Kind: KindExit, ClockedAt: "18:00:00"}))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeAlreadyExited, api.Code)
	assert.Empty(t, pub.events)
	// 拒否はべき等: INSERT を一切発行していないことを sqlmock が保証する
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInCompleteDayIsRejected(t *testing.T) {
	svc, mock, _, _ := newTestService(t, at("20:00:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").
		WillReturnRows(dayRows(
			Record{Kind: KindEntry, ClockedAt: "09:10:00"},
			Record{Kind: KindExit, ClockedAt: "18:05:00"},
		))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeDayComplete, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInUnknownPIN(t *testing.T) {
	svc, mock, _, _ := newTestService(t, at("09:00:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInAtExitCutoffIsRejected(t *testing.T) {
	// 退勤 18:00:00 ちょうど、当日打刻ゼロでも入場不可
	svc, mock, _, _ := newTestService(t, at("18:00:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").WillReturnRows(dayRows())
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodePastExitWindow, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInHistoryFailureRollsBackAttendance(t *testing.T) {
	svc, mock, pub, _ := newTestService(t, at("09:10:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").WillReturnRows(dayRows())
	mock.ExpectExec("INSERT INTO attendances").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO attendance_history").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	require.Error(t, err)
	assert.Empty(t, pub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInDuplicateKeyBecomesConflict(t *testing.T) {
	// 同一従業員の同時打刻: UNIQUE(employee_id, attended_on, kind) で敗者が弾かれる
	svc, mock, _, _ := newTestService(t, at("09:10:00"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT e.employee_id").WithArgs("10001234").WillReturnRows(employeeRows())
	mock.ExpectQuery("SELECT kind").WithArgs(int64(42), "2026-08-31").WillReturnRows(dayRows())
	mock.ExpectExec("INSERT INTO attendances").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), CheckInRequest{PIN: "10001234"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachPhotoIsIdempotent(t *testing.T) {
	svc, mock, _, store := newTestService(t, at("09:10:00"))

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE attendances SET photo_ref").
			WithArgs("photos/attendance_7.jpg", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE attendance_history h").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	req := AttachPhotoRequest{AttendanceID: 7, ImageBase64: "aGVsbG8="}
	first, err := svc.AttachPhoto(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.AttachPhoto(context.Background(), req)
	require.NoError(t, err)

	// 同じ参照に収束し、保存先も1ファイルのまま
	assert.Equal(t, first.PhotoRef, second.PhotoRef)
	assert.Len(t, store.saves, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachPhotoUnknownAttendance(t *testing.T) {
	svc, mock, _, _ := newTestService(t, at("09:10:00"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE attendances SET photo_ref").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.AttachPhoto(context.Background(), AttachPhotoRequest{AttendanceID: 99, ImageBase64: "aGVsbG8="})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
