package schedule

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/events"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewService(mockDB, events.NewHub()), mock
}

func TestValidateTimes(t *testing.T) {
	cases := []struct {
		name     string
		entry    string
		exit     string
		weekdays []int
		wantErr  string
	}{
		{"valid", "09:00:00", "18:00:00", []int{1, 2, 3, 4, 5}, ""},
		{"bad entry format", "9am", "18:00:00", []int{1}, "entry_time"},
		{"bad exit format", "09:00:00", "six", []int{1}, "exit_time"},
		{"entry after exit", "18:00:00", "09:00:00", []int{1}, "before"},
		{"entry equals exit", "09:00:00", "09:00:00", []int{1}, "before"},
		{"no weekdays", "09:00:00", "18:00:00", nil, "empty"},
		{"weekday out of range", "09:00:00", "18:00:00", []int{7}, "weekday"},
		{"duplicate weekday", "09:00:00", "18:00:00", []int{1, 1}, "duplicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTimes(tc.entry, tc.exit, tc.weekdays)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCreateRejectsTakenLink(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM property_areas").
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM property_area_schedules").
		WithArgs(int64(11), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), auth.Identity{UserID: 1, Username: "root-admin", Role: auth.RoleAdmin},
		CreateScheduleRequest{
			Name: "Morning", EntryTime: "09:00:00", ExitTime: "18:00:00",
			ToleranceMinutes: 15, Weekdays: []int{1, 2, 3, 4, 5}, PropertyAreaID: 11,
		})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownLinkIsNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM property_areas").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), auth.Identity{UserID: 1, Username: "root-admin", Role: auth.RoleAdmin},
		CreateScheduleRequest{
			Name: "Morning", EntryTime: "09:00:00", ExitTime: "18:00:00",
			Weekdays: []int{1}, PropertyAreaID: 404,
		})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
