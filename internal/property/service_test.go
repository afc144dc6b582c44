package property

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/events"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *events.Hub) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	hub := events.NewHub()
	return NewService(mockDB, hub), mock, hub
}

func adminIdent() auth.Identity {
	return auth.Identity{UserID: 1, Username: "root-admin", Role: auth.RoleAdmin}
}

func TestCreateWritesAuditAndPublishes(t *testing.T) {
	svc, mock, hub := newTestService(t)
	ch := hub.Subscribe(events.TopicProperties)
	defer hub.Unsubscribe(events.TopicProperties, ch)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO properties").
		WithArgs("Plaza Norte", "Av. Central 100").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := svc.Create(context.Background(), adminIdent(), CreatePropertyRequest{
		Name: "Plaza Norte", Address: "Av. Central 100",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())

	select {
	case ev := <-ch:
		assert.Equal(t, "property-created", ev.Name)
		assert.NotEmpty(t, ev.ID)
	default:
		t.Fatal("expected a property-created event")
	}
}

func TestUpdateMissingPropertyIsNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE properties").
		WithArgs("Plaza Sur", "Calle 2", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT property_id, name, address, active").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := svc.Update(context.Background(), adminIdent(), 99, UpdatePropertyRequest{
		Name: "Plaza Sur", Address: "Calle 2",
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFullCascadesOverLinks(t *testing.T) {
	svc, mock, hub := newTestService(t)
	ch := hub.Subscribe(events.TopicProperties)
	defer hub.Unsubscribe(events.TopicProperties, ch)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM properties").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Plaza Norte"))
	mock.ExpectExec("UPDATE properties SET active = 0").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT property_area_id FROM property_areas").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"property_area_id"}).AddRow(11).AddRow(12))

	for _, link := range []int64{11, 12} {
		mock.ExpectExec("UPDATE users SET active = 0").
			WithArgs(link).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE employees SET active = 0").
			WithArgs(link).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("UPDATE property_area_schedules SET active = 0").
			WithArgs(link).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE property_areas SET active = 0").
			WithArgs(link).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteFull(context.Background(), adminIdent(), 7))
	require.NoError(t, mock.ExpectationsWereMet())

	select {
	case ev := <-ch:
		assert.Equal(t, "property-deleted-full", ev.Name)
	default:
		t.Fatal("expected a property-deleted-full event")
	}
}

func TestDeleteOnlyKeepsEmployees(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM properties").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Plaza Norte"))
	mock.ExpectExec("UPDATE properties SET active = 0").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT property_area_id FROM property_areas").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"property_area_id"}).AddRow(11))

	// 従業員は停止ではなく未割当へ
	mock.ExpectExec("UPDATE employees SET property_area_id = NULL").
		WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE property_area_schedules SET active = 0").
		WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE property_areas SET active = 0").
		WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteOnly(context.Background(), adminIdent(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFullUnknownPropertyRollsBack(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM properties").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := svc.DeleteFull(context.Background(), adminIdent(), 404)
	var api *APIError
	require.True(t, errors.As(err, &api))
	assert.Equal(t, CodeNotFound, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
