package interview

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowCols = []string{
	"id", "practice_user_id", "candidate_user_id", "meeting_type", "location", "date", "time",
	"status", "notes", "reschedule_requested", "reschedule_request_date", "reschedule_request_reason",
	"reschedule_requested_date", "reschedule_requested_time", "declined", "decline_reason", "declined_at",
	"created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_GetScansNullables(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM interviews WHERE id").WithArgs("iv-1").
		WillReturnRows(sqlmock.NewRows(rowCols).AddRow(
			"iv-1", "p-1", "c-1", "Video", "Online", "2025-06-10", "14:30",
			"scheduled", nil, true, at, nil,
			"2025-06-12", "10:00", false, nil, nil,
			at, at,
		))

	iv, err := s.Get(context.Background(), "iv-1")
	require.NoError(t, err)
	require.NotNil(t, iv)
	assert.Equal(t, MeetingVideo, iv.MeetingType)
	assert.Nil(t, iv.Notes)
	assert.True(t, iv.RescheduleRequested)
	require.NotNil(t, iv.RescheduleRequestDate)
	assert.Equal(t, "10:00", *iv.RescheduleRequestedTime)
	assert.Nil(t, iv.DeclinedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM interviews WHERE id").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	iv, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, iv)
}

func TestPostgresStore_ListOrdersByDateAndTime(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Now().UTC()

	mock.ExpectQuery(`WHERE candidate_user_id = \$1 ORDER BY date ASC, time ASC`).WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(rowCols).AddRow(
			"iv-1", "p-1", "c-1", "Call", "Office", "2025-06-10", "08:00",
			"confirmed", "bring CV", false, nil, nil,
			nil, nil, false, nil, nil,
			at, at,
		))

	rows, err := s.ListForCandidate(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bring CV", *rows[0].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateAndUpdate(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)

	iv := Interview{
		ID: "iv-1", PracticeUserID: "p-1", CandidateUserID: "c-1",
		MeetingType: MeetingInperson, Location: LocationOffice,
		Date: "2025-06-10", Time: "14:30", Status: StatusScheduled,
		CreatedAt: created, UpdatedAt: created,
	}
	mock.ExpectExec("INSERT INTO interviews").
		WithArgs("iv-1", "p-1", "c-1", "Inperson", "Office", "2025-06-10", "14:30", "scheduled", nil, created, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(ctx, iv))

	iv.Status = StatusConfirmed
	iv.UpdatedAt = updated
	mock.ExpectExec("UPDATE interviews SET").
		WithArgs("2025-06-10", "14:30", "confirmed",
			false, nil, nil, nil, nil,
			false, nil, nil,
			updated, "iv-1", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Update(ctx, iv, created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateStale(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE interviews SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), Interview{ID: "iv-1"}, time.Now())
	assert.ErrorIs(t, err, ErrStale)
}

func TestPostgresStore_HasChatEligibleBetween(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`status IN \('confirmed', 'completed'\)`).WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.HasChatEligibleBetween(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}
