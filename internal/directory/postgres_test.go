package directory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

var profileColumns = []string{
	"id", "user_id", "full_name", "job_title",
	"jp_id", "job_type", "working_pattern",
	"pay_min", "pay_max", "hourly_rate",
	"search_radius_km", "latitude", "longitude",
}

var listingColumns = []string{
	"id", "user_id", "status", "role", "job_type", "job_title",
	"location", "date", "time", "working_hours",
	"hourly_rate", "day_rate", "salary_range", "created_at", "has_location",
}

func newMock(t *testing.T, opts ...Option) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db, logger.NewTestLogger(t), opts...), mock
}

func TestUserRole(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("FROM users WHERE id").WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role"}).
			AddRow("u-1", "a@b.c", "Ann", "candidate"))
	role, err := p.UserRole(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, RoleCandidate, role)

	mock.ExpectQuery("FROM users WHERE id").WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = p.UserRole(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateProfile_WithPreference(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("FROM candidate_profiles cp").WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"cp-1", "c-1", "Cara", "Dental Nurse",
			"jp-1", "full_time", "day-shift",
			20.0, 30.0, nil,
			25.0, 51.5, -0.12,
		))

	cp, err := p.CandidateProfile(context.Background(), "c-1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	require.NotNil(t, cp.Preference)
	assert.Equal(t, "full_time", cp.Preference.JobType)
	assert.Equal(t, 20.0, *cp.Preference.PayMin)
	assert.Nil(t, cp.Preference.HourlyRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateProfile_OptionalPreferenceColumns(t *testing.T) {
	p, mock := newMock(t)

	// Columns absent from older job_preferences tables are read through
	// to_jsonb so the query never names them directly.
	mock.ExpectQuery(`jp\.pay_max,\s+\(to_jsonb\(jp\)->>'hourly_rate'\)::float8,\s+` +
		`jp\.search_radius_km,\s+\(to_jsonb\(jp\)->>'latitude'\)::float8,\s+` +
		`\(to_jsonb\(jp\)->>'longitude'\)::float8\s+FROM candidate_profiles cp`).
		WithArgs("c-4").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"cp-4", "c-4", "Dee", nil,
			"jp-4", "locum", nil,
			nil, nil, nil,
			10.0, nil, nil,
		))

	cp, err := p.CandidateProfile(context.Background(), "c-4")
	require.NoError(t, err)
	require.NotNil(t, cp.Preference)
	assert.Equal(t, 10.0, *cp.Preference.SearchRadiusKm)
	assert.Nil(t, cp.Preference.HourlyRate)
	assert.Nil(t, cp.Preference.Latitude)
	assert.Nil(t, cp.Preference.Longitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateProfile_NoPreferenceAndMissing(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("FROM candidate_profiles cp").WithArgs("c-2").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"cp-2", "c-2", "Dan", nil,
			nil, nil, nil, nil, nil, nil, nil, nil, nil,
		))
	cp, err := p.CandidateProfile(context.Background(), "c-2")
	require.NoError(t, err)
	assert.Nil(t, cp.Preference)

	mock.ExpectQuery("FROM candidate_profiles cp").WithArgs("c-3").
		WillReturnRows(sqlmock.NewRows(profileColumns))
	cp, err = p.CandidateProfile(context.Background(), "c-3")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestCandidateProfile_CachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	p, mock := newMock(t, WithProfileCache(rdb, time.Minute))

	mock.ExpectQuery("FROM candidate_profiles cp").WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"cp-1", "c-1", "Cara", nil,
			"jp-1", "part_time", nil, nil, nil, 18.0, nil, nil, nil,
		))

	first, err := p.CandidateProfile(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("profile:candidate:c-1"))
	assert.Equal(t, time.Minute, mr.TTL("profile:candidate:c-1"))

	// second call must not hit Postgres
	second, err := p.CandidateProfile(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListing_Locum(t *testing.T) {
	p, mock := newMock(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM locum_shifts ls WHERE ls.id").WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows(listingColumns).AddRow(
			"l-1", "p-1", "active", "Dentist", "", "",
			"London", "2025-04-01", "Day shift 9-5", "",
			25.0, nil, "", created, true,
		))

	l, err := p.Listing(context.Background(), KindLocum, "l-1")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, KindLocum, l.Kind)
	assert.Equal(t, "p-1", l.OwnerUserID)
	assert.Equal(t, 25.0, *l.HourlyRate)
	assert.Nil(t, l.DayRate)
	assert.True(t, l.OwnerHasLocation)

	mock.ExpectQuery("FROM permanent_jobs pj WHERE pj.id").WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(listingColumns))
	l, err = p.Listing(context.Background(), KindPermanent, "gone")
	require.NoError(t, err)
	assert.Nil(t, l)

	_, err = p.Listing(context.Background(), ListingKind("candidate"), "x")
	assert.Error(t, err)
}

func TestListingsOwnedBy(t *testing.T) {
	p, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM permanent_jobs pj WHERE pj.user_id").WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(listingColumns).
			AddRow("j-1", "p-1", "active", "", "full_time", "Associate", "Leeds", "", "", "Mon-Fri",
				nil, nil, "£40,000 - £55,000", now, false).
			AddRow("j-2", "p-1", "paused", "", "part_time", "Hygienist", "Leeds", "", "", "",
				nil, nil, "", now, false))

	ls, err := p.ListingsOwnedBy(context.Background(), "p-1", KindPermanent)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, "£40,000 - £55,000", ls[0].SalaryRange)
	assert.Equal(t, KindPermanent, ls[1].Kind)
}

func TestDisplayInfo(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("SELECT full_name FROM users").WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"full_name"}).AddRow("Smile Dental"))
	mock.ExpectQuery("FROM practice_media").WithArgs("p-1", "logo").
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://cdn/logo.png"))

	info, err := p.DisplayInfo(context.Background(), "p-1", RolePractice)
	require.NoError(t, err)
	assert.Equal(t, "Smile Dental", *info.Name)
	assert.Equal(t, "https://cdn/logo.png", *info.Avatar)

	mock.ExpectQuery("SELECT full_name FROM users").WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"full_name"}))
	mock.ExpectQuery("FROM media").WithArgs("c-1", "profile_photo").
		WillReturnRows(sqlmock.NewRows([]string{"url"}))

	info, err = p.DisplayInfo(context.Background(), "c-1", RoleCandidate)
	require.NoError(t, err)
	assert.Nil(t, info.Name)
	assert.Nil(t, info.Avatar)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPracticeSummary_StorageError(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery("FROM practice_profiles pp").WithArgs("p-1").
		WillReturnError(errors.New("conn reset"))

	_, err := p.PracticeSummary(context.Background(), "p-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}
