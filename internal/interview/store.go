package interview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
)

// Store persists interviews.
type Store interface {
	Create(ctx context.Context, iv Interview) error
	// Get returns nil when the interview does not exist.
	Get(ctx context.Context, id string) (*Interview, error)
	ListForCandidate(ctx context.Context, candidateUserID string) ([]Interview, error)
	ListForPractice(ctx context.Context, practiceUserID string) ([]Interview, error)
	ListConfirmed(ctx context.Context) ([]Interview, error)
	// Update writes the mutable fields of iv only if updated_at still equals
	// prev. It returns ErrStale otherwise.
	Update(ctx context.Context, iv Interview, prev time.Time) error
	HasChatEligibleBetween(ctx context.Context, userA, userB string) (bool, error)
}

// Directory is the read side of users and public profiles.
type Directory interface {
	User(ctx context.Context, userID string) (*directory.User, error)
	CandidateSummary(ctx context.Context, userID string) (*directory.CandidateSummary, error)
	PracticeSummary(ctx context.Context, userID string) (*directory.PracticeSummary, error)
}

// ─── Postgres ────────────────────────────────────────────────────────────────

const interviewColumns = `id, practice_user_id, candidate_user_id, meeting_type, location, date, time,
	status, notes, reschedule_requested, reschedule_request_date, reschedule_request_reason,
	reschedule_requested_date, reschedule_requested_time, declined, decline_reason, declined_at,
	created_at, updated_at`

// PostgresStore implements Store on database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a Store on db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanInterview(row interface{ Scan(...any) error }) (*Interview, error) {
	var (
		iv                              Interview
		notes, reason, reqDate, reqTime sql.NullString
		declineReason                   sql.NullString
		requestedAt, declinedAt         sql.NullTime
	)
	if err := row.Scan(
		&iv.ID, &iv.PracticeUserID, &iv.CandidateUserID, &iv.MeetingType, &iv.Location, &iv.Date, &iv.Time,
		&iv.Status, &notes, &iv.RescheduleRequested, &requestedAt, &reason,
		&reqDate, &reqTime, &iv.Declined, &declineReason, &declinedAt,
		&iv.CreatedAt, &iv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	iv.Notes = nullString(notes)
	iv.RescheduleRequestDate = nullTime(requestedAt)
	iv.RescheduleRequestReason = nullString(reason)
	iv.RescheduleRequestedDate = nullString(reqDate)
	iv.RescheduleRequestedTime = nullString(reqTime)
	iv.DeclineReason = nullString(declineReason)
	iv.DeclinedAt = nullTime(declinedAt)
	return &iv, nil
}

func (s *PostgresStore) Create(ctx context.Context, iv Interview) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interviews (id, practice_user_id, candidate_user_id, meeting_type, location,
		                         date, time, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		iv.ID, iv.PracticeUserID, iv.CandidateUserID, string(iv.MeetingType), string(iv.Location),
		iv.Date, iv.Time, string(iv.Status), iv.Notes, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("createInterview: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Interview, error) {
	iv, err := scanInterview(s.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getInterview: %w", err)
	}
	return iv, nil
}

func (s *PostgresStore) list(ctx context.Context, op, where string, args ...any) ([]Interview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE `+where+` ORDER BY date ASC, time ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	out := make([]Interview, 0)
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, *iv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListForCandidate(ctx context.Context, candidateUserID string) ([]Interview, error) {
	return s.list(ctx, "listForCandidate", "candidate_user_id = $1", candidateUserID)
}

func (s *PostgresStore) ListForPractice(ctx context.Context, practiceUserID string) ([]Interview, error) {
	return s.list(ctx, "listForPractice", "practice_user_id = $1", practiceUserID)
}

func (s *PostgresStore) ListConfirmed(ctx context.Context) ([]Interview, error) {
	return s.list(ctx, "listConfirmed", "status = 'confirmed'")
}

func (s *PostgresStore) Update(ctx context.Context, iv Interview, prev time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE interviews SET
		   date = $1, time = $2, status = $3,
		   reschedule_requested = $4, reschedule_request_date = $5, reschedule_request_reason = $6,
		   reschedule_requested_date = $7, reschedule_requested_time = $8,
		   declined = $9, decline_reason = $10, declined_at = $11,
		   updated_at = $12
		 WHERE id = $13 AND updated_at = $14`,
		iv.Date, iv.Time, string(iv.Status),
		iv.RescheduleRequested, iv.RescheduleRequestDate, iv.RescheduleRequestReason,
		iv.RescheduleRequestedDate, iv.RescheduleRequestedTime,
		iv.Declined, iv.DeclineReason, iv.DeclinedAt,
		iv.UpdatedAt,
		iv.ID, prev,
	)
	if err != nil {
		return fmt.Errorf("updateInterview: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updateInterview rows: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

func (s *PostgresStore) HasChatEligibleBetween(ctx context.Context, userA, userB string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM interviews
		   WHERE status IN ('confirmed', 'completed')
		     AND ((practice_user_id = $1 AND candidate_user_id = $2)
		       OR (practice_user_id = $2 AND candidate_user_id = $1))
		 )`,
		userA, userB,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("hasChatEligibleBetween: %w", err)
	}
	return exists, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
