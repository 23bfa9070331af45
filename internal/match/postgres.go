package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const matchColumns = `id, candidate_user_id, practice_user_id, target_type, target_id, score, status, created_at`

// PostgresStore implements Store on database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a Store on db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateLike(ctx context.Context, l Like) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_likes (id, actor_user_id, target_type, target_id, decision, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.ActorUserID, string(l.TargetType), l.TargetID, string(l.Decision), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("createLike: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasLike(ctx context.Context, actorUserID string, targetType TargetType, targetID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM match_likes
		   WHERE actor_user_id = $1 AND target_type = $2 AND target_id = $3 AND decision = 'like'
		 )`,
		actorUserID, string(targetType), targetID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("hasLike: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) LikedListings(ctx context.Context, actorUserID string) ([]Like, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_user_id, target_type, target_id, decision, created_at
		 FROM match_likes
		 WHERE actor_user_id = $1
		   AND target_type IN ('locum', 'permanent')
		   AND decision = 'like'
		 ORDER BY created_at ASC`,
		actorUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("likedListings query: %w", err)
	}
	defer rows.Close()

	var likes []Like
	for rows.Next() {
		var l Like
		if err := rows.Scan(&l.ID, &l.ActorUserID, &l.TargetType, &l.TargetID, &l.Decision, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("likedListings scan: %w", err)
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func scanMatch(row interface{ Scan(...any) error }) (*Match, error) {
	var m Match
	if err := row.Scan(
		&m.ID, &m.CandidateUserID, &m.PracticeUserID, &m.TargetType,
		&m.TargetID, &m.Score, &m.Status, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) FindMatch(ctx context.Context, key Key) (*Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE candidate_user_id = $1 AND practice_user_id = $2
		   AND target_type = $3 AND target_id = $4`,
		key.CandidateUserID, key.PracticeUserID, string(key.TargetType), key.TargetID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("findMatch: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CreateMatch(ctx context.Context, m Match) (*Match, bool, error) {
	stored, err := scanMatch(s.db.QueryRowContext(ctx,
		`INSERT INTO matches (id, candidate_user_id, practice_user_id, target_type, target_id, score, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (candidate_user_id, practice_user_id, target_type, target_id) DO NOTHING
		 RETURNING `+matchColumns,
		m.ID, m.CandidateUserID, m.PracticeUserID, string(m.TargetType), m.TargetID,
		m.Score, string(m.Status), m.CreatedAt,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("createMatch: %w", err)
	}

	// Lost the race to a concurrent insert: return the winner.
	existing, err := s.FindMatch(ctx, m.Key())
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("createMatch: conflicting row for %s/%s vanished", m.TargetType, m.TargetID)
	}
	return existing, false, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getMatch: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, userID string, limit, offset int) ([]Match, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches
		 WHERE status = 'matched' AND (candidate_user_id = $1 OR practice_user_id = $1)`,
		userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listMatches count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE status = 'matched' AND (candidate_user_id = $1 OR practice_user_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listMatches query: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("listMatches scan: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, total, rows.Err()
}

func (s *PostgresStore) SetMatchStatus(ctx context.Context, id string, status Status) (*Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`UPDATE matches SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+matchColumns,
		string(status), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("setMatchStatus: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) HasActiveMatchBetween(ctx context.Context, userA, userB string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM matches
		   WHERE status = 'matched'
		     AND ((candidate_user_id = $1 AND practice_user_id = $2)
		       OR (candidate_user_id = $2 AND practice_user_id = $1))
		 )`,
		userA, userB,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("hasActiveMatchBetween: %w", err)
	}
	return exists, nil
}
