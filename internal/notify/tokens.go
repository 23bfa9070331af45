package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TokenStore reads and maintains user_fcm_tokens.
type TokenStore interface {
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
	TouchTokens(ctx context.Context, tokens []string, at time.Time) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresTokens implements TokenStore.
type PostgresTokens struct {
	db *sql.DB
}

// NewPostgresTokens returns a TokenStore on db.
func NewPostgresTokens(db *sql.DB) *PostgresTokens {
	return &PostgresTokens{db: db}
}

func (p *PostgresTokens) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT token FROM user_fcm_tokens WHERE user_id = $1 ORDER BY last_used_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("tokensForUser query: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, fmt.Errorf("tokensForUser scan: %w", err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

func (p *PostgresTokens) DeleteTokens(ctx context.Context, tokens []string) (int64, error) {
	var total int64
	for _, tok := range tokens {
		res, err := p.db.ExecContext(ctx, `DELETE FROM user_fcm_tokens WHERE token = $1`, tok)
		if err != nil {
			return total, fmt.Errorf("deleteTokens: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (p *PostgresTokens) TouchTokens(ctx context.Context, tokens []string, at time.Time) error {
	for _, tok := range tokens {
		if _, err := p.db.ExecContext(ctx,
			`UPDATE user_fcm_tokens SET last_used_at = $1 WHERE token = $2`, at, tok,
		); err != nil {
			return fmt.Errorf("touchTokens: %w", err)
		}
	}
	return nil
}

func (p *PostgresTokens) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM user_fcm_tokens WHERE last_used_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruneTokens: %w", err)
	}
	return res.RowsAffected()
}
