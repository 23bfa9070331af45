package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

const (
	avatarKindCandidate = "profile_photo"
	avatarKindPractice  = "logo"
)

// Postgres reads the directory tables through database/sql.
type Postgres struct {
	db  *sql.DB
	log logger.Logger

	cache    *redis.Client
	cacheTTL time.Duration
}

// Option configures Postgres.
type Option func(*Postgres)

// WithProfileCache caches candidate profiles in Redis for ttl.
func WithProfileCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(p *Postgres) {
		p.cache = rdb
		p.cacheTTL = ttl
	}
}

// NewPostgres returns a directory backed by db.
func NewPostgres(db *sql.DB, log logger.Logger, opts ...Option) *Postgres {
	p := &Postgres{db: db, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// User returns the user row, or nil when absent.
func (p *Postgres) User(ctx context.Context, userID string) (*User, error) {
	var (
		u        User
		fullName sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(email, ''), full_name, COALESCE(role, '')
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Email, &fullName, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user query: %w", err)
	}
	u.FullName = fullName.String
	return &u, nil
}

// UserRole returns users.role, ErrNotFound when the user does not exist.
func (p *Postgres) UserRole(ctx context.Context, userID string) (Role, error) {
	u, err := p.User(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrNotFound
	}
	return u.Role, nil
}

// CandidateProfile returns the profile joined with its job preference, or
// nil when the user has no candidate profile.
func (p *Postgres) CandidateProfile(ctx context.Context, userID string) (*CandidateProfile, error) {
	if cp, ok := p.cachedProfile(ctx, userID); ok {
		return cp, nil
	}

	// hourly_rate, latitude and longitude are optional job_preferences
	// columns; reading them through to_jsonb yields NULL where they don't exist.
	var (
		cp                     CandidateProfile
		jobTitle               sql.NullString
		prefID                 sql.NullString
		jobType, pattern       sql.NullString
		payMin, payMax, hourly sql.NullFloat64
		radius, lat, lng       sql.NullFloat64
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT cp.id, cp.user_id, COALESCE(cp.full_name, ''), cp.job_title,
		        jp.id, jp.job_type, jp.working_pattern,
		        jp.pay_min, jp.pay_max,
		        (to_jsonb(jp)->>'hourly_rate')::float8,
		        jp.search_radius_km,
		        (to_jsonb(jp)->>'latitude')::float8,
		        (to_jsonb(jp)->>'longitude')::float8
		 FROM candidate_profiles cp
		 LEFT JOIN job_preferences jp ON jp.user_id = cp.user_id
		 WHERE cp.user_id = $1
		 LIMIT 1`,
		userID,
	).Scan(
		&cp.ID, &cp.UserID, &cp.FullName, &jobTitle,
		&prefID, &jobType, &pattern,
		&payMin, &payMax, &hourly,
		&radius, &lat, &lng,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("candidateProfile query: %w", err)
	}

	cp.JobTitle = jobTitle.String
	if prefID.Valid {
		cp.Preference = &Preference{
			JobType:        jobType.String,
			WorkingPattern: pattern.String,
			PayMin:         floatPtr(payMin),
			PayMax:         floatPtr(payMax),
			HourlyRate:     floatPtr(hourly),
			SearchRadiusKm: floatPtr(radius),
			Latitude:       floatPtr(lat),
			Longitude:      floatPtr(lng),
		}
	}

	p.storeProfile(ctx, &cp)
	return &cp, nil
}

const locumColumns = `ls.id, ls.user_id, COALESCE(ls.status, ''), COALESCE(ls.role, ''), '', '',
	COALESCE(ls.location, ''), COALESCE(ls.date::text, ''), COALESCE(ls.time, ''), '',
	ls.hourly_rate, ls.day_rate, '', ls.created_at,
	EXISTS (SELECT 1 FROM practice_locations pl WHERE pl.user_id = ls.user_id)`

const permanentColumns = `pj.id, pj.user_id, COALESCE(pj.status, ''), COALESCE(pj.role, ''),
	COALESCE(pj.job_type, ''), COALESCE(pj.job_title, ''),
	COALESCE(pj.location, ''), '', '', COALESCE(pj.working_hours, ''),
	NULL::numeric, NULL::numeric, COALESCE(pj.salary_range, ''), pj.created_at,
	EXISTS (SELECT 1 FROM practice_locations pl WHERE pl.user_id = pj.user_id)`

func listingQuery(kind ListingKind, where string) (string, error) {
	switch kind {
	case KindLocum:
		return `SELECT ` + locumColumns + ` FROM locum_shifts ls WHERE ls.` + where, nil
	case KindPermanent:
		return `SELECT ` + permanentColumns + ` FROM permanent_jobs pj WHERE pj.` + where, nil
	}
	return "", fmt.Errorf("unknown listing kind %q", kind)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner, kind ListingKind) (Listing, error) {
	var (
		l              Listing
		hourly, dayRat sql.NullFloat64
	)
	err := row.Scan(
		&l.ID, &l.OwnerUserID, &l.Status, &l.Role, &l.JobType, &l.JobTitle,
		&l.Location, &l.Date, &l.Time, &l.WorkingHours,
		&hourly, &dayRat, &l.SalaryRange, &l.CreatedAt,
		&l.OwnerHasLocation,
	)
	if err != nil {
		return Listing{}, err
	}
	l.Kind = kind
	l.HourlyRate = floatPtr(hourly)
	l.DayRate = floatPtr(dayRat)
	return l, nil
}

// Listing returns one listing, or nil when it does not exist.
func (p *Postgres) Listing(ctx context.Context, kind ListingKind, id string) (*Listing, error) {
	q, err := listingQuery(kind, "id = $1")
	if err != nil {
		return nil, err
	}
	l, err := scanListing(p.db.QueryRowContext(ctx, q, id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing query: %w", err)
	}
	return &l, nil
}

// ListingsOwnedBy returns every listing of kind posted by ownerUserID.
func (p *Postgres) ListingsOwnedBy(ctx context.Context, ownerUserID string, kind ListingKind) ([]Listing, error) {
	q, err := listingQuery(kind, "user_id = $1")
	if err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, q, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("listingsOwnedBy query: %w", err)
	}
	defer rows.Close()

	out := make([]Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("listingsOwnedBy scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DisplayInfo returns the user's full name and avatar. Candidates use their
// profile photo, practices their logo.
func (p *Postgres) DisplayInfo(ctx context.Context, userID string, role Role) (DisplayInfo, error) {
	var info DisplayInfo

	var name sql.NullString
	err := p.db.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id = $1`, userID).Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("displayInfo name: %w", err)
	}
	info.Name = stringPtr(name)

	avatar, err := p.avatar(ctx, userID, role)
	if err != nil {
		return info, err
	}
	info.Avatar = avatar
	return info, nil
}

func (p *Postgres) avatar(ctx context.Context, userID string, role Role) (*string, error) {
	q := `SELECT url FROM media WHERE user_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`
	kind := avatarKindCandidate
	if role == RolePractice {
		q = `SELECT url FROM practice_media WHERE user_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`
		kind = avatarKindPractice
	}

	var url sql.NullString
	err := p.db.QueryRowContext(ctx, q, userID, kind).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("avatar query: %w", err)
	}
	return stringPtr(url), nil
}

// CandidateSummary returns the public candidate projection, nil when the
// user has no candidate profile.
func (p *Postgres) CandidateSummary(ctx context.Context, userID string) (*CandidateSummary, error) {
	var (
		s        CandidateSummary
		jobTitle sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, COALESCE(full_name, ''), job_title
		 FROM candidate_profiles WHERE user_id = $1 LIMIT 1`,
		userID,
	).Scan(&s.ID, &s.UserID, &s.FullName, &jobTitle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("candidateSummary query: %w", err)
	}
	s.JobTitle = jobTitle.String

	if s.Avatar, err = p.avatar(ctx, userID, RoleCandidate); err != nil {
		return nil, err
	}
	return &s, nil
}

// PracticeSummary returns the public practice projection with the owner's
// name, nil when the user has no practice profile.
func (p *Postgres) PracticeSummary(ctx context.Context, userID string) (*PracticeSummary, error) {
	var (
		s                 PracticeSummary
		clinic, phone, nm sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT pp.id, pp.user_id, pp.clinic_type, pp.phone_number, u.full_name
		 FROM practice_profiles pp
		 LEFT JOIN users u ON u.id = pp.user_id
		 WHERE pp.user_id = $1 LIMIT 1`,
		userID,
	).Scan(&s.ID, &s.UserID, &clinic, &phone, &nm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("practiceSummary query: %w", err)
	}
	s.ClinicType = clinic.String
	s.PhoneNumber = phone.String
	s.Name = stringPtr(nm)

	if s.Avatar, err = p.avatar(ctx, userID, RolePractice); err != nil {
		return nil, err
	}
	return &s, nil
}

// ── Profile cache ───────────────────────────────────────────────────────────

func profileCacheKey(userID string) string { return "profile:candidate:" + userID }

func (p *Postgres) cachedProfile(ctx context.Context, userID string) (*CandidateProfile, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, err := p.cache.Get(ctx, profileCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.Warn("profile cache read failed", map[string]interface{}{"userId": userID, "error": err})
		}
		return nil, false
	}
	var cp CandidateProfile
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, false
	}
	return &cp, true
}

func (p *Postgres) storeProfile(ctx context.Context, cp *CandidateProfile) {
	if p.cache == nil || p.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, profileCacheKey(cp.UserID), raw, p.cacheTTL).Err(); err != nil {
		p.log.Warn("profile cache write failed", map[string]interface{}{"userId": cp.UserID, "error": err})
	}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}
