package match

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/directory"
	"github.com/flosslyDevs/ToothMatch/internal/events"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/metrics"
	"github.com/flosslyDevs/ToothMatch/internal/notify"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// LikeNotifier pushes a like to the recipient's devices.
type LikeNotifier interface {
	NotifyLike(ctx context.Context, recipientUserID string, liker notify.Liker) (notify.Report, error)
}

// EventPublisher emits domain events to user channels.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event, recipients ...string)
}

// Service holds the like ledger, the match resolver and match queries.
// It has no dependency on net/http.
type Service struct {
	store    Store
	dir      Directory
	notifier LikeNotifier
	events   EventPublisher
	log      logger.Logger

	notifyTimeout time.Duration
	runAsync      func(func())
	now           func() time.Time
	newID         func() string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifyTimeout bounds each background like notification.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

// WithAsyncRunner replaces the goroutine used for background notification.
func WithAsyncRunner(run func(func())) Option {
	return func(s *Service) { s.runAsync = run }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a configured Service.
func NewService(store Store, dir Directory, notifier LikeNotifier, pub EventPublisher, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		dir:           dir,
		notifier:      notifier,
		events:        pub,
		log:           log,
		notifyTimeout: 15 * time.Second,
		runAsync:      func(fn func()) { go fn() },
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─── Like ledger ─────────────────────────────────────────────────────────────

// RecordDecision appends one swipe to the ledger.
func (s *Service) RecordDecision(ctx context.Context, actorUserID, targetType, targetID, decision string) (*Like, error) {
	tt, ok := ParseTargetType(targetType)
	if !ok {
		return nil, apperr.Validation("invalid targetType")
	}
	d, ok := ParseDecision(decision)
	if !ok {
		return nil, apperr.Validation("invalid decision")
	}
	if targetID == "" {
		return nil, apperr.Validation("targetId is required")
	}

	like := Like{
		ID:          s.newID(),
		ActorUserID: actorUserID,
		TargetType:  tt,
		TargetID:    targetID,
		Decision:    d,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateLike(ctx, like); err != nil {
		return nil, apperr.Storage("record decision", err)
	}
	metrics.LikesRecorded.WithLabelValues(string(tt), string(d)).Inc()
	return &like, nil
}

// ─── Match resolver ──────────────────────────────────────────────────────────

// EnsureMatchIfMutual creates the match implied by actor's like on the
// target, if the other side already liked back. It returns nil when there is
// nothing to match and never creates a second match for the same key.
func (s *Service) EnsureMatchIfMutual(ctx context.Context, actorUserID string, targetType TargetType, targetID string) (*Match, error) {
	m, _, err := s.resolve(ctx, actorUserID, targetType, targetID)
	return m, err
}

// resolve returns the first created-or-existing match plus the ones this
// call created.
func (s *Service) resolve(ctx context.Context, actorUserID string, targetType TargetType, targetID string) (*Match, []Match, error) {
	switch {
	case targetType == TargetCandidate:
		return s.resolvePracticeLike(ctx, actorUserID, targetID)
	case targetType.IsListing():
		return s.resolveCandidateLike(ctx, actorUserID, targetType, targetID)
	}
	return nil, nil, apperr.Validation("invalid targetType")
}

// resolveCandidateLike handles a candidate liking a listing.
func (s *Service) resolveCandidateLike(ctx context.Context, candidateUserID string, kind TargetType, listingID string) (*Match, []Match, error) {
	listing, err := s.dir.Listing(ctx, kind.ListingKind(), listingID)
	if err != nil || listing == nil {
		return nil, nil, err
	}

	likedBack, err := s.store.HasLike(ctx, listing.OwnerUserID, TargetCandidate, candidateUserID)
	if err != nil || !likedBack {
		return nil, nil, err
	}

	profile, err := s.dir.CandidateProfile(ctx, candidateUserID)
	if err != nil || profile == nil {
		return nil, nil, err
	}

	return s.ensure(ctx, candidateUserID, listing.OwnerUserID, []directory.Listing{*listing}, profile)
}

// resolvePracticeLike handles a practice liking a candidate: every listing
// of this practice the candidate already liked becomes a match.
func (s *Service) resolvePracticeLike(ctx context.Context, practiceUserID, candidateUserID string) (*Match, []Match, error) {
	likes, err := s.store.LikedListings(ctx, candidateUserID)
	if err != nil || len(likes) == 0 {
		return nil, nil, err
	}

	liked := map[TargetType]map[string]bool{}
	for _, l := range likes {
		if liked[l.TargetType] == nil {
			liked[l.TargetType] = map[string]bool{}
		}
		liked[l.TargetType][l.TargetID] = true
	}

	var matching []directory.Listing
	for _, kind := range []TargetType{TargetLocum, TargetPermanent} {
		if len(liked[kind]) == 0 {
			continue
		}
		owned, err := s.dir.ListingsOwnedBy(ctx, practiceUserID, kind.ListingKind())
		if err != nil {
			return nil, nil, err
		}
		for _, l := range owned {
			if liked[kind][l.ID] {
				matching = append(matching, l)
			}
		}
	}
	if len(matching) == 0 {
		return nil, nil, nil
	}

	profile, err := s.dir.CandidateProfile(ctx, candidateUserID)
	if err != nil || profile == nil {
		return nil, nil, err
	}

	return s.ensure(ctx, candidateUserID, practiceUserID, matching, profile)
}

func (s *Service) ensure(ctx context.Context, candidateUserID, practiceUserID string, listings []directory.Listing, profile *directory.CandidateProfile) (*Match, []Match, error) {
	var (
		first   *Match
		created []Match
	)
	for i := range listings {
		l := &listings[i]
		kind := TargetType(l.Kind)
		key := Key{
			CandidateUserID: candidateUserID,
			PracticeUserID:  practiceUserID,
			TargetType:      kind,
			TargetID:        l.ID,
		}

		existing, err := s.store.FindMatch(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			if first == nil {
				first = existing
			}
			continue
		}

		stored, isNew, err := s.store.CreateMatch(ctx, Match{
			ID:              s.newID(),
			CandidateUserID: candidateUserID,
			PracticeUserID:  practiceUserID,
			TargetType:      kind,
			TargetID:        l.ID,
			Score:           ScoreCandidateToJob(profile.Preference, l, kind),
			Status:          StatusMatched,
			CreatedAt:       s.now().UTC(),
		})
		if err != nil {
			return nil, nil, err
		}
		if isNew {
			created = append(created, *stored)
			metrics.MatchesCreated.WithLabelValues(string(kind)).Inc()
			s.log.Info("match created", map[string]interface{}{
				"matchId":     stored.ID,
				"candidateId": candidateUserID,
				"practiceId":  practiceUserID,
				"targetType":  string(kind),
				"score":       stored.Score,
			})
		}
		if first == nil {
			first = stored
		}
	}
	return first, created, nil
}

// ─── Like flow ───────────────────────────────────────────────────────────────

// LikeResult is the response to a swipe.
type LikeResult struct {
	Like   *Like                  `json:"like"`
	Match  *Match                 `json:"match"`
	Target *directory.DisplayInfo `json:"target"`
}

// LikeTarget records a swipe, resolves a match on a like, notifies the
// recipient in the background and returns the target's display info.
func (s *Service) LikeTarget(ctx context.Context, actorUserID, targetType, targetID, decision string) (*LikeResult, error) {
	like, err := s.RecordDecision(ctx, actorUserID, targetType, targetID, decision)
	if err != nil {
		return nil, err
	}
	res := &LikeResult{Like: like}

	var listing *directory.Listing
	if like.TargetType.IsListing() {
		listing, err = s.dir.Listing(ctx, like.TargetType.ListingKind(), targetID)
		if err != nil {
			s.log.Warn("listing lookup failed", map[string]interface{}{"targetId": targetID, "error": err})
		}
	}

	if like.Decision == DecisionLike {
		m, created, err := s.resolve(ctx, actorUserID, like.TargetType, targetID)
		if err != nil {
			return nil, apperr.Storage("resolve match", err)
		}
		res.Match = m
		for _, c := range created {
			s.events.Publish(ctx, events.Event{Type: events.TypeMatchCreated, Data: c}, c.CandidateUserID, c.PracticeUserID)
		}

		if recipient := likeRecipient(like, listing); recipient != "" {
			s.notifyLikeAsync(ctx, like, recipient)
		}
	}

	res.Target = s.targetInfo(ctx, like, listing)
	return res, nil
}

// likeRecipient is the candidate for a practice like and the listing owner
// for a candidate like.
func likeRecipient(like *Like, listing *directory.Listing) string {
	if like.TargetType == TargetCandidate {
		return like.TargetID
	}
	if listing != nil {
		return listing.OwnerUserID
	}
	return ""
}

func (s *Service) notifyLikeAsync(ctx context.Context, like *Like, recipient string) {
	base := context.WithoutCancel(ctx)
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(base, s.notifyTimeout)
		defer cancel()

		likerRole := directory.RoleCandidate
		if like.TargetType == TargetCandidate {
			likerRole = directory.RolePractice
		}
		liker := notify.Liker{ID: like.ActorUserID, Type: string(likerRole), Name: "Someone"}

		info, err := s.dir.DisplayInfo(ctx, like.ActorUserID, likerRole)
		if err != nil {
			s.log.Warn("liker lookup failed", map[string]interface{}{"userId": like.ActorUserID, "error": err})
		}
		if info.Name != nil && *info.Name != "" {
			liker.Name = *info.Name
		}
		liker.Avatar = info.Avatar

		s.events.Publish(ctx, events.Event{
			Type: events.TypeLikeReceived,
			Data: map[string]string{
				"likeId":     like.ID,
				"likerId":    like.ActorUserID,
				"likerType":  liker.Type,
				"targetType": string(like.TargetType),
				"targetId":   like.TargetID,
			},
		}, recipient)

		report, err := s.notifier.NotifyLike(ctx, recipient, liker)
		if err != nil {
			s.log.Error("like notification failed", map[string]interface{}{"recipientId": recipient, "error": err})
			return
		}
		s.log.Debug("like notification sent", map[string]interface{}{
			"recipientId": recipient, "total": report.Total, "successful": report.Successful,
		})
	})
}

// targetInfo is best effort: lookup failures leave the target empty.
func (s *Service) targetInfo(ctx context.Context, like *Like, listing *directory.Listing) *directory.DisplayInfo {
	userID, role := like.TargetID, directory.RoleCandidate
	if like.TargetType.IsListing() {
		if listing == nil {
			return nil
		}
		userID, role = listing.OwnerUserID, directory.RolePractice
	}
	info, err := s.dir.DisplayInfo(ctx, userID, role)
	if err != nil {
		s.log.Warn("target info lookup failed", map[string]interface{}{"userId": userID, "error": err})
		return nil
	}
	return &info
}

// ─── Match queries ───────────────────────────────────────────────────────────

// MatchView is a match with its listing and both parties.
type MatchView struct {
	Match
	Target    *directory.Listing          `json:"target"`
	Candidate *directory.CandidateSummary `json:"candidate"`
	Practice  *directory.PracticeSummary  `json:"practice"`
}

// Pagination describes the returned page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// MatchPage is one page of a user's active matches.
type MatchPage struct {
	Total      int         `json:"total"`
	Matches    []MatchView `json:"matches"`
	Pagination Pagination  `json:"pagination"`
}

// NormalizePage applies the page and limit defaults.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// GetMatches lists userID's active matches, newest first.
func (s *Service) GetMatches(ctx context.Context, userID string, page, limit int) (*MatchPage, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated("User not authenticated")
	}
	page, limit = NormalizePage(page, limit)

	rows, total, err := s.store.ListMatches(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, apperr.Storage("list matches", err)
	}

	views := make([]MatchView, 0, len(rows))
	for _, m := range rows {
		v, err := s.enrich(ctx, m)
		if err != nil {
			return nil, apperr.Storage("enrich match", err)
		}
		views = append(views, v)
	}

	return &MatchPage{
		Total:   total,
		Matches: views,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

func (s *Service) enrich(ctx context.Context, m Match) (MatchView, error) {
	v := MatchView{Match: m}
	var err error
	if m.TargetType.IsListing() {
		if v.Target, err = s.dir.Listing(ctx, m.TargetType.ListingKind(), m.TargetID); err != nil {
			return v, err
		}
	}
	if v.Candidate, err = s.dir.CandidateSummary(ctx, m.CandidateUserID); err != nil {
		return v, err
	}
	if v.Practice, err = s.dir.PracticeSummary(ctx, m.PracticeUserID); err != nil {
		return v, err
	}
	return v, nil
}

// ArchiveMatch hides a match for both parties. Archiving twice is a no-op.
func (s *Service) ArchiveMatch(ctx context.Context, userID, matchID string) (*Match, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, apperr.Storage("get match", err)
	}
	if m == nil {
		return nil, apperr.NotFound("Match not found")
	}
	if !m.HasParticipant(userID) {
		return nil, apperr.Authorization("You are not a participant in this match")
	}
	if m.Status == StatusArchived {
		return m, nil
	}

	updated, err := s.store.SetMatchStatus(ctx, matchID, StatusArchived)
	if err != nil {
		return nil, apperr.Storage("archive match", err)
	}
	if updated == nil {
		return nil, apperr.NotFound("Match not found")
	}
	return updated, nil
}

// HasActiveMatchBetween reports whether a and b share an active match.
func (s *Service) HasActiveMatchBetween(ctx context.Context, a, b string) (bool, error) {
	ok, err := s.store.HasActiveMatchBetween(ctx, a, b)
	if err != nil {
		return false, apperr.Storage("check match", err)
	}
	return ok, nil
}
