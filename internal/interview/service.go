package interview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/directory"
	"github.com/flosslyDevs/ToothMatch/internal/events"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/metrics"
)

// Actions recorded on EVENT_INTERVIEW_UPDATED and the transition metric.
const (
	ActionSchedule          = "schedule"
	ActionRequestReschedule = "reschedule_request"
	ActionApproveReschedule = "reschedule_approve"
	ActionDecline           = "decline"
	ActionAccept            = "accept"
	ActionComplete          = "complete"
)

// EventPublisher emits domain events to user channels.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event, recipients ...string)
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service runs the interview state machine. It is transport-agnostic.
type Service struct {
	store  Store
	dir    Directory
	events EventPublisher
	log    logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a configured Service.
func NewService(store Store, dir Directory, pub EventPublisher, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		dir:    dir,
		events: pub,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) stamp() time.Time { return s.now().UTC().Truncate(time.Microsecond) }

// ─── Scheduling ──────────────────────────────────────────────────────────────

// Schedule creates an interview in the scheduled state. Only practices may
// schedule, and only for an existing candidate.
func (s *Service) Schedule(ctx context.Context, practiceUserID string, in ScheduleInput) (*View, error) {
	if err := s.requireRole(ctx, practiceUserID, directory.RolePractice, "Only practices can schedule interviews"); err != nil {
		return nil, err
	}

	if in.CandidateUserID == "" || in.MeetingType == "" || in.Location == "" || in.Date == "" || in.Time == "" {
		return nil, apperr.Validation("Missing required fields: candidateUserId, meetingType, location, date, and time are required")
	}
	if !MeetingType(in.MeetingType).Valid() {
		return nil, apperr.Validation("Invalid meetingType. Must be one of: Video, Inperson, Call")
	}
	if !Location(in.Location).Valid() {
		return nil, apperr.Validation("Invalid location. Must be one of: Online, Office")
	}
	if !ValidTime(in.Time) {
		return nil, apperr.Validation(`Invalid time format. Use 24-hour format (HH:MM), e.g., "14:30"`)
	}

	candidate, err := s.dir.User(ctx, in.CandidateUserID)
	if err != nil {
		return nil, apperr.Storage("find candidate", err)
	}
	if candidate == nil || candidate.Role != directory.RoleCandidate {
		return nil, apperr.NotFound("Candidate not found")
	}

	now := s.stamp()
	iv := Interview{
		ID:              s.newID(),
		PracticeUserID:  practiceUserID,
		CandidateUserID: in.CandidateUserID,
		MeetingType:     MeetingType(in.MeetingType),
		Location:        Location(in.Location),
		Date:            in.Date,
		Time:            padHour(in.Time),
		Status:          StatusScheduled,
		Notes:           emptyToNil(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, iv); err != nil {
		return nil, apperr.Storage("schedule interview", err)
	}
	s.emit(ctx, &iv, ActionSchedule)

	v := &View{Interview: iv}
	v.Practice = s.practiceParty(ctx, practiceUserID)
	v.Candidate = s.candidateParty(ctx, in.CandidateUserID)
	return v, nil
}

// ─── Queries ─────────────────────────────────────────────────────────────────

// ListResult is the caller's interviews and the role they were listed as.
type ListResult struct {
	Interviews []View         `json:"interviews"`
	Count      int            `json:"count"`
	Role       directory.Role `json:"role,omitempty"`
}

// ListMine detects the caller's role and lists their interviews ordered by
// date then time, each joined with the counterpart's projection.
func (s *Service) ListMine(ctx context.Context, userID string) (*ListResult, error) {
	u, err := s.dir.User(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("find user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}

	var res *ListResult
	switch u.Role {
	case directory.RoleCandidate:
		res, err = s.listForCandidate(ctx, userID)
	case directory.RolePractice:
		res, err = s.listForPractice(ctx, userID)
	default:
		return nil, apperr.Authorization("Only candidates and practices have interviews")
	}
	if err != nil {
		return nil, err
	}
	res.Role = u.Role
	return res, nil
}

// ListForCandidate lists the interviews scheduled for a candidate caller.
func (s *Service) ListForCandidate(ctx context.Context, userID string) (*ListResult, error) {
	if err := s.requireRole(ctx, userID, directory.RoleCandidate, "Only candidates can view their interviews"); err != nil {
		return nil, err
	}
	return s.listForCandidate(ctx, userID)
}

// ListForPractice lists the interviews a practice caller scheduled.
func (s *Service) ListForPractice(ctx context.Context, userID string) (*ListResult, error) {
	if err := s.requireRole(ctx, userID, directory.RolePractice, "Only practices can view their scheduled interviews"); err != nil {
		return nil, err
	}
	return s.listForPractice(ctx, userID)
}

func (s *Service) listForCandidate(ctx context.Context, userID string) (*ListResult, error) {
	rows, err := s.store.ListForCandidate(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list interviews", err)
	}
	parties := map[string]*Party{}
	views := make([]View, 0, len(rows))
	for _, iv := range rows {
		p, ok := parties[iv.PracticeUserID]
		if !ok {
			p = s.practiceParty(ctx, iv.PracticeUserID)
			parties[iv.PracticeUserID] = p
		}
		views = append(views, View{Interview: iv, Practice: p})
	}
	return &ListResult{Interviews: views, Count: len(views)}, nil
}

func (s *Service) listForPractice(ctx context.Context, userID string) (*ListResult, error) {
	rows, err := s.store.ListForPractice(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list interviews", err)
	}
	parties := map[string]*Party{}
	views := make([]View, 0, len(rows))
	for _, iv := range rows {
		c, ok := parties[iv.CandidateUserID]
		if !ok {
			c = s.candidateParty(ctx, iv.CandidateUserID)
			parties[iv.CandidateUserID] = c
		}
		views = append(views, View{Interview: iv, Candidate: c})
	}
	return &ListResult{Interviews: views, Count: len(views)}, nil
}

// HasChatEligibleInterview reports whether a confirmed or completed
// interview exists between a and b in either orientation.
func (s *Service) HasChatEligibleInterview(ctx context.Context, a, b string) (bool, error) {
	ok, err := s.store.HasChatEligibleBetween(ctx, a, b)
	if err != nil {
		return false, apperr.Storage("check interview", err)
	}
	return ok, nil
}

// ─── Transitions ─────────────────────────────────────────────────────────────

// RequestReschedule records the candidate's proposal of a new slot. The
// status is left unchanged.
func (s *Service) RequestReschedule(ctx context.Context, candidateUserID, id string, in RescheduleRequest) (*Interview, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.CandidateUserID != candidateUserID {
		return nil, apperr.Authorization("Only the invited candidate can request a reschedule")
	}
	if in.RequestedDate == "" || in.RequestedTime == "" {
		return nil, apperr.Validation("requestedDate and requestedTime are required")
	}
	if !ValidTime(in.RequestedTime) {
		return nil, apperr.Validation(`Invalid time format. Use 24-hour format (HH:MM), e.g., "14:30"`)
	}
	if iv.Declined {
		return nil, apperr.Conflict("Cannot request a reschedule for a declined interview")
	}
	if IsTerminal(iv.Status) {
		return nil, apperr.Conflict("Cannot request a reschedule for a " + string(iv.Status) + " interview")
	}

	prev := iv.UpdatedAt
	now := s.stamp()
	date, tm := in.RequestedDate, padHour(in.RequestedTime)
	iv.RescheduleRequested = true
	iv.RescheduleRequestDate = &now
	iv.RescheduleRequestReason = emptyToNil(in.Reason)
	iv.RescheduleRequestedDate = &date
	iv.RescheduleRequestedTime = &tm
	return s.save(ctx, iv, prev, now, ActionRequestReschedule)
}

// ApproveReschedule applies the pending request. Explicit date and time in
// the approval take precedence over the requested ones. The interview goes
// back to scheduled and awaits a fresh confirmation.
func (s *Service) ApproveReschedule(ctx context.Context, practiceUserID, id string, in RescheduleApproval) (*Interview, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.PracticeUserID != practiceUserID {
		return nil, apperr.Authorization("Only the scheduling practice can approve a reschedule")
	}
	if iv.Declined {
		return nil, apperr.Conflict("Cannot reschedule a declined interview")
	}
	if !iv.RescheduleRequested {
		return nil, apperr.Conflict("No reschedule request pending for this interview")
	}
	if iv.Status != StatusScheduled && !IsTransitionAllowed(iv.Status, StatusScheduled) {
		return nil, apperr.Conflict("Cannot reschedule a " + string(iv.Status) + " interview")
	}

	date, tm := in.Date, in.Time
	if date == "" && iv.RescheduleRequestedDate != nil {
		date = *iv.RescheduleRequestedDate
	}
	if tm == "" && iv.RescheduleRequestedTime != nil {
		tm = *iv.RescheduleRequestedTime
	}
	if date == "" || tm == "" {
		return nil, apperr.Validation("date and time are required")
	}
	if !ValidTime(tm) {
		return nil, apperr.Validation(`Invalid time format. Use 24-hour format (HH:MM), e.g., "14:30"`)
	}

	prev := iv.UpdatedAt
	iv.Date, iv.Time = date, padHour(tm)
	iv.Status = StatusScheduled
	iv.clearReschedule()
	return s.save(ctx, iv, prev, s.stamp(), ActionApproveReschedule)
}

// Decline cancels the interview on the candidate's behalf. Declining is
// terminal.
func (s *Service) Decline(ctx context.Context, candidateUserID, id string, reason *string) (*Interview, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.CandidateUserID != candidateUserID {
		return nil, apperr.Authorization("Only the invited candidate can decline this interview")
	}
	if iv.Declined {
		return nil, apperr.Conflict("Interview already declined")
	}
	if !IsTransitionAllowed(iv.Status, StatusCancelled) {
		return nil, apperr.Conflict("Cannot decline a " + string(iv.Status) + " interview")
	}

	prev := iv.UpdatedAt
	now := s.stamp()
	iv.Declined = true
	iv.DeclinedAt = &now
	iv.DeclineReason = emptyToNil(reason)
	iv.Status = StatusCancelled
	return s.save(ctx, iv, prev, now, ActionDecline)
}

// Accept confirms the interview. Accepting an already confirmed interview
// returns it unchanged.
func (s *Service) Accept(ctx context.Context, candidateUserID, id string) (*Interview, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.CandidateUserID != candidateUserID {
		return nil, apperr.Authorization("Only the invited candidate can accept this interview")
	}
	if iv.Declined {
		return nil, apperr.Conflict("Cannot accept a declined interview")
	}
	if iv.Status == StatusConfirmed {
		return iv, nil
	}
	if !IsTransitionAllowed(iv.Status, StatusConfirmed) {
		return nil, apperr.Conflict("Cannot accept a " + string(iv.Status) + " interview")
	}

	prev := iv.UpdatedAt
	iv.Status = StatusConfirmed
	iv.clearReschedule()
	return s.save(ctx, iv, prev, s.stamp(), ActionAccept)
}

// CompleteElapsed marks confirmed interviews whose slot is before now as
// completed. Interviews with an unparsable date are skipped. It returns the
// number completed.
func (s *Service) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.store.ListConfirmed(ctx)
	if err != nil {
		return 0, apperr.Storage("list confirmed interviews", err)
	}

	done := 0
	for i := range rows {
		iv := &rows[i]
		at, ok := iv.ScheduledAt()
		if !ok {
			s.log.Warn("interview date unparsable, skipped", map[string]interface{}{
				"interviewId": iv.ID, "date": iv.Date, "time": iv.Time,
			})
			continue
		}
		if !at.Before(now) {
			continue
		}
		prev := iv.UpdatedAt
		iv.Status = StatusCompleted
		if _, err := s.save(ctx, iv, prev, s.stamp(), ActionComplete); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				continue
			}
			return done, err
		}
		done++
	}
	return done, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) requireRole(ctx context.Context, userID string, want directory.Role, msg string) error {
	u, err := s.dir.User(ctx, userID)
	if err != nil {
		return apperr.Storage("find user", err)
	}
	if u == nil || u.Role != want {
		return apperr.Authorization(msg)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*Interview, error) {
	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.Storage("get interview", err)
	}
	if iv == nil {
		return nil, apperr.NotFound("Interview not found")
	}
	return iv, nil
}

// save writes iv conditionally on prev and announces the transition.
func (s *Service) save(ctx context.Context, iv *Interview, prev, now time.Time, action string) (*Interview, error) {
	iv.UpdatedAt = now
	if err := s.store.Update(ctx, *iv, prev); err != nil {
		if errors.Is(err, ErrStale) {
			return nil, apperr.Conflict(ErrStale.Error())
		}
		return nil, apperr.Storage("update interview", err)
	}
	s.emit(ctx, iv, action)
	return iv, nil
}

func (s *Service) emit(ctx context.Context, iv *Interview, action string) {
	metrics.InterviewTransitions.WithLabelValues(action).Inc()
	s.log.Info("interview transition", map[string]interface{}{
		"interviewId": iv.ID, "action": action, "status": string(iv.Status),
	})
	s.events.Publish(ctx, events.Event{
		Type: events.TypeInterviewUpdated,
		Data: map[string]string{
			"interviewId": iv.ID,
			"action":      action,
			"status":      string(iv.Status),
		},
	}, iv.PracticeUserID, iv.CandidateUserID)
}

// practiceParty is best effort: lookup failures are logged and yield nil.
func (s *Service) practiceParty(ctx context.Context, userID string) *Party {
	u, err := s.dir.User(ctx, userID)
	if err != nil || u == nil {
		if err != nil {
			s.log.Warn("practice lookup failed", map[string]interface{}{"userId": userID, "error": err})
		}
		return nil
	}
	p := &Party{ID: u.ID, Email: u.Email}
	if p.PracticeProfile, err = s.dir.PracticeSummary(ctx, userID); err != nil {
		s.log.Warn("practice profile lookup failed", map[string]interface{}{"userId": userID, "error": err})
	}
	return p
}

func (s *Service) candidateParty(ctx context.Context, userID string) *Party {
	u, err := s.dir.User(ctx, userID)
	if err != nil || u == nil {
		if err != nil {
			s.log.Warn("candidate lookup failed", map[string]interface{}{"userId": userID, "error": err})
		}
		return nil
	}
	p := &Party{ID: u.ID, Email: u.Email}
	if p.CandidateProfile, err = s.dir.CandidateSummary(ctx, userID); err != nil {
		s.log.Warn("candidate profile lookup failed", map[string]interface{}{"userId": userID, "error": err})
	}
	return p
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
