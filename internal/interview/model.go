package interview

import (
	"errors"
	"regexp"
	"time"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
)

// ErrStale is returned by Store.Update when the row changed since it was read.
var ErrStale = errors.New("interview was modified concurrently")

// MeetingType is how the interview is held.
type MeetingType string

const (
	MeetingVideo    MeetingType = "Video"
	MeetingInperson MeetingType = "Inperson"
	MeetingCall     MeetingType = "Call"
)

func (m MeetingType) Valid() bool {
	return m == MeetingVideo || m == MeetingInperson || m == MeetingCall
}

// Location is where the interview is held.
type Location string

const (
	LocationOnline Location = "Online"
	LocationOffice Location = "Office"
)

func (l Location) Valid() bool { return l == LocationOnline || l == LocationOffice }

var timeOfDay = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTime reports whether s is a 24-hour HH:MM time.
func ValidTime(s string) bool { return timeOfDay.MatchString(s) }

// Interview is a meeting scheduled by a practice for a candidate.
type Interview struct {
	ID              string      `json:"id"`
	PracticeUserID  string      `json:"practiceUserId"`
	CandidateUserID string      `json:"candidateUserId"`
	MeetingType     MeetingType `json:"meetingType"`
	Location        Location    `json:"location"`
	Date            string      `json:"date"`
	Time            string      `json:"time"`
	Status          Status      `json:"status"`
	Notes           *string     `json:"notes"`

	RescheduleRequested     bool       `json:"rescheduleRequested"`
	RescheduleRequestDate   *time.Time `json:"rescheduleRequestDate"`
	RescheduleRequestReason *string    `json:"rescheduleRequestReason"`
	RescheduleRequestedDate *string    `json:"rescheduleRequestedDate"`
	RescheduleRequestedTime *string    `json:"rescheduleRequestedTime"`

	Declined      bool       `json:"declined"`
	DeclineReason *string    `json:"declineReason"`
	DeclinedAt    *time.Time `json:"declinedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// clearReschedule drops any pending reschedule request.
func (iv *Interview) clearReschedule() {
	iv.RescheduleRequested = false
	iv.RescheduleRequestDate = nil
	iv.RescheduleRequestReason = nil
	iv.RescheduleRequestedDate = nil
	iv.RescheduleRequestedTime = nil
}

// ScheduledAt parses Date and Time as a UTC instant. ok is false when the
// stored date is not YYYY-MM-DD.
func (iv *Interview) ScheduledAt() (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04", iv.Date+" "+padHour(iv.Time), time.UTC)
	return t, err == nil
}

// padHour turns "9:30" into "09:30".
func padHour(t string) string {
	if len(t) == 4 && t[1] == ':' {
		return "0" + t
	}
	return t
}

// Party is the public projection of the other participant.
type Party struct {
	ID               string                      `json:"id"`
	Email            string                      `json:"email"`
	PracticeProfile  *directory.PracticeSummary  `json:"practiceProfile,omitempty"`
	CandidateProfile *directory.CandidateSummary `json:"candidateProfile,omitempty"`
}

// View is an interview joined with its participants' projections.
type View struct {
	Interview
	Practice  *Party `json:"practice,omitempty"`
	Candidate *Party `json:"candidate,omitempty"`
}

// ScheduleInput is the practice's request to create an interview.
type ScheduleInput struct {
	CandidateUserID string  `json:"candidateUserId"`
	MeetingType     string  `json:"meetingType"`
	Location        string  `json:"location"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	Notes           *string `json:"notes"`
}

// RescheduleRequest is the candidate's proposal of a new slot.
type RescheduleRequest struct {
	RequestedDate string  `json:"requestedDate"`
	RequestedTime string  `json:"requestedTime"`
	Reason        *string `json:"reason"`
}

// RescheduleApproval optionally overrides the requested slot.
type RescheduleApproval struct {
	Date string `json:"date"`
	Time string `json:"time"`
}
