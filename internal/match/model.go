// Package match records swipe decisions, turns mutual interest into scored
// matches and lists a user's matches.
package match

import (
	"time"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
)

// TargetType is what a like points at.
type TargetType string

const (
	TargetLocum     TargetType = "locum"
	TargetPermanent TargetType = "permanent"
	TargetCandidate TargetType = "candidate"
)

// ParseTargetType validates a raw target type.
func ParseTargetType(s string) (TargetType, bool) {
	switch t := TargetType(s); t {
	case TargetLocum, TargetPermanent, TargetCandidate:
		return t, true
	}
	return "", false
}

// IsListing reports whether t names a listing rather than a candidate.
func (t TargetType) IsListing() bool { return t == TargetLocum || t == TargetPermanent }

// ListingKind converts a listing target type for the directory.
func (t TargetType) ListingKind() directory.ListingKind { return directory.ListingKind(t) }

// Decision is the swipe direction.
type Decision string

const (
	DecisionLike Decision = "like"
	DecisionPass Decision = "pass"
)

// ParseDecision validates a raw decision.
func ParseDecision(s string) (Decision, bool) {
	switch d := Decision(s); d {
	case DecisionLike, DecisionPass:
		return d, true
	}
	return "", false
}

// Like is one immutable ledger entry.
type Like struct {
	ID          string     `json:"id"`
	ActorUserID string     `json:"actorUserId"`
	TargetType  TargetType `json:"targetType"`
	TargetID    string     `json:"targetId"`
	Decision    Decision   `json:"decision"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Status is a match lifecycle state.
type Status string

const (
	StatusMatched  Status = "matched"
	StatusArchived Status = "archived"
)

// Key identifies a match; at most one row exists per key.
type Key struct {
	CandidateUserID string
	PracticeUserID  string
	TargetType      TargetType
	TargetID        string
}

// Match is mutual interest between a candidate and a practice listing.
type Match struct {
	ID              string     `json:"id"`
	CandidateUserID string     `json:"candidateUserId"`
	PracticeUserID  string     `json:"practiceUserId"`
	TargetType      TargetType `json:"targetType"`
	TargetID        string     `json:"targetId"`
	Score           int        `json:"score"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Key returns the identity tuple of m.
func (m Match) Key() Key {
	return Key{
		CandidateUserID: m.CandidateUserID,
		PracticeUserID:  m.PracticeUserID,
		TargetType:      m.TargetType,
		TargetID:        m.TargetID,
	}
}

// HasParticipant reports whether userID is either side of m.
func (m Match) HasParticipant(userID string) bool {
	return userID != "" && (m.CandidateUserID == userID || m.PracticeUserID == userID)
}
