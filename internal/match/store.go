package match

import (
	"context"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
)

// Store persists the like ledger and matches.
type Store interface {
	CreateLike(ctx context.Context, l Like) error
	// HasLike reports whether actor has ever liked the target.
	HasLike(ctx context.Context, actorUserID string, targetType TargetType, targetID string) (bool, error)
	// LikedListings returns actor's likes on locum and permanent listings.
	LikedListings(ctx context.Context, actorUserID string) ([]Like, error)

	FindMatch(ctx context.Context, key Key) (*Match, error)
	// CreateMatch inserts m unless a match with the same key exists. The
	// stored row is returned either way; created is false when it existed.
	CreateMatch(ctx context.Context, m Match) (stored *Match, created bool, err error)
	GetMatch(ctx context.Context, id string) (*Match, error)
	ListMatches(ctx context.Context, userID string, limit, offset int) ([]Match, int, error)
	SetMatchStatus(ctx context.Context, id string, status Status) (*Match, error)
	HasActiveMatchBetween(ctx context.Context, userA, userB string) (bool, error)
}

// Directory is the read side of users, profiles and listings.
type Directory interface {
	UserRole(ctx context.Context, userID string) (directory.Role, error)
	CandidateProfile(ctx context.Context, userID string) (*directory.CandidateProfile, error)
	Listing(ctx context.Context, kind directory.ListingKind, id string) (*directory.Listing, error)
	ListingsOwnedBy(ctx context.Context, ownerUserID string, kind directory.ListingKind) ([]directory.Listing, error)
	DisplayInfo(ctx context.Context, userID string, role directory.Role) (directory.DisplayInfo, error)
	CandidateSummary(ctx context.Context, userID string) (*directory.CandidateSummary, error)
	PracticeSummary(ctx context.Context, userID string) (*directory.PracticeSummary, error)
}
