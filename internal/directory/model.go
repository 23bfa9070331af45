// Package directory reads users, profiles and listings owned by the profile
// and listing services. Nothing here writes to those tables.
package directory

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// Role mirrors users.role.
type Role string

const (
	RoleCandidate Role = "candidate"
	RolePractice  Role = "practice"
)

// ListingKind selects locum_shifts or permanent_jobs.
type ListingKind string

const (
	KindLocum     ListingKind = "locum"
	KindPermanent ListingKind = "permanent"
)

// Valid reports whether k names a listing table.
func (k ListingKind) Valid() bool { return k == KindLocum || k == KindPermanent }

// User is the subset of users read by this service.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     Role   `json:"role"`
}

// Preference is a candidate's job preference. Nil numeric fields were not
// provided.
type Preference struct {
	JobType        string   `json:"jobType,omitempty"`
	WorkingPattern string   `json:"workingPattern,omitempty"`
	PayMin         *float64 `json:"payMin,omitempty"`
	PayMax         *float64 `json:"payMax,omitempty"`
	HourlyRate     *float64 `json:"hourlyRate,omitempty"`
	SearchRadiusKm *float64 `json:"searchRadiusKm,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

// CandidateProfile is a candidate with their preference, if any.
type CandidateProfile struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	FullName   string      `json:"fullName"`
	JobTitle   string      `json:"jobTitle,omitempty"`
	Preference *Preference `json:"preference,omitempty"`
}

// Listing is a locum shift or permanent job. Locum shifts carry Time and
// rates; permanent jobs carry WorkingHours and SalaryRange.
type Listing struct {
	ID               string      `json:"id"`
	OwnerUserID      string      `json:"userId"`
	Kind             ListingKind `json:"kind"`
	Status           string      `json:"status,omitempty"`
	Role             string      `json:"role,omitempty"`
	JobType          string      `json:"jobType,omitempty"`
	JobTitle         string      `json:"jobTitle,omitempty"`
	Location         string      `json:"location,omitempty"`
	Date             string      `json:"date,omitempty"`
	Time             string      `json:"time,omitempty"`
	WorkingHours     string      `json:"workingHours,omitempty"`
	HourlyRate       *float64    `json:"hourlyRate,omitempty"`
	DayRate          *float64    `json:"dayRate,omitempty"`
	SalaryRange      string      `json:"salaryRange,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	OwnerHasLocation bool        `json:"-"`
}

// DisplayInfo is a name and avatar shown next to a like or match.
type DisplayInfo struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// CandidateSummary is the public candidate projection.
type CandidateSummary struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	FullName string  `json:"fullName"`
	JobTitle string  `json:"jobTitle,omitempty"`
	Avatar   *string `json:"avatar"`
}

// PracticeSummary is the public practice projection.
type PracticeSummary struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	ClinicType  string  `json:"clinicType,omitempty"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
	Name        *string `json:"name"`
	Avatar      *string `json:"avatar"`
}
