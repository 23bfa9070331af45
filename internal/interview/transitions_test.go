package interview_test

import (
	"testing"

	"github.com/flosslyDevs/ToothMatch/internal/interview"
)

var allStatuses = []interview.Status{
	interview.StatusScheduled,
	interview.StatusConfirmed,
	interview.StatusCancelled,
	interview.StatusCompleted,
}

func TestIsTransitionAllowed_Matrix(t *testing.T) {
	allowed := map[[2]interview.Status]bool{
		{interview.StatusScheduled, interview.StatusConfirmed}: true,
		{interview.StatusScheduled, interview.StatusCancelled}: true,
		{interview.StatusConfirmed, interview.StatusScheduled}: true,
		{interview.StatusConfirmed, interview.StatusCompleted}: true,
		{interview.StatusConfirmed, interview.StatusCancelled}: true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]interview.Status{from, to}]
			if got := interview.IsTransitionAllowed(from, to); got != want {
				t.Errorf("IsTransitionAllowed(%s → %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

// A scheduled interview cannot skip confirmation.
func TestIsTransitionAllowed_ScheduledCannotComplete(t *testing.T) {
	if interview.IsTransitionAllowed(interview.StatusScheduled, interview.StatusCompleted) {
		t.Error("scheduled → completed must not be allowed")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range allStatuses {
		want := s == interview.StatusCancelled || s == interview.StatusCompleted
		if got := interview.IsTerminal(s); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := interview.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}
	for _, s := range []string{"", "Scheduled", "CONFIRMED", " confirmed", "declined"} {
		if _, err := interview.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) should fail", s)
		}
	}
}

func TestAllowsChat(t *testing.T) {
	for _, s := range allStatuses {
		want := s == interview.StatusConfirmed || s == interview.StatusCompleted
		if got := interview.AllowsChat(s); got != want {
			t.Errorf("AllowsChat(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestValidTime(t *testing.T) {
	valid := []string{"14:30", "00:00", "23:59", "9:05", "09:05"}
	for _, s := range valid {
		if !interview.ValidTime(s) {
			t.Errorf("ValidTime(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "24:00", "12:60", "2:3", "14:30:00", "2pm", "14.30"}
	for _, s := range invalid {
		if interview.ValidTime(s) {
			t.Errorf("ValidTime(%q) = true, want false", s)
		}
	}
}
