package interview

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
	"github.com/flosslyDevs/ToothMatch/internal/events"
)

// memStore is an in-memory Store with the same stale-write check as Postgres.
type memStore struct {
	mu   sync.Mutex
	rows map[string]Interview
	// writes counts successful updates.
	writes int
}

func newMemStore() *memStore { return &memStore{rows: map[string]Interview{}} }

func (m *memStore) Create(_ context.Context, iv Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[iv.ID] = iv
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &iv, nil
}

func (m *memStore) filter(keep func(Interview) bool) []Interview {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Interview, 0)
	for _, iv := range m.rows {
		if keep(iv) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func (m *memStore) ListForCandidate(_ context.Context, id string) ([]Interview, error) {
	return m.filter(func(iv Interview) bool { return iv.CandidateUserID == id }), nil
}

func (m *memStore) ListForPractice(_ context.Context, id string) ([]Interview, error) {
	return m.filter(func(iv Interview) bool { return iv.PracticeUserID == id }), nil
}

func (m *memStore) ListConfirmed(context.Context) ([]Interview, error) {
	return m.filter(func(iv Interview) bool { return iv.Status == StatusConfirmed }), nil
}

func (m *memStore) Update(_ context.Context, iv Interview, prev time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[iv.ID]
	if !ok || !cur.UpdatedAt.Equal(prev) {
		return ErrStale
	}
	m.rows[iv.ID] = iv
	m.writes++
	return nil
}

func (m *memStore) HasChatEligibleBetween(_ context.Context, a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, iv := range m.rows {
		pair := (iv.PracticeUserID == a && iv.CandidateUserID == b) || (iv.PracticeUserID == b && iv.CandidateUserID == a)
		if pair && AllowsChat(iv.Status) {
			return true, nil
		}
	}
	return false, nil
}

// touch simulates a concurrent writer.
func (m *memStore) touch(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv := m.rows[id]
	iv.UpdatedAt = at
	m.rows[id] = iv
}

type memDirectory struct {
	users map[string]*directory.User
}

func (d *memDirectory) User(_ context.Context, id string) (*directory.User, error) {
	return d.users[id], nil
}

func (d *memDirectory) CandidateSummary(_ context.Context, id string) (*directory.CandidateSummary, error) {
	u := d.users[id]
	if u == nil || u.Role != directory.RoleCandidate {
		return nil, nil
	}
	return &directory.CandidateSummary{ID: "cp-" + id, UserID: id, FullName: u.FullName, JobTitle: "Dental Nurse"}, nil
}

func (d *memDirectory) PracticeSummary(_ context.Context, id string) (*directory.PracticeSummary, error) {
	u := d.users[id]
	if u == nil || u.Role != directory.RolePractice {
		return nil, nil
	}
	name := u.FullName
	return &directory.PracticeSummary{ID: "pp-" + id, UserID: id, ClinicType: "NHS", PhoneNumber: "0123", Name: &name}, nil
}

type published struct {
	evt        events.Event
	recipients []string
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []published
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event, recipients ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, published{evt: evt, recipients: recipients})
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}
