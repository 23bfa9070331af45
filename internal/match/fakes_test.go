package match

import (
	"context"
	"sort"
	"sync"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
	"github.com/flosslyDevs/ToothMatch/internal/events"
	"github.com/flosslyDevs/ToothMatch/internal/notify"
)

// memStore is an in-memory Store honouring the unique match key.
type memStore struct {
	mu      sync.Mutex
	likes   []Like
	matches map[Key]*Match
	order   []Key
}

func newMemStore() *memStore { return &memStore{matches: map[Key]*Match{}} }

func (m *memStore) CreateLike(_ context.Context, l Like) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes = append(m.likes, l)
	return nil
}

func (m *memStore) HasLike(_ context.Context, actor string, tt TargetType, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.likes {
		if l.ActorUserID == actor && l.TargetType == tt && l.TargetID == id && l.Decision == DecisionLike {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) LikedListings(_ context.Context, actor string) ([]Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Like
	for _, l := range m.likes {
		if l.ActorUserID == actor && l.TargetType.IsListing() && l.Decision == DecisionLike {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) FindMatch(_ context.Context, key Key) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if got, ok := m.matches[key]; ok {
		cp := *got
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) CreateMatch(_ context.Context, in Match) (*Match, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if got, ok := m.matches[in.Key()]; ok {
		cp := *got
		return &cp, false, nil
	}
	stored := in
	m.matches[in.Key()] = &stored
	m.order = append(m.order, in.Key())
	return &in, true, nil
}

func (m *memStore) GetMatch(_ context.Context, id string) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, got := range m.matches {
		if got.ID == id {
			cp := *got
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListMatches(_ context.Context, userID string, limit, offset int) ([]Match, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Match
	for i := len(m.order) - 1; i >= 0; i-- {
		got := m.matches[m.order[i]]
		if got.Status == StatusMatched && got.HasParticipant(userID) {
			all = append(all, *got)
		}
	}
	total := len(all)
	if offset >= total {
		return []Match{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore) SetMatchStatus(_ context.Context, id string, st Status) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, got := range m.matches {
		if got.ID == id {
			got.Status = st
			cp := *got
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) HasActiveMatchBetween(_ context.Context, a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, got := range m.matches {
		if got.Status == StatusMatched && got.HasParticipant(a) && got.HasParticipant(b) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) matchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}

// memDirectory serves fixed users, profiles and listings.
type memDirectory struct {
	roles    map[string]directory.Role
	names    map[string]string
	profiles map[string]*directory.CandidateProfile
	listings map[string]*directory.Listing
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		roles:    map[string]directory.Role{},
		names:    map[string]string{},
		profiles: map[string]*directory.CandidateProfile{},
		listings: map[string]*directory.Listing{},
	}
}

func (d *memDirectory) UserRole(_ context.Context, id string) (directory.Role, error) {
	r, ok := d.roles[id]
	if !ok {
		return "", directory.ErrNotFound
	}
	return r, nil
}

func (d *memDirectory) CandidateProfile(_ context.Context, id string) (*directory.CandidateProfile, error) {
	return d.profiles[id], nil
}

func (d *memDirectory) Listing(_ context.Context, kind directory.ListingKind, id string) (*directory.Listing, error) {
	l, ok := d.listings[id]
	if !ok || l.Kind != kind {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (d *memDirectory) ListingsOwnedBy(_ context.Context, owner string, kind directory.ListingKind) ([]directory.Listing, error) {
	var out []directory.Listing
	for _, l := range d.listings {
		if l.OwnerUserID == owner && l.Kind == kind {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *memDirectory) DisplayInfo(_ context.Context, id string, _ directory.Role) (directory.DisplayInfo, error) {
	var info directory.DisplayInfo
	if n, ok := d.names[id]; ok {
		info.Name = &n
	}
	return info, nil
}

func (d *memDirectory) CandidateSummary(_ context.Context, id string) (*directory.CandidateSummary, error) {
	p, ok := d.profiles[id]
	if !ok {
		return nil, nil
	}
	return &directory.CandidateSummary{ID: p.ID, UserID: id, FullName: p.FullName}, nil
}

func (d *memDirectory) PracticeSummary(_ context.Context, id string) (*directory.PracticeSummary, error) {
	if d.roles[id] != directory.RolePractice {
		return nil, nil
	}
	n := d.names[id]
	return &directory.PracticeSummary{ID: "pp-" + id, UserID: id, Name: &n}, nil
}

type sentLike struct {
	recipient string
	liker     notify.Liker
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentLike
}

func (n *recordingNotifier) NotifyLike(_ context.Context, recipient string, liker notify.Liker) (notify.Report, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentLike{recipient: recipient, liker: liker})
	return notify.Report{Total: 1, Successful: 1}, nil
}

type published struct {
	evt        events.Event
	recipients []string
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []published
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event, recipients ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, published{evt: evt, recipients: recipients})
}

func (p *recordingPublisher) ofType(t events.Type) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.got {
		if e.evt.Type == t {
			out = append(out, e)
		}
	}
	return out
}
