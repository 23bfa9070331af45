package chatauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

// pairs is a symmetric relation used for both checkers.
type pairs struct {
	set   map[[2]string]bool
	err   error
	calls int
}

func newPairs(p ...[2]string) *pairs {
	out := &pairs{set: map[[2]string]bool{}}
	for _, x := range p {
		out.set[x] = true
	}
	return out
}

func (p *pairs) has(a, b string) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	return p.set[[2]string{a, b}] || p.set[[2]string{b, a}], nil
}

type interviews struct{ *pairs }

func (i interviews) HasChatEligibleInterview(_ context.Context, a, b string) (bool, error) {
	return i.has(a, b)
}

type matches struct{ *pairs }

func (m matches) HasActiveMatchBetween(_ context.Context, a, b string) (bool, error) {
	return m.has(a, b)
}

func TestHasConfirmedInterviewOrMatch(t *testing.T) {
	iv := newPairs([2]string{"p-1", "c-1"})
	mt := newPairs([2]string{"p-2", "c-2"})
	svc := NewService(interviews{iv}, matches{mt})
	ctx := context.Background()

	tests := []struct {
		a, b string
		want bool
	}{
		{"p-1", "c-1", true},
		{"c-1", "p-1", true},
		{"c-2", "p-2", true},
		{"p-1", "c-2", false},
		{"c-1", "c-1", false},
	}
	for _, tt := range tests {
		got, err := svc.HasConfirmedInterviewOrMatch(ctx, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s ↔ %s", tt.a, tt.b)
	}

	_, err := svc.HasConfirmedInterviewOrMatch(ctx, "", "c-1")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestHasConfirmedInterviewOrMatch_ShortCircuits(t *testing.T) {
	iv := newPairs([2]string{"p-1", "c-1"})
	mt := newPairs()
	svc := NewService(interviews{iv}, matches{mt})

	ok, err := svc.HasConfirmedInterviewOrMatch(context.Background(), "p-1", "c-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, mt.calls)
}

func TestHasConfirmedInterviewOrMatch_PropagatesErrors(t *testing.T) {
	iv := newPairs()
	iv.err = apperr.Storage("check interview", errors.New("conn reset"))
	svc := NewService(interviews{iv}, matches{newPairs()})

	_, err := svc.HasConfirmedInterviewOrMatch(context.Background(), "a", "b")
	assert.True(t, apperr.Is(err, apperr.KindStorage))
}

func TestHandler_Permission(t *testing.T) {
	svc := NewService(interviews{newPairs([2]string{"p-1", "c-1"})}, matches{newPairs()})
	mux := http.NewServeMux()
	NewHandler(svc, logger.NewTestLogger(t)).RegisterRoutes(mux)

	call := func(caller, other string) (int, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, "/chat/permission/"+other, nil)
		if caller != "" {
			req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: caller}))
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec.Code, out
	}

	code, body := call("c-1", "p-1")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["allowed"])

	code, body = call("c-1", "p-9")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["allowed"])

	code, _ = call("", "p-1")
	assert.Equal(t, http.StatusUnauthorized, code)
}
