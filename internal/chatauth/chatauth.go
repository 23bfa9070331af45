// Package chatauth answers whether two users may message each other: they
// need a confirmed or completed interview, or an active match.
package chatauth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

// InterviewChecker reports a chat-eligible interview between two users.
type InterviewChecker interface {
	HasChatEligibleInterview(ctx context.Context, a, b string) (bool, error)
}

// MatchChecker reports an active match between two users.
type MatchChecker interface {
	HasActiveMatchBetween(ctx context.Context, a, b string) (bool, error)
}

// Service evaluates the messaging predicate.
type Service struct {
	interviews InterviewChecker
	matches    MatchChecker
}

// NewService returns a Service.
func NewService(interviews InterviewChecker, matches MatchChecker) *Service {
	return &Service{interviews: interviews, matches: matches}
}

// HasConfirmedInterviewOrMatch is symmetric in a and b. A user may not
// message themselves.
func (s *Service) HasConfirmedInterviewOrMatch(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" {
		return false, apperr.Validation("both user ids are required")
	}
	if a == b {
		return false, nil
	}
	ok, err := s.interviews.HasChatEligibleInterview(ctx, a, b)
	if err != nil || ok {
		return ok, err
	}
	return s.matches.HasActiveMatchBetween(ctx, a, b)
}

// ─── HTTP ────────────────────────────────────────────────────────────────────

// Handler serves GET /chat/permission/{userId} for the authenticated caller.
type Handler struct {
	svc *Service
	log logger.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the permission route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /chat/permission/{userId}", h.permission)
}

func (h *Handler) permission(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	caller := auth.UserID(r.Context())
	if caller == "" {
		writeError(w, apperr.Unauthenticated("User not authenticated"))
		return
	}
	allowed, err := h.svc.HasConfirmedInterviewOrMatch(r.Context(), caller, r.PathValue("userId"))
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			h.log.Error("chat permission check failed", map[string]interface{}{"error": err})
		}
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"allowed": allowed})
}

func writeError(w http.ResponseWriter, err error) {
	w.WriteHeader(apperr.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{
		"message": apperr.Message(err),
		"code":    apperr.CodeOf(err),
	})
}
