package match

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

// Handler exposes the match service over HTTP. Every route requires an
// authenticated caller.
//
//	POST /match/like                  → record a swipe, resolve a match
//	GET  /match/matches               → list the caller's active matches
//	POST /match/matches/{id}/archive  → archive a match for both parties
type Handler struct {
	svc *Service
	log logger.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts all match routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /match/like", h.like)
	mux.HandleFunc("GET /match/matches", h.listMatches)
	mux.HandleFunc("POST /match/matches/{id}/archive", h.archive)
}

type likeRequest struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	Decision   string `json:"decision"`
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		jsonError(w, apperr.Unauthenticated("User not authenticated"))
		return
	}

	var body likeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, apperr.Validation("invalid JSON body"))
		return
	}

	res, err := h.svc.LikeTarget(r.Context(), userID, body.TargetType, body.TargetID, body.Decision)
	if err != nil {
		h.logFailure("like", err)
		jsonError(w, err)
		return
	}
	jsonWrite(w, http.StatusCreated, res)
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		jsonError(w, apperr.Unauthenticated("User not authenticated"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	res, err := h.svc.GetMatches(r.Context(), userID, page, limit)
	if err != nil {
		h.logFailure("getMatches", err)
		jsonError(w, err)
		return
	}
	jsonWrite(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		jsonError(w, apperr.Unauthenticated("User not authenticated"))
		return
	}

	m, err := h.svc.ArchiveMatch(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.logFailure("archiveMatch", err)
		jsonError(w, err)
		return
	}
	jsonWrite(w, http.StatusOK, map[string]any{"message": "Match archived", "match": m})
}

func (h *Handler) logFailure(op string, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		h.log.Error(op+" failed", map[string]interface{}{"error": err})
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonWrite(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, err error) {
	jsonWrite(w, apperr.HTTPStatus(err), map[string]string{
		"message": apperr.Message(err),
		"code":    apperr.CodeOf(err),
	})
}
