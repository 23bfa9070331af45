package interview

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

// Handler exposes the interview service over HTTP. All routes require an
// authenticated caller:
//
//	POST /interview                         → practice schedules an interview
//	GET  /interview                         → caller's interviews, role auto-detected
//	GET  /interview/candidate               → candidate's interviews
//	GET  /interview/practice                → practice's scheduled interviews
//	POST /interview/{id}/reschedule-request → candidate proposes a new slot
//	PUT  /interview/{id}/reschedule         → practice approves the new slot
//	POST /interview/{id}/decline            → candidate declines
//	POST /interview/{id}/accept             → candidate confirms
type Handler struct {
	svc *Service
	log logger.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts all interview routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /interview", h.schedule)
	mux.HandleFunc("GET /interview", h.listMine)
	mux.HandleFunc("GET /interview/candidate", h.listCandidate)
	mux.HandleFunc("GET /interview/practice", h.listPractice)
	mux.HandleFunc("POST /interview/{id}/reschedule-request", h.requestReschedule)
	mux.HandleFunc("PUT /interview/{id}/reschedule", h.approveReschedule)
	mux.HandleFunc("POST /interview/{id}/decline", h.decline)
	mux.HandleFunc("POST /interview/{id}/accept", h.accept)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body ScheduleInput
	if !h.decode(w, r, &body) {
		return
	}
	v, err := h.svc.Schedule(r.Context(), userID, body)
	if err != nil {
		h.fail(w, "scheduleInterview", err)
		return
	}
	jsonWrite(w, http.StatusCreated, map[string]any{"message": "Interview scheduled successfully", "interview": v})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		h.fail(w, "getMyInterviews", err)
		return
	}
	jsonWrite(w, http.StatusOK, res)
}

func (h *Handler) listCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListForCandidate(r.Context(), userID)
	if err != nil {
		h.fail(w, "getCandidateInterviews", err)
		return
	}
	jsonWrite(w, http.StatusOK, res)
}

func (h *Handler) listPractice(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListForPractice(r.Context(), userID)
	if err != nil {
		h.fail(w, "getPracticeInterviews", err)
		return
	}
	jsonWrite(w, http.StatusOK, res)
}

func (h *Handler) requestReschedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body RescheduleRequest
	if !h.decode(w, r, &body) {
		return
	}
	iv, err := h.svc.RequestReschedule(r.Context(), userID, r.PathValue("id"), body)
	if err != nil {
		h.fail(w, "requestReschedule", err)
		return
	}
	jsonWrite(w, http.StatusOK, map[string]any{"message": "Reschedule request submitted", "interview": iv})
}

func (h *Handler) approveReschedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body RescheduleApproval
	if !h.decode(w, r, &body) {
		return
	}
	iv, err := h.svc.ApproveReschedule(r.Context(), userID, r.PathValue("id"), body)
	if err != nil {
		h.fail(w, "approveReschedule", err)
		return
	}
	jsonWrite(w, http.StatusOK, map[string]any{"message": "Interview rescheduled successfully", "interview": iv})
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason *string `json:"reason"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	iv, err := h.svc.Decline(r.Context(), userID, r.PathValue("id"), body.Reason)
	if err != nil {
		h.fail(w, "declineInterview", err)
		return
	}
	jsonWrite(w, http.StatusOK, map[string]any{"message": "Interview declined", "interview": iv})
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	iv, err := h.svc.Accept(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.fail(w, "acceptInterview", err)
		return
	}
	jsonWrite(w, http.StatusOK, map[string]any{"message": "Interview accepted", "interview": iv})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		jsonError(w, apperr.Unauthenticated("User not authenticated"))
		return "", false
	}
	return userID, true
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, apperr.Validation("invalid JSON body"))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		h.log.Error(op+" failed", map[string]interface{}{"error": err})
	}
	jsonError(w, err)
}

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
