package paper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/logging"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
	httperr "github.com/juliaizbroke/SeniorProject1-sub000/pkg/http/errors"
)

// HTTPHandlers exposes the editing-session API.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates the REST handlers.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "paper_http").Logger(),
	}
}

// Mount attaches the session routes under the given router.
func (h *HTTPHandlers) Mount(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/shuffle", h.Shuffle)
		r.Post("/refresh", h.Refresh)
		r.Post("/finalize", h.Finalize)

		r.Post("/locks/pin", h.lockAction(h.service.Pin))
		r.Post("/locks/unpin", h.lockAction(h.service.Unpin))
		r.Post("/locks/lock-category", h.lockAction(h.service.LockCategory))
		r.Post("/locks/unlock-category", h.lockAction(h.service.UnlockCategory))
		r.Delete("/locks", h.ClearLocks)

		r.Post("/edit/begin", h.BeginEdit)
		r.Post("/edit/end", h.EndEdit)

		r.Post("/duplicates/resolve", h.ResolveDuplicates)
		r.Post("/duplicates/ignore", h.IgnoreDuplicates)
	})
}

type createSessionRequest struct {
	Pool              []question.Question `json:"pool"`
	SelectionSettings map[string]int      `json:"selection_settings"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Snapshot
}

type shuffleResponse struct {
	Mode string `json:"mode"`
	Snapshot
}

type identifierRequest struct {
	ID string `json:"id"`
}

type resolveRequest struct {
	GroupID       string `json:"group_id"`
	SurvivorIndex int    `json:"survivor_index"`
}

type ignoreRequest struct {
	GroupID string `json:"group_id"`
}

type finalizeResponse struct {
	Questions []question.Question `json:"questions"`
}

// CreateSession handles POST /v1/sessions.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	id, snap, err := h.service.CreateSession(r.Context(), req.Pool, req.SelectionSettings)
	if err != nil {
		if errors.Is(err, ErrEmptyPool) {
			httperr.RespondBadRequest(w, httperr.ErrCodeEmptyPool, "Pool must contain at least one question")
			return
		}
		h.logger.Error().Err(err).Msg("create session failed")
		httperr.RespondInternalError(w, "Could not create session")
		return
	}

	h.respond(w, http.StatusCreated, createSessionResponse{SessionID: id.String(), Snapshot: snap})
}

// GetSession handles GET /v1/sessions/{sessionID}.
func (h *HTTPHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Session(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "fetch session")
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// Shuffle handles POST /v1/sessions/{sessionID}/shuffle.
func (h *HTTPHandlers) Shuffle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	mode, snap, err := h.service.Shuffle(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrShuffleDisabled) {
			httperr.RespondConflict(w, httperr.ErrCodeShuffleDisabled, "No unlocked question can be changed")
			return
		}
		h.respondServiceError(w, r, err, "shuffle")
		return
	}
	h.respond(w, http.StatusOK, shuffleResponse{Mode: string(mode), Snapshot: snap})
}

// Refresh handles POST /v1/sessions/{sessionID}/refresh.
func (h *HTTPHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Refresh(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "refresh")
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// Finalize handles POST /v1/sessions/{sessionID}/finalize.
func (h *HTTPHandlers) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	questions, err := h.service.Finalize(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "finalize")
		return
	}
	h.respond(w, http.StatusOK, finalizeResponse{Questions: questions})
}

// lockAction adapts the four identifier-based lock operations to one handler
// shape.
func (h *HTTPHandlers) lockAction(op func(ctx context.Context, id uuid.UUID, slot question.SlotID) (Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.sessionID(w, r)
		if !ok {
			return
		}
		slot, ok := h.identifier(w, r)
		if !ok {
			return
		}
		snap, err := op(r.Context(), id, slot)
		if err != nil {
			h.respondServiceError(w, r, err, "lock operation")
			return
		}
		h.respond(w, http.StatusOK, snap)
	}
}

// ClearLocks handles DELETE /v1/sessions/{sessionID}/locks.
func (h *HTTPHandlers) ClearLocks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.ClearLocks(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "clear locks")
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// BeginEdit handles POST /v1/sessions/{sessionID}/edit/begin.
func (h *HTTPHandlers) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	slot, ok := h.identifier(w, r)
	if !ok {
		return
	}
	if err := h.service.BeginEdit(r.Context(), id, slot); err != nil {
		h.respondServiceError(w, r, err, "begin edit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndEdit handles POST /v1/sessions/{sessionID}/edit/end.
func (h *HTTPHandlers) EndEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	slot, ok := h.identifier(w, r)
	if !ok {
		return
	}
	if err := h.service.EndEdit(r.Context(), id, slot); err != nil {
		h.respondServiceError(w, r, err, "end edit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveDuplicates handles POST /v1/sessions/{sessionID}/duplicates/resolve.
func (h *HTTPHandlers) ResolveDuplicates(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidRequest, "group_id and survivor_index are required")
		return
	}
	snap, err := h.service.KeepOne(r.Context(), id, req.GroupID, req.SurvivorIndex)
	if err != nil {
		if errors.Is(err, ErrSurvivorNotInGroup) {
			httperr.RespondBadRequest(w, httperr.ErrCodeUnknownGroup, "Survivor is not a member of the group")
			return
		}
		h.respondServiceError(w, r, err, "resolve duplicates")
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// IgnoreDuplicates handles POST /v1/sessions/{sessionID}/duplicates/ignore.
func (h *HTTPHandlers) IgnoreDuplicates(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req ignoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidRequest, "group_id is required")
		return
	}
	snap, err := h.service.IgnoreGroup(r.Context(), id, req.GroupID)
	if err != nil {
		h.respondServiceError(w, r, err, "ignore duplicates")
		return
	}
	h.respond(w, http.StatusOK, snap)
}

func (h *HTTPHandlers) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidRequest, "Invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *HTTPHandlers) identifier(w http.ResponseWriter, r *http.Request) (question.SlotID, bool) {
	var req identifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		httperr.RespondBadRequest(w, httperr.ErrCodeMissingField, "id is required")
		return "", false
	}
	return question.SlotID(req.ID), true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperr.RespondNotFound(w, httperr.ErrCodeSessionNotFound, "Session not found or expired")
	case errors.Is(err, ErrUnknownEntry):
		httperr.RespondNotFound(w, httperr.ErrCodeUnknownEntry, "Identifier matches no working-list entry")
	case errors.Is(err, ErrNotDistractor):
		httperr.RespondBadRequest(w, httperr.ErrCodeNotDistractor, "Category locks apply to fake answers only")
	case errors.Is(err, ErrEntryLocked):
		httperr.RespondConflict(w, httperr.ErrCodeEntryLocked, "Entry is locked")
	default:
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Str("op", op).Msg("session operation failed")
		httperr.RespondInternalError(w, "Operation failed")
	}
}

func (h *HTTPHandlers) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn().Err(err).Msg("encode response failed")
	}
}
