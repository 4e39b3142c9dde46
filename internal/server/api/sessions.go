// Package api provides HTTP handlers for recorded tracking sessions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes requests for:
//
//	/api/sessions
//	/api/sessions/{id}
//	/api/sessions/{id}/frames
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/frames"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frames(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Response types

type sessionResponse struct {
	ID        string  `json:"id"`
	Camera    string  `json:"camera"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Frames    int     `json:"frames"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type landmarkResponse struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

type handResponse struct {
	Index      int                `json:"index"`
	Handedness string             `json:"handedness"`
	Landmarks  []landmarkResponse `json:"landmarks"`
}

type frameResponse struct {
	Seq        int64          `json:"seq"`
	FPS        float64        `json:"fps"`
	CapturedAt string         `json:"captured_at"`
	Hands      []handResponse `json:"hands"`
}

type listFramesResponse struct {
	SessionID string          `json:"session_id"`
	Frames    []frameResponse `json:"frames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Camera:    s.Camera,
		Width:     s.Width,
		Height:    s.Height,
		Frames:    s.Frames,
		StartedAt: s.StartedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.Format(time.RFC3339)
		resp.EndedAt = &ended
	}
	return resp
}

func toFrameResponse(f *store.FrameRecord) frameResponse {
	resp := frameResponse{
		Seq:        f.Seq,
		FPS:        f.FPS,
		CapturedAt: f.CapturedAt.Format(time.RFC3339Nano),
		Hands:      make([]handResponse, 0, len(f.Hands)),
	}
	for _, h := range f.Hands {
		hr := handResponse{
			Index:      h.Index,
			Handedness: h.Handedness,
			Landmarks:  make([]landmarkResponse, 0, len(h.Landmarks)),
		}
		for _, lm := range h.Landmarks {
			hr.Landmarks = append(hr.Landmarks, landmarkResponse(lm))
		}
		resp.Hands = append(resp.Hands, hr)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(session))
}

// frames handles GET /api/sessions/{id}/frames.
func (h *SessionHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	frames, err := h.store.Sessions().Frames(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get frames")
		return
	}

	response := listFramesResponse{
		SessionID: id,
		Frames:    make([]frameResponse, 0, len(frames)),
	}
	for _, f := range frames {
		response.Frames = append(response.Frames, toFrameResponse(f))
	}

	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Sessions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
