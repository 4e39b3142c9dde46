package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func seedSession(t *testing.T, s *store.Store) *store.Session {
	t.Helper()

	sess, err := s.Sessions().Create("camera 0", 640, 480)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	hand := store.HandRecord{Index: 0, Handedness: "Right"}
	for id := 0; id < 21; id++ {
		hand.Landmarks = append(hand.Landmarks, store.LandmarkRecord{ID: id, X: 100 + id, Y: 200})
	}
	if err := s.Sessions().AppendFrame(sess.ID, &store.FrameRecord{Seq: 1, FPS: 30, Hands: []store.HandRecord{hand}}); err != nil {
		t.Fatalf("failed to append frame: %v", err)
	}

	return sess
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(response.Sessions))
	}
	got := response.Sessions[0]
	if got.ID != sess.ID || got.Frames != 1 || got.EndedAt != nil {
		t.Errorf("session = %+v", got)
	}
}

func TestSessionHandler_List_Empty(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Body.String() != "{\"sessions\":[]}\n" {
		t.Errorf("body = %q, want an empty list", rec.Body.String())
	}
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)
	s.Sessions().Finish(sess.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got sessionResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Camera != "camera 0" || got.Width != 640 || got.Height != 480 {
		t.Errorf("session = %+v", got)
	}
	if got.EndedAt == nil {
		t.Error("ended_at should be set for a finished session")
	}
}

func TestSessionHandler_Frames(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/frames", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got listFramesResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got.Frames) != 1 || len(got.Frames[0].Hands) != 1 {
		t.Fatalf("frames = %+v", got.Frames)
	}
	lms := got.Frames[0].Hands[0].Landmarks
	if len(lms) != 21 || lms[3] != (landmarkResponse{ID: 3, X: 103, Y: 200}) {
		t.Errorf("landmarks = %+v", lms)
	}
}

func TestSessionHandler_NotFound(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sessions/missing"},
		{http.MethodGet, "/api/sessions/missing/frames"},
		{http.MethodDelete, "/api/sessions/missing"},
		{http.MethodGet, "/api/sessions/a/b"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	if _, err := s.Sessions().Get(sess.ID); err == nil {
		t.Error("session should be gone after DELETE")
	}
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	for _, path := range []string{"/api/sessions", "/api/sessions/x", "/api/sessions/x/frames"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: status = %d, want %d", path, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}
