package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is one recorded run of the display loop.
type Session struct {
	ID        string
	Camera    string
	Width     int
	Height    int
	StartedAt time.Time
	EndedAt   *time.Time
	Frames    int
}

// LandmarkRecord is a landmark in pixel coordinates.
type LandmarkRecord struct {
	ID int
	X  int
	Y  int
}

// HandRecord is one hand of a recorded frame.
type HandRecord struct {
	Index      int
	Handedness string
	Landmarks  []LandmarkRecord
}

// FrameRecord is one processed frame of a session.
type FrameRecord struct {
	Seq        int64
	FPS        float64
	CapturedAt time.Time
	Hands      []HandRecord
}

// SessionRepository provides access to recorded sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create starts a new session for the given camera and frame size.
func (r *SessionRepository) Create(camera string, width, height int) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		Camera:    camera,
		Width:     width,
		Height:    height,
		StartedAt: time.Now(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera, width, height, started_at, frames)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		sess.ID, sess.Camera, sess.Width, sess.Height, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// AppendFrame stores a frame and all of its landmarks in one transaction.
func (r *SessionRepository) AppendFrame(sessionID string, f *FrameRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE sessions SET frames = frames + 1 WHERE id = ?`, sessionID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if f.CapturedAt.IsZero() {
		f.CapturedAt = time.Now()
	}

	_, err = tx.Exec(
		`INSERT INTO frames (session_id, seq, fps, hands, captured_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, f.Seq, f.FPS, len(f.Hands), f.CapturedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO frame_landmarks (session_id, seq, hand_index, handedness, landmark_id, x, y)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range f.Hands {
		for _, lm := range h.Landmarks {
			if _, err := stmt.Exec(sessionID, f.Seq, h.Index, h.Handedness, lm.ID, lm.X, lm.Y); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Finish marks a session as ended.
func (r *SessionRepository) Finish(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, camera, width, height, started_at, ended_at, frames
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sess, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, camera, width, height, started_at, ended_at, frames
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// Frames retrieves every frame of a session in sequence order, with hands
// and landmarks populated.
func (r *SessionRepository) Frames(sessionID string) ([]*FrameRecord, error) {
	if _, err := r.Get(sessionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT seq, fps, captured_at FROM frames WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}

	var frames []*FrameRecord
	bySeq := make(map[int64]*FrameRecord)
	for rows.Next() {
		f := &FrameRecord{}
		if err := rows.Scan(&f.Seq, &f.FPS, &f.CapturedAt); err != nil {
			rows.Close()
			return nil, err
		}
		frames = append(frames, f)
		bySeq[f.Seq] = f
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	lmRows, err := r.db.Query(
		`SELECT seq, hand_index, handedness, landmark_id, x, y
		 FROM frame_landmarks WHERE session_id = ?
		 ORDER BY seq, hand_index, landmark_id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer lmRows.Close()

	for lmRows.Next() {
		var (
			seq        int64
			handIndex  int
			handedness string
			lm         LandmarkRecord
		)
		if err := lmRows.Scan(&seq, &handIndex, &handedness, &lm.ID, &lm.X, &lm.Y); err != nil {
			return nil, err
		}

		f, ok := bySeq[seq]
		if !ok {
			continue
		}
		if n := len(f.Hands); n == 0 || f.Hands[n-1].Index != handIndex {
			f.Hands = append(f.Hands, HandRecord{Index: handIndex, Handedness: handedness})
		}
		h := &f.Hands[len(f.Hands)-1]
		h.Landmarks = append(h.Landmarks, lm)
	}

	return frames, lmRows.Err()
}

// Delete removes a session and everything recorded for it.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var endedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.Camera, &sess.Width, &sess.Height, &sess.StartedAt, &endedAt, &sess.Frames)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
