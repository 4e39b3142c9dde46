package server

import (
	"encoding/json"
	"sync"

	"github.com/ayusman/mudra/internal/tracker"
)

const (
	frameBuffer  = 2
	updateBuffer = 16
)

// Hand is one tracked hand as published to clients.
type Hand struct {
	Index       int                `json:"index"`
	Handedness  string             `json:"handedness"`
	Fingers     []bool             `json:"fingers"`
	FingerCount int                `json:"finger_count"`
	Landmarks   []tracker.Landmark `json:"landmarks"`
}

// Update describes the result of one display loop iteration.
type Update struct {
	Seq       int64   `json:"seq"`
	Timestamp int64   `json:"timestamp"`
	FPS       float64 `json:"fps"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Hands     []Hand  `json:"hands"`
}

// Hub keeps the most recent frame and update and fans both out to
// subscribers. Slow subscribers miss messages rather than blocking Publish.
type Hub struct {
	mu         sync.RWMutex
	frame      []byte
	update     []byte
	frameSubs  map[chan []byte]struct{}
	updateSubs map[chan []byte]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		frameSubs:  make(map[chan []byte]struct{}),
		updateSubs: make(map[chan []byte]struct{}),
	}
}

// Publish stores u and the JPEG encoded frame as the latest state and
// forwards them to subscribers. A nil jpeg keeps the previous frame.
func (h *Hub) Publish(u Update, jpeg []byte) error {
	if u.Hands == nil {
		u.Hands = []Hand{}
	}
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.update = payload
	if jpeg != nil {
		h.frame = jpeg
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.updateSubs {
		select {
		case ch <- payload:
		default:
		}
	}
	if jpeg != nil {
		for ch := range h.frameSubs {
			select {
			case ch <- jpeg:
			default:
			}
		}
	}
	return nil
}

// Latest returns the JSON encoding of the most recent update, or nil if
// nothing has been published.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.update
}

// Frame returns the most recent JPEG frame, or nil.
func (h *Hub) Frame() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frame
}

// SubscribeFrames returns a channel of JPEG frames and a cleanup function
// the caller must call when done.
func (h *Hub) SubscribeFrames() (<-chan []byte, func()) {
	return h.subscribe(h.frameSubs, frameBuffer)
}

// SubscribeUpdates returns a channel of JSON encoded updates and a cleanup
// function the caller must call when done.
func (h *Hub) SubscribeUpdates() (<-chan []byte, func()) {
	return h.subscribe(h.updateSubs, updateBuffer)
}

// Subscribers reports the number of live frame and update subscribers.
func (h *Hub) Subscribers() (frames, updates int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.frameSubs), len(h.updateSubs)
}

func (h *Hub) subscribe(subs map[chan []byte]struct{}, size int) (<-chan []byte, func()) {
	ch := make(chan []byte, size)
	h.mu.Lock()
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
