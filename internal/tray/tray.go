// Package tray provides a system tray menu for toggling overlays and
// watching tracking status.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

const (
	titleOverlaysOn  = "● Overlays on"
	titleOverlaysOff = "○ Overlays off"
	statusIdle       = "Hands: none"
)

// Tray is the menu bar item: an overlay switch, a read-only status line
// and Quit.
type Tray struct {
	mu       sync.RWMutex
	enabled  bool
	status   string
	onToggle func(enabled bool)
	onQuit   func()

	// nil until onReady
	toggleItem *systray.MenuItem
	statusItem *systray.MenuItem
}

// New creates a new Tray instance with overlays enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  statusIdle,
	}
}

// OnToggle registers fn to run with the new state whenever the overlay item
// is clicked.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit registers fn to run before the tray exits from its Quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and blocks until Quit. On macOS it must be called from
// the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand tracking")

	t.mu.Lock()
	t.toggleItem = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle landmark overlays")
	systray.AddSeparator()
	t.statusItem = systray.AddMenuItem(t.status, "Hands in the last frame")
	t.statusItem.Disable()
	toggle := t.toggleItem.ClickedCh
	t.mu.Unlock()

	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Quit Mudra").ClickedCh

	go func() {
		for {
			select {
			case <-toggle:
				t.handleToggle()
			case <-quit:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return titleOverlaysOn
	}
	return titleOverlaysOff
}

func (t *Tray) onExit() {}

// handleToggle flips the overlay state. The callback runs without the lock
// held so that it may call back into the tray.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.toggleItem != nil {
		t.toggleItem.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line. handedness is the label of the last
// detected hand and may be empty.
func (t *Tray) SetStatus(hands int, handedness string, fps float64) {
	text := StatusText(hands, handedness, fps)

	t.mu.Lock()
	defer t.mu.Unlock()

	if text == t.status {
		return
	}
	t.status = text
	if t.statusItem != nil {
		t.statusItem.SetTitle(text)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns whether overlays are on.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// StatusText formats the status line, e.g. "Hands: 1 (Right) · 30 fps".
func StatusText(hands int, handedness string, fps float64) string {
	if hands == 0 {
		if fps > 0 {
			return fmt.Sprintf("%s · %d fps", statusIdle, int(fps))
		}
		return statusIdle
	}

	text := fmt.Sprintf("Hands: %d", hands)
	if handedness != "" {
		text += " (" + handedness + ")"
	}
	if fps > 0 {
		text += fmt.Sprintf(" · %d fps", int(fps))
	}
	return text
}
