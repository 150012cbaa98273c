package clips

import (
	"fmt"
	"sync"
	"time"

	"github.com/kikiluvv/ytclipper/internal/segments"
)

// Clip is a rendered output file and the source window it was cut from.
// Re-editing updates Start and End in place; Path never changes.
type Clip struct {
	ID    string
	JobID string
	Index int
	Path  string
	Start time.Duration
	End   time.Duration
}

// Duration returns the clip's source window length.
func (c *Clip) Duration() time.Duration {
	return c.End - c.Start
}

// Window returns the clip's source window.
func (c *Clip) Window() segments.Window {
	return segments.Window{Start: c.Start, End: c.End}
}

// FileName is the output name of the clip at index.
func FileName(index int) string {
	return fmt.Sprintf("clip_%d.mp4", index)
}

// Manager holds an ordered, in-memory clip list shared between a producer
// and a UI.
type Manager struct {
	mu    sync.RWMutex
	clips []*Clip
}

// NewManager creates a new clip manager
func NewManager() *Manager {
	return &Manager{
		clips: make([]*Clip, 0),
	}
}

// Add adds a clip to the manager
func (m *Manager) Add(clip *Clip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips = append(m.clips, clip)
}

// Reset replaces the list.
func (m *Manager) Reset(clips []*Clip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips = append(make([]*Clip, 0, len(clips)), clips...)
}

// Get retrieves a clip by ID
func (m *Manager) Get(id string) *Clip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, clip := range m.clips {
		if clip.ID == id {
			return clip
		}
	}
	return nil
}

// At returns the i-th clip in insertion order, or nil.
func (m *Manager) At(i int) *Clip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.clips) {
		return nil
	}
	return m.clips[i]
}

// Len returns the number of clips.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clips)
}

// All returns a snapshot of all clips
func (m *Manager) All() []*Clip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Clip(nil), m.clips...)
}
