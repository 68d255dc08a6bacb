package view

import "sync"

// Anchor ids used by the conversion page.
const (
	AnchorContainer   = "progress-container"
	AnchorOverallBar  = "overall-progress-bar"
	AnchorOverallText = "overall-progress-text"
	AnchorElapsed     = "time-elapsed"
	AnchorSteps       = "steps-container"
	AnchorComplete    = "completion-message"
	AnchorError       = "error-message"
)

// Node is the state of one anchor.
type Node struct {
	ID      string
	Visible bool
	Text    string
	// Value holds a percentage for bar anchors.
	Value int
	Steps []Step
}

// Document holds the anchors a view can write to. It is safe for concurrent
// readers; writes come from a single Renderer.
type Document struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewDocument creates a Document with exactly the given anchors.
func NewDocument(ids ...string) *Document {
	d := &Document{nodes: make(map[string]*Node, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		d.nodes[id] = &Node{ID: id}
	}
	return d
}

// StandardDocument creates a Document carrying every anchor of the conversion
// page, using containerID for the progress container.
func StandardDocument(containerID string) *Document {
	if containerID == "" {
		containerID = AnchorContainer
	}
	return NewDocument(
		containerID,
		AnchorOverallBar,
		AnchorOverallText,
		AnchorElapsed,
		AnchorSteps,
		AnchorComplete,
		AnchorError,
	)
}

// Has reports whether the anchor exists.
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.nodes[id]
	return ok
}

// Node returns a copy of the anchor's state.
func (d *Document) Node(id string) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Steps = cloneSteps(n.Steps)
	return cp, true
}

// update applies fn to the anchor and reports whether it existed.
func (d *Document) update(id string, fn func(*Node)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return false
	}
	fn(n)
	return true
}
