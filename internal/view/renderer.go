package view

import (
	"fmt"

	"go.uber.org/zap"
)

// Painter draws a Document after it changes.
type Painter interface {
	Paint(doc *Document, containerID string)
}

// Renderer writes tracker updates into a Document. Each update touches its
// own anchors and is skipped when they are missing.
type Renderer struct {
	doc         *Document
	containerID string
	painter     Painter
	logger      *zap.Logger
}

// RendererOption customises a Renderer.
type RendererOption func(*Renderer)

// WithPainter redraws through p after every update.
func WithPainter(p Painter) RendererOption {
	return func(r *Renderer) {
		r.painter = p
	}
}

// WithLogger reports skipped anchors at debug level.
func WithLogger(logger *zap.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer binds a Renderer to doc, using containerID as the progress
// container anchor.
func NewRenderer(doc *Document, containerID string, opts ...RendererOption) *Renderer {
	if doc == nil {
		doc = NewDocument()
	}
	if containerID == "" {
		containerID = AnchorContainer
	}
	r := &Renderer{
		doc:         doc,
		containerID: containerID,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document exposes the underlying Document for readers.
func (r *Renderer) Document() *Document {
	return r.doc
}

// ShowProgress makes the progress container visible.
func (r *Renderer) ShowProgress() {
	r.set(r.containerID, func(n *Node) { n.Visible = true })
	r.paint()
}

// SetOverall fills the overall bar and label.
func (r *Renderer) SetOverall(pct int) {
	r.setOverall(pct)
	r.paint()
}

// SetElapsed updates the elapsed-time label.
func (r *Renderer) SetElapsed(text string) {
	r.setElapsed(text)
	r.paint()
}

// RenderSteps replaces the step list.
func (r *Renderer) RenderSteps(steps []Step) {
	r.setSteps(steps)
	r.paint()
}

// RenderProgress applies a whole snapshot and paints a single frame.
func (r *Renderer) RenderProgress(p Progress) {
	r.setOverall(p.Overall)
	r.setElapsed(p.Elapsed)
	r.setSteps(p.Steps)
	r.paint()
}

// ShowComplete reveals the completion banner.
func (r *Renderer) ShowComplete() {
	r.set(AnchorComplete, func(n *Node) { n.Visible = true })
	r.paint()
}

// ShowError reveals the error banner with msg.
func (r *Renderer) ShowError(msg string) {
	r.set(AnchorError, func(n *Node) {
		n.Text = msg
		n.Visible = true
	})
	r.paint()
}

func (r *Renderer) setOverall(pct int) {
	r.set(AnchorOverallBar, func(n *Node) { n.Value = pct })
	r.set(AnchorOverallText, func(n *Node) { n.Text = fmt.Sprintf("%d%%", pct) })
}

func (r *Renderer) setElapsed(text string) {
	r.set(AnchorElapsed, func(n *Node) { n.Text = text })
}

func (r *Renderer) setSteps(steps []Step) {
	cp := cloneSteps(steps)
	r.set(AnchorSteps, func(n *Node) { n.Steps = cp })
}

func (r *Renderer) set(id string, fn func(*Node)) {
	if !r.doc.update(id, fn) {
		r.logger.Debug("render anchor missing; update skipped", zap.String("anchor", id))
	}
}

func (r *Renderer) paint() {
	if r.painter != nil {
		r.painter.Paint(r.doc, r.containerID)
	}
}
