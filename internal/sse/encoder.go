package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// Encoder writes events to a streaming response.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder prepares w for streaming. When w is an http.ResponseWriter the
// stream headers are set; it must also implement http.Flusher.
func NewEncoder(w io.Writer) (*Encoder, error) {
	enc := &Encoder{w: w}
	if rw, ok := w.(http.ResponseWriter); ok {
		f, ok := rw.(http.Flusher)
		if !ok {
			return nil, fmt.Errorf("response writer %T cannot flush", w)
		}
		h := rw.Header()
		h.Set("Content-Type", ContentType)
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		enc.flusher = f
	}
	return enc, nil
}

// Encode marshals v as JSON and writes it as one data event.
func (e *Encoder) Encode(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return e.WriteData(payload)
}

// WriteData writes payload as one event, one data line per payload line.
func (e *Encoder) WriteData(payload []byte) error {
	var buf bytes.Buffer
	for _, line := range bytes.Split(payload, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	e.flush()
	return nil
}

// Comment writes a comment line, typically as a keep-alive.
func (e *Encoder) Comment(text string) error {
	if _, err := fmt.Fprintf(e.w, ": %s\n\n", text); err != nil {
		return fmt.Errorf("write comment: %w", err)
	}
	e.flush()
	return nil
}

func (e *Encoder) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
