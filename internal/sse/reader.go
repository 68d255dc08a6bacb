package sse

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
)

// MaxLineSize bounds a single line of the stream.
const MaxLineSize = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	ID    string
	Type  string
	Data  []byte
	Retry int
}

// Reader splits a text/event-stream body into events.
type Reader struct {
	scanner *bufio.Scanner
	lastID  string
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{scanner: s}
}

// Next returns the next event carrying data. Events without data lines are
// skipped. At the end of the stream it returns io.EOF; a trailing event
// without its blank line is discarded.
func (r *Reader) Next() (Event, error) {
	var (
		evt     Event
		data    bytes.Buffer
		hasData bool
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if !hasData {
				evt = Event{}
				continue
			}
			evt.ID = r.lastID
			evt.Data = append([]byte(nil), data.Bytes()...)
			return evt, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			evt.Type = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				evt.Retry = ms
			}
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
