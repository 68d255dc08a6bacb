package replay

import (
	"bufio"
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// DefaultSession names the fixture served for sessions without their own.
const DefaultSession = "default"

// ErrNoFixture is returned when neither the session nor the default has a
// fixture.
var ErrNoFixture = errors.New("no fixture for session")

//go:embed fixtures/*.json
var builtin embed.FS

// Fixtures maps session ids onto recorded snapshot frames.
type Fixtures struct {
	mu     sync.RWMutex
	frames map[string][]json.RawMessage
}

// NewFixtures returns an empty set.
func NewFixtures() *Fixtures {
	return &Fixtures{frames: make(map[string][]json.RawMessage)}
}

// Builtin returns the fixtures bundled with the binary.
func Builtin() (*Fixtures, error) {
	f := NewFixtures()
	if err := f.loadFS(builtin, "fixtures"); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadDir reads every *.json (array of snapshots) and *.jsonl (one snapshot
// per line) file in dir, keyed by file name without extension. Builtin
// fixtures remain available unless a file overrides them.
func LoadDir(dir string) (*Fixtures, error) {
	f, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return f, nil
	}
	if err := f.loadFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fixtures) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := path.Ext(name)
		if ext != ".json" && ext != ".jsonl" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", name, err)
		}
		frames, err := parseFrames(data, ext == ".jsonl")
		if err != nil {
			return fmt.Errorf("fixture %s: %w", name, err)
		}
		f.Set(strings.TrimSuffix(name, ext), frames)
	}
	return nil
}

func parseFrames(data []byte, lines bool) ([]json.RawMessage, error) {
	if !lines {
		var frames []json.RawMessage
		if err := json.Unmarshal(data, &frames); err != nil {
			return nil, fmt.Errorf("decode frames: %w", err)
		}
		return compact(frames)
	}
	var frames []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; scanner.Scan(); n++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("line %d: invalid json", n)
		}
		frames = append(frames, append(json.RawMessage(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan frames: %w", err)
	}
	return compact(frames)
}

// compact strips insignificant whitespace so every frame is a single data
// line on the wire.
func compact(frames []json.RawMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(frames))
	for i, frame := range frames {
		var buf bytes.Buffer
		if err := json.Compact(&buf, frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

// Set stores frames for session, replacing any previous fixture.
func (f *Fixtures) Set(session string, frames []json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[session] = frames
}

// Lookup returns the frames for session, falling back to DefaultSession.
func (f *Fixtures) Lookup(session string) ([]json.RawMessage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if frames, ok := f.frames[session]; ok {
		return frames, nil
	}
	if frames, ok := f.frames[DefaultSession]; ok {
		return frames, nil
	}
	return nil, fmt.Errorf("%w %q", ErrNoFixture, session)
}

// Sessions lists the loaded fixture names.
func (f *Fixtures) Sessions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.frames))
	for name := range f.frames {
		out = append(out, name)
	}
	return out
}
