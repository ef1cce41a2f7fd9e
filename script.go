package bramble

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyScript is returned by LoadScript for a script without steps.
var ErrEmptyScript = errors.New("script has no steps")

// scriptStep is a single action in a scenario script.
type scriptStep struct {
	Action string `json:"action"`
	Label  string `json:"label,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Frames int    `json:"frames,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner replays a scenario against a Viewport, one step per frame.
//
// Supported actions: "wait" (frames), "resize" (width, height), "orientation"
// (optional width, height), "visual", "init", "stop", "clear" and
// "snapshot" (label).
type ScriptRunner struct {
	// Resize is called by resize and orientation steps before the event is
	// reported, so the host environment can take the new size.
	Resize func(w, h int)
	// OnSnapshot is called by snapshot steps.
	OnSnapshot func(label string)

	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON scenario script.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var s script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse script: %w", ErrEmptyScript)
	}
	for i, st := range s.Steps {
		switch st.Action {
		case "wait", "resize", "orientation", "visual", "init", "stop", "clear", "snapshot":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
		if st.Action == "resize" && (st.Width <= 0 || st.Height <= 0) {
			return nil, fmt.Errorf("parse script: step %d: resize needs width and height", i)
		}
	}
	return &ScriptRunner{steps: s.Steps}, nil
}

// Len returns the number of steps.
func (r *ScriptRunner) Len() int { return len(r.steps) }

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool { return r.done }

// Step runs at most one step. Call it once per frame before the frame queue.
func (r *ScriptRunner) Step(v *Viewport, now time.Time) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	d := v.driver
	switch st.Action {
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "resize":
		r.resize(st.Width, st.Height)
		v.HandleResize(now)
	case "orientation":
		if st.Width > 0 && st.Height > 0 {
			r.resize(st.Width, st.Height)
		}
		v.HandleOrientationChange(now)
	case "visual":
		v.HandleVisualResize(now)
	case "init":
		d.Init()
	case "stop":
		d.Stop()
	case "clear":
		d.ClearMemory()
	case "snapshot":
		if r.OnSnapshot != nil {
			r.OnSnapshot(st.Label)
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) resize(w, h int) {
	if r.Resize != nil {
		r.Resize(w, h)
	}
}
