package bramble

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoadScript(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		steps   int
		wantErr string
	}{
		{"valid", `{"steps":[{"action":"init"},{"action":"wait","frames":3},{"action":"snapshot","label":"a"}]}`, 3, ""},
		{"bad json", `{"steps":[`, 0, "parse script"},
		{"unknown action", `{"steps":[{"action":"jump"}]}`, 0, `unknown action "jump"`},
		{"resize without size", `{"steps":[{"action":"resize","width":100}]}`, 0, "needs width and height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadScript([]byte(tt.data))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if r.Len() != tt.steps {
				t.Errorf("Len = %d, want %d", r.Len(), tt.steps)
			}
		})
	}
}

func TestLoadScriptEmpty(t *testing.T) {
	_, err := LoadScript([]byte(`{"steps":[]}`))
	if !errors.Is(err, ErrEmptyScript) {
		t.Errorf("err = %v, want ErrEmptyScript", err)
	}
}

func TestScriptRunnerScenario(t *testing.T) {
	r, err := LoadScript([]byte(`{"steps":[
		{"action":"init"},
		{"action":"resize","width":1600,"height":900},
		{"action":"wait","frames":15},
		{"action":"snapshot","label":"wide"},
		{"action":"stop"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(nil)
	h := NewHeadless(cfg, &StaticEnvironment{Width: 1280, Height: 720})

	var labels []string
	var snapTrees int
	r.OnSnapshot = func(label string) {
		labels = append(labels, label)
		snapTrees = len(h.Driver.Trees())
		if w, hh := h.Canvas.Size(); w != 1600 || hh != 900 {
			t.Errorf("canvas at snapshot = %dx%d, want 1600x900", w, hh)
		}
	}

	n, err := h.Run(t.Context(), 0, r)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Done() || h.Driver.Active() {
		t.Errorf("done=%v active=%v after the run", r.Done(), h.Driver.Active())
	}
	if len(labels) != 1 || labels[0] != "wide" {
		t.Errorf("snapshots = %v, want [wide]", labels)
	}
	if snapTrees != 20 {
		t.Errorf("trees at snapshot = %d, want 20", snapTrees)
	}
	if n != 19 {
		t.Errorf("ran %d frames, want 19", n)
	}
}

func TestHeadlessRunCancelled(t *testing.T) {
	h := NewHeadless(testConfig(nil), &StaticEnvironment{Width: 1280, Height: 720})
	h.Driver.Init()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	n, err := h.Run(ctx, 100, nil)
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("Run = %d, %v; want 0, context.Canceled", n, err)
	}
}

func TestHeadlessRendersTrees(t *testing.T) {
	h := NewHeadless(testConfig(nil), &StaticEnvironment{Width: 800, Height: 600})
	h.Driver.Init()
	if _, err := h.Run(t.Context(), 90, nil); err != nil {
		t.Fatal(err)
	}
	img := h.Canvas.Image()
	dark := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0xffff {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no branch pixels after 90 frames")
	}
}
