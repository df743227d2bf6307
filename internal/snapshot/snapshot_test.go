package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/1broseidon/peachleaf/internal/metadata"
	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/state"
)

const notesDir = "/home/u/.peach-leaf/notes"

func TestBuildSkipsColorPicker(t *testing.T) {
	windows := []platform.Window{
		{Label: "note-2", Bounds: platform.Rect{X: 10, Y: 10, Width: 400, Height: 300}, ScaleFactor: 1},
		{Label: state.ColorPickerID, Bounds: platform.Rect{Width: 200, Height: 200}, ScaleFactor: 1},
		{Label: "main", Bounds: platform.Rect{X: 0, Y: 0, Width: 400, Height: 300}, ScaleFactor: 1},
	}

	got := Build(windows, nil, metadata.DefaultAttributes(), notesDir)
	if len(got) != 2 {
		t.Fatalf("Build() returned %d records, want 2", len(got))
	}
	if got[0].ID != "main" || got[1].ID != "note-2" {
		t.Fatalf("Build() ids = %s, %s, want sorted main, note-2", got[0].ID, got[1].ID)
	}
}

func TestBuildConvertsToLogicalPixels(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		phys  platform.Rect
		want  platform.Rect
	}{
		{"unscaled", 1, platform.Rect{X: 100, Y: 200, Width: 400, Height: 300}, platform.Rect{X: 100, Y: 200, Width: 400, Height: 300}},
		{"hidpi", 2, platform.Rect{X: 200, Y: 400, Width: 800, Height: 600}, platform.Rect{X: 100, Y: 200, Width: 400, Height: 300}},
		{"fractional", 1.5, platform.Rect{X: 150, Y: 300, Width: 600, Height: 450}, platform.Rect{X: 100, Y: 200, Width: 400, Height: 300}},
		{"zero scale treated as one", 0, platform.Rect{X: 7, Y: 8, Width: 400, Height: 300}, platform.Rect{X: 7, Y: 8, Width: 400, Height: 300}},
		{"negative origin", 2, platform.Rect{X: -3840, Y: 0, Width: 800, Height: 600}, platform.Rect{X: -1920, Y: 0, Width: 400, Height: 300}},
		{"fractional truncates", 1.5, platform.Rect{X: 301, Y: 302, Width: 601, Height: 449}, platform.Rect{X: 200, Y: 201, Width: 400, Height: 299}},
		{"negative truncates toward zero", 1.5, platform.Rect{X: -301, Y: -1, Width: 600, Height: 450}, platform.Rect{X: -200, Y: 0, Width: 400, Height: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := platform.Window{Label: "n", Bounds: tt.phys, ScaleFactor: tt.scale}
			r := Record(w, metadata.Entry{}, metadata.DefaultAttributes(), notesDir)
			got := platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
			if got != tt.want {
				t.Fatalf("logical rect = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildMergesCacheAndDefaults(t *testing.T) {
	windows := []platform.Window{
		{Label: "a", Bounds: platform.Rect{Width: 400, Height: 300}, ScaleFactor: 1},
		{Label: "b", Bounds: platform.Rect{Width: 400, Height: 300}, ScaleFactor: 1},
	}
	entries := map[string]metadata.Entry{
		"a": {ID: "a", BackgroundColor: "#DBEAFE", TextColor: "#111111", Mode: "view", FontSize: 18},
	}

	got := Build(windows, entries, metadata.DefaultAttributes(), notesDir)

	a := got[0]
	if a.BackgroundColor != "#DBEAFE" || a.TextColor != "#111111" || a.Mode != "view" || a.FontSize != 18 {
		t.Fatalf("cached attributes not used: %+v", a)
	}
	b := got[1]
	if b.BackgroundColor != state.DefaultBackgroundColor || b.TextColor != state.DefaultTextColor ||
		b.Mode != state.DefaultMode || b.FontSize != state.DefaultFontSize {
		t.Fatalf("defaults not applied: %+v", b)
	}
	if b.FilePath != filepath.Join(notesDir, "b.md") {
		t.Fatalf("FilePath = %q", b.FilePath)
	}
}

func TestBuildCopiesMonitor(t *testing.T) {
	named := &platform.Display{Name: "DELL-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}}
	unnamed := &platform.Display{Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}}
	windows := []platform.Window{
		{Label: "a", Bounds: platform.Rect{X: 2000, Width: 400, Height: 300}, ScaleFactor: 1, Display: named},
		{Label: "b", Bounds: platform.Rect{Width: 400, Height: 300}, ScaleFactor: 1, Display: unnamed},
		{Label: "c", Bounds: platform.Rect{Width: 400, Height: 300}, ScaleFactor: 1},
	}

	got := Build(windows, nil, metadata.DefaultAttributes(), notesDir)

	a := got[0]
	if a.MonitorName == nil || *a.MonitorName != "DELL-1" {
		t.Fatalf("monitor name = %v, want DELL-1", a.MonitorName)
	}
	if *a.MonitorPosition != (state.Point{1920, 0}) || *a.MonitorSize != (state.Size{2560, 1440}) {
		t.Fatalf("monitor bounds = %v %v", *a.MonitorPosition, *a.MonitorSize)
	}
	if a.X != 2000 {
		t.Fatalf("x = %d, want absolute 2000", a.X)
	}

	b := got[1]
	if b.MonitorName != nil {
		t.Fatalf("unnamed monitor recorded name %q", *b.MonitorName)
	}
	if !b.HasMonitorInfo() {
		t.Fatal("unnamed monitor bounds not recorded")
	}

	if got[2].MonitorPosition != nil || got[2].MonitorSize != nil || got[2].MonitorName != nil {
		t.Fatal("window without display should carry no monitor info")
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	display := &platform.Display{Name: "eDP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}}
	windows := []platform.Window{
		{Label: "z", Bounds: platform.Rect{X: 5, Y: 6, Width: 400, Height: 300}, ScaleFactor: 1, Display: display},
		{Label: "m", Bounds: platform.Rect{X: 1, Y: 2, Width: 500, Height: 350}, ScaleFactor: 1},
	}
	entries := map[string]metadata.Entry{"z": {BackgroundColor: "#FCE7F3"}}

	first := Build(windows, entries, metadata.DefaultAttributes(), notesDir)
	second := Build(windows, entries, metadata.DefaultAttributes(), notesDir)
	if !Equal(first, second) {
		t.Fatal("two builds of the same input differ")
	}

	a, err := state.Encode(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := state.Encode(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("encoded snapshots differ")
	}
}

func TestEqualDetectsMove(t *testing.T) {
	base := []state.WindowRecord{{ID: "a", X: 1, Y: 2, Width: 400, Height: 300}}
	moved := []state.WindowRecord{{ID: "a", X: 5, Y: 2, Width: 400, Height: 300}}
	if Equal(base, moved) {
		t.Fatal("Equal() should report a moved window")
	}
	name := "eDP-1"
	withName := []state.WindowRecord{{ID: "a", X: 1, Y: 2, Width: 400, Height: 300, MonitorName: &name}}
	if Equal(base, withName) {
		t.Fatal("Equal() should report a monitor change")
	}
}
