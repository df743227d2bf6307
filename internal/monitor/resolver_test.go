package monitor

import (
	"testing"

	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/state"
)

func display(name string, x, y, w, h int) platform.Display {
	return platform.Display{Name: name, Bounds: platform.Rect{X: x, Y: y, Width: w, Height: h}}
}

func withMonitor(r state.WindowRecord, name string, x, y, w, h int) state.WindowRecord {
	if name != "" {
		r.MonitorName = state.StringPtr(name)
	}
	pos := state.Point{x, y}
	size := state.Size{w, h}
	r.MonitorPosition = &pos
	r.MonitorSize = &size
	return r
}

func record(x, y, w, h int) state.WindowRecord {
	return state.WindowRecord{ID: "note-1", X: x, Y: y, Width: w, Height: h}
}

func TestResolve_NameMatchShortCircuitsGeometry(t *testing.T) {
	r := withMonitor(record(300, 200, 400, 300), "DELL-1", 0, 0, 1920, 1080)
	monitors := []platform.Display{
		display("eDP-1", 0, 0, 1920, 1080),
		display("DELL-1", 1920, 0, 1920, 1080),
	}

	p := Resolve(r, monitors)
	if p.Decision.Kind != NameMatch {
		t.Fatalf("Decision.Kind = %v, want name", p.Decision.Kind)
	}
	if p.Decision.Monitor.Name != "DELL-1" {
		t.Fatalf("matched %q, want DELL-1", p.Decision.Monitor.Name)
	}
	if p.X != 300 || p.Y != 200 || p.Relocated {
		t.Fatalf("placement = %+v, want saved (300,200) unchanged", p)
	}
}

func TestResolve_GeometryMatchWithoutName(t *testing.T) {
	r := withMonitor(record(2100, 50, 400, 300), "", 1920, 0, 2560, 1440)
	monitors := []platform.Display{
		display("", 0, 0, 1920, 1080),
		display("", 1920, 0, 2560, 1440),
	}

	p := Resolve(r, monitors)
	if p.Decision.Kind != GeometryMatch {
		t.Fatalf("Decision.Kind = %v, want geometry", p.Decision.Kind)
	}
	if p.X != 2100 || p.Y != 50 {
		t.Fatalf("placement = (%d,%d), want (2100,50)", p.X, p.Y)
	}
}

func TestResolve_RenamedMonitorFallsBackToGeometry(t *testing.T) {
	r := withMonitor(record(100, 100, 400, 300), "HDMI-1", 0, 0, 1920, 1080)
	monitors := []platform.Display{display("HDMI-2", 0, 0, 1920, 1080)}

	p := Resolve(r, monitors)
	if p.Decision.Kind != GeometryMatch {
		t.Fatalf("Decision.Kind = %v, want geometry", p.Decision.Kind)
	}
}

func TestResolve_MissingMonitorRelocatesWithinMargins(t *testing.T) {
	r := withMonitor(record(3000, 500, 400, 300), "DELL-1", 1920, 0, 1920, 1080)
	monitors := []platform.Display{display("eDP-1", 0, 0, 1920, 1080)}

	p := Resolve(r, monitors)
	if p.Decision.Kind != NoMatch || !p.Relocated {
		t.Fatalf("placement = %+v, want relocated after no match", p)
	}
	if p.X < 50 || p.X > 1470 || p.Y < 50 || p.Y > 730 {
		t.Fatalf("placement (%d,%d) outside [(50,50),(1470,730)]", p.X, p.Y)
	}
	if p.X != 100 || p.Y != 100 {
		t.Fatalf("placement = (%d,%d), want inset (100,100)", p.X, p.Y)
	}
}

func TestResolve_NoMonitorInfoVisibleIsKept(t *testing.T) {
	p := Resolve(record(100, 100, 400, 300), []platform.Display{display("", 0, 0, 1920, 1080)})
	if p.Relocated || p.X != 100 || p.Y != 100 {
		t.Fatalf("placement = %+v, want (100,100) kept", p)
	}
}

func TestResolve_NoMonitorInfoInvisibleIsRelocated(t *testing.T) {
	p := Resolve(record(100, 100, 400, 300), []platform.Display{display("", 3000, 0, 1920, 1080)})
	if !p.Relocated {
		t.Fatalf("placement = %+v, want relocated", p)
	}
	if p.X != 3100 || p.Y != 100 {
		t.Fatalf("placement = (%d,%d), want (3100,100)", p.X, p.Y)
	}
}

func TestResolve_NoMonitorsUsesDefault(t *testing.T) {
	r := withMonitor(record(500, 500, 400, 300), "DELL-1", 0, 0, 1920, 1080)
	p := Resolve(r, nil)
	if p.X != DefaultX || p.Y != DefaultY || !p.Relocated {
		t.Fatalf("placement = %+v, want default (100,100)", p)
	}

	p = Resolve(record(500, 500, 400, 300), nil)
	if p.X != DefaultX || p.Y != DefaultY {
		t.Fatalf("placement = %+v, want default (100,100)", p)
	}
}

func TestRelocate(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		monitors     []platform.Display
		wantX, wantY int
	}{
		{
			name:     "prefers origin monitor over first",
			width:    400,
			height:   300,
			monitors: []platform.Display{display("", -1920, 0, 1920, 1080), display("", 0, 0, 2560, 1440)},
			wantX:    100, wantY: 100,
		},
		{
			name:     "falls back to first monitor",
			width:    400,
			height:   300,
			monitors: []platform.Display{display("", -1920, 200, 1920, 1080), display("", 2560, 0, 1920, 1080)},
			wantX:    -1820, wantY: 300,
		},
		{
			name:     "pulled back from far edge",
			width:    1700,
			height:   950,
			monitors: []platform.Display{display("", 0, 0, 1920, 1080)},
			wantX:    100, wantY: 80,
		},
		{
			name:     "oversized window keeps near margin",
			width:    2400,
			height:   1400,
			monitors: []platform.Display{display("", 0, 0, 1920, 1080)},
			wantX:    50, wantY: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Relocate(tt.width, tt.height, tt.monitors)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("Relocate() = (%d,%d), want (%d,%d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestRelocate_CustomInsetAndMargin(t *testing.T) {
	rs := Resolver{Inset: 40, Margin: 20}
	x, y := rs.Relocate(400, 300, []platform.Display{display("", 0, 0, 1920, 1080)})
	if x != 40 || y != 40 {
		t.Fatalf("Relocate() = (%d,%d), want (40,40)", x, y)
	}
}

func TestVisible(t *testing.T) {
	monitors := []platform.Display{display("", 0, 0, 1920, 1080), display("", 1920, 0, 1920, 1080)}

	if !Visible(platform.Rect{X: 3700, Y: 900, Width: 400, Height: 300}, monitors) {
		t.Error("window overlapping the second monitor should be visible")
	}
	if Visible(platform.Rect{X: 0, Y: 1080, Width: 400, Height: 300}, monitors) {
		t.Error("window touching only the bottom edge should not be visible")
	}
	if Visible(platform.Rect{X: 0, Y: 0, Width: 400, Height: 300}, nil) {
		t.Error("nothing is visible without monitors")
	}
}

func TestMatchKindString(t *testing.T) {
	if NameMatch.String() != "name" || GeometryMatch.String() != "geometry" || NoMatch.String() != "none" {
		t.Fatal("unexpected MatchKind strings")
	}
}
