// Package monitor decides where a restored window goes when the monitor
// layout may have changed since it was saved.
package monitor

import (
	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/state"
)

const (
	// RelocateInset is the offset from a fallback monitor's top-left corner.
	RelocateInset = 100
	// EdgeMargin is the minimum distance kept from a fallback monitor's edges.
	EdgeMargin = 50
	// DefaultX and DefaultY are used when no monitor is attached at all.
	DefaultX = 100
	DefaultY = 100
)

// MatchKind classifies how a saved monitor was found again.
type MatchKind int

const (
	NoMatch MatchKind = iota
	NameMatch
	GeometryMatch
)

func (k MatchKind) String() string {
	switch k {
	case NameMatch:
		return "name"
	case GeometryMatch:
		return "geometry"
	default:
		return "none"
	}
}

// Decision is the outcome of matching a saved monitor against the live set.
// Monitor is set unless Kind is NoMatch.
type Decision struct {
	Kind    MatchKind
	Monitor *platform.Display
}

// Placement is an absolute logical position for a restored window.
type Placement struct {
	X         int
	Y         int
	Decision  Decision
	Relocated bool
}

// Resolver places restored windows. The zero value uses the package defaults.
type Resolver struct {
	Inset  int
	Margin int
}

// Match looks for the saved monitor of r among monitors. A name match on any
// monitor wins over an exact geometry match.
func Match(r state.WindowRecord, monitors []platform.Display) Decision {
	if r.MonitorName != nil && *r.MonitorName != "" {
		for i := range monitors {
			if monitors[i].Name != "" && monitors[i].Name == *r.MonitorName {
				return Decision{Kind: NameMatch, Monitor: &monitors[i]}
			}
		}
	}

	if !r.HasMonitorInfo() {
		return Decision{Kind: NoMatch}
	}
	pos, size := *r.MonitorPosition, *r.MonitorSize
	for i := range monitors {
		b := monitors[i].Bounds
		if b.X == pos.X() && b.Y == pos.Y() && b.Width == size.Width() && b.Height == size.Height() {
			return Decision{Kind: GeometryMatch, Monitor: &monitors[i]}
		}
	}
	return Decision{Kind: NoMatch}
}

// Visible reports whether rect overlaps any monitor by a nonzero area.
func Visible(rect platform.Rect, monitors []platform.Display) bool {
	for _, m := range monitors {
		if rect.Overlaps(m.Bounds) {
			return true
		}
	}
	return false
}

// Primary returns the monitor at the desktop origin, else the first one, else
// nil.
func Primary(monitors []platform.Display) *platform.Display {
	for i := range monitors {
		if monitors[i].Bounds.X == 0 && monitors[i].Bounds.Y == 0 {
			return &monitors[i]
		}
	}
	if len(monitors) > 0 {
		return &monitors[0]
	}
	return nil
}

// Resolve places r using the default inset and margin.
func Resolve(r state.WindowRecord, monitors []platform.Display) Placement {
	return Resolver{}.Resolve(r, monitors)
}

// Relocate places a window of the given size on the primary monitor using
// the default inset and margin.
func Relocate(width, height int, monitors []platform.Display) (int, int) {
	return Resolver{}.Relocate(width, height, monitors)
}

// Resolve returns the absolute position for r. Records with saved monitor
// bounds keep their coordinates while that monitor is still attached; records
// without them keep their coordinates while they remain visible. Everything
// else is relocated onto the primary monitor.
func (rs Resolver) Resolve(r state.WindowRecord, monitors []platform.Display) Placement {
	if r.HasMonitorInfo() {
		d := Match(r, monitors)
		if d.Kind != NoMatch {
			return Placement{X: r.X, Y: r.Y, Decision: d}
		}
		x, y := rs.Relocate(r.Width, r.Height, monitors)
		return Placement{X: x, Y: y, Decision: d, Relocated: true}
	}

	rect := platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	if Visible(rect, monitors) {
		return Placement{X: r.X, Y: r.Y}
	}
	x, y := rs.Relocate(r.Width, r.Height, monitors)
	return Placement{X: x, Y: y, Relocated: true}
}

// Relocate computes a position inset from the primary monitor's top-left
// corner, pulled back so the window keeps the margin from the far edges. When
// the window is too large for both, the near-edge margin wins.
func (rs Resolver) Relocate(width, height int, monitors []platform.Display) (int, int) {
	mon := Primary(monitors)
	if mon == nil {
		return DefaultX, DefaultY
	}

	inset, margin := rs.inset(), rs.margin()
	b := mon.Bounds

	maxX := b.X + b.Width - width - margin
	maxY := b.Y + b.Height - height - margin

	x := max(min(b.X+inset, maxX), b.X+margin)
	y := max(min(b.Y+inset, maxY), b.Y+margin)
	return x, y
}

func (rs Resolver) inset() int {
	if rs.Inset > 0 {
		return rs.Inset
	}
	return RelocateInset
}

func (rs Resolver) margin() int {
	if rs.Margin > 0 {
		return rs.Margin
	}
	return EdgeMargin
}
