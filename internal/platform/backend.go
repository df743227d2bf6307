package platform

import "errors"

// ErrWindowNotFound is returned when a label does not name a live window.
var ErrWindowNotFound = errors.New("window not found")

// ErrWindowExists is returned when creating a window whose label is taken.
var ErrWindowExists = errors.New("window already exists")

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Overlaps reports whether r and o share a nonzero area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && r.Right() > o.X &&
		r.Y < o.Bottom() && r.Bottom() > o.Y
}

// ContainsPoint reports whether (x, y) lies inside r.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Display describes a physical display in logical pixels. Name is empty when
// the platform cannot report one.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
}

// Window is a point-in-time view of a live top-level window. Bounds are the
// outer geometry in physical pixels; divide by ScaleFactor for logical pixels.
type Window struct {
	Label       string
	Bounds      Rect
	ScaleFactor float64
	// Display is the monitor the window currently lives on, nil if unknown.
	Display *Display
}

// WindowOptions configures a new window. Geometry is in logical pixels.
// A nil Position lets the window system choose the placement.
type WindowOptions struct {
	Label           string
	Title           string
	Width           int
	Height          int
	Position        *Point
	Decorations     bool
	Transparent     bool
	AlwaysOnTop     bool
	Resizable       bool
	BackgroundColor string
}

// Point is a logical-pixel coordinate.
type Point struct {
	X int
	Y int
}

// DestroyedFunc is invoked after the window system destroyed a window.
type DestroyedFunc func(label string)

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	Windows() ([]Window, error)
	Window(label string) (Window, error)
	CreateWindow(opts WindowOptions) error
	Emit(label, event string, payload any) error
	Close(label string) error
	OnDestroyed(fn DestroyedFunc)
}
