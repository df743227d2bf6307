// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/peachleaf/internal/platform"
)

// Emitted records one Emit call.
type Emitted struct {
	Label   string
	Event   string
	Payload any
}

// Fake is a concurrency-safe in-memory window system. Window geometry is kept
// in physical pixels (logical * Scale).
type Fake struct {
	mu          sync.Mutex
	displays    []platform.Display
	windows     map[string]*fakeWindow
	created     []platform.WindowOptions
	emitted     []Emitted
	onDestroyed []platform.DestroyedFunc

	// Scale is applied to every created window. Zero means 1.
	Scale float64
	// FailCreate makes CreateWindow fail for the listed labels.
	FailCreate map[string]bool
	// DisplayErr is returned from Displays when set.
	DisplayErr error
}

type fakeWindow struct {
	bounds  platform.Rect
	scale   float64
	display *platform.Display
}

var _ platform.Backend = (*Fake)(nil)

// New returns a Fake attached to the given displays.
func New(displays ...platform.Display) *Fake {
	return &Fake{
		displays:   displays,
		windows:    make(map[string]*fakeWindow),
		FailCreate: make(map[string]bool),
	}
}

// SetDisplays replaces the attached monitor set.
func (f *Fake) SetDisplays(displays ...platform.Display) {
	f.mu.Lock()
	f.displays = displays
	f.mu.Unlock()
}

func (f *Fake) Displays() ([]platform.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DisplayErr != nil {
		return nil, f.DisplayErr
	}
	return append([]platform.Display(nil), f.displays...), nil
}

func (f *Fake) Windows() ([]platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	labels := make([]string, 0, len(f.windows))
	for label := range f.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]platform.Window, 0, len(labels))
	for _, label := range labels {
		out = append(out, f.view(label))
	}
	return out, nil
}

func (f *Fake) Window(label string) (platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[label]; !ok {
		return platform.Window{}, fmt.Errorf("%w: %s", platform.ErrWindowNotFound, label)
	}
	return f.view(label), nil
}

func (f *Fake) CreateWindow(opts platform.WindowOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailCreate[opts.Label] {
		return errors.New("fake: window creation refused")
	}
	if _, exists := f.windows[opts.Label]; exists {
		return fmt.Errorf("%w: %s", platform.ErrWindowExists, opts.Label)
	}

	scale := f.Scale
	if scale == 0 {
		scale = 1
	}

	// Without a position the window system picks one; mimic a cascade origin.
	x, y := 40, 40
	if opts.Position != nil {
		x, y = opts.Position.X, opts.Position.Y
	}
	bounds := platform.Rect{X: x, Y: y, Width: opts.Width, Height: opts.Height}

	win := &fakeWindow{
		bounds: platform.Rect{
			X:      int(float64(x) * scale),
			Y:      int(float64(y) * scale),
			Width:  int(float64(opts.Width) * scale),
			Height: int(float64(opts.Height) * scale),
		},
		scale: scale,
	}
	for i := range f.displays {
		d := f.displays[i]
		if d.Bounds.ContainsPoint(bounds.X+bounds.Width/2, bounds.Y+bounds.Height/2) {
			win.display = &d
			break
		}
	}

	f.windows[opts.Label] = win
	f.created = append(f.created, opts)
	return nil
}

func (f *Fake) Emit(label, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[label]; !ok {
		return fmt.Errorf("%w: %s", platform.ErrWindowNotFound, label)
	}
	f.emitted = append(f.emitted, Emitted{Label: label, Event: event, Payload: payload})
	return nil
}

// Close destroys the window immediately and fires destroy callbacks.
func (f *Fake) Close(label string) error {
	f.mu.Lock()
	if _, ok := f.windows[label]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", platform.ErrWindowNotFound, label)
	}
	delete(f.windows, label)
	callbacks := append([]platform.DestroyedFunc(nil), f.onDestroyed...)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(label)
	}
	return nil
}

func (f *Fake) OnDestroyed(fn platform.DestroyedFunc) {
	f.mu.Lock()
	f.onDestroyed = append(f.onDestroyed, fn)
	f.mu.Unlock()
}

// Move simulates the user dragging a window, in logical pixels.
func (f *Fake) Move(label string, x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[label]; ok {
		w.bounds.X = int(float64(x) * w.scale)
		w.bounds.Y = int(float64(y) * w.scale)
	}
}

// Created returns the options of every successful CreateWindow call.
func (f *Fake) Created() []platform.WindowOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.WindowOptions(nil), f.created...)
}

// Emitted returns every emitted event.
func (f *Fake) Emitted() []Emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Emitted(nil), f.emitted...)
}

func (f *Fake) view(label string) platform.Window {
	w := f.windows[label]
	out := platform.Window{
		Label:       label,
		Bounds:      w.bounds,
		ScaleFactor: w.scale,
	}
	if w.display != nil {
		d := *w.display
		out.Display = &d
	}
	return out
}
