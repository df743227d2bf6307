//go:build linux

package platform

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/1broseidon/peachleaf/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// EventPropertyPrefix prefixes the X property carrying emitted events, e.g.
// _PEACHLEAF_EVENT_INIT_STICKER.
const EventPropertyPrefix = "_PEACHLEAF_EVENT_"

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
// Windows are addressed by label; the label doubles as the WM_CLASS instance.
type LinuxBackend struct {
	conn  *x11.Connection
	scale float64

	mu          sync.Mutex
	windows     map[string]xproto.Window
	onDestroyed []DestroyedFunc
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{
		conn:    conn,
		scale:   1,
		windows: make(map[string]xproto.Window),
	}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// SetScaleFactor sets the logical-to-physical ratio. X11 has no per-window
// scale, so it comes from configuration.
func (b *LinuxBackend) SetScaleFactor(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	b.mu.Lock()
	b.scale = scale
	b.mu.Unlock()
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops the event loop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Displays returns all active displays in logical pixels.
func (b *LinuxBackend) Displays() ([]Display, error) {
	monitors, err := b.monitors()
	if err != nil {
		return nil, err
	}

	scale := b.scaleFactor()
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m, scale))
	}
	return displays, nil
}

// Windows returns every live window created by this backend, sorted by label.
// A monitor enumeration failure does not fail the listing; windows are then
// reported without a display.
func (b *LinuxBackend) Windows() ([]Window, error) {
	if _, err := b.connection(); err != nil {
		return nil, err
	}
	monitors := monitorsOrNone(b.monitors)

	b.mu.Lock()
	labels := make([]string, 0, len(b.windows))
	for label := range b.windows {
		labels = append(labels, label)
	}
	b.mu.Unlock()
	sort.Strings(labels)

	out := make([]Window, 0, len(labels))
	for _, label := range labels {
		w, err := b.window(label, monitors)
		if err != nil {
			// Destroyed between listing and querying.
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// Window returns the live window with the given label.
func (b *LinuxBackend) Window(label string) (Window, error) {
	return b.window(label, monitorsOrNone(b.monitors))
}

// CreateWindow creates a top-level window and starts tracking its label.
func (b *LinuxBackend) CreateWindow(opts WindowOptions) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	b.mu.Lock()
	_, exists := b.windows[opts.Label]
	scale := b.scale
	b.mu.Unlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrWindowExists, opts.Label)
	}

	spec := x11.CreateSpec{
		Name:        opts.Label,
		Title:       opts.Title,
		Width:       toPhysical(opts.Width, scale),
		Height:      toPhysical(opts.Height, scale),
		Borderless:  !opts.Decorations,
		AlwaysOnTop: opts.AlwaysOnTop,
		Background:  parseHexColor(opts.BackgroundColor),
	}
	if opts.Position != nil {
		spec.Positioned = true
		spec.X = toPhysical(opts.Position.X, scale)
		spec.Y = toPhysical(opts.Position.Y, scale)
	}

	id, err := conn.CreateWindow(spec)
	if id != 0 {
		b.track(opts.Label, id)
	}
	return err
}

// Emit serializes the payload and stores it in a per-event X property.
func (b *LinuxBackend) Emit(label, event string, payload any) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	id, ok := b.lookup(label)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, label)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return conn.SetStringProperty(id, eventProperty(event), data)
}

// Close requests graceful window close via WM_DELETE_WINDOW.
func (b *LinuxBackend) Close(label string) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	id, ok := b.lookup(label)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, label)
	}
	return conn.CloseWindow(id)
}

// OnDestroyed registers a callback for DestroyNotify on tracked windows.
func (b *LinuxBackend) OnDestroyed(fn DestroyedFunc) {
	b.mu.Lock()
	b.onDestroyed = append(b.onDestroyed, fn)
	b.mu.Unlock()
}

func (b *LinuxBackend) track(label string, id xproto.Window) {
	b.mu.Lock()
	b.windows[label] = id
	b.mu.Unlock()

	b.conn.ListenDestroy(id, func(xproto.Window) {
		b.mu.Lock()
		delete(b.windows, label)
		callbacks := append([]DestroyedFunc(nil), b.onDestroyed...)
		b.mu.Unlock()

		for _, fn := range callbacks {
			fn(label)
		}
	})
}

func (b *LinuxBackend) lookup(label string) (xproto.Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.windows[label]
	return id, ok
}

func (b *LinuxBackend) window(label string, monitors []x11.Monitor) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}
	id, ok := b.lookup(label)
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrWindowNotFound, label)
	}

	x, y, w, h, err := conn.OuterGeometry(id)
	if err != nil {
		return Window{}, err
	}

	return windowFromGeometry(label, Rect{X: x, Y: y, Width: w, Height: h}, b.scaleFactor(), monitors), nil
}

// windowFromGeometry builds a Window from physical bounds. Display stays nil
// when no monitor contains the window.
func windowFromGeometry(label string, bounds Rect, scale float64, monitors []x11.Monitor) Window {
	out := Window{
		Label:       label,
		Bounds:      bounds,
		ScaleFactor: scale,
	}
	if mon := x11.MonitorForRect(monitors, bounds.X, bounds.Y, bounds.Width, bounds.Height); mon != nil {
		d := displayFromMonitor(*mon, scale)
		out.Display = &d
	}
	return out
}

// monitorsOrNone returns nil when enumeration fails, so callers record
// windows without monitor info instead of failing.
func monitorsOrNone(list func() ([]x11.Monitor, error)) []x11.Monitor {
	monitors, err := list()
	if err != nil {
		log.Printf("Monitor enumeration failed, continuing without monitor info: %v", err)
		return nil
	}
	return monitors
}

func (b *LinuxBackend) monitors() ([]x11.Monitor, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.GetMonitors()
}

func (b *LinuxBackend) scaleFactor() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scale
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(m x11.Monitor, scale float64) Display {
	return Display{
		ID:   m.ID,
		Name: m.Name,
		Bounds: Rect{
			X:      toLogical(m.X, scale),
			Y:      toLogical(m.Y, scale),
			Width:  toLogical(m.Width, scale),
			Height: toLogical(m.Height, scale),
		},
	}
}

func toPhysical(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}

func toLogical(v int, scale float64) int {
	return int(float64(v) / scale)
}

func eventProperty(event string) string {
	name := strings.ToUpper(strings.ReplaceAll(event, "-", "_"))
	return EventPropertyPrefix + name
}

// parseHexColor converts #RRGGBB or #RGB into a 24-bit pixel value. Invalid
// input yields white.
func parseHexColor(s string) uint32 {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0xFFFFFF
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0xFFFFFF
	}
	return uint32(v)
}
