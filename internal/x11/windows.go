package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WMClass is the WM_CLASS class shared by every window this process creates.
const WMClass = "PeachLeaf"

// CreateSpec describes a top-level window in physical pixels.
type CreateSpec struct {
	Name        string
	Title       string
	X           int
	Y           int
	Width       int
	Height      int
	Positioned  bool
	Borderless  bool
	AlwaysOnTop bool
	Background  uint32
}

// CreateWindow creates and maps a top-level window. The window listens for
// structure events so DestroyNotify reaches ListenDestroy callbacks.
func (c *Connection) CreateWindow(spec CreateSpec) (xproto.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = win.CreateChecked(c.Root, spec.X, spec.Y, spec.Width, spec.Height,
		xproto.CwBackPixel|xproto.CwEventMask,
		spec.Background, xproto.EventMaskStructureNotify)
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	if err := icccm.WmClassSet(c.XUtil, win.Id, &icccm.WmClass{
		Instance: spec.Name,
		Class:    WMClass,
	}); err != nil {
		win.Destroy()
		return 0, fmt.Errorf("failed to set WM_CLASS: %w", err)
	}

	if spec.Title != "" {
		// Title is cosmetic; some WMs reject _NET_WM_NAME before mapping.
		_ = ewmh.WmNameSet(c.XUtil, win.Id, spec.Title)
	}

	if spec.Borderless {
		hints := &motif.Hints{
			Flags:      motif.HintDecorations,
			Decoration: motif.DecorationNone,
		}
		if err := motif.WmHintsSet(c.XUtil, win.Id, hints); err != nil {
			win.Destroy()
			return 0, fmt.Errorf("failed to remove decorations: %w", err)
		}
	}

	if spec.AlwaysOnTop {
		_ = ewmh.WmStateSet(c.XUtil, win.Id, []string{"_NET_WM_STATE_ABOVE"})
	}

	win.Map()

	// Window managers are free to ignore the create-time position; ask again
	// through EWMH once the window is mapped.
	if spec.Positioned {
		if err := c.MoveResizeWindow(win.Id, spec.X, spec.Y, spec.Width, spec.Height); err != nil {
			return win.Id, fmt.Errorf("failed to position window: %w", err)
		}
	}

	return win.Id, nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// OuterGeometry returns the window rectangle including decorations, in root
// coordinates.
func (c *Connection) OuterGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	rect, err := xwindow.New(c.XUtil, windowID).DecorGeometry()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to query geometry of window %d: %w", windowID, err)
	}
	return rect.X(), rect.Y(), rect.Width(), rect.Height(), nil
}

// SetStringProperty stores a UTF-8 payload on the window. Content processes
// watching the window read it through PropertyNotify.
func (c *Connection) SetStringProperty(windowID xproto.Window, name string, data []byte) error {
	if err := xprop.ChangeProp(c.XUtil, windowID, 8, name, "UTF8_STRING", data); err != nil {
		return fmt.Errorf("failed to set %s on window %d: %w", name, windowID, err)
	}
	return nil
}

// ListenDestroy invokes fn once the window is destroyed.
func (c *Connection) ListenDestroy(windowID xproto.Window, fn func(xproto.Window)) {
	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		fn(ev.Window)
		xevent.Detach(xu, ev.Window)
	}).Connect(c.XUtil, windowID)
}

// CloseWindow requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	deleteReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_DELETE_WINDOW")), "WM_DELETE_WINDOW").Reply()
	if err != nil {
		return err
	}
	protocolsReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_PROTOCOLS")), "WM_PROTOCOLS").Reply()
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteReply.Atom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}
