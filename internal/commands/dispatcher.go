package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/1broseidon/peachleaf/internal/lifecycle"
	"github.com/1broseidon/peachleaf/internal/metadata"
	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/state"
)

// ErrParentNotFound is returned when a color command targets a window that
// does not exist.
var ErrParentNotFound = errors.New("parent window not found")

// Color picker geometry.
const (
	colorPickerWidth  = 252
	colorPickerHeight = 108
	colorPickerX      = 180
	colorPickerY      = 25
	colorPickerMargin = 10
	fallbackScreenW   = 1920
)

// EventColorPickerInit hands the parent label and current color to a newly
// opened color picker.
const EventColorPickerInit = "color-picker-init"

// Dispatcher executes commands against a lifecycle manager.
type Dispatcher struct {
	mgr *lifecycle.Manager
}

// NewDispatcher creates a dispatcher for mgr.
func NewDispatcher(mgr *lifecycle.Manager) *Dispatcher {
	return &Dispatcher{mgr: mgr}
}

// HandleJSON parses a raw request and returns the encoded response.
func (d *Dispatcher) HandleJSON(data []byte) []byte {
	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(err.Error())
	} else {
		resp = d.Handle(req)
	}
	out, err := resp.Marshal()
	if err != nil {
		out, _ = NewErrorResponse(err.Error()).Marshal()
	}
	return out
}

// Handle routes a request to its command.
func (d *Dispatcher) Handle(req *Request) *Response {
	switch req.Command {
	case CommandGetWindowMetadata:
		var p WindowPayload
		return d.withPayload(req, &p, func() (any, error) {
			return d.GetWindowMetadata(p.WindowLabel), nil
		})
	case CommandUpdateWindowMetadata:
		var p UpdateMetadataPayload
		return d.withPayload(req, &p, func() (any, error) {
			return d.UpdateWindowMetadata(p), nil
		})
	case CommandSaveWindowState:
		return respond(nil, d.SaveWindowState())
	case CommandGetSavedState:
		return respond(d.GetSavedState())
	case CommandGetWindowData:
		var p WindowPayload
		return d.withPayload(req, &p, func() (any, error) {
			return d.GetWindowData(p.WindowLabel)
		})
	case CommandCreateNewNote:
		id, err := d.CreateNewNote()
		if err != nil {
			return respond(nil, err)
		}
		return respond(NewNoteData{ID: id}, nil)
	case CommandWindowFocus:
		var p WindowPayload
		return d.withPayload(req, &p, func() (any, error) {
			return FocusData{FontSize: d.WindowFocus(p.WindowLabel)}, nil
		})
	case CommandOpenColorPicker:
		var p ColorPickerPayload
		return d.withPayload(req, &p, func() (any, error) {
			return nil, d.OpenColorPicker(p.ParentLabel, p.CurrentColor)
		})
	case CommandCloseColorPicker:
		return respond(nil, d.CloseColorPicker())
	case CommandApplyColor:
		var p ApplyColorPayload
		return d.withPayload(req, &p, func() (any, error) {
			return nil, d.ApplyColor(p.ParentLabel, p.Color)
		})
	case CommandReadNoteFile:
		var p NotePayload
		return d.withPayload(req, &p, func() (any, error) {
			content, err := d.ReadNoteFile(p.NoteID)
			if err != nil {
				return nil, err
			}
			return NoteContentData{Content: content}, nil
		})
	case CommandWriteNoteFile:
		var p NotePayload
		return d.withPayload(req, &p, func() (any, error) {
			return nil, d.WriteNoteFile(p.NoteID, p.Content)
		})
	case CommandDeleteNoteFile:
		var p NotePayload
		return d.withPayload(req, &p, func() (any, error) {
			return nil, d.DeleteNoteFile(p.NoteID)
		})
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (d *Dispatcher) withPayload(req *Request, p validation.Validatable, fn func() (any, error)) *Response {
	if len(req.Payload) == 0 {
		return NewErrorResponse(fmt.Sprintf("%s: payload is required", req.Command))
	}
	if err := json.Unmarshal(req.Payload, p); err != nil {
		return NewErrorResponse(fmt.Sprintf("%s: invalid payload: %v", req.Command, err))
	}
	if err := p.Validate(); err != nil {
		return NewErrorResponse(fmt.Sprintf("%s: %v", req.Command, err))
	}
	return respond(fn())
}

func respond(data any, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// GetWindowMetadata returns the cached attributes of a window, or nil.
func (d *Dispatcher) GetWindowMetadata(label string) *MetadataData {
	e, ok := d.mgr.Cache().Get(label)
	if !ok {
		return nil
	}
	data := metadataData(e)
	return &data
}

// UpdateWindowMetadata applies a partial attribute change. Unknown windows
// get an entry built from the given values and the defaults.
func (d *Dispatcher) UpdateWindowMetadata(p UpdateMetadataPayload) MetadataData {
	e := d.mgr.Cache().Upsert(p.WindowLabel, metadata.Update{
		BackgroundColor: p.BackgroundColor,
		Mode:            p.Mode,
		FontSize:        p.FontSize,
	})
	return metadataData(e)
}

// SaveWindowState writes a snapshot of the live windows.
func (d *Dispatcher) SaveWindowState() error {
	return d.mgr.SaveState()
}

// GetSavedState returns the state file content. A missing file is empty.
func (d *Dispatcher) GetSavedState() (*state.AppState, error) {
	return d.mgr.Store().Load()
}

// GetWindowData returns the saved record of one window, or nil.
func (d *Dispatcher) GetWindowData(label string) (*state.WindowRecord, error) {
	st, err := d.mgr.Store().Load()
	if err != nil {
		return nil, err
	}
	r, ok := st.Find(label)
	log.Printf("get window data for %q: found=%v", label, ok)
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// CreateNewNote opens a new note window and returns its label.
func (d *Dispatcher) CreateNewNote() (string, error) {
	return d.mgr.CreateNewNote()
}

// WindowFocus returns the font size of the focused window, or the default
// when it has no cached attributes.
func (d *Dispatcher) WindowFocus(label string) int {
	if e, ok := d.mgr.Cache().Get(label); ok && e.FontSize > 0 {
		return e.FontSize
	}
	return d.mgr.Cache().Defaults().FontSize
}

// OpenColorPicker replaces any open color picker with a new one placed near
// the top of the parent's monitor.
func (d *Dispatcher) OpenColorPicker(parentLabel, currentColor string) error {
	backend := d.mgr.Backend()
	parent, err := backend.Window(parentLabel)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrParentNotFound, parentLabel)
	}

	if err := d.CloseColorPicker(); err != nil {
		log.Printf("failed to close previous color picker: %v", err)
	}

	originX, originY, screenW := 0, 0, fallbackScreenW
	if parent.Display != nil {
		originX, originY = parent.Display.Bounds.X, parent.Display.Bounds.Y
		screenW = parent.Display.Bounds.Width
	}
	x := colorPickerX
	if x+colorPickerWidth > screenW {
		x = max(screenW-colorPickerWidth-colorPickerMargin, colorPickerMargin)
	}

	err = backend.CreateWindow(platform.WindowOptions{
		Label:       state.ColorPickerID,
		Title:       "Color Picker",
		Width:       colorPickerWidth,
		Height:      colorPickerHeight,
		Position:    &platform.Point{X: originX + x, Y: originY + colorPickerY},
		AlwaysOnTop: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open color picker: %w", err)
	}

	payload := ColorPickerPayload{ParentLabel: parentLabel, CurrentColor: currentColor}
	if err := backend.Emit(state.ColorPickerID, EventColorPickerInit, payload); err != nil {
		log.Printf("failed to initialize color picker: %v", err)
	}
	return nil
}

// CloseColorPicker closes the color picker if it is open.
func (d *Dispatcher) CloseColorPicker() error {
	err := d.mgr.Backend().Close(state.ColorPickerID)
	if err != nil && !errors.Is(err, platform.ErrWindowNotFound) {
		return err
	}
	return nil
}

// ApplyColor sends the picked color to the parent window and closes the
// picker.
func (d *Dispatcher) ApplyColor(parentLabel, color string) error {
	backend := d.mgr.Backend()
	if _, err := backend.Window(parentLabel); err != nil {
		return fmt.Errorf("%w: %s", ErrParentNotFound, parentLabel)
	}
	if err := backend.Emit(parentLabel, lifecycle.EventColorSelected, ColorData{Color: color}); err != nil {
		return fmt.Errorf("failed to emit %s: %w", lifecycle.EventColorSelected, err)
	}
	return d.CloseColorPicker()
}

// ReadNoteFile returns the markdown content of a note.
func (d *Dispatcher) ReadNoteFile(id string) (string, error) {
	data, err := d.mgr.Notes().Read(id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteNoteFile replaces the markdown content of a note.
func (d *Dispatcher) WriteNoteFile(id, content string) error {
	return d.mgr.Notes().Write(id, []byte(content))
}

// DeleteNoteFile removes a note file. A missing file is not an error.
func (d *Dispatcher) DeleteNoteFile(id string) error {
	return d.mgr.DeleteNote(id)
}

func metadataData(e metadata.Entry) MetadataData {
	return MetadataData{
		ID:              e.ID,
		FilePath:        e.FilePath,
		BackgroundColor: e.BackgroundColor,
		TextColor:       e.TextColor,
		Mode:            e.Mode,
		FontSize:        e.FontSize,
	}
}
