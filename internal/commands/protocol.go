// Package commands is the operation surface note windows call into. Requests
// and responses use a JSON envelope so any frontend can drive it in-process.
package commands

import (
	"encoding/json"
	"fmt"
)

// CommandType names an operation.
type CommandType string

const (
	CommandGetWindowMetadata    CommandType = "GET_WINDOW_METADATA"
	CommandUpdateWindowMetadata CommandType = "UPDATE_WINDOW_METADATA"
	CommandSaveWindowState      CommandType = "SAVE_WINDOW_STATE"
	CommandGetSavedState        CommandType = "GET_SAVED_STATE"
	CommandGetWindowData        CommandType = "GET_WINDOW_DATA"
	CommandCreateNewNote        CommandType = "CREATE_NEW_NOTE"
	CommandWindowFocus          CommandType = "WINDOW_FOCUS"
	CommandOpenColorPicker      CommandType = "OPEN_COLOR_PICKER"
	CommandCloseColorPicker     CommandType = "CLOSE_COLOR_PICKER"
	CommandApplyColor           CommandType = "APPLY_COLOR"
	CommandReadNoteFile         CommandType = "READ_NOTE_FILE"
	CommandWriteNoteFile        CommandType = "WRITE_NOTE_FILE"
	CommandDeleteNoteFile       CommandType = "DELETE_NOTE_FILE"
)

// Response statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request is one call from a window.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the result of a Request.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WindowPayload addresses one window.
type WindowPayload struct {
	WindowLabel string `json:"window_label"`
}

// UpdateMetadataPayload is a partial attribute change; omitted fields are
// left untouched.
type UpdateMetadataPayload struct {
	WindowLabel     string  `json:"window_label"`
	BackgroundColor *string `json:"background_color,omitempty"`
	Mode            *string `json:"mode,omitempty"`
	FontSize        *int    `json:"font_size,omitempty"`
}

// MetadataData mirrors a cache entry.
type MetadataData struct {
	ID              string `json:"id"`
	FilePath        string `json:"file_path"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	Mode            string `json:"mode"`
	FontSize        int    `json:"font_size"`
}

// NewNoteData is returned by CREATE_NEW_NOTE.
type NewNoteData struct {
	ID string `json:"id"`
}

// FocusData is returned by WINDOW_FOCUS: the font size the focused window
// uses, for menu check marks.
type FocusData struct {
	FontSize int `json:"font_size"`
}

// ColorPickerPayload opens the color picker for a parent window.
type ColorPickerPayload struct {
	ParentLabel  string `json:"parent_label"`
	CurrentColor string `json:"current_color"`
}

// ApplyColorPayload forwards a picked color to its parent window.
type ApplyColorPayload struct {
	ParentLabel string `json:"parent_label"`
	Color       string `json:"color"`
}

// ColorData is the payload of the color-selected event.
type ColorData struct {
	Color string `json:"color"`
}

// NotePayload addresses one note file.
type NotePayload struct {
	NoteID  string `json:"note_id"`
	Content string `json:"content,omitempty"`
}

// NoteContentData is returned by READ_NOTE_FILE.
type NoteContentData struct {
	Content string `json:"content"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Decode unmarshals the response data into v.
func (r *Response) Decode(v any) error {
	if r.Status != StatusOK {
		return fmt.Errorf("command failed: %s", r.Error)
	}
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}
