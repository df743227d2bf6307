package state

import (
	"encoding/json"
	"sort"
)

// Defaults applied to windows with no recorded attributes.
const (
	DefaultBackgroundColor = "#FEFCE8"
	DefaultTextColor       = "#333333"
	DefaultMode            = "edit"
	DefaultFontSize        = 14
	DefaultWidth           = 400
	DefaultHeight          = 300
)

// ColorPickerID labels the transient color picker window. It is never
// persisted.
const ColorPickerID = "color-picker"

// MainWindowID labels the default window created when nothing was restored.
const MainWindowID = "main"

// Point is an (x, y) pair serialized as a two-element JSON array.
type Point [2]int

// X returns the horizontal component.
func (p Point) X() int { return p[0] }

// Y returns the vertical component.
func (p Point) Y() int { return p[1] }

// Size is a (width, height) pair serialized as a two-element JSON array.
type Size [2]int

// Width returns the horizontal extent.
func (s Size) Width() int { return s[0] }

// Height returns the vertical extent.
func (s Size) Height() int { return s[1] }

// WindowRecord is the persisted state of one note window.
//
// X and Y are absolute logical desktop coordinates of the outer window.
// MonitorPosition and MonitorSize describe the monitor the window lived on
// at save time; they are used to decide whether X/Y are still meaningful,
// not to translate them.
type WindowRecord struct {
	ID              string  `json:"id"`
	FilePath        string  `json:"file_path"`
	X               int     `json:"x"`
	Y               int     `json:"y"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	BackgroundColor string  `json:"background_color"`
	TextColor       string  `json:"text_color"`
	Mode            string  `json:"mode"`
	FontSize        int     `json:"font_size"`
	MonitorName     *string `json:"monitor_name,omitempty"`
	MonitorPosition *Point  `json:"monitor_position,omitempty"`
	MonitorSize     *Size   `json:"monitor_size,omitempty"`
}

// UnmarshalJSON fills fields that older state files lack.
func (r *WindowRecord) UnmarshalJSON(data []byte) error {
	type plain WindowRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.FontSize <= 0 {
		p.FontSize = DefaultFontSize
	}
	*r = WindowRecord(p)
	return nil
}

// HasMonitorInfo reports whether both monitor bounds were recorded.
func (r WindowRecord) HasMonitorInfo() bool {
	return r.MonitorPosition != nil && r.MonitorSize != nil
}

// AppState is the content of the state file.
type AppState struct {
	Windows []WindowRecord `json:"windows"`
}

// IDs returns the set of window ids in the state.
func (s *AppState) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Windows))
	for _, w := range s.Windows {
		ids[w.ID] = struct{}{}
	}
	return ids
}

// Find returns the record with the given id.
func (s *AppState) Find(id string) (WindowRecord, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowRecord{}, false
}

// SortByID orders records by id ascending.
func SortByID(windows []WindowRecord) {
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
