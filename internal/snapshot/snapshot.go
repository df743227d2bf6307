// Package snapshot converts the live windows into the records written to the
// state file.
package snapshot

import (
	"github.com/1broseidon/peachleaf/internal/metadata"
	"github.com/1broseidon/peachleaf/internal/paths"
	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/state"
)

// Build returns one record per window, sorted by id. Geometry is converted
// to logical pixels. Attributes come from entries, falling back to defaults
// for windows that never reported any. The color picker is skipped.
func Build(windows []platform.Window, entries map[string]metadata.Entry, defaults metadata.Defaults, notesDir string) []state.WindowRecord {
	records := make([]state.WindowRecord, 0, len(windows))
	for _, w := range windows {
		if w.Label == state.ColorPickerID {
			continue
		}
		records = append(records, Record(w, entries[w.Label], defaults, notesDir))
	}
	state.SortByID(records)
	return records
}

// Record builds the record for one window. A zero entry means defaults.
func Record(w platform.Window, e metadata.Entry, defaults metadata.Defaults, notesDir string) state.WindowRecord {
	scale := w.ScaleFactor
	if scale <= 0 {
		scale = 1
	}

	r := state.WindowRecord{
		ID:              w.Label,
		FilePath:        paths.NotePath(notesDir, w.Label),
		X:               toLogical(w.Bounds.X, scale),
		Y:               toLogical(w.Bounds.Y, scale),
		Width:           toLogical(w.Bounds.Width, scale),
		Height:          toLogical(w.Bounds.Height, scale),
		BackgroundColor: firstNonEmpty(e.BackgroundColor, defaults.BackgroundColor),
		TextColor:       firstNonEmpty(e.TextColor, defaults.TextColor),
		Mode:            firstNonEmpty(e.Mode, defaults.Mode),
		FontSize:        e.FontSize,
	}
	if r.FontSize <= 0 {
		r.FontSize = defaults.FontSize
	}

	if d := w.Display; d != nil {
		if d.Name != "" {
			r.MonitorName = state.StringPtr(d.Name)
		}
		pos := state.Point{d.Bounds.X, d.Bounds.Y}
		size := state.Size{d.Bounds.Width, d.Bounds.Height}
		r.MonitorPosition = &pos
		r.MonitorSize = &size
	}
	return r
}

// Equal reports whether two snapshots would encode identically.
func Equal(a, b []state.WindowRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !recordEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func recordEqual(a, b state.WindowRecord) bool {
	if a.ID != b.ID || a.FilePath != b.FilePath ||
		a.X != b.X || a.Y != b.Y || a.Width != b.Width || a.Height != b.Height ||
		a.BackgroundColor != b.BackgroundColor || a.TextColor != b.TextColor ||
		a.Mode != b.Mode || a.FontSize != b.FontSize {
		return false
	}
	return equalPtr(a.MonitorName, b.MonitorName) &&
		equalPtr(a.MonitorPosition, b.MonitorPosition) &&
		equalPtr(a.MonitorSize, b.MonitorSize)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// toLogical truncates toward zero, the same rule the backend applies to
// monitor bounds, so a window flush with a monitor edge stays flush.
func toLogical(v int, scale float64) int {
	return int(float64(v) / scale)
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
