// Package metadata keeps the display attributes of live note windows that
// the window system cannot store: background color, mode and font size.
package metadata

import (
	"sync"

	"github.com/1broseidon/peachleaf/internal/paths"
	"github.com/1broseidon/peachleaf/internal/state"
)

// Entry holds the cached attributes of one window.
type Entry struct {
	ID              string
	FilePath        string
	BackgroundColor string
	TextColor       string
	Mode            string
	FontSize        int
}

// Update is a partial change; nil fields are left untouched.
type Update struct {
	BackgroundColor *string
	Mode            *string
	FontSize        *int
}

// Defaults supplies the attribute values for windows without an entry.
type Defaults struct {
	BackgroundColor string
	TextColor       string
	Mode            string
	FontSize        int
}

// DefaultAttributes returns the built-in defaults.
func DefaultAttributes() Defaults {
	return Defaults{
		BackgroundColor: state.DefaultBackgroundColor,
		TextColor:       state.DefaultTextColor,
		Mode:            state.DefaultMode,
		FontSize:        state.DefaultFontSize,
	}
}

// Cache is a mutex-protected id -> Entry map shared by every component of
// one application instance. The lock covers a single operation only.
type Cache struct {
	notesDir string

	mu       sync.Mutex
	entries  map[string]Entry
	defaults Defaults
}

// New returns an empty cache deriving file paths from notesDir.
func New(notesDir string) *Cache {
	return &Cache{
		notesDir: notesDir,
		entries:  make(map[string]Entry),
		defaults: DefaultAttributes(),
	}
}

// SetDefaults changes the values used to synthesize new entries.
func (c *Cache) SetDefaults(d Defaults) {
	c.mu.Lock()
	c.defaults = d
	c.mu.Unlock()
}

// Defaults returns the values used to synthesize new entries.
func (c *Cache) Defaults() Defaults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaults
}

// Get returns the entry for id.
func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Upsert applies u to the entry for id, creating the entry from u and the
// defaults when absent. It returns the resulting entry.
func (c *Cache) Upsert(id string, u Update) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		e = c.newEntryLocked(id)
	}
	if u.BackgroundColor != nil {
		e.BackgroundColor = *u.BackgroundColor
	}
	if u.Mode != nil {
		e.Mode = *u.Mode
	}
	if u.FontSize != nil {
		e.FontSize = *u.FontSize
	}
	c.entries[id] = e
	return e
}

// Put replaces the entry for a record, used when a window is restored so
// attribute queries see the saved values before the window reports ready.
func (c *Cache) Put(r state.WindowRecord) {
	e := Entry{
		ID:              r.ID,
		FilePath:        r.FilePath,
		BackgroundColor: r.BackgroundColor,
		TextColor:       r.TextColor,
		Mode:            r.Mode,
		FontSize:        r.FontSize,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.FilePath == "" {
		e.FilePath = paths.NotePath(c.notesDir, r.ID)
	}
	if e.BackgroundColor == "" {
		e.BackgroundColor = c.defaults.BackgroundColor
	}
	if e.TextColor == "" {
		e.TextColor = c.defaults.TextColor
	}
	if e.Mode == "" {
		e.Mode = c.defaults.Mode
	}
	if e.FontSize <= 0 {
		e.FontSize = c.defaults.FontSize
	}
	c.entries[r.ID] = e
}

// Set stores e as is, keyed by e.ID.
func (c *Cache) Set(e Entry) {
	c.mu.Lock()
	c.entries[e.ID] = e
	c.mu.Unlock()
}

// Delete drops the entry for id.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Snapshot returns a point-in-time copy of every entry.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.entries))
	for id, e := range c.entries {
		out[id] = e
	}
	return out
}

// Resolve returns the entry for id or a default entry when absent, without
// storing it.
func (c *Cache) Resolve(id string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e
	}
	return c.newEntryLocked(id)
}

func (c *Cache) newEntryLocked(id string) Entry {
	return Entry{
		ID:              id,
		FilePath:        paths.NotePath(c.notesDir, id),
		BackgroundColor: c.defaults.BackgroundColor,
		TextColor:       c.defaults.TextColor,
		Mode:            c.defaults.Mode,
		FontSize:        c.defaults.FontSize,
	}
}
