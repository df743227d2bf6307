// Package lifecycle creates, restores and persists note windows.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/peachleaf/internal/config"
	"github.com/1broseidon/peachleaf/internal/metadata"
	"github.com/1broseidon/peachleaf/internal/monitor"
	"github.com/1broseidon/peachleaf/internal/notes"
	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/snapshot"
	"github.com/1broseidon/peachleaf/internal/state"
)

// Events emitted to note windows.
const (
	EventInitSticker   = "init-sticker"
	EventColorSelected = "color-selected"
)

// WindowTitle is the title of every note window.
const WindowTitle = "PeachLeaf"

// Requester schedules an asynchronous snapshot.
type Requester interface {
	Request()
}

// Options wires a Manager. Backend, Store, Cache and Notes are required.
type Options struct {
	Backend platform.Backend
	Store   *state.Store
	Cache   *metadata.Cache
	Notes   *notes.Store
	Logger  *slog.Logger
	Config  *config.Config
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Manager owns the note windows of one application instance.
type Manager struct {
	backend platform.Backend
	store   *state.Store
	cache   *metadata.Cache
	notes   *notes.Store
	logger  *slog.Logger
	now     func() time.Time

	cfgMu sync.RWMutex
	cfg   *config.Config

	// saveMu serializes every list-build-write sequence so two snapshots
	// never interleave their writes.
	saveMu    sync.Mutex
	lastSaved []state.WindowRecord
	saved     bool

	// idMu serializes note id allocation.
	idMu sync.Mutex

	queueMu sync.RWMutex
	queue   Requester
}

// New validates opts and returns a manager subscribed to window destruction.
func New(opts Options) (*Manager, error) {
	if opts.Backend == nil || opts.Store == nil || opts.Cache == nil || opts.Notes == nil {
		return nil, errors.New("lifecycle: backend, store, cache and notes are required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		backend: opts.Backend,
		store:   opts.Store,
		cache:   opts.Cache,
		notes:   opts.Notes,
		logger:  logger,
		now:     now,
		cfg:     cfg,
	}
	m.cache.SetDefaults(defaultsFrom(cfg))
	m.backend.OnDestroyed(m.HandleDestroyed)
	return m, nil
}

// SetSnapshotQueue routes snapshots triggered by window destruction through
// q. Without a queue each destruction saves on its own goroutine.
func (m *Manager) SetSnapshotQueue(q Requester) {
	m.queueMu.Lock()
	m.queue = q
	m.queueMu.Unlock()
}

// UpdateConfig applies a reloaded configuration to subsequent operations.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfgMu.Lock()
	m.cfg = cfg
	m.cfgMu.Unlock()
	m.cache.SetDefaults(defaultsFrom(cfg))
	m.logger.Debug("configuration applied")
}

// Config returns the configuration currently in effect.
func (m *Manager) Config() *config.Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg
}

// Backend returns the window system the manager drives.
func (m *Manager) Backend() platform.Backend { return m.backend }

// Cache returns the metadata cache.
func (m *Manager) Cache() *metadata.Cache { return m.cache }

// Store returns the state file store.
func (m *Manager) Store() *state.Store { return m.store }

// Notes returns the note file store.
func (m *Manager) Notes() *notes.Store { return m.notes }

func (m *Manager) resolver() monitor.Resolver {
	cfg := m.Config()
	return monitor.Resolver{Inset: cfg.RelocateInset, Margin: cfg.EdgeMargin}
}

// CreateMainWindow opens the default window used when nothing was restored.
func (m *Manager) CreateMainWindow() error {
	cfg := m.Config()
	err := m.backend.CreateWindow(platform.WindowOptions{
		Label:           state.MainWindowID,
		Title:           WindowTitle,
		Width:           cfg.DefaultWidth,
		Height:          cfg.DefaultHeight,
		Transparent:     true,
		Resizable:       true,
		BackgroundColor: cfg.BackgroundColor,
	})
	if err != nil {
		return fmt.Errorf("failed to create main window: %w", err)
	}
	m.logger.Info("main window created")
	return nil
}

// RestoreWindow recreates the window for a saved record at a position that
// is visible on the current monitor layout, then hands the record to it.
func (m *Manager) RestoreWindow(r state.WindowRecord) error {
	displays, err := m.backend.Displays()
	if err != nil {
		m.logger.Warn("failed to enumerate monitors", "error", err)
		displays = nil
	}

	p := m.resolver().Resolve(r, displays)
	if p.Relocated {
		m.logger.Info("relocating window",
			"id", r.ID,
			"saved_x", r.X, "saved_y", r.Y,
			"x", p.X, "y", p.Y,
			"match", p.Decision.Kind)
	} else {
		m.logger.Debug("restoring window", "id", r.ID, "x", p.X, "y", p.Y, "match", p.Decision.Kind)
	}

	// A live window owns its cache entry; a second record with its id must
	// not overwrite or drop it.
	if _, err := m.backend.Window(r.ID); err == nil {
		m.logger.Warn("window already restored", "id", r.ID)
		return fmt.Errorf("failed to restore window %s: %w", r.ID, platform.ErrWindowExists)
	}

	// Attribute queries may arrive before the window reports ready.
	prev, hadPrev := m.cache.Get(r.ID)
	m.cache.Put(r)

	err = m.backend.CreateWindow(platform.WindowOptions{
		Label:           r.ID,
		Title:           WindowTitle,
		Width:           r.Width,
		Height:          r.Height,
		Position:        &platform.Point{X: p.X, Y: p.Y},
		Transparent:     true,
		Resizable:       true,
		BackgroundColor: r.BackgroundColor,
	})
	if err != nil {
		if hadPrev {
			m.cache.Set(prev)
		} else {
			m.cache.Delete(r.ID)
		}
		m.logger.Error("failed to restore window", "id", r.ID, "error", err)
		return fmt.Errorf("failed to restore window %s: %w", r.ID, err)
	}

	payload := r
	payload.X, payload.Y = p.X, p.Y
	if err := m.backend.Emit(r.ID, EventInitSticker, payload); err != nil {
		m.logger.Warn("failed to emit init-sticker", "id", r.ID, "error", err)
	}
	return nil
}

// RestoreAll restores every record with bounded parallelism and returns how
// many windows were created. Individual failures are logged and skipped.
func (m *Manager) RestoreAll(ctx context.Context, records []state.WindowRecord) int {
	var restored atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(m.Config().RestoreParallelism, 1))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == state.ColorPickerID {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			m.logger.Warn("skipping duplicate window record", "id", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}
		r := r
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := m.RestoreWindow(r); err == nil {
				restored.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(restored.Load())
}

// CreateNewNote opens a fresh note. With no window open at all it opens the
// main window instead and returns its label.
func (m *Manager) CreateNewNote() (string, error) {
	windows, err := m.backend.Windows()
	if err != nil {
		return "", fmt.Errorf("failed to list windows: %w", err)
	}
	if len(windows) == 0 {
		m.logger.Info("no windows open, creating main window")
		if err := m.CreateMainWindow(); err != nil {
			return "", err
		}
		return state.MainWindowID, nil
	}

	id, millis := m.allocateID(windows)

	if err := m.notes.Create(id); err != nil {
		return "", fmt.Errorf("failed to create note file: %w", err)
	}

	cfg := m.Config()
	offset := int(millis%100) + 50
	rec := state.WindowRecord{
		ID:              id,
		FilePath:        m.notes.Path(id),
		X:               cfg.NewNoteBase + offset,
		Y:               cfg.NewNoteBase + offset,
		Width:           cfg.DefaultWidth,
		Height:          cfg.DefaultHeight,
		BackgroundColor: cfg.BackgroundColor,
		TextColor:       cfg.TextColor,
		Mode:            state.DefaultMode,
		FontSize:        cfg.FontSize,
	}

	err = m.backend.CreateWindow(platform.WindowOptions{
		Label:           id,
		Title:           WindowTitle,
		Width:           rec.Width,
		Height:          rec.Height,
		Position:        &platform.Point{X: rec.X, Y: rec.Y},
		Resizable:       true,
		BackgroundColor: rec.BackgroundColor,
	})
	if err != nil {
		if derr := m.notes.Delete(id); derr != nil {
			m.logger.Warn("failed to remove note file of unopened window", "id", id, "error", derr)
		}
		return "", fmt.Errorf("failed to create note window: %w", err)
	}
	m.cache.Put(rec)

	if err := m.backend.Emit(id, EventInitSticker, rec); err != nil {
		m.logger.Warn("failed to emit init-sticker", "id", id, "error", err)
	}
	if err := m.SaveState(); err != nil {
		m.logger.Error("failed to save window state after creating note", "id", id, "error", err)
	}

	m.logger.Info("note created", "id", id)
	return id, nil
}

// allocateID returns "note-<unix millis>", stepping forward one millisecond
// while the id is taken by a window or an existing note file.
func (m *Manager) allocateID(windows []platform.Window) (string, int64) {
	m.idMu.Lock()
	defer m.idMu.Unlock()

	taken := make(map[string]bool, len(windows))
	for _, w := range windows {
		taken[w.Label] = true
	}

	millis := m.now().UnixMilli()
	for {
		id := "note-" + strconv.FormatInt(millis, 10)
		if !taken[id] && !m.notes.Exists(id) {
			return id, millis
		}
		millis++
	}
}

// Snapshot builds the records describing the live windows.
func (m *Manager) Snapshot() ([]state.WindowRecord, error) {
	windows, err := m.backend.Windows()
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	return snapshot.Build(windows, m.cache.Snapshot(), m.cache.Defaults(), m.notes.Dir()), nil
}

// SaveState writes a snapshot of the live windows. It is the only path that
// writes the state file.
func (m *Manager) SaveState() error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	records, err := m.Snapshot()
	if err != nil {
		return err
	}
	return m.writeLocked(records)
}

// SaveIfChanged writes a snapshot only when it differs from the last one
// written and reports whether it wrote.
func (m *Manager) SaveIfChanged() (bool, error) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	records, err := m.Snapshot()
	if err != nil {
		return false, err
	}
	if m.saved && snapshot.Equal(records, m.lastSaved) {
		return false, nil
	}
	if err := m.writeLocked(records); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) writeLocked(records []state.WindowRecord) error {
	if err := m.store.Save(records); err != nil {
		return err
	}
	m.lastSaved = records
	m.saved = true
	m.logger.Debug("window state saved", "windows", len(records))
	return nil
}

// HandleDestroyed forgets a destroyed window and schedules a snapshot of the
// windows that remain.
func (m *Manager) HandleDestroyed(id string) {
	m.cache.Delete(id)
	m.logger.Debug("window destroyed", "id", id)
	if id == state.ColorPickerID {
		return
	}

	m.queueMu.RLock()
	q := m.queue
	m.queueMu.RUnlock()
	if q != nil {
		q.Request()
		return
	}

	go func() {
		if err := m.SaveState(); err != nil {
			m.logger.Error("failed to save window state after close", "id", id, "error", err)
		}
	}()
}

// DeleteNote removes the note file of id and its cached attributes. A missing
// file is not an error.
func (m *Manager) DeleteNote(id string) error {
	if err := m.notes.Delete(id); err != nil {
		return err
	}
	m.cache.Delete(id)
	m.logger.Info("note file deleted", "id", id)
	return nil
}

// Startup restores the previous session. Note files that the state file does
// not reference are removed first. When nothing can be restored the main
// window is opened so the application is never left without a window.
func (m *Manager) Startup(ctx context.Context) error {
	st, err := m.store.Load()
	if err != nil {
		if errors.Is(err, state.ErrCorruptState) {
			m.logger.Error("state file is corrupt, starting fresh", "error", err)
		} else {
			m.logger.Error("failed to load state", "error", err)
		}
		return m.CreateMainWindow()
	}

	for _, r := range st.Windows {
		if verr := r.Validate(); verr != nil {
			m.logger.Warn("saved window has invalid fields", "id", r.ID, "error", verr)
		}
	}

	removed, err := m.notes.Cleanup(ctx, st.IDs())
	if err != nil {
		m.logger.Warn("failed to clean up orphaned notes", "error", err)
	}
	for _, id := range removed {
		m.logger.Info("deleted orphaned note", "id", id)
	}

	if len(st.Windows) == 0 {
		m.logger.Info("no saved windows, creating main window")
		return m.CreateMainWindow()
	}

	restored := m.RestoreAll(ctx, st.Windows)
	m.logger.Info("session restored", "restored", restored, "saved", len(st.Windows))
	if restored == 0 {
		m.logger.Warn("no window could be restored, creating main window")
		return m.CreateMainWindow()
	}
	return nil
}

func defaultsFrom(cfg *config.Config) metadata.Defaults {
	return metadata.Defaults{
		BackgroundColor: cfg.BackgroundColor,
		TextColor:       cfg.TextColor,
		Mode:            state.DefaultMode,
		FontSize:        cfg.FontSize,
	}
}
