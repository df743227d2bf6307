package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"golang.org/x/term"

	"github.com/1broseidon/peachleaf/internal/notes"
	"github.com/1broseidon/peachleaf/internal/paths"
	"github.com/1broseidon/peachleaf/internal/state"
)

type stateView struct {
	swatches bool
}

func openStateStore(path string) (*state.Store, error) {
	if path != "" {
		expanded, err := paths.Expand(path)
		if err != nil {
			return nil, err
		}
		return state.NewStore(expanded), nil
	}
	p, err := paths.StatePath()
	if err != nil {
		return nil, err
	}
	return state.NewStore(p), nil
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	statePath := fs.String("path", "", "State file path (default: ~/.peach-leaf/state.json)")
	jsonOut := fs.Bool("json", false, "Print the state file as JSON")
	check := fs.Bool("check", false, "Validate every saved window")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: peachleaf state [--path PATH] [--json] [--check]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	store, err := openStateStore(*statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	st, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *check {
		problems := checkState(st)
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, p)
		}
		if len(problems) > 0 {
			return 1
		}
		fmt.Printf("%d window(s) OK\n", len(st.Windows))
		return 0
	}

	if *jsonOut {
		data, err := state.Encode(st.Windows)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	view := stateView{swatches: term.IsTerminal(int(os.Stdout.Fd()))}
	view.render(color.Output, st)
	return 0
}

func checkState(st *state.AppState) []string {
	var problems []string
	seen := make(map[string]struct{}, len(st.Windows))
	for i, w := range st.Windows {
		name := w.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if _, dup := seen[w.ID]; dup && w.ID != "" {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", name))
		}
		seen[w.ID] = struct{}{}
		if err := w.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	return problems
}

func (v stateView) render(w io.Writer, st *state.AppState) {
	if len(st.Windows) == 0 {
		fmt.Fprintln(w, "No saved windows.")
		return
	}

	header := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(header.Sprint("ID"), header.Sprint("POSITION"), header.Sprint("SIZE"), header.Sprint("MONITOR"), header.Sprint("COLOR"), header.Sprint("MODE"), header.Sprint("FONT"))
	for _, r := range st.Windows {
		tbl.AddRow(
			r.ID,
			fmt.Sprintf("%d,%d", r.X, r.Y),
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			monitorLabel(r),
			v.colorLabel(r),
			r.Mode,
			r.FontSize,
		)
	}
	fmt.Fprintln(w, tbl)
}

func (v stateView) colorLabel(r state.WindowRecord) string {
	if !v.swatches {
		return r.BackgroundColor
	}
	swatch := lipgloss.NewStyle().
		Background(lipgloss.Color(r.BackgroundColor)).
		Foreground(lipgloss.Color(r.TextColor)).
		Render(" Aa ")
	return swatch + " " + r.BackgroundColor
}

func monitorLabel(r state.WindowRecord) string {
	var parts []string
	if r.MonitorName != nil {
		parts = append(parts, *r.MonitorName)
	}
	if r.HasMonitorInfo() {
		parts = append(parts, fmt.Sprintf("%dx%d+%d+%d",
			r.MonitorSize.Width(), r.MonitorSize.Height(),
			r.MonitorPosition.X(), r.MonitorPosition.Y()))
	}
	if len(parts) == 0 {
		return color.New(color.Faint).Sprint("-")
	}
	return strings.Join(parts, " ")
}

func runWindow(args []string) int {
	fs := flag.NewFlagSet("window", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	statePath := fs.String("path", "", "State file path (default: ~/.peach-leaf/state.json)")
	content := fs.Bool("content", false, "Print the note file content instead of the record")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: peachleaf window [--path PATH] [--content] <id>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	id := fs.Arg(0)

	if *content {
		store, err := notes.Open()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		data, err := store.Read(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	store, err := openStateStore(*statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	st, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	record, ok := st.Find(id)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no saved window %q\n", id)
		return 1
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func runCleanup(args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	statePath := fs.String("path", "", "State file path (default: ~/.peach-leaf/state.json)")
	dryRun := fs.Bool("dry-run", false, "List orphaned note files without deleting them")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: peachleaf cleanup [--path PATH] [--dry-run]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Delete note files that no saved window references.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	store, err := openStateStore(*statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	noteStore, err := notes.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	removed, err := cleanupNotes(context.Background(), store, noteStore, *dryRun)
	for _, id := range removed {
		if *dryRun {
			fmt.Printf("would remove %s\n", noteStore.Path(id))
		} else {
			fmt.Printf("removed %s\n", noteStore.Path(id))
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(removed) == 0 {
		fmt.Println("No orphaned notes.")
	}
	return 0
}

// cleanupNotes refuses to run against an unreadable state file, since every
// note would look orphaned.
func cleanupNotes(ctx context.Context, store *state.Store, noteStore *notes.Store, dryRun bool) ([]string, error) {
	st, err := store.Load()
	if err != nil {
		if errors.Is(err, state.ErrCorruptState) {
			return nil, fmt.Errorf("refusing to clean up: %w", err)
		}
		return nil, err
	}
	live := st.IDs()
	if !dryRun {
		return noteStore.Cleanup(ctx, live)
	}
	var orphans []string
	for _, id := range noteStore.IDs(ctx) {
		if _, ok := live[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}
