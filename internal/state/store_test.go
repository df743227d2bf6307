package state

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func fullRecord(id string) WindowRecord {
	pos := Point{1920, 0}
	size := Size{2560, 1440}
	return WindowRecord{
		ID:              id,
		FilePath:        "/home/u/.peach-leaf/notes/" + id + ".md",
		X:               2000,
		Y:               120,
		Width:           420,
		Height:          310,
		BackgroundColor: "#DBEAFE",
		TextColor:       DefaultTextColor,
		Mode:            "preview",
		FontSize:        16,
		MonitorName:     StringPtr("DELL-1"),
		MonitorPosition: &pos,
		MonitorSize:     &size,
	}
}

func bareRecord(id string) WindowRecord {
	return WindowRecord{
		ID:              id,
		FilePath:        "/home/u/.peach-leaf/notes/" + id + ".md",
		X:               100,
		Y:               100,
		Width:           400,
		Height:          300,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
		Mode:            DefaultMode,
		FontSize:        DefaultFontSize,
	}
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope", "state.json"))

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if st == nil || len(st.Windows) != 0 {
		t.Fatalf("Load() = %+v, want empty state", st)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		windows []WindowRecord
	}{
		{"empty", []WindowRecord{}},
		{"optional fields absent", []WindowRecord{bareRecord("note-1")}},
		{"optional fields present", []WindowRecord{fullRecord("note-2")}},
		{"mixed and unsorted", []WindowRecord{fullRecord("note-9"), bareRecord("main"), fullRecord("note-10")}},
		{"name absent with bounds", func() []WindowRecord {
			r := fullRecord("note-3")
			r.MonitorName = nil
			return []WindowRecord{r}
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(filepath.Join(t.TempDir(), ".peach-leaf", "state.json"))
			if err := store.Save(tt.windows); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			got, err := store.Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}

			want := append([]WindowRecord{}, tt.windows...)
			SortByID(want)
			if !reflect.DeepEqual(got.Windows, want) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got.Windows, want)
			}
		})
	}
}

func TestStore_SaveSortsByID(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"))
	if err := store.Save([]WindowRecord{bareRecord("c"), bareRecord("a"), bareRecord("b")}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	var ids []string
	for _, w := range got.Windows {
		ids = append(ids, w.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("ids = %v, want [a b c]", ids)
	}
}

func TestStore_SaveIsByteStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path)
	windows := []WindowRecord{fullRecord("note-2"), bareRecord("note-1")}

	if err := store.Save(windows); err != nil {
		t.Fatalf("first Save() error: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Save([]WindowRecord{windows[1], windows[0]}); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("output differs between saves:\n%s\n---\n%s", first, second)
	}
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "state.json"))
	if err := store.Save([]WindowRecord{bareRecord("a")}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory contents = %v, want only state.json", names)
	}
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"windows": [`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewStore(path).Load()
	if err == nil {
		t.Fatal("expected error for corrupt state file")
	}
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("error = %v, want ErrCorruptState", err)
	}
}

func TestStore_LoadLegacyRecordDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := `{
  "windows": [
    {
      "id": "note-1700000000000",
      "file_path": "/tmp/note-1700000000000.md",
      "x": 10,
      "y": 20,
      "width": 400,
      "height": 300,
      "background_color": "#FEFCE8",
      "text_color": "#333333",
      "mode": "edit"
    }
  ]
}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(st.Windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(st.Windows))
	}
	w := st.Windows[0]
	if w.FontSize != 14 {
		t.Errorf("FontSize = %d, want 14", w.FontSize)
	}
	if w.MonitorName != nil || w.MonitorPosition != nil || w.MonitorSize != nil {
		t.Errorf("monitor fields = %v %v %v, want all nil", w.MonitorName, w.MonitorPosition, w.MonitorSize)
	}
}

func TestStore_LoadExplicitNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	data := `{"windows":[{"id":"a","file_path":"","x":0,"y":0,"width":1,"height":1,
"background_color":"#fff","text_color":"#000","mode":"edit","font_size":18,
"monitor_name":null,"monitor_position":null,"monitor_size":[1920,1080]}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	w := st.Windows[0]
	if w.FontSize != 18 {
		t.Errorf("FontSize = %d, want 18", w.FontSize)
	}
	if w.MonitorPosition != nil {
		t.Errorf("MonitorPosition = %v, want nil", w.MonitorPosition)
	}
	if w.MonitorSize == nil || w.MonitorSize.Width() != 1920 || w.MonitorSize.Height() != 1080 {
		t.Errorf("MonitorSize = %v, want [1920 1080]", w.MonitorSize)
	}
	if w.HasMonitorInfo() {
		t.Error("HasMonitorInfo() = true with only a size recorded")
	}
}

func TestEncode_TuplesAsArrays(t *testing.T) {
	data, err := Encode([]WindowRecord{fullRecord("a")})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	for _, want := range []string{`"monitor_position": [`, `"monitor_size": [`, `"font_size": 16`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("encoded state missing %s:\n%s", want, data)
		}
	}
	if bytes.Contains(bareEncoded(t), []byte("monitor_")) {
		t.Error("absent monitor fields should be omitted")
	}
}

func bareEncoded(t *testing.T) []byte {
	t.Helper()
	data, err := Encode([]WindowRecord{bareRecord("a")})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestWindowRecordValidate(t *testing.T) {
	if err := fullRecord("a").Validate(); err != nil {
		t.Fatalf("Validate() on full record: %v", err)
	}

	bad := bareRecord("a")
	bad.Width = 0
	bad.BackgroundColor = "yellow"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error")
	}

	zero := Size{0, 1080}
	badMonitor := fullRecord("b")
	badMonitor.MonitorSize = &zero
	if err := badMonitor.Validate(); err == nil {
		t.Fatal("expected validation error for zero monitor width")
	}
}
