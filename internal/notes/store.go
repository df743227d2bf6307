// Package notes manages the markdown files backing note windows. Each note
// id maps to "<id>.md" directly under the notes directory.
package notes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/1broseidon/peachleaf/internal/paths"
)

const ext = ".md"

// ErrInvalidID is returned for ids that cannot be used as a file stem.
var ErrInvalidID = errors.New("invalid note id")

// Store is a flat directory of note files.
type Store struct {
	dir string
	d   *diskv.Diskv
}

// Options configures a Store. TempDir must live on the same filesystem as
// Dir; when empty, writes are not staged.
type Options struct {
	Dir     string
	TempDir string
}

// New returns a store rooted at opts.Dir. The directory is created lazily on
// the first write.
func New(opts Options) *Store {
	return &Store{
		dir: opts.Dir,
		d: diskv.New(diskv.Options{
			BasePath:          opts.Dir,
			TempDir:           opts.TempDir,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			PathPerm:          0755,
			FilePerm:          0644,
		}),
	}
}

// Open returns a store for the default per-user notes directory.
func Open() (*Store, error) {
	dir, err := paths.NotesDir()
	if err != nil {
		return nil, err
	}
	tmp, err := paths.TempDir()
	if err != nil {
		return nil, err
	}
	return New(Options{Dir: dir, TempDir: tmp}), nil
}

// Dir returns the notes directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for id.
func (s *Store) Path(id string) string {
	return paths.NotePath(s.dir, id)
}

// Create writes an empty note file for id, truncating any existing content.
func (s *Store) Create(id string) error {
	return s.Write(id, nil)
}

// Read returns the content of the note.
func (s *Store) Read(id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := s.d.Read(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read note %s: %w", id, err)
	}
	return data, nil
}

// Write replaces the content of the note.
func (s *Store) Write(id string, content []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	if err := s.d.Write(id, content); err != nil {
		return fmt.Errorf("failed to write note %s: %w", id, err)
	}
	return nil
}

// Delete removes the note file. A missing file is not an error.
func (s *Store) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if !s.d.Has(id) {
		return nil
	}
	if err := s.d.Erase(id); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a note file exists for id.
func (s *Store) Exists(id string) bool {
	return checkID(id) == nil && s.d.Has(id)
}

// IDs lists the stems of every ".md" file directly in the notes directory,
// sorted. A missing directory yields no ids.
func (s *Store) IDs(ctx context.Context) []string {
	var ids []string
	for key := range s.d.Keys(ctx.Done()) {
		if key == "" {
			continue
		}
		ids = append(ids, key)
	}
	sort.Strings(ids)
	return ids
}

// Cleanup deletes every note file whose id is not in live and returns the
// removed ids. Files without the ".md" extension and subdirectories are left
// alone. Individual removal failures are joined into the returned error;
// the remaining files are still processed.
func (s *Store) Cleanup(ctx context.Context, live map[string]struct{}) ([]string, error) {
	var (
		removed []string
		errs    []error
	)
	for _, id := range s.IDs(ctx) {
		if _, ok := live[id]; ok {
			continue
		}
		if err := s.Delete(id); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, id)
	}
	return removed, errors.Join(errs...)
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func keyToPath(key string) *diskv.PathKey {
	return &diskv.PathKey{
		Path:     []string{},
		FileName: key + ext,
	}
}

// pathToKey maps a file under the notes directory back to its id. Anything
// that is not a top-level ".md" file maps to the empty key.
func pathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) > 0 {
		return ""
	}
	stem, ok := strings.CutSuffix(pk.FileName, ext)
	if !ok || stem == "" {
		return ""
	}
	return stem
}
