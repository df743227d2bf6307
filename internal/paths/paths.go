package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// HomeEnv overrides the data directory root. Used by tests and portable installs.
const HomeEnv = "PEACHLEAF_HOME"

const dataDirName = ".peach-leaf"

// Dir returns the per-user data directory. Priority:
// 1) PEACHLEAF_HOME (if set)
// 2) <home>/.peach-leaf
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dataDirName), nil
}

// StatePath returns the window state file path.
func StatePath() (string, error) {
	return join("state.json")
}

// NotesDir returns the directory holding one markdown file per note window.
func NotesDir() (string, error) {
	return join("notes")
}

// ConfigPath returns the YAML configuration path.
func ConfigPath() (string, error) {
	return join("config.yaml")
}

// TempDir returns the scratch directory used for atomic note writes. It sits
// next to the notes directory so renames stay on one filesystem.
func TempDir() (string, error) {
	return join(".tmp")
}

// NotePath derives the markdown file path for a note id.
func NotePath(notesDir, id string) string {
	return filepath.Join(notesDir, id+".md")
}

// Expand resolves a leading "~" in user-supplied paths.
func Expand(path string) (string, error) {
	return homedir.Expand(path)
}

func join(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
