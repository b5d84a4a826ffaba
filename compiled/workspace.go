package compiled

import (
	"os"
	"path/filepath"

	"github.com/ava12/g4scope"
)

// Workspace is a run-scoped directory holding grammar files, generated sources and the program binary.
type Workspace struct {
	dir string
}

// NewWorkspace creates a uniquely named directory under root, system temporary directory is used if root is empty.
func NewWorkspace(root string) (*Workspace, error) {
	if root != "" {
		if e := os.MkdirAll(root, 0o755); e != nil {
			return nil, g4scope.FormatError(CreateWorkspaceError, "cannot create workspace root: %s", e.Error())
		}
	}
	dir, e := os.MkdirTemp(root, "g4scope-")
	if e != nil {
		return nil, g4scope.FormatError(CreateWorkspaceError, "cannot create workspace: %s", e.Error())
	}
	return &Workspace{dir}, nil
}

// Dir returns workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns a path inside workspace.
func (w *Workspace) Path(elems ...string) string {
	return filepath.Join(append([]string{w.dir}, elems...)...)
}

// Save writes grammar text to workspace root and returns the file path.
func (w *Workspace) Save(name, text string) (string, error) {
	fileName := w.Path(filepath.Base(name))
	if e := os.WriteFile(fileName, []byte(text), 0o644); e != nil {
		return "", g4scope.FormatError(SaveGrammarError, "cannot save grammar: %s", e.Error())
	}
	return fileName, nil
}

// Close removes workspace directory with all its contents.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}
