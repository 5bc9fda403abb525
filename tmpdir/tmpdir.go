// Package tmpdir allocates session-scoped temporary directories for the
// $tmp directive.
//
// All directories of one session live under a single base directory named
// after the current user, so leftovers from crashed runs are easy to find
// and sweep. Asking twice for the same name within a session returns the
// same directory.
package tmpdir

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sync"
)

// Dirs hands out named subdirectories of a lazily created session base
// directory. It is safe for concurrent use.
type Dirs struct {
	mu   sync.Mutex
	root string
	base string
}

var session = &Dirs{}

// Session returns the process-wide directory allocator.
func Session() *Dirs { return session }

// New creates an allocator whose base directory lives under root instead
// of the system temporary directory.
func New(root string) *Dirs { return &Dirs{root: root} }

// Base returns the session base directory, creating it on first use.
func (d *Dirs) Base() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.baseLocked()
}

func (d *Dirs) baseLocked() (string, error) {
	if d.base != "" {
		return d.base, nil
	}

	root := d.root
	if root == "" {
		root = os.TempDir()
	}

	base, err := os.MkdirTemp(root, "choixe-"+username()+"-")
	if err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}

	d.base = base

	return base, nil
}

// MakeSubdir returns the path of the named directory under the session
// base, creating both as needed.
func (d *Dirs) MakeSubdir(name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	base, err := d.baseLocked()
	if err != nil {
		return "", err
	}

	path := filepath.Join(base, name)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	return path, nil
}

func username() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return filepath.Base(u.Username)
	}

	return "user"
}
