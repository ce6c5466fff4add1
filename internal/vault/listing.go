package vault

import (
	"fmt"
	"os"
)

// List enumerates the immediate children of base, directories first in
// enumeration order, then files in enumeration order. Entries are read
// fresh on every call.
func (v *Vault) List(base string) ([]Entry, error) {
	dir, err := v.ResolveDir(base)
	if err != nil {
		return nil, err
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, base)
	}

	dirs := make([]Entry, 0, len(children))
	files := make([]Entry, 0, len(children))
	for _, c := range children {
		e := Entry{Name: c.Name(), IsDir: c.IsDir()}
		if info, err := c.Info(); err == nil {
			e.Modified = info.ModTime()
			if !c.IsDir() {
				e.Size = uint64(info.Size())
			}
		}
		if c.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	return append(dirs, files...), nil
}

// Breadcrumbs returns the sanitized segments of a relative path for
// navigation display.
func (v *Vault) Breadcrumbs(base string) []string {
	return cleanBase(base)
}
