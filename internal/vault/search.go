package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// maxSearchResults caps a single glob query.
const maxSearchResults = 1000

// Match is one search hit, with a path relative to the searched base.
type Match struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  uint64 `json:"size"`
}

// Search walks the subtree at base and returns entries whose relative
// slash path matches the doublestar pattern (e.g. "**/*.txt"). Results
// are sorted by path and capped at maxSearchResults.
func (v *Vault) Search(ctx context.Context, base, pattern string) ([]Match, error) {
	if pattern == "" {
		return nil, fmt.Errorf("search pattern required")
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid search pattern: %s", pattern)
	}
	dir, err := v.ResolveDir(base)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, base)
	}

	var (
		mu      sync.Mutex
		matches []Match
	)
	conf := fastwalk.Config{Follow: false}

	err = fastwalk.Walk(&conf, dir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || path == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil || !ok {
			return nil
		}

		m := Match{Path: rel, IsDir: d.IsDir()}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			m.Size = uint64(info.Size())
		}

		mu.Lock()
		defer mu.Unlock()
		if len(matches) < maxSearchResults {
			matches = append(matches, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search walk: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	return matches, nil
}
