package vault

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Usage walks the entire storage tree and sums regular file sizes.
// Directories contribute zero. The quota is global, so moving files
// between folders never changes the total.
//
// Cost is O(total file count) and this runs on every admission check.
// Known scaling limit for large trees; kept deliberately simple because
// per-directory accounting would change observable behavior.
func (v *Vault) Usage(ctx context.Context) (uint64, error) {
	var total atomic.Uint64
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, v.root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total.Add(uint64(info.Size()))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("usage walk: %w", err)
	}
	return total.Load(), nil
}

// Admit checks whether a prospective write of pending bytes fits under
// the quota. Callers must perform the write immediately after a
// successful admission; concurrent requests that both pass and jointly
// overshoot the limit are an accepted race (no cross-request locking).
func (v *Vault) Admit(ctx context.Context, pending uint64) error {
	used, err := v.Usage(ctx)
	if err != nil {
		return err
	}
	if used+pending > v.quota {
		return &QuotaError{Limit: v.quota, Used: used, Attempted: pending}
	}
	return nil
}
