package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fileshelf/backend/internal/logging"
	"go.uber.org/zap"
)

// Entry represents one immediate child of a vault directory.
type Entry struct {
	Name     string    `json:"name"`
	IsDir    bool      `json:"is_dir"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
}

// Vault confines all file operations to a single storage root and
// enforces a global byte quota. Read-only after construction; safe for
// use from concurrent request handlers (individual syscall atomicity
// only, no cross-request locking).
type Vault struct {
	root  string
	quota uint64
	log   *logging.Logger
}

// New creates a Vault rooted at dir, creating the directory if absent.
// The root must not be empty or the filesystem root.
func New(dir string, quotaBytes uint64, log *logging.Logger) (*Vault, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if abs == string(os.PathSeparator) || filepath.Dir(abs) == abs {
		return nil, fmt.Errorf("storage root cannot be the filesystem root")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	if log == nil {
		log = logging.NewDefault()
	}
	log.Info("Vault initialized",
		zap.String("root", abs),
		zap.Uint64("quota_bytes", quotaBytes),
	)
	return &Vault{root: abs, quota: quotaBytes, log: log}, nil
}

// Root returns the absolute storage root.
func (v *Vault) Root() string { return v.root }

// Quota returns the configured byte limit.
func (v *Vault) Quota() uint64 { return v.quota }
