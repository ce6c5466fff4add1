package vault

import (
	"errors"
	"fmt"
)

// Failure classes returned by vault operations. Callers classify with
// errors.Is; messages are safe to surface to the user verbatim.
var (
	ErrInvalidName        = errors.New("invalid name")
	ErrPathEscape         = errors.New("path escapes storage root")
	ErrAlreadyExists      = errors.New("entry already exists")
	ErrNotFound           = errors.New("entry not found")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrWriteFailed        = errors.New("write failed")
	ErrDeleteFailed       = errors.New("delete failed")
	ErrDirectoryNotFound  = errors.New("directory not found")
	ErrArchiveUnavailable = errors.New("archive creation unavailable")
	ErrArchiveWriteFailed = errors.New("archive write failed")
)

// QuotaError reports a rejected admission with the numbers that caused it.
type QuotaError struct {
	Limit     uint64
	Used      uint64
	Attempted uint64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %d of %d bytes used, %d more requested",
		e.Used, e.Limit, e.Attempted)
}

// Is makes QuotaError match ErrQuotaExceeded.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
