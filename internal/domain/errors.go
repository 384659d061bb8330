package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrUnknownScanType       = errors.New("unknown scan type")
	ErrUnknownRatingValue    = errors.New("unknown rating value")
	ErrInconsistentLifecycle = errors.New("inconsistent lifecycle")
)

// StorageWriteError wraps a failed write to the rating store.
type StorageWriteError struct {
	Op       string
	EntityID int64
	Err      error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write %s (entity %d): %v", e.Op, e.EntityID, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

func WriteError(op string, entityID int64, err error) error {
	if err == nil {
		return nil
	}
	return &StorageWriteError{Op: op, EntityID: entityID, Err: err}
}
