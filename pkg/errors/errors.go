package errors

import "errors"

// ErrOptimisticLock indicates the row was modified by another operation
// between read and conditional update.
var ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")
