package dedupe

import "fmt"

// BatchTooLargeError indicates a batch exceeded the configured maximum and
// was rejected before any computation started. No partial output is produced.
type BatchTooLargeError struct {
	Size int
	Max  int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d files exceeds maximum of %d", e.Size, e.Max)
}
