package models

import (
	"errors"
	"fmt"
)

var ErrJobFailed = errors.New("job failed")

// SetupError means the partitions could not be computed. Nothing was dispatched.
type SetupError struct {
	FilePath string
	Err      error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup of %s failed: %v", e.FilePath, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// RecordParseError carries the 0-based data line index (header excluded) of the offending row.
type RecordParseError struct {
	Line  int64
	Field string
	Value string
	Err   error
}

func (e *RecordParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("data line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("data line %d: invalid %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *RecordParseError) Unwrap() error {
	return e.Err
}

type SinkError struct {
	Collection string
	Size       int
	Err        error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("failed to write batch of %d payments to %s: %v", e.Size, e.Collection, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// RangeShortfallError means the reader ended before covering its whole range.
type RangeShortfallError struct {
	Expected int64
	Got      int64
}

func (e *RangeShortfallError) Error() string {
	return fmt.Sprintf("expected %d records in range, reader produced %d", e.Expected, e.Got)
}

type PartitionError struct {
	Partition Partition
	Err       error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Partition, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}
