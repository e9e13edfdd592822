// internal/store/errors.go
package store

import (
	"errors"
	"fmt"

	"cogs/internal/model"
)

var (
	// ErrDuplicateAssignment is an invariant violation: the protein is
	// already in a cluster. The round must abort, never overwrite.
	ErrDuplicateAssignment = errors.New("duplicate cluster assignment")

	// ErrWriteFailure marks a failed persistence call. The round that hit it
	// is rolled back and may be retried from the last committed organism.
	ErrWriteFailure = errors.New("store write failure")

	ErrUnknownProtein = errors.New("unknown protein")
	ErrTxDone         = errors.New("transaction already finished")
	ErrTxOpen         = errors.New("another transaction is open")
)

type DuplicateAssignmentError struct {
	Protein  model.ProteinID
	Existing model.ClusterID
	Target   model.ClusterID
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("protein %d already in cluster %d, refusing to assign to cluster %d",
		e.Protein, e.Existing, e.Target)
}

func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }

type WriteFailureError struct {
	Op  string
	Err error
}

func (e *WriteFailureError) Error() string {
	if e.Err == nil {
		return "store " + e.Op + " failed"
	}
	return "store " + e.Op + " failed: " + e.Err.Error()
}

func (e *WriteFailureError) Unwrap() []error { return []error{ErrWriteFailure, e.Err} }
