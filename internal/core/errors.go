package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigNotFound = errors.New("coaching context not found")
	// ErrIncompleteUndo is returned by UndoLastTurn together with a deleted
	// count below two. It is a degraded outcome, not a store failure.
	ErrIncompleteUndo = errors.New("not enough messages found to delete a pair")
)

// ValidationError rejects caller input before any store or provider access.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "missing required parameters: " + strings.Join(e.Fields, ", ")
}

// StoreError wraps any persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// required returns a ValidationError naming every blank field, or nil.
func required(fields ...string) error {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			missing = append(missing, fields[i])
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
