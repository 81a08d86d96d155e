package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrNotReady         = errors.New("previous step missing")
	ErrIncomplete       = errors.New("wizard incomplete")

	ErrNotEditable = fmt.Errorf("%w: wizard is not editable", ErrConflict)
)

// ValidationError carries every failing field with its messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func fieldError(field, message string) error {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

type StepRef struct {
	Number int    `json:"numero"`
	Name   string `json:"nombre"`
}

// NotReadyError is returned when a step is written before its predecessor.
type NotReadyError struct {
	Step    StepRef
	Missing StepRef
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("step %d (%s) requires step %d (%s)", e.Step.Number, e.Step.Name, e.Missing.Number, e.Missing.Name)
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// ConflictError points at the unfinished wizard the caller should resume.
type ConflictError struct {
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an active wizard already exists: %s", e.ExistingID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type IncompleteError struct {
	Missing []StepRef
}

func (e *IncompleteError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, step := range e.Missing {
		names = append(names, step.Name)
	}
	return "missing steps: " + strings.Join(names, ", ")
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}
