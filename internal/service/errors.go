// Package service implements the booking workflows: public browsing,
// registration, the administrative console and the account/profile flow.
// Every operation takes the caller's principal explicitly and reports
// failures through the sentinel errors below.
package service

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/iliyamo/presenter-booking/internal/validation"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrBadRequest         = errors.New("bad request")
	ErrIdentity           = errors.New("identity rejected the request")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError carries the field errors of a rejected candidate.  When
// Duplicate is set the error also matches ErrConflict.
type ValidationError struct {
	Fields    validation.Errors
	Duplicate bool
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || (e.Duplicate && target == ErrConflict)
}

// ConflictError is a delete or write rejected by an integrity rule.
type ConflictError struct{ Reason string }

func (e *ConflictError) Error() string        { return e.Reason }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// IdentityError is a rejection from the identity collaborator, reported as
// field errors.
type IdentityError struct{ Fields validation.Errors }

func (e *IdentityError) Error() string        { return "identity rejected the request" }
func (e *IdentityError) Is(target error) bool { return target == ErrIdentity }

func invalid(rep validation.Report) error {
	return &ValidationError{Fields: rep.Fields, Duplicate: rep.Duplicate}
}

func fieldError(field, msg string) validation.Errors {
	e := validation.Errors{}
	e.Add(field, msg)
	return e
}

// storageFault logs an unexpected store error and hides it behind
// ErrStorageUnavailable.
func storageFault(op string, err error) error {
	log.Printf("storage: %s: %v", op, err)
	return ErrStorageUnavailable
}
