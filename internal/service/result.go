package service

import (
	"errors"

	"github.com/iliyamo/presenter-booking/internal/validation"
)

// Result is what a workflow hands to the presentation layer: the entity to
// render, any field errors and a confirmation message.
type Result[T any] struct {
	Entity  T                 `json:"entity"`
	Errors  validation.Errors `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
}

// DeletePreview is the first phase of a two-phase delete.
type DeletePreview[T any] struct {
	Entity     T      `json:"entity"`
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason,omitempty"`
	Dependents int    `json:"dependents"`
}

func rejected[T any](entity T, err error) (Result[T], error) {
	res := Result[T]{Entity: entity}
	var ve *ValidationError
	var ie *IdentityError
	switch {
	case errors.As(err, &ve):
		res.Errors = ve.Fields
	case errors.As(err, &ie):
		res.Errors = ie.Fields
	}
	return res, err
}
