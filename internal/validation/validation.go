// Package validation checks candidate roles, presenters and numbers against
// field rules and the current contents of the store before anything is
// written.  It never writes.
package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/presenter-booking/internal/model"
)

// Errors maps a field name to the messages attached to it.
type Errors map[string][]string

// Add attaches a message to a field.
func (e Errors) Add(field, msg string) { e[field] = append(e[field], msg) }

// Has reports whether the field carries at least one message.
func (e Errors) Has(field string) bool { return len(e[field]) > 0 }

// Report is the outcome of validating one candidate.  Duplicate is set when
// the primary code is already taken; the message is also attached to the
// code field.
type Report struct {
	Fields    Errors
	Duplicate bool
}

// OK reports whether the candidate was accepted.
func (r Report) OK() bool { return len(r.Fields) == 0 }

// Mode selects the rule set: Create also checks code uniqueness.
type Mode int

const (
	Create Mode = iota
	Update
)

// Exister reports whether a row with the given code exists.
type Exister interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// CountFunc counts rows that depend on the given parent code.
type CountFunc func(ctx context.Context, code string) (int, error)

// Validator runs field and integrity rules.  Lookup errors are returned as
// errors, never folded into the report.
type Validator struct {
	roles      Exister
	presenters Exister
	numbers    Exister

	presentersOfRole   CountFunc
	numbersOfPresenter CountFunc
}

// New wires a Validator to the store lookups it needs.
func New(roles, presenters, numbers Exister, presentersOfRole, numbersOfPresenter CountFunc) *Validator {
	return &Validator{
		roles:              roles,
		presenters:         presenters,
		numbers:            numbers,
		presentersOfRole:   presentersOfRole,
		numbersOfPresenter: numbersOfPresenter,
	}
}

// Column widths, in characters.
const (
	MaxCodeLen      = 32
	MaxLabelLen     = 100
	MaxNameLen      = 150
	MaxTitleLen     = 200
	MaxFirstNameLen = 100
	MaxLastNameLen  = 100
	MaxEmailLen     = 255
	MaxPhoneLen     = 32
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// MaxLen attaches a message to field when s is longer than max characters.
func (e Errors) MaxLen(field, label, s string, max int) {
	if utf8.RuneCountInString(s) > max {
		e.Add(field, fmt.Sprintf("%s may not be longer than %d characters.", label, max))
	}
}

// Role validates a role candidate.
func (v *Validator) Role(ctx context.Context, r model.Role, mode Mode) (Report, error) {
	rep := Report{Fields: Errors{}}
	if blank(r.Code) {
		rep.Fields.Add("code", "Code is required.")
	}
	if blank(r.Label) {
		rep.Fields.Add("label", "Label is required.")
	}
	rep.Fields.MaxLen("code", "Code", r.Code, MaxCodeLen)
	rep.Fields.MaxLen("label", "Label", r.Label, MaxLabelLen)
	if r.PriceCents < 0 {
		rep.Fields.Add("price", "Price cannot be negative.")
	}
	if mode == Create && !blank(r.Code) {
		taken, err := v.roles.Exists(ctx, r.Code)
		if err != nil {
			return rep, err
		}
		if taken {
			rep.Fields.Add("code", "A role with this code already exists.")
			rep.Duplicate = true
		}
	}
	return rep, nil
}

// Presenter validates a presenter candidate, including that its role exists.
func (v *Validator) Presenter(ctx context.Context, p model.Presenter, mode Mode) (Report, error) {
	rep := Report{Fields: Errors{}}
	if blank(p.Code) {
		rep.Fields.Add("code", "Code is required.")
	}
	if blank(p.Name) {
		rep.Fields.Add("name", "Name is required.")
	}
	rep.Fields.MaxLen("code", "Code", p.Code, MaxCodeLen)
	rep.Fields.MaxLen("name", "Name", p.Name, MaxNameLen)
	if blank(p.RoleCode) {
		rep.Fields.Add("role_code", "Role is required.")
	} else if utf8.RuneCountInString(p.RoleCode) > MaxCodeLen {
		rep.Fields.Add("role_code", "The selected role does not exist.")
	} else {
		ok, err := v.roles.Exists(ctx, p.RoleCode)
		if err != nil {
			return rep, err
		}
		if !ok {
			rep.Fields.Add("role_code", "The selected role does not exist.")
		}
	}
	if mode == Create && !blank(p.Code) {
		taken, err := v.presenters.Exists(ctx, p.Code)
		if err != nil {
			return rep, err
		}
		if taken {
			rep.Fields.Add("code", "A presenter with this code already exists.")
			rep.Duplicate = true
		}
	}
	return rep, nil
}

// Number validates a number candidate: required fields, duration range and
// that its presenter exists.
func (v *Validator) Number(ctx context.Context, n model.Number, mode Mode) (Report, error) {
	rep := Report{Fields: Errors{}}
	if blank(n.Code) {
		rep.Fields.Add("code", "Code is required.")
	}
	if blank(n.Title) {
		rep.Fields.Add("title", "Title is required.")
	}
	rep.Fields.MaxLen("code", "Code", n.Code, MaxCodeLen)
	rep.Fields.MaxLen("title", "Title", n.Title, MaxTitleLen)
	if n.DurationMinutes < model.MinDurationMinutes || n.DurationMinutes > model.MaxDurationMinutes {
		rep.Fields.Add("duration_minutes", fmt.Sprintf("Duration must be between %d and %d minutes.",
			model.MinDurationMinutes, model.MaxDurationMinutes))
	}
	if n.ShowDateTime.IsZero() {
		rep.Fields.Add("show_date_time", "Show date is required.")
	}
	if blank(n.PresenterCode) {
		rep.Fields.Add("presenter_code", "Presenter is required.")
	} else if utf8.RuneCountInString(n.PresenterCode) > MaxCodeLen {
		rep.Fields.Add("presenter_code", "The selected presenter does not exist.")
	} else {
		ok, err := v.presenters.Exists(ctx, n.PresenterCode)
		if err != nil {
			return rep, err
		}
		if !ok {
			rep.Fields.Add("presenter_code", "The selected presenter does not exist.")
		}
	}
	if mode == Create && !blank(n.Code) {
		taken, err := v.numbers.Exists(ctx, n.Code)
		if err != nil {
			return rep, err
		}
		if taken {
			rep.Fields.Add("code", "A number with this code already exists.")
			rep.Duplicate = true
		}
	}
	return rep, nil
}

// Guard is the outcome of a delete-guard check.  Reason is empty when the
// delete may proceed.
type Guard struct {
	Dependents int
	Reason     string
}

// Allowed reports whether the delete may proceed.
func (g Guard) Allowed() bool { return g.Reason == "" }

// RoleDelete checks that no presenter still references the role.
func (v *Validator) RoleDelete(ctx context.Context, code string) (Guard, error) {
	n, err := v.presentersOfRole(ctx, code)
	if err != nil {
		return Guard{}, err
	}
	g := Guard{Dependents: n}
	if n > 0 {
		g.Reason = fmt.Sprintf("Role %q cannot be deleted: it is used by %s.", code, plural(n, "presenter"))
	}
	return g, nil
}

// PresenterDelete checks that no number still references the presenter.
func (v *Validator) PresenterDelete(ctx context.Context, code string) (Guard, error) {
	n, err := v.numbersOfPresenter(ctx, code)
	if err != nil {
		return Guard{}, err
	}
	g := Guard{Dependents: n}
	if n > 0 {
		g.Reason = fmt.Sprintf("Presenter %q cannot be deleted: it is scheduled in %s.", code, plural(n, "number"))
	}
	return g, nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
