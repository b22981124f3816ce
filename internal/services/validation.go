package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tutorbook/internal/core"
)

// ValidationError lists rejected fields with a message for each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field string, err error) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: err.Error()}}
}

// IsValidation reports whether err carries field errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validatePayment(p core.Payment) error {
	fields := map[string]string{}
	if err := p.Date.Validate(); err != nil {
		fields["date"] = err.Error()
	}
	if err := p.Amount.Validate(); err != nil {
		fields["amount"] = err.Error()
	}
	return collect(fields)
}

func validateExpense(e core.Expense) error {
	fields := map[string]string{}
	if err := e.Date.Validate(); err != nil {
		fields["date"] = err.Error()
	}
	if err := e.Amount.Validate(); err != nil {
		fields["amount"] = err.Error()
	}
	if strings.TrimSpace(e.Description) == "" {
		fields["description"] = core.ErrEmptyDescription.Error()
	} else if len(e.Description) > 200 {
		fields["description"] = "description too long (max 200 characters)"
	}
	return collect(fields)
}

func validateStudent(s core.Student) error {
	if err := s.Validate(); err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyName):
			return fieldError("name", err)
		case errors.Is(err, core.ErrInvalidPhone):
			return fieldError("phone", err)
		case errors.Is(err, core.ErrInvalidAmount):
			return fieldError("monthly_fee", err)
		default:
			return fieldError("join_date", err)
		}
	}
	return nil
}

func collect(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
