package core

import (
	"errors"
	"sort"
	"strings"
)

// Form field names used as FieldErrors keys.
const (
	FieldDate     = "date"
	FieldAmount   = "amount"
	FieldCategory = "category"
)

// TransactionForm holds the raw values a user submitted.
type TransactionForm struct {
	Date        string
	Amount      string
	Category    string
	Description string
}

// ParsedForm is a TransactionForm that passed validation.
type ParsedForm struct {
	Date        Date
	Amount      Money
	Category    Category
	Description string
}

// FieldErrors maps a form field to its message. A nil or empty map means the
// form is valid.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Validate checks every field independently and reports all failures at once.
func (f TransactionForm) Validate() FieldErrors {
	_, errs := f.Parse()
	return errs
}

// Parse validates the form and converts it. errs is nil when the form is valid.
func (f TransactionForm) Parse() (ParsedForm, FieldErrors) {
	var (
		out  ParsedForm
		errs = FieldErrors{}
	)

	if strings.TrimSpace(f.Date) == "" {
		errs[FieldDate] = "date is required"
	} else if d, err := NormalizeDate(f.Date); err != nil {
		errs[FieldDate] = "date must be a valid calendar date"
	} else {
		out.Date = d
	}

	if strings.TrimSpace(f.Amount) == "" {
		errs[FieldAmount] = "amount is required"
	} else if m, err := ParseMoney(f.Amount); errors.Is(err, ErrAmountTooLarge) {
		errs[FieldAmount] = "amount too large"
	} else if err != nil {
		errs[FieldAmount] = "amount must be a number"
	} else {
		out.Amount = m
	}

	c := Category(strings.TrimSpace(f.Category))
	switch {
	case c == "" || c == CategoryUnselected:
		errs[FieldCategory] = "please select a category"
	case !c.IsKnown():
		errs[FieldCategory] = "unknown category"
	default:
		out.Category = c
	}

	out.Description = strings.TrimSpace(f.Description)

	if len(errs) > 0 {
		return ParsedForm{}, errs
	}
	return out, nil
}
