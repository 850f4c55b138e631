// Package split keeps the two shares of a shared transaction consistent with
// the chosen policy and the transaction total while a member edits them.
//
// Every function is pure: it takes a State by value and returns a new one.
package split

import (
	"errors"

	"wisetogether/internal/core"
)

var (
	ErrNotNumeric    = errors.New("split value is not a number")
	ErrOutOfRange    = errors.New("split value out of range")
	ErrAmountUnknown = errors.New("amount must be set before editing a custom split")
	ErrNotEditable   = errors.New("equal split cannot be edited")
	ErrIncomplete    = errors.New("split shares do not cover the whole amount")
)

// State is one of Equal, Percentage or Custom.
type State interface {
	Policy() core.SplitType
	isState()
}

type (
	// Equal halves the total; odd cents go to member A.
	Equal struct{}

	// Percentage holds both members' percentages in hundredths of a percent.
	Percentage struct {
		A, B core.Percent
	}

	// Custom holds both members' absolute shares.
	Custom struct {
		A, B core.Money
	}
)

func (Equal) Policy() core.SplitType      { return core.SplitEqual }
func (Percentage) Policy() core.SplitType { return core.SplitPercentage }
func (Custom) Policy() core.SplitType     { return core.SplitCustom }

func (Equal) isState()      {}
func (Percentage) isState() {}
func (Custom) isState()     {}

// Of returns member m's percentage.
func (p Percentage) Of(m core.Member) core.Percent {
	if m == core.MemberA {
		return p.A
	}
	return p.B
}

// Of returns member m's amount.
func (c Custom) Of(m core.Member) core.Money {
	if m == core.MemberA {
		return c.A
	}
	return c.B
}

// Neutral returns the zeroed state for policy.
func Neutral(policy core.SplitType) (State, error) {
	switch policy {
	case core.SplitEqual:
		return Equal{}, nil
	case core.SplitPercentage:
		return Percentage{}, nil
	case core.SplitCustom:
		return Custom{}, nil
	}
	return nil, core.ErrUnknownSplitType
}

// ChangePolicy switches to policy. Old values are never carried over; an
// unknown policy leaves the state as it was.
func ChangePolicy(state State, policy core.SplitType) State {
	next, err := Neutral(policy)
	if err != nil {
		return state
	}
	return next
}

// FromSplit rebuilds an editable state from a persisted split.
func FromSplit(s core.Split) (State, error) {
	switch s.Type {
	case core.SplitEqual:
		return Equal{}, nil
	case core.SplitPercentage:
		return Percentage{A: s.PercentA, B: s.PercentB}, nil
	case core.SplitCustom:
		return Custom{A: s.MemberAShare, B: s.MemberBShare}, nil
	}
	return nil, core.ErrUnknownSplitType
}
