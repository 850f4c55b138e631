package split

import (
	"fmt"
	"regexp"
	"strings"

	"wisetogether/internal/core"
)

// signedNumber is a plain number that may carry a leading minus, so negative
// input is reported as out of range rather than as garbage.
var signedNumber = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)$`)

// Edit applies a raw user input to member's share. On error the returned
// state is the one passed in.
func Edit(state State, total core.Money, member core.Member, input string) (State, error) {
	input = strings.TrimSpace(input)
	if !signedNumber.MatchString(input) {
		return state, ErrNotNumeric
	}
	negative := strings.HasPrefix(input, "-")
	abs := strings.TrimPrefix(input, "-")

	// Ranges are checked on the exact value so that input just outside the
	// interval is rejected instead of rounded into it.
	switch s := state.(type) {
	case Equal:
		return state, ErrNotEditable
	case Percentage:
		d, err := core.ParseDecimal(abs)
		if err != nil {
			return state, ErrNotNumeric
		}
		if (negative && !d.IsZero()) || d.GreaterThan(core.FullPercent.Decimal()) {
			return state, ErrOutOfRange
		}
		p, err := core.PercentFromDecimal(d)
		if err != nil {
			return state, ErrNotNumeric
		}
		return EditPercent(s, member, p)
	case Custom:
		d, err := core.ParseDecimal(abs)
		if err != nil {
			return state, ErrNotNumeric
		}
		if total.Cents <= 0 {
			return state, ErrAmountUnknown
		}
		if (negative && !d.IsZero()) || d.GreaterThan(total.Decimal()) {
			return state, ErrOutOfRange
		}
		v, err := core.MoneyFromDecimal(d)
		if err != nil {
			return state, ErrNotNumeric
		}
		return EditAmount(s, total, member, v)
	}
	return state, fmt.Errorf("edit split: unexpected state %T", state)
}

// EditPercent sets member's percentage to p and the other member's to the
// complement. p must lie in [0, 100%].
func EditPercent(s Percentage, member core.Member, p core.Percent) (Percentage, error) {
	if p < 0 || p > core.FullPercent {
		return s, ErrOutOfRange
	}
	if member == core.MemberA {
		return Percentage{A: p, B: core.FullPercent - p}, nil
	}
	return Percentage{A: core.FullPercent - p, B: p}, nil
}

// EditAmount sets member's share to v and the other member's to total - v.
// v must lie in [0, total] and total must be positive.
func EditAmount(s Custom, total core.Money, member core.Member, v core.Money) (Custom, error) {
	if total.Cents <= 0 {
		return s, ErrAmountUnknown
	}
	if v.Cents < 0 || v.Cents > total.Cents {
		return s, ErrOutOfRange
	}
	if member == core.MemberA {
		return Custom{A: v, B: total.Sub(v)}, nil
	}
	return Custom{A: total.Sub(v), B: v}, nil
}

// Resolve converts a state into the persisted split for total. Both shares
// are absolute cents and always add up to total.
func Resolve(state State, total core.Money) (core.Split, error) {
	if total.Cents < 0 {
		return core.Split{}, core.ErrNegativeAmount
	}
	switch s := state.(type) {
	case Equal:
		half := core.Money{Cents: total.Cents / 2}
		return core.Split{
			Type:         core.SplitEqual,
			MemberAShare: total.Sub(half),
			MemberBShare: half,
		}, nil
	case Percentage:
		if s.A < 0 || s.B < 0 || s.A+s.B != core.FullPercent {
			return core.Split{}, ErrIncomplete
		}
		a := total.PercentOf(s.A)
		return core.Split{
			Type:         core.SplitPercentage,
			MemberAShare: a,
			MemberBShare: total.Sub(a),
			PercentA:     s.A,
			PercentB:     s.B,
		}, nil
	case Custom:
		if s.A.Cents < 0 || s.B.Cents < 0 || s.A.Add(s.B) != total {
			return core.Split{}, ErrIncomplete
		}
		return core.Split{
			Type:         core.SplitCustom,
			MemberAShare: s.A,
			MemberBShare: s.B,
		}, nil
	}
	return core.Split{}, fmt.Errorf("resolve split: unexpected state %T", state)
}
