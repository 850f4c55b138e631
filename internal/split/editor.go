package split

import "wisetogether/internal/core"

// Editor tracks one in-progress shared transaction form. It is not safe for
// concurrent use.
type Editor struct {
	total core.Money
	state State
}

// NewEditor starts an equal split of total.
func NewEditor(total core.Money) *Editor {
	return &Editor{total: total, state: Equal{}}
}

// EditorFor resumes editing a persisted split.
func EditorFor(total core.Money, s core.Split) (*Editor, error) {
	st, err := FromSplit(s)
	if err != nil {
		return nil, err
	}
	return &Editor{total: total, state: st}, nil
}

func (e *Editor) State() State      { return e.state }
func (e *Editor) Total() core.Money { return e.total }

// SetAmount changes the transaction total. A complete custom split keeps
// member A's share when it still fits and rebalances member B; otherwise it
// is reset.
func (e *Editor) SetAmount(total core.Money) {
	if c, ok := e.state.(Custom); ok && c.A.Add(c.B) == e.total {
		if c.A.Cents <= total.Cents && total.Cents > 0 {
			e.state = Custom{A: c.A, B: total.Sub(c.A)}
		} else {
			e.state = Custom{}
		}
	}
	e.total = total
}

// ChangePolicy resets the state to policy's neutral values.
func (e *Editor) ChangePolicy(policy core.SplitType) error {
	if !policy.IsValid() {
		return core.ErrUnknownSplitType
	}
	e.state = ChangePolicy(e.state, policy)
	return nil
}

// Edit applies input to member's share. A rejected edit changes nothing.
func (e *Editor) Edit(member core.Member, input string) error {
	next, err := Edit(e.state, e.total, member, input)
	if err != nil {
		return err
	}
	e.state = next
	return nil
}

func (e *Editor) Resolve() (core.Split, error) {
	return Resolve(e.state, e.total)
}
