package services

import (
	"errors"
	"strings"

	"wisetogether/internal/core"
	"wisetogether/internal/split"
)

// SplitEdit is one keystroke-level change to a member's share.
type SplitEdit struct {
	Member core.Member
	Value  string
}

// SplitPreview is the engine state after replaying a form's edits.
type SplitPreview struct {
	Total    core.Money
	State    split.State
	Resolved *core.Split // nil while the shares do not cover the total
	Rejected []error     // one entry per refused edit, in order
}

// PreviewSplit replays edits the way the form applies them. A refused edit
// leaves the state untouched and is reported in Rejected; an unparsable
// amount is a field error. An empty amount means the total is not known yet.
func PreviewSplit(amount string, policy core.SplitType, edits []SplitEdit) (SplitPreview, error) {
	var total core.Money
	if strings.TrimSpace(amount) != "" {
		m, err := core.ParseMoney(amount)
		if err != nil {
			return SplitPreview{}, core.FieldErrors{core.FieldAmount: "amount must be a number"}
		}
		total = m
	}

	e := split.NewEditor(total)
	if err := e.ChangePolicy(policy); err != nil {
		return SplitPreview{}, err
	}

	p := SplitPreview{Total: total}
	for _, ed := range edits {
		if err := e.Edit(ed.Member, ed.Value); err != nil {
			p.Rejected = append(p.Rejected, err)
		}
	}
	p.State = e.State()

	sp, err := e.Resolve()
	switch {
	case err == nil:
		p.Resolved = &sp
	case errors.Is(err, split.ErrIncomplete):
	default:
		return SplitPreview{}, err
	}
	return p, nil
}
