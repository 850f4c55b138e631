package aggregate

import (
	"errors"
	"fmt"

	"wisetogether/internal/core"
)

var (
	ErrZeroShares   = errors.New("both split shares are zero")
	ErrForeignOwner = errors.New("owner is not a member of the shared account")
)

// Anomaly is a shared transaction whose persisted split cannot be trusted.
type Anomaly struct {
	TransactionID string
	Err           error
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("transaction %s: %v", a.TransactionID, a.Err)
}

func (a Anomaly) Unwrap() error { return a.Err }

// counterpartySlot is the slot opposite the transaction owner. Without a
// usable account the owner is assumed to be member A.
func counterpartySlot(tx core.Transaction, account *core.SharedAccount) core.Member {
	if account != nil {
		if owner, ok := account.Slot(tx.OwnerID); ok {
			return owner.Other()
		}
	}
	return core.MemberB
}

func shareOf(tx core.Transaction, m core.Member) core.Money {
	if tx.Split == nil {
		return core.Money{}
	}
	return tx.Split.ShareOf(m)
}

func partnerLabel(name string) string {
	if name == "" {
		return PartnerFallback
	}
	return name
}

// Reconcile phrases a shared transaction for viewerID. The amount owed is
// always the counterparty's share, so both members see the same number. ok
// is false for personal transactions.
func Reconcile(tx core.Transaction, viewerID string, account *core.SharedAccount, partnerName string) (core.Reconciliation, bool) {
	if !tx.IsShared() {
		return core.Reconciliation{}, false
	}
	owed := shareOf(tx, counterpartySlot(tx, account))
	partner := partnerLabel(partnerName)

	if tx.OwnerID == viewerID {
		return core.Reconciliation{
			PaidLabel:  "you paid",
			PaidAmount: tx.Amount,
			OwedLabel:  partner + " owes you",
			OwedAmount: owed,
			ViewerPaid: true,
		}, true
	}
	return core.Reconciliation{
		PaidLabel:  partner + " paid",
		PaidAmount: tx.Amount,
		OwedLabel:  "you owe",
		OwedAmount: owed,
	}, true
}

// NetBalance is what the partner owes the viewer across shared transactions,
// negative when the viewer owes the partner.
func NetBalance(txs []core.Transaction, viewerID string, account *core.SharedAccount) core.Money {
	var net core.Money
	for _, tx := range txs {
		if !tx.IsShared() {
			continue
		}
		owed := shareOf(tx, counterpartySlot(tx, account))
		if tx.OwnerID == viewerID {
			net = net.Add(owed)
		} else {
			net = net.Sub(owed)
		}
	}
	return net
}

// PaidTotals sums shared amounts paid by the viewer and by anyone else.
func PaidTotals(txs []core.Transaction, viewerID string) (viewer, partner core.Money) {
	for _, tx := range txs {
		if !tx.IsShared() {
			continue
		}
		if tx.OwnerID == viewerID {
			viewer = viewer.Add(tx.Amount)
		} else {
			partner = partner.Add(tx.Amount)
		}
	}
	return viewer, partner
}

// Anomalies lists transactions with inconsistent split data. account may be
// nil, in which case ownership is not checked.
func Anomalies(txs []core.Transaction, account *core.SharedAccount) []Anomaly {
	var out []Anomaly
	for _, tx := range txs {
		if err := checkSplit(tx, account); err != nil {
			out = append(out, Anomaly{TransactionID: tx.ID, Err: err})
		}
	}
	return out
}

func checkSplit(tx core.Transaction, account *core.SharedAccount) error {
	if !tx.IsShared() {
		if tx.Split != nil {
			return core.ErrUnexpectedSplit
		}
		return nil
	}
	s := tx.Split
	switch {
	case s == nil:
		return core.ErrMissingSplit
	case !s.Type.IsValid():
		return core.ErrUnknownSplitType
	case s.Type != core.SplitEqual && tx.Amount.Cents > 0 && s.MemberAShare.IsZero() && s.MemberBShare.IsZero():
		return ErrZeroShares
	case s.MemberAShare.Add(s.MemberBShare) != tx.Amount:
		return core.ErrSplitMismatch
	case s.Type == core.SplitEqual && s.MemberBShare.Cents != tx.Amount.Cents/2:
		return core.ErrUnevenEqualSplit
	}
	if account != nil && account.ID == tx.SharedAccountID && !account.IsMember(tx.OwnerID) {
		return ErrForeignOwner
	}
	return nil
}
