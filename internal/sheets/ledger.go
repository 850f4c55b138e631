package sheets

import "wisetogether/internal/core"

// LedgerHeader names the ledger columns, A through J.
var LedgerHeader = []any{
	"Transaction ID", "Date", "Owner", "Kind", "Category", "Description",
	"Amount", "Split", "Member A share", "Member B share",
}

// LedgerRow renders tx as spreadsheet cells in LedgerHeader order. Amounts
// are plain decimal strings so the sheet parses them as numbers.
func LedgerRow(tx core.Transaction) []any {
	kind := "personal"
	var split, aShare, bShare string
	if tx.IsShared() {
		kind = "shared"
	}
	if tx.Split != nil {
		split = string(tx.Split.Type)
		if tx.Split.Type == core.SplitPercentage {
			split += " " + tx.Split.PercentA.String() + "/" + tx.Split.PercentB.String()
		}
		aShare = tx.Split.MemberAShare.String()
		bShare = tx.Split.MemberBShare.String()
	}
	return []any{
		tx.ID,
		tx.Date.String(),
		tx.OwnerID,
		kind,
		string(tx.Category),
		tx.Description,
		tx.Amount.String(),
		split,
		aShare,
		bShare,
	}
}
