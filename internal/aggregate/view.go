package aggregate

import "wisetogether/internal/core"

// Build derives the full dashboard for viewerID. account and partner may be
// nil; an empty or nil list yields zero totals and empty partitions.
func Build(txs []core.Transaction, viewerID string, account *core.SharedAccount, partner *core.UserProfile) core.DashboardView {
	var partnerName string
	if partner != nil {
		partnerName = partner.DisplayName
	}

	personal, shared := Partition(txs)
	labels, totals := CategoryBreakdown(txs)
	paidByViewer, paidByPartner := PaidTotals(txs, viewerID)

	rows := make([]core.TransactionRow, 0, len(txs))
	for _, tx := range txs {
		row := core.TransactionRow{Transaction: tx}
		if rec, ok := Reconcile(tx, viewerID, account, partnerName); ok {
			row.Reconciliation = &rec
		}
		rows = append(rows, row)
	}

	return core.DashboardView{
		PersonalTransactions: personal,
		SharedTransactions:   shared,
		PersonalTotal:        Sum(personal),
		SharedTotal:          Sum(shared),
		CategoryLabels:       labels,
		CategoryTotals:       totals,
		Rows:                 rows,
		NetBalance:           NetBalance(txs, viewerID, account),
		PaidByViewer:         paidByViewer,
		PaidByPartner:        paidByPartner,
		PartnerName:          partnerLabel(partnerName),
	}
}
