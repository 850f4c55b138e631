package core

// Reconciliation is who paid and who owes what on one shared transaction,
// phrased for a particular viewer.
type Reconciliation struct {
	PaidLabel  string
	PaidAmount Money
	OwedLabel  string
	OwedAmount Money
	ViewerPaid bool
}

// TransactionRow is one transaction as presented to a viewer.
type TransactionRow struct {
	Transaction    Transaction
	Reconciliation *Reconciliation // shared transactions only
}

// DashboardView is everything derived from a transaction list for one viewer.
type DashboardView struct {
	PersonalTransactions []Transaction
	SharedTransactions   []Transaction
	PersonalTotal        Money
	SharedTotal          Money
	CategoryLabels       []Category
	CategoryTotals       []Money
	Rows                 []TransactionRow

	// NetBalance is positive when the partner owes the viewer.
	NetBalance    Money
	PaidByViewer  Money
	PaidByPartner Money
	PartnerName   string
}
