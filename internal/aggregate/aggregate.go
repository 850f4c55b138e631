// Package aggregate derives dashboard views from a list of transactions.
//
// Nothing here performs I/O. Malformed shared splits are never repaired:
// missing shares count as zero and Anomalies reports them so the caller can
// log them.
package aggregate

import (
	"wisetogether/internal/core"
)

// PartnerFallback is used when the partner's name is unknown.
const PartnerFallback = "your partner"

// Partition separates personal from shared transactions, keeping input order.
func Partition(txs []core.Transaction) (personal, shared []core.Transaction) {
	personal = make([]core.Transaction, 0, len(txs))
	shared = make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsShared() {
			shared = append(shared, tx)
		} else {
			personal = append(personal, tx)
		}
	}
	return personal, shared
}

// Sum adds up the amounts of txs.
func Sum(txs []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// Totals returns the personal and shared totals.
func Totals(txs []core.Transaction) (personal, shared core.Money) {
	for _, tx := range txs {
		if tx.IsShared() {
			shared = shared.Add(tx.Amount)
		} else {
			personal = personal.Add(tx.Amount)
		}
	}
	return personal, shared
}

// CategoryBreakdown returns parallel label and total slices in enumeration
// order. Categories summing to zero and transactions outside the
// enumeration are left out.
func CategoryBreakdown(txs []core.Transaction) ([]core.Category, []core.Money) {
	sums := make(map[core.Category]int64, len(core.Categories))
	for _, tx := range txs {
		sums[tx.Category] += tx.Amount.Cents
	}

	labels := make([]core.Category, 0, len(core.Categories))
	totals := make([]core.Money, 0, len(core.Categories))
	for _, c := range core.Categories {
		if v := sums[c]; v != 0 {
			labels = append(labels, c)
			totals = append(totals, core.Money{Cents: v})
		}
	}
	return labels, totals
}
