package http

import (
	"wisetogether/internal/core"
	"wisetogether/internal/services"
	"wisetogether/internal/split"
)

// Amounts travel as decimal strings ("12.34") so clients never round.
// amount_cents is included for convenience on reads only.

type splitJSON struct {
	Type         string `json:"type"`
	MemberAShare string `json:"member_a_share"`
	MemberBShare string `json:"member_b_share"`
	PercentA     string `json:"percent_a,omitempty"`
	PercentB     string `json:"percent_b,omitempty"`
}

type transactionJSON struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	SharedAccountID string     `json:"shared_account_id,omitempty"`
	Date            string     `json:"date"`
	Amount          string     `json:"amount"`
	AmountCents     int64      `json:"amount_cents"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	Split           *splitJSON `json:"split,omitempty"`
	Version         int64      `json:"version"`
}

type reconciliationJSON struct {
	PaidLabel  string `json:"paid_label"`
	PaidAmount string `json:"paid_amount"`
	OwedLabel  string `json:"owed_label"`
	OwedAmount string `json:"owed_amount"`
	ViewerPaid bool   `json:"viewer_paid"`
}

type rowJSON struct {
	Transaction    transactionJSON     `json:"transaction"`
	Reconciliation *reconciliationJSON `json:"reconciliation,omitempty"`
}

type categoryJSON struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type dashboardJSON struct {
	PersonalTransactions []transactionJSON `json:"personal_transactions"`
	SharedTransactions   []transactionJSON `json:"shared_transactions"`
	PersonalTotal        string            `json:"personal_total"`
	SharedTotal          string            `json:"shared_total"`
	Categories           []categoryJSON    `json:"categories"`
	Rows                 []rowJSON         `json:"rows"`
	NetBalance           string            `json:"net_balance"`
	PaidByViewer         string            `json:"paid_by_viewer"`
	PaidByPartner        string            `json:"paid_by_partner"`
	PartnerName          string            `json:"partner_name,omitempty"`
}

type accountJSON struct {
	ID             string `json:"id"`
	MemberAID      string `json:"member_a_id"`
	MemberBID      string `json:"member_b_id,omitempty"`
	InvitationCode string `json:"invitation_code"`
	InvitationLink string `json:"invitation_link"`
}

type profileJSON struct {
	MemberID    string `json:"member_id"`
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type accountOverviewJSON struct {
	Account accountJSON  `json:"account"`
	Partner *profileJSON `json:"partner,omitempty"`
}

type splitStateJSON struct {
	Policy  string `json:"policy"`
	MemberA string `json:"member_a,omitempty"`
	MemberB string `json:"member_b,omitempty"`
}

type previewJSON struct {
	Total    string         `json:"total"`
	State    splitStateJSON `json:"state"`
	Resolved *splitJSON     `json:"resolved"`
	Rejected []string       `json:"rejected"`
}

// Requests.

type splitRequestJSON struct {
	Type    string `json:"type"`
	MemberA string `json:"member_a"`
	MemberB string `json:"member_b"`
}

type transactionRequest struct {
	Date        string            `json:"date"`
	Amount      string            `json:"amount"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Split       *splitRequestJSON `json:"split,omitempty"`
	Version     int64             `json:"version"`
}

type joinRequest struct {
	Code string `json:"code"`
}

type profileRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type previewEditJSON struct {
	Member string `json:"member"`
	Value  string `json:"value"`
}

type previewRequest struct {
	Amount string            `json:"amount"`
	Policy string            `json:"policy"`
	Edits  []previewEditJSON `json:"edits"`
}

// input converts the request; the split type is matched case-insensitively.
func (req transactionRequest) input() (services.TransactionInput, error) {
	in := services.TransactionInput{
		Form: core.TransactionForm{
			Date:        req.Date,
			Amount:      req.Amount,
			Category:    req.Category,
			Description: req.Description,
		},
	}
	if req.Split != nil {
		t, err := core.ParseSplitType(req.Split.Type)
		if err != nil {
			return services.TransactionInput{}, err
		}
		in.Split = &services.SplitRequest{
			Type:    t,
			MemberA: req.Split.MemberA,
			MemberB: req.Split.MemberB,
		}
	}
	return in, nil
}

func toSplitJSON(s *core.Split) *splitJSON {
	if s == nil {
		return nil
	}
	out := &splitJSON{
		Type:         string(s.Type),
		MemberAShare: s.MemberAShare.String(),
		MemberBShare: s.MemberBShare.String(),
	}
	if s.Type == core.SplitPercentage {
		out.PercentA = s.PercentA.String()
		out.PercentB = s.PercentB.String()
	}
	return out
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:              tx.ID,
		OwnerID:         tx.OwnerID,
		SharedAccountID: tx.SharedAccountID,
		Date:            tx.Date.String(),
		Amount:          tx.Amount.String(),
		AmountCents:     tx.Amount.Cents,
		Category:        string(tx.Category),
		Description:     tx.Description,
		Split:           toSplitJSON(tx.Split),
		Version:         tx.Version,
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	return out
}

func toDashboardJSON(v core.DashboardView) dashboardJSON {
	out := dashboardJSON{
		PersonalTransactions: toTransactionsJSON(v.PersonalTransactions),
		SharedTransactions:   toTransactionsJSON(v.SharedTransactions),
		PersonalTotal:        v.PersonalTotal.String(),
		SharedTotal:          v.SharedTotal.String(),
		Categories:           make([]categoryJSON, 0, len(v.CategoryLabels)),
		Rows:                 make([]rowJSON, 0, len(v.Rows)),
		NetBalance:           v.NetBalance.String(),
		PaidByViewer:         v.PaidByViewer.String(),
		PaidByPartner:        v.PaidByPartner.String(),
		PartnerName:          v.PartnerName,
	}
	for i, label := range v.CategoryLabels {
		var total core.Money
		if i < len(v.CategoryTotals) {
			total = v.CategoryTotals[i]
		}
		out.Categories = append(out.Categories, categoryJSON{Category: string(label), Total: total.String()})
	}
	for _, row := range v.Rows {
		r := rowJSON{Transaction: toTransactionJSON(row.Transaction)}
		if rec := row.Reconciliation; rec != nil {
			r.Reconciliation = &reconciliationJSON{
				PaidLabel:  rec.PaidLabel,
				PaidAmount: rec.PaidAmount.String(),
				OwedLabel:  rec.OwedLabel,
				OwedAmount: rec.OwedAmount.String(),
				ViewerPaid: rec.ViewerPaid,
			}
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func toAccountJSON(acc core.SharedAccount, link string) accountJSON {
	return accountJSON{
		ID:             acc.ID,
		MemberAID:      acc.MemberAID,
		MemberBID:      acc.MemberBID,
		InvitationCode: acc.InvitationCode,
		InvitationLink: link,
	}
}

func toProfileJSON(p core.UserProfile) profileJSON {
	return profileJSON{
		MemberID:    p.MemberID,
		FullName:    p.FullName,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}

func toPreviewJSON(p services.SplitPreview) previewJSON {
	out := previewJSON{
		Total:    p.Total.String(),
		Resolved: toSplitJSON(p.Resolved),
		Rejected: make([]string, 0, len(p.Rejected)),
	}
	switch st := p.State.(type) {
	case split.Percentage:
		out.State = splitStateJSON{Policy: string(st.Policy()), MemberA: st.A.String(), MemberB: st.B.String()}
	case split.Custom:
		out.State = splitStateJSON{Policy: string(st.Policy()), MemberA: st.A.String(), MemberB: st.B.String()}
	case split.State:
		out.State = splitStateJSON{Policy: string(st.Policy())}
	}
	for _, err := range p.Rejected {
		out.Rejected = append(out.Rejected, err.Error())
	}
	return out
}
