package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"wisetogether/internal/aggregate"
	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/store"
)

// DashboardService assembles a member's dashboard. Collaborator failures
// degrade the view instead of failing it: no transaction list means an
// empty dashboard, no profile means the generic partner label.
type DashboardService struct {
	txs      store.TransactionStore
	accounts store.SharedAccountStore
	profiles store.ProfileStore
	logger   *log.Logger
	audit    *log.StructuredLogger
}

func NewDashboardService(txs store.TransactionStore, accounts store.SharedAccountStore, profiles store.ProfileStore, logger *log.Logger) *DashboardService {
	logger = logger.WithComponent(log.ComponentDashboard)
	return &DashboardService{
		txs:      txs,
		accounts: accounts,
		profiles: profiles,
		logger:   logger,
		audit:    log.NewStructuredLogger(logger),
	}
}

// Dashboard returns the view for viewerID. It never fails.
func (s *DashboardService) Dashboard(ctx context.Context, viewerID string) core.DashboardView {
	var account *core.SharedAccount
	acc, err := s.accounts.FindSharedAccountByMember(ctx, viewerID)
	switch {
	case err == nil:
		account = &acc
	case !errors.Is(err, store.ErrNotFound):
		s.logger.WarnContext(ctx, "Shared account lookup failed, showing personal data only",
			log.NewFields().WithMember(viewerID).WithError(err, log.ErrorTypeDatabase).ToSlice()...)
	}

	var (
		txs     []core.Transaction
		partner *core.UserProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var accountID string
		if account != nil {
			accountID = account.ID
		}
		list, err := s.txs.ListTransactions(gctx, viewerID, accountID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Transaction list unavailable, showing empty dashboard",
				log.NewFields().WithMember(viewerID).WithOperation(log.OpList).WithError(err, log.ErrorTypeDatabase).ToSlice()...)
			return nil
		}
		txs = list
		return nil
	})
	if account != nil {
		if partnerID, ok := account.PartnerOf(viewerID); ok {
			g.Go(func() error {
				p, err := s.profiles.GetProfile(gctx, partnerID)
				if err != nil {
					if !errors.Is(err, store.ErrNotFound) {
						s.logger.WarnContext(ctx, "Partner profile lookup failed",
							log.NewFields().WithMember(partnerID).WithError(err, log.ErrorTypeDatabase).ToSlice()...)
					}
					return nil
				}
				partner = &p
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, a := range aggregate.Anomalies(txs, account) {
		s.audit.LogAnomaly(ctx, a.TransactionID, a.Err)
	}
	return aggregate.Build(txs, viewerID, account, partner)
}
