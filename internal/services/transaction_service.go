package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wisetogether/internal/amqp"
	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/split"
	"wisetogether/internal/store"
)

var (
	ErrNoSharedAccount = errors.New("member has no shared account")
	ErrNoPartner       = errors.New("shared account has no partner yet")
	ErrNotOwner        = errors.New("only the owner can change whether a transaction is shared")
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// SplitRequest carries the raw split values a member entered. MemberA and
// MemberB refer to the account's slots; only percentage and custom splits
// read them.
type SplitRequest struct {
	Type    core.SplitType
	MemberA string
	MemberB string
}

// TransactionInput is a submitted transaction form. A nil Split makes the
// transaction personal.
type TransactionInput struct {
	Form  core.TransactionForm
	Split *SplitRequest
}

// TransactionService orchestrates transaction writes across the store and
// the event bus.
type TransactionService struct {
	txs       store.TransactionStore
	accounts  store.SharedAccountStore
	publisher EventPublisher
	logger    *log.Logger
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(txs store.TransactionStore, accounts store.SharedAccountStore, publisher EventPublisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		txs:       txs,
		accounts:  accounts,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentTransaction),
	}
}

// List returns the member's personal transactions and those of their
// shared account, newest first.
func (s *TransactionService) List(ctx context.Context, memberID string) ([]core.Transaction, error) {
	acc, err := s.accountOf(ctx, memberID)
	if err != nil {
		return nil, err
	}
	var accountID string
	if acc != nil {
		accountID = acc.ID
	}
	txs, err := s.txs.ListTransactions(ctx, memberID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Get returns a transaction visible to memberID.
func (s *TransactionService) Get(ctx context.Context, memberID, id string) (core.Transaction, error) {
	tx, _, err := s.load(ctx, memberID, id)
	return tx, err
}

// Create validates the form, resolves the split and stores the transaction.
func (s *TransactionService) Create(ctx context.Context, memberID string, in TransactionInput) (core.Transaction, error) {
	var acc *core.SharedAccount
	if in.Split != nil {
		var err error
		if acc, err = s.accountOf(ctx, memberID); err != nil {
			return core.Transaction{}, err
		}
	}

	tx, err := build(memberID, acc, in, nil)
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := s.txs.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created", s.fields(memberID, created).ToSlice()...)
	s.publish(ctx, amqp.EventCreated, created)
	return created, nil
}

// Update replaces a transaction. version must match the stored version.
func (s *TransactionService) Update(ctx context.Context, memberID, id string, version int64, in TransactionInput) (core.Transaction, error) {
	existing, acc, err := s.load(ctx, memberID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if existing.IsShared() != (in.Split != nil) && existing.OwnerID != memberID {
		return core.Transaction{}, ErrNotOwner
	}

	tx, err := build(existing.OwnerID, acc, in, &existing)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Version = version

	updated, err := s.txs.UpdateTransaction(ctx, id, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated", s.fields(memberID, updated).ToSlice()...)
	s.publish(ctx, amqp.EventUpdated, updated)
	return updated, nil
}

// Delete removes a transaction visible to memberID.
func (s *TransactionService) Delete(ctx context.Context, memberID, id string) error {
	existing, _, err := s.load(ctx, memberID, id)
	if err != nil {
		return err
	}
	if err := s.txs.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", s.fields(memberID, existing).ToSlice()...)
	s.publish(ctx, amqp.EventDeleted, existing)
	return nil
}

// load fetches id and checks that memberID may see it. Transactions of
// other members are reported as not found.
func (s *TransactionService) load(ctx context.Context, memberID, id string) (core.Transaction, *core.SharedAccount, error) {
	tx, err := s.txs.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("get transaction: %w", err)
	}
	acc, err := s.accountOf(ctx, memberID)
	if err != nil {
		return core.Transaction{}, nil, err
	}

	switch {
	case tx.IsShared() && acc != nil && acc.ID == tx.SharedAccountID:
	case !tx.IsShared() && tx.OwnerID == memberID:
	default:
		return core.Transaction{}, nil, fmt.Errorf("get transaction: %w", store.ErrNotFound)
	}
	return tx, acc, nil
}

// accountOf returns the member's shared account or nil when there is none.
func (s *TransactionService) accountOf(ctx context.Context, memberID string) (*core.SharedAccount, error) {
	acc, err := s.accounts.FindSharedAccountByMember(ctx, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shared account: %w", err)
	}
	return &acc, nil
}

func (s *TransactionService) publish(ctx context.Context, t amqp.EventType, tx core.Transaction) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping event", "type", string(t))
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(t, tx)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.NewFields().
				WithOperation(log.OpPublish).
				WithError(err, log.ErrorTypeNetwork).
				WithTransaction(tx.ID, tx.SharedAccountID, tx.Amount.Cents, string(tx.Category), splitType(tx)).
				ToSlice()...)
	}
}

func (s *TransactionService) fields(memberID string, tx core.Transaction) log.LogFields {
	return log.NewFields().
		WithMember(memberID).
		WithTransaction(tx.ID, tx.SharedAccountID, tx.Amount.Cents, string(tx.Category), splitType(tx))
}

func splitType(tx core.Transaction) string {
	if tx.Split == nil {
		return ""
	}
	return string(tx.Split.Type)
}

// build turns a submitted form into a validated transaction owned by ownerID.
// prev is the stored version when updating.
func build(ownerID string, acc *core.SharedAccount, in TransactionInput, prev *core.Transaction) (core.Transaction, error) {
	form, ferrs := in.Form.Parse()
	if ferrs != nil {
		return core.Transaction{}, ferrs
	}

	if in.Split == nil {
		return core.NewPersonalTransaction(ownerID, form.Date, form.Amount, form.Category, form.Description)
	}
	if acc == nil {
		return core.Transaction{}, ErrNoSharedAccount
	}
	if !acc.HasPartner() {
		return core.Transaction{}, ErrNoPartner
	}
	var (
		sp  core.Split
		err error
	)
	if keepsSplit(prev, *in.Split) {
		sp, err = rebalance(*prev, form.Amount)
	} else {
		sp, err = ResolveSplit(form.Amount, *in.Split)
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewSharedTransaction(ownerID, acc.ID, form.Date, form.Amount, form.Category, form.Description, sp)
}

// ResolveSplit runs the split engine over req: the policy is selected, then
// member A's value and member B's value are applied in that order. Each edit
// sets the other share to the complement, so the later one wins.
func ResolveSplit(total core.Money, req SplitRequest) (core.Split, error) {
	e := split.NewEditor(total)
	if err := e.ChangePolicy(req.Type); err != nil {
		return core.Split{}, err
	}
	if req.Type != core.SplitEqual {
		if err := applyEdit(e, core.MemberA, req.MemberA); err != nil {
			return core.Split{}, err
		}
		if err := applyEdit(e, core.MemberB, req.MemberB); err != nil {
			return core.Split{}, err
		}
	}
	sp, err := e.Resolve()
	if err != nil {
		return core.Split{}, fmt.Errorf("resolve split: %w", err)
	}
	return sp, nil
}

// keepsSplit reports whether req names prev's non-equal policy without new
// values, in which case the stored split carries over.
func keepsSplit(prev *core.Transaction, req SplitRequest) bool {
	return prev != nil && prev.Split != nil &&
		req.Type != core.SplitEqual && prev.Split.Type == req.Type &&
		strings.TrimSpace(req.MemberA) == "" && strings.TrimSpace(req.MemberB) == ""
}

// rebalance resumes prev's split and moves it to total: percentages are kept,
// a custom split keeps member A's share when it still fits.
func rebalance(prev core.Transaction, total core.Money) (core.Split, error) {
	e, err := split.EditorFor(prev.Amount, *prev.Split)
	if err != nil {
		return core.Split{}, err
	}
	e.SetAmount(total)
	sp, err := e.Resolve()
	if err != nil {
		return core.Split{}, fmt.Errorf("resolve split: %w", err)
	}
	return sp, nil
}

func applyEdit(e *split.Editor, m core.Member, input string) error {
	if input == "" {
		return nil
	}
	if err := e.Edit(m, input); err != nil {
		return fmt.Errorf("member %s share: %w", m, err)
	}
	return nil
}
