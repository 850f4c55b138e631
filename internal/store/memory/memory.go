// Package memory is an in-process Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"wisetogether/internal/core"
	"wisetogether/internal/store"
)

type entry struct {
	seq int64
	tx  core.Transaction
}

type Store struct {
	mu       sync.Mutex
	seq      int64
	txs      map[string]entry
	accounts map[string]core.SharedAccount // by id
	profiles map[string]core.UserProfile
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		txs:      make(map[string]entry),
		accounts: make(map[string]core.SharedAccount),
		profiles: make(map[string]core.UserProfile),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context, ownerID, sharedAccountID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []entry
	for _, e := range s.txs {
		personal := !e.tx.IsShared() && e.tx.OwnerID == ownerID
		shared := sharedAccountID != "" && e.tx.SharedAccountID == sharedAccountID
		if personal || shared {
			found = append(found, e)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].tx.Date.Equal(found[j].tx.Date.Time) {
			return found[i].tx.Date.After(found[j].tx.Date.Time)
		}
		return found[i].seq > found[j].seq
	})

	out := make([]core.Transaction, len(found))
	for i, e := range found {
		out[i] = copyTx(e.tx)
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return copyTx(e.tx), nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx = copyTx(tx)
	tx.ID = uuid.NewString()
	tx.Version = 1
	s.seq++
	s.txs[tx.ID] = entry{seq: s.seq, tx: tx}
	return copyTx(tx), nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	if cur.tx.Version != tx.Version {
		return core.Transaction{}, store.ErrVersionConflict
	}
	tx = copyTx(tx)
	tx.ID = id
	tx.OwnerID = cur.tx.OwnerID
	tx.Version = cur.tx.Version + 1
	s.txs[id] = entry{seq: cur.seq, tx: tx}
	return copyTx(tx), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) FindSharedAccountByMember(_ context.Context, memberID string) (core.SharedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.IsMember(memberID) {
			return a, nil
		}
	}
	return core.SharedAccount{}, store.ErrNotFound
}

// memberOf reports whether memberID belongs to an account other than except.
func (s *Store) memberOf(memberID, except string) bool {
	for id, a := range s.accounts {
		if id != except && a.IsMember(memberID) {
			return true
		}
	}
	return false
}

func (s *Store) FindSharedAccountByCode(_ context.Context, code string) (core.SharedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byCode(code)
}

func (s *Store) byCode(code string) (core.SharedAccount, error) {
	code = strings.TrimSpace(code)
	for _, a := range s.accounts {
		if code != "" && a.InvitationCode == code {
			return a, nil
		}
	}
	return core.SharedAccount{}, store.ErrNotFound
}

func (s *Store) CreateSharedAccount(_ context.Context, acc core.SharedAccount) (core.SharedAccount, error) {
	if acc.MemberAID == "" {
		return core.SharedAccount{}, core.ErrEmptyOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberOf(acc.MemberAID, "") {
		return core.SharedAccount{}, store.ErrAlreadyMember
	}
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.InvitationCode == "" {
		acc.InvitationCode = uuid.NewString()
	}
	s.accounts[acc.ID] = acc
	return acc, nil
}

func (s *Store) JoinSharedAccount(_ context.Context, code, memberID string) (core.SharedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.byCode(code)
	if err != nil {
		return core.SharedAccount{}, err
	}
	if err := acc.Join(memberID); err != nil {
		return core.SharedAccount{}, err
	}
	if s.memberOf(memberID, acc.ID) {
		return core.SharedAccount{}, store.ErrAlreadyMember
	}
	s.accounts[acc.ID] = acc
	return acc, nil
}

func (s *Store) GetProfile(_ context.Context, memberID string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[memberID]
	if !ok {
		return core.UserProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.UserProfile) error {
	if p.MemberID == "" {
		return core.ErrEmptyOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.MemberID] = p
	return nil
}

// copyTx detaches the split pointer from the stored value.
func copyTx(tx core.Transaction) core.Transaction {
	if tx.Split != nil {
		sp := *tx.Split
		tx.Split = &sp
	}
	return tx
}
