// Package store declares the persistence ports used by the services.
package store

import (
	"context"
	"errors"

	"wisetogether/internal/core"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("transaction was modified by someone else")
	ErrAlreadyMember   = errors.New("member already belongs to a shared account")
)

// Ports for outbound adapters.
type (
	TransactionStore interface {
		// ListTransactions returns the owner's personal transactions together with
		// every transaction of sharedAccountID, newest date first. An empty
		// sharedAccountID lists personal transactions only.
		ListTransactions(ctx context.Context, ownerID, sharedAccountID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		// CreateTransaction assigns an id and version 1.
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// UpdateTransaction replaces the transaction if tx.Version matches the
		// stored version and returns it with the version incremented.
		UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	SharedAccountStore interface {
		FindSharedAccountByMember(ctx context.Context, memberID string) (core.SharedAccount, error)
		FindSharedAccountByCode(ctx context.Context, code string) (core.SharedAccount, error)
		// CreateSharedAccount and JoinSharedAccount fail with ErrAlreadyMember
		// when the member already belongs to another account.
		CreateSharedAccount(ctx context.Context, acc core.SharedAccount) (core.SharedAccount, error)
		// JoinSharedAccount sets member B on the account with the given code.
		JoinSharedAccount(ctx context.Context, code, memberID string) (core.SharedAccount, error)
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, memberID string) (core.UserProfile, error)
		UpsertProfile(ctx context.Context, p core.UserProfile) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		SharedAccountStore
		ProfileStore
		Close() error
	}
)
