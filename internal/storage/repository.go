package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wisetogether/internal/core"
	"wisetogether/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = `id, owner_id, shared_account_id, date, amount_cents, category, description,
	split_type, member_a_share_cents, member_b_share_cents, percent_a, percent_b, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx          core.Transaction
		sharedID    sql.NullString
		date        string
		splitType   sql.NullString
		aShare      sql.NullInt64
		bShare      sql.NullInt64
		pctA, pctB  sql.NullInt64
		amount      int64
		category    string
		description string
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &sharedID, &date, &amount, &category, &description,
		&splitType, &aShare, &bShare, &pctA, &pctB, &tx.Version)
	if err != nil {
		return core.Transaction{}, err
	}

	d, err := core.NormalizeDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	tx.Date = d
	tx.Amount = core.Money{Cents: amount}
	tx.Category = core.Category(category)
	tx.Description = description
	tx.SharedAccountID = sharedID.String
	if splitType.Valid {
		tx.Split = &core.Split{
			Type:         core.SplitType(splitType.String),
			MemberAShare: core.Money{Cents: aShare.Int64},
			MemberBShare: core.Money{Cents: bShare.Int64},
			PercentA:     core.Percent(pctA.Int64),
			PercentB:     core.Percent(pctB.Int64),
		}
	}
	return tx, nil
}

// splitArgs flattens an optional split into nullable columns.
func splitArgs(s *core.Split) []any {
	if s == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	var pctA, pctB any
	if s.Type == core.SplitPercentage {
		pctA, pctB = int64(s.PercentA), int64(s.PercentB)
	}
	return []any{string(s.Type), s.MemberAShare.Cents, s.MemberBShare.Cents, pctA, pctB}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ListTransactions implements store.TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID, sharedAccountID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE (shared_account_id IS NULL AND owner_id = ?)
		   OR (? <> '' AND shared_account_id = ?)
		ORDER BY date DESC, seq DESC`, ownerID, sharedAccountID, sharedAccountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction implements store.TransactionStore
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// CreateTransaction implements store.TransactionStore
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	tx.Version = 1

	args := []any{tx.ID, tx.OwnerID, nullable(tx.SharedAccountID), tx.Date.String(), tx.Amount.Cents,
		string(tx.Category), tx.Description}
	args = append(args, splitArgs(tx.Split)...)
	args = append(args, tx.Version)

	_, err := r.db.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"shared", tx.IsShared(),
		"amount_cents", tx.Amount.Cents)

	return tx, nil
}

// UpdateTransaction implements store.TransactionStore
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	args := []any{nullable(tx.SharedAccountID), tx.Date.String(), tx.Amount.Cents, string(tx.Category), tx.Description}
	args = append(args, splitArgs(tx.Split)...)
	args = append(args, id, tx.Version)

	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
			shared_account_id = ?, date = ?, amount_cents = ?, category = ?, description = ?,
			split_type = ?, member_a_share_cents = ?, member_b_share_cents = ?, percent_a = ?, percent_b = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		if _, err := r.GetTransaction(ctx, id); err != nil {
			return core.Transaction{}, err
		}
		return core.Transaction{}, store.ErrVersionConflict
	}

	return r.GetTransaction(ctx, id)
}

// DeleteTransaction implements store.TransactionStore
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

const accountColumns = `id, member_a_id, member_b_id, invitation_code`

func scanAccount(row rowScanner) (core.SharedAccount, error) {
	var (
		acc     core.SharedAccount
		memberB sql.NullString
	)
	if err := row.Scan(&acc.ID, &acc.MemberAID, &memberB, &acc.InvitationCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SharedAccount{}, store.ErrNotFound
		}
		return core.SharedAccount{}, err
	}
	acc.MemberBID = memberB.String
	return acc, nil
}

// FindSharedAccountByMember implements store.SharedAccountStore
func (r *SQLiteRepository) FindSharedAccountByMember(ctx context.Context, memberID string) (core.SharedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM shared_accounts
		WHERE member_a_id = ? OR member_b_id = ?
		ORDER BY created_at LIMIT 1`, memberID, memberID)
	acc, err := scanAccount(row)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return core.SharedAccount{}, fmt.Errorf("find shared account by member: %w", err)
	}
	return acc, err
}

// FindSharedAccountByCode implements store.SharedAccountStore
func (r *SQLiteRepository) FindSharedAccountByCode(ctx context.Context, code string) (core.SharedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM shared_accounts WHERE invitation_code = ?`,
		strings.TrimSpace(code))
	acc, err := scanAccount(row)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return core.SharedAccount{}, fmt.Errorf("find shared account by code: %w", err)
	}
	return acc, err
}

// CreateSharedAccount implements store.SharedAccountStore
func (r *SQLiteRepository) CreateSharedAccount(ctx context.Context, acc core.SharedAccount) (core.SharedAccount, error) {
	if acc.MemberAID == "" {
		return core.SharedAccount{}, core.ErrEmptyOwner
	}
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.InvitationCode == "" {
		acc.InvitationCode = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO shared_accounts (`+accountColumns+`) VALUES (?, ?, ?, ?)`,
		acc.ID, acc.MemberAID, nullable(acc.MemberBID), acc.InvitationCode)
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("create shared account: %w", err)
	}
	if err := claimMembership(ctx, tx, acc.MemberAID, acc.ID); err != nil {
		return core.SharedAccount{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.SharedAccount{}, fmt.Errorf("create shared account: %w", err)
	}
	slog.InfoContext(ctx, "Shared account created", "id", acc.ID, "member_a_id", acc.MemberAID)
	return acc, nil
}

// JoinSharedAccount implements store.SharedAccountStore. The update only
// matches an account without a partner, so concurrent joins cannot both win.
func (r *SQLiteRepository) JoinSharedAccount(ctx context.Context, code, memberID string) (core.SharedAccount, error) {
	code = strings.TrimSpace(code)
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return core.SharedAccount{}, core.ErrEmptyOwner
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE shared_accounts SET member_b_id = ?
		WHERE invitation_code = ? AND member_b_id IS NULL AND member_a_id <> ?`, memberID, code, memberID)
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("join shared account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("join shared account: %w", err)
	}

	acc, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM shared_accounts WHERE invitation_code = ?`, code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.SharedAccount{}, err
		}
		return core.SharedAccount{}, fmt.Errorf("find shared account by code: %w", err)
	}
	if n == 0 {
		// Replay the rule on the current row to report why nothing changed.
		if err := acc.Join(memberID); err != nil {
			return core.SharedAccount{}, err
		}
		return core.SharedAccount{}, core.ErrAccountFull
	}
	if err := claimMembership(ctx, tx, memberID, acc.ID); err != nil {
		return core.SharedAccount{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.SharedAccount{}, fmt.Errorf("join shared account: %w", err)
	}
	return acc, nil
}

// claimMembership records memberID as belonging to accountID. Each member
// holds at most one row, so a second claim fails with store.ErrAlreadyMember.
func claimMembership(ctx context.Context, tx *sql.Tx, memberID, accountID string) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO shared_account_members (member_id, account_id)
		VALUES (?, ?) ON CONFLICT (member_id) DO NOTHING`, memberID, accountID)
	if err != nil {
		return fmt.Errorf("claim membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim membership: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyMember
	}
	return nil
}

// GetProfile implements store.ProfileStore
func (r *SQLiteRepository) GetProfile(ctx context.Context, memberID string) (core.UserProfile, error) {
	var p core.UserProfile
	err := r.db.QueryRowContext(ctx, `SELECT member_id, full_name, display_name, avatar_url
		FROM user_profiles WHERE member_id = ?`, memberID).
		Scan(&p.MemberID, &p.FullName, &p.DisplayName, &p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, store.ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile implements store.ProfileStore
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.UserProfile) error {
	if p.MemberID == "" {
		return core.ErrEmptyOwner
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_profiles (member_id, full_name, display_name, avatar_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			full_name = excluded.full_name,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			updated_at = CURRENT_TIMESTAMP`,
		p.MemberID, p.FullName, p.DisplayName, p.AvatarURL)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
