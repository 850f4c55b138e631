package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"2025-03-09", "2025-03-09", nil},
		{"2025-03-09T10:15:00Z", "2025-03-09", nil},
		{"2025-03-09T10:15:00.123Z", "2025-03-09", nil},
		{"2025-03-09T23:30:00-05:00", "2025-03-10", nil}, // moved to UTC first
		{"2025-03-09 08:00:00", "2025-03-09", nil},
		{"", "", ErrEmptyDate},
		{"2025-02-30", "", ErrInvalidDate},
		{"09/03/2025", "", ErrInvalidDate},
	}
	for _, tc := range cases {
		d, err := NormalizeDate(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if d.String() != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.in, d, tc.want)
		}
	}
}

func TestNewPersonalTransaction(t *testing.T) {
	tx, err := NewPersonalTransaction("u1", NewDate(2025, 1, 1), Money{Cents: 100}, Groceries, " milk ")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.IsShared() || tx.Split != nil || tx.Description != "milk" || tx.Version != 1 {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	bads := []struct {
		owner string
		date  Date
		amt   Money
		cat   Category
	}{
		{"", NewDate(2025, 1, 1), Money{Cents: 1}, Rent},
		{"u1", Date{}, Money{Cents: 1}, Rent},
		{"u1", NewDate(2025, 1, 1), Money{Cents: -1}, Rent},
		{"u1", NewDate(2025, 1, 1), Money{Cents: 1}, CategoryUnselected},
		{"u1", NewDate(2025, 1, 1), Money{Cents: 1}, "Pets"},
	}
	for i, b := range bads {
		if _, err := NewPersonalTransaction(b.owner, b.date, b.amt, b.cat, ""); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNewSharedTransaction(t *testing.T) {
	date := NewDate(2025, 1, 1)
	good := Split{Type: SplitCustom, MemberAShare: Money{Cents: 4000}, MemberBShare: Money{Cents: 6000}}
	tx, err := NewSharedTransaction("u1", "acc", date, Money{Cents: 10000}, Rent, "", good)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !tx.IsShared() || tx.Split == nil {
		t.Fatalf("expected shared transaction with split")
	}

	_, err = NewSharedTransaction("u1", "", date, Money{Cents: 10000}, Rent, "", good)
	if !errors.Is(err, ErrUnexpectedSplit) {
		t.Fatalf("expected ErrUnexpectedSplit, got %v", err)
	}

	bad := Split{Type: SplitCustom, MemberAShare: Money{Cents: 4000}, MemberBShare: Money{Cents: 5000}}
	_, err = NewSharedTransaction("u1", "acc", date, Money{Cents: 10000}, Rent, "", bad)
	if !errors.Is(err, ErrSplitMismatch) {
		t.Fatalf("expected ErrSplitMismatch, got %v", err)
	}

	uneven := Split{Type: SplitEqual, MemberAShare: Money{Cents: 9000}, MemberBShare: Money{Cents: 1000}}
	_, err = NewSharedTransaction("u1", "acc", date, Money{Cents: 10000}, Rent, "", uneven)
	if !errors.Is(err, ErrUnevenEqualSplit) {
		t.Fatalf("expected ErrUnevenEqualSplit, got %v", err)
	}

	odd := Split{Type: SplitEqual, MemberAShare: Money{Cents: 51}, MemberBShare: Money{Cents: 50}}
	if _, err = NewSharedTransaction("u1", "acc", date, Money{Cents: 101}, Rent, "", odd); err != nil {
		t.Fatalf("odd cent to member A should be valid: %v", err)
	}

	pct := Split{Type: SplitPercentage, MemberAShare: Money{Cents: 7000}, MemberBShare: Money{Cents: 3000}, PercentA: 7000, PercentB: 2000}
	_, err = NewSharedTransaction("u1", "acc", date, Money{Cents: 10000}, Rent, "", pct)
	if !errors.Is(err, ErrPercentMismatch) {
		t.Fatalf("expected ErrPercentMismatch, got %v", err)
	}
}

func TestTransactionValidateSplitPresence(t *testing.T) {
	tx := Transaction{OwnerID: "u1", SharedAccountID: "acc", Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Category: Rent}
	if err := tx.Validate(); !errors.Is(err, ErrMissingSplit) {
		t.Fatalf("expected ErrMissingSplit, got %v", err)
	}
	tx.SharedAccountID = ""
	tx.Split = &Split{Type: SplitEqual, MemberAShare: Money{Cents: 1}}
	if err := tx.Validate(); !errors.Is(err, ErrUnexpectedSplit) {
		t.Fatalf("expected ErrUnexpectedSplit, got %v", err)
	}
}

func TestSharedAccountJoin(t *testing.T) {
	acc := SharedAccount{ID: "acc", MemberAID: "alice", InvitationCode: "code"}
	if acc.HasPartner() {
		t.Fatal("new account should have no partner")
	}
	if _, ok := acc.PartnerOf("alice"); ok {
		t.Fatal("no partner expected before join")
	}
	if err := acc.Join("alice"); !errors.Is(err, ErrSelfJoin) {
		t.Fatalf("expected ErrSelfJoin, got %v", err)
	}
	if err := acc.Join("bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := acc.Join("carol"); !errors.Is(err, ErrAccountFull) {
		t.Fatalf("expected ErrAccountFull, got %v", err)
	}
	if acc.MemberBID != "bob" {
		t.Fatalf("member B changed to %q", acc.MemberBID)
	}
	if p, ok := acc.PartnerOf("bob"); !ok || p != "alice" {
		t.Fatalf("PartnerOf(bob) = %q, %v", p, ok)
	}
	if m, ok := acc.Slot("bob"); !ok || m != MemberB {
		t.Fatalf("Slot(bob) = %v, %v", m, ok)
	}
	if _, ok := acc.Slot("mallory"); ok {
		t.Fatal("non-member should have no slot")
	}
}

func TestNewUserProfile(t *testing.T) {
	p := NewUserProfile("u1", "Ada Lovelace King", "https://x/a.png")
	if p.DisplayName != "Ada" || p.FullName != "Ada Lovelace King" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p := NewUserProfile("u2", "Cher", ""); p.DisplayName != "Cher" {
		t.Fatalf("single-word name: got %q", p.DisplayName)
	}
}

func TestParseSplitType(t *testing.T) {
	if st, err := ParseSplitType(" Percentage "); err != nil || st != SplitPercentage {
		t.Fatalf("got %q, %v", st, err)
	}
	if _, err := ParseSplitType("thirds"); !errors.Is(err, ErrUnknownSplitType) {
		t.Fatalf("expected ErrUnknownSplitType, got %v", err)
	}
}
