package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Groceries      Category = "Groceries"
	Rent           Category = "Rent"
	Utilities      Category = "Utilities"
	Insurance      Category = "Insurance"
	Transportation Category = "Transportation"
	DiningOut      Category = "Dining Out"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	PersonalCare   Category = "Personal Care"
	Miscellaneous  Category = "Miscellaneous"

	// CategoryUnselected is the placeholder a form carries until a category is picked.
	CategoryUnselected Category = "-- Select Category --"
)

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitCustom     SplitType = "custom"
)

const (
	MemberA Member = iota
	MemberB
)

// Categories is the fixed category enumeration. Order is significant for breakdowns.
var Categories = []Category{
	Groceries,
	Rent,
	Utilities,
	Insurance,
	Transportation,
	DiningOut,
	Entertainment,
	Healthcare,
	PersonalCare,
	Miscellaneous,
}

type (
	Category  string
	SplitType string

	// Member identifies one of the two slots of a shared account.
	Member int

	// Split is the persisted division of a shared transaction. Shares are always
	// absolute amounts; PercentA/PercentB are only kept for percentage splits so
	// the split can be edited again.
	Split struct {
		Type         SplitType
		MemberAShare Money
		MemberBShare Money
		PercentA     Percent
		PercentB     Percent
	}

	Transaction struct {
		ID              string // empty until persisted
		OwnerID         string
		SharedAccountID string // empty for personal transactions
		Date            Date
		Amount          Money
		Category        Category
		Description     string
		Split           *Split // non-nil iff SharedAccountID is set
		Version         int64
	}

	// SharedAccount pairs exactly two members. MemberA is the creator.
	SharedAccount struct {
		ID             string
		MemberAID      string
		MemberBID      string
		InvitationCode string
	}

	UserProfile struct {
		MemberID    string
		FullName    string
		DisplayName string
		AvatarURL   string
	}
)

var (
	ErrEmptyOwner         = errors.New("empty owner")
	ErrNegativeAmount     = errors.New("negative amount")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrMissingSplit       = errors.New("shared transaction requires a split")
	ErrUnexpectedSplit    = errors.New("personal transaction cannot carry a split")
	ErrUnknownSplitType   = errors.New("unknown split type")
	ErrSplitMismatch      = errors.New("split shares do not add up to the amount")
	ErrPercentMismatch    = errors.New("split percentages do not add up to 100")
	ErrUnevenEqualSplit   = errors.New("equal split shares are not halves of the amount")
	ErrAccountFull        = errors.New("shared account already has two members")
	ErrSelfJoin           = errors.New("member cannot join their own shared account")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// IsKnown reports whether c belongs to the fixed enumeration.
func (c Category) IsKnown() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

func (t SplitType) IsValid() bool {
	switch t {
	case SplitEqual, SplitPercentage, SplitCustom:
		return true
	}
	return false
}

// ParseSplitType accepts the lowercase policy names.
func ParseSplitType(s string) (SplitType, error) {
	t := SplitType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSplitType, s)
	}
	return t, nil
}

func (m Member) String() string {
	if m == MemberA {
		return "a"
	}
	return "b"
}

// Other returns the opposite slot.
func (m Member) Other() Member {
	if m == MemberA {
		return MemberB
	}
	return MemberA
}

// ShareOf returns the absolute share of the given member.
func (s Split) ShareOf(m Member) Money {
	if m == MemberA {
		return s.MemberAShare
	}
	return s.MemberBShare
}

// Validate checks the split against the transaction amount.
func (s Split) Validate(amount Money) error {
	if !s.Type.IsValid() {
		return ErrUnknownSplitType
	}
	if s.MemberAShare.Cents < 0 || s.MemberBShare.Cents < 0 {
		return ErrNegativeAmount
	}
	if s.MemberAShare.Add(s.MemberBShare) != amount {
		return ErrSplitMismatch
	}
	if s.Type == SplitEqual && s.MemberBShare.Cents != amount.Cents/2 {
		return ErrUnevenEqualSplit
	}
	if s.Type == SplitPercentage && s.PercentA+s.PercentB != FullPercent {
		return ErrPercentMismatch
	}
	return nil
}

// IsShared reports whether the transaction belongs to a shared account.
func (t Transaction) IsShared() bool {
	return t.SharedAccountID != ""
}

// NewPersonalTransaction builds a transaction attributed entirely to its owner.
func NewPersonalTransaction(ownerID string, date Date, amount Money, category Category, description string) (Transaction, error) {
	t := Transaction{
		OwnerID:     strings.TrimSpace(ownerID),
		Date:        date,
		Amount:      amount,
		Category:    category,
		Description: strings.TrimSpace(description),
		Version:     1,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// NewSharedTransaction builds a shared transaction; the split must already be
// consistent with amount.
func NewSharedTransaction(ownerID, sharedAccountID string, date Date, amount Money, category Category, description string, split Split) (Transaction, error) {
	t := Transaction{
		OwnerID:         strings.TrimSpace(ownerID),
		SharedAccountID: strings.TrimSpace(sharedAccountID),
		Date:            date,
		Amount:          amount,
		Category:        category,
		Description:     strings.TrimSpace(description),
		Split:           &split,
		Version:         1,
	}
	if t.SharedAccountID == "" {
		return Transaction{}, ErrUnexpectedSplit
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (t Transaction) Validate() error {
	if t.OwnerID == "" {
		return ErrEmptyOwner
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if !t.Category.IsKnown() {
		return ErrUnknownCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	switch {
	case t.IsShared() && t.Split == nil:
		return ErrMissingSplit
	case !t.IsShared() && t.Split != nil:
		return ErrUnexpectedSplit
	case t.Split != nil:
		if err := t.Split.Validate(t.Amount); err != nil {
			return err
		}
	}
	return nil
}

// HasPartner reports whether member B has joined.
func (a SharedAccount) HasPartner() bool {
	return a.MemberBID != ""
}

func (a SharedAccount) IsMember(memberID string) bool {
	return memberID != "" && (memberID == a.MemberAID || memberID == a.MemberBID)
}

// Slot returns which side of the account memberID occupies.
func (a SharedAccount) Slot(memberID string) (Member, bool) {
	switch {
	case memberID == "":
		return MemberA, false
	case memberID == a.MemberAID:
		return MemberA, true
	case memberID == a.MemberBID:
		return MemberB, true
	}
	return MemberA, false
}

// PartnerOf returns the other member's id, if there is one.
func (a SharedAccount) PartnerOf(memberID string) (string, bool) {
	switch memberID {
	case a.MemberAID:
		return a.MemberBID, a.MemberBID != ""
	case a.MemberBID:
		return a.MemberAID, a.MemberBID != ""
	}
	return "", false
}

// Join sets member B. Once set it never changes.
func (a *SharedAccount) Join(memberID string) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrEmptyOwner
	}
	if memberID == a.MemberAID {
		return ErrSelfJoin
	}
	if a.HasPartner() {
		return ErrAccountFull
	}
	a.MemberBID = memberID
	return nil
}

// NewUserProfile derives the display name from the first word of fullName.
func NewUserProfile(memberID, fullName, avatarURL string) UserProfile {
	fullName = strings.TrimSpace(fullName)
	display := fullName
	if i := strings.Index(fullName, " "); i >= 0 {
		display = fullName[:i]
	}
	return UserProfile{
		MemberID:    memberID,
		FullName:    fullName,
		DisplayName: display,
		AvatarURL:   strings.TrimSpace(avatarURL),
	}
}
