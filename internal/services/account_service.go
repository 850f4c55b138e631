package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/store"
)

// ErrAlreadyMember is returned when a member who already belongs to a
// shared account tries to create or join another one.
var ErrAlreadyMember = store.ErrAlreadyMember

// AccountOverview is what a member sees about their shared account.
type AccountOverview struct {
	Account        core.SharedAccount
	InvitationLink string
	Partner        *core.UserProfile // nil until the partner joined and set a profile
}

// SharedAccountService manages shared accounts and member profiles.
type SharedAccountService struct {
	accounts store.SharedAccountStore
	profiles store.ProfileStore
	baseURL  string
	logger   *log.Logger
}

func NewSharedAccountService(accounts store.SharedAccountStore, profiles store.ProfileStore, baseURL string, logger *log.Logger) *SharedAccountService {
	return &SharedAccountService{
		accounts: accounts,
		profiles: profiles,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:   logger.WithComponent(log.ComponentAccount),
	}
}

// Create opens a shared account with memberID as member A. A member belongs
// to at most one account.
func (s *SharedAccountService) Create(ctx context.Context, memberID string) (core.SharedAccount, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return core.SharedAccount{}, core.ErrEmptyOwner
	}
	if err := s.ensureUnpaired(ctx, memberID, ""); err != nil {
		return core.SharedAccount{}, err
	}

	acc, err := s.accounts.CreateSharedAccount(ctx, core.SharedAccount{
		ID:             uuid.NewString(),
		MemberAID:      memberID,
		InvitationCode: uuid.NewString(),
	})
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("create shared account: %w", err)
	}

	s.logger.InfoContext(ctx, "Shared account created",
		log.FieldMemberID, memberID,
		log.FieldSharedAccountID, acc.ID)
	return acc, nil
}

// Join makes memberID member B of the account behind code.
func (s *SharedAccountService) Join(ctx context.Context, code, memberID string) (core.SharedAccount, error) {
	code = strings.TrimSpace(code)
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return core.SharedAccount{}, core.ErrEmptyOwner
	}
	if code == "" {
		return core.SharedAccount{}, fmt.Errorf("join shared account: %w", store.ErrNotFound)
	}
	if err := s.ensureUnpaired(ctx, memberID, code); err != nil {
		return core.SharedAccount{}, err
	}

	acc, err := s.accounts.JoinSharedAccount(ctx, code, memberID)
	if err != nil {
		return core.SharedAccount{}, fmt.Errorf("join shared account: %w", err)
	}

	s.logger.InfoContext(ctx, "Partner joined shared account",
		log.FieldMemberID, memberID,
		log.FieldSharedAccountID, acc.ID,
		log.FieldOperation, log.OpJoin)
	return acc, nil
}

// ensureUnpaired fails early if memberID already belongs to an account
// other than the one behind code. The account's own creator is let through
// so the store can report the self-join. The stores enforce the same rule
// atomically for concurrent requests.
func (s *SharedAccountService) ensureUnpaired(ctx context.Context, memberID, code string) error {
	acc, err := s.accounts.FindSharedAccountByMember(ctx, memberID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find shared account: %w", err)
	case code != "" && acc.InvitationCode == code:
		return nil
	}
	return ErrAlreadyMember
}

// InvitationLink is the URL a member sends to their partner.
func (s *SharedAccountService) InvitationLink(acc core.SharedAccount) string {
	return s.baseURL + "/invite?code=" + url.QueryEscape(acc.InvitationCode)
}

// Mine returns the member's account with its invitation link and, when
// known, the partner's profile.
func (s *SharedAccountService) Mine(ctx context.Context, memberID string) (AccountOverview, error) {
	acc, err := s.accounts.FindSharedAccountByMember(ctx, memberID)
	if err != nil {
		return AccountOverview{}, fmt.Errorf("find shared account: %w", err)
	}

	out := AccountOverview{Account: acc, InvitationLink: s.InvitationLink(acc)}
	if partnerID, ok := acc.PartnerOf(memberID); ok {
		p, err := s.profiles.GetProfile(ctx, partnerID)
		switch {
		case err == nil:
			out.Partner = &p
		case !errors.Is(err, store.ErrNotFound):
			s.logger.WarnContext(ctx, "Partner profile lookup failed",
				log.NewFields().WithMember(partnerID).WithError(err, log.ErrorTypeDatabase).ToSlice()...)
		}
	}
	return out, nil
}

// UpsertProfile stores the member's name and avatar.
func (s *SharedAccountService) UpsertProfile(ctx context.Context, memberID, fullName, avatarURL string) (core.UserProfile, error) {
	if strings.TrimSpace(memberID) == "" {
		return core.UserProfile{}, core.ErrEmptyOwner
	}
	if strings.TrimSpace(fullName) == "" {
		return core.UserProfile{}, core.FieldErrors{"full_name": "full name is required"}
	}

	p := core.NewUserProfile(memberID, fullName, avatarURL)
	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return core.UserProfile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}
