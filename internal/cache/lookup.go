package cache

import (
	"context"
	"time"

	"wisetogether/internal/core"
	"wisetogether/internal/store"
)

// Directory caches shared-account and profile reads. Misses and errors are
// never cached, and writes through the Directory refresh the affected
// entries.
type Directory struct {
	accounts store.SharedAccountStore
	profiles store.ProfileStore

	byMember     *LRUCache[core.SharedAccount]
	profileCache *LRUCache[core.UserProfile]
}

var (
	_ store.SharedAccountStore = (*Directory)(nil)
	_ store.ProfileStore       = (*Directory)(nil)
)

func NewDirectory(accounts store.SharedAccountStore, profiles store.ProfileStore, size int, ttl time.Duration) *Directory {
	return &Directory{
		accounts:     accounts,
		profiles:     profiles,
		byMember:     NewLRUCache[core.SharedAccount](size, ttl),
		profileCache: NewLRUCache[core.UserProfile](size, ttl),
	}
}

// Cleaners exposes the underlying caches for a Manager.
func (d *Directory) Cleaners() []Cleaner {
	return []Cleaner{d.byMember, d.profileCache}
}

func (d *Directory) FindSharedAccountByMember(ctx context.Context, memberID string) (core.SharedAccount, error) {
	if acc, ok := d.byMember.Get(memberID); ok {
		return acc, nil
	}
	acc, err := d.accounts.FindSharedAccountByMember(ctx, memberID)
	if err != nil {
		return core.SharedAccount{}, err
	}
	d.byMember.Set(memberID, acc)
	return acc, nil
}

func (d *Directory) FindSharedAccountByCode(ctx context.Context, code string) (core.SharedAccount, error) {
	return d.accounts.FindSharedAccountByCode(ctx, code)
}

func (d *Directory) CreateSharedAccount(ctx context.Context, acc core.SharedAccount) (core.SharedAccount, error) {
	created, err := d.accounts.CreateSharedAccount(ctx, acc)
	if err != nil {
		return core.SharedAccount{}, err
	}
	d.byMember.Set(created.MemberAID, created)
	return created, nil
}

func (d *Directory) JoinSharedAccount(ctx context.Context, code, memberID string) (core.SharedAccount, error) {
	acc, err := d.accounts.JoinSharedAccount(ctx, code, memberID)
	if err != nil {
		return core.SharedAccount{}, err
	}
	d.byMember.Set(acc.MemberAID, acc)
	d.byMember.Set(acc.MemberBID, acc)
	return acc, nil
}

func (d *Directory) GetProfile(ctx context.Context, memberID string) (core.UserProfile, error) {
	if p, ok := d.profileCache.Get(memberID); ok {
		return p, nil
	}
	p, err := d.profiles.GetProfile(ctx, memberID)
	if err != nil {
		return core.UserProfile{}, err
	}
	d.profileCache.Set(memberID, p)
	return p, nil
}

func (d *Directory) UpsertProfile(ctx context.Context, p core.UserProfile) error {
	if err := d.profiles.UpsertProfile(ctx, p); err != nil {
		d.profileCache.Delete(p.MemberID)
		return err
	}
	d.profileCache.Set(p.MemberID, p)
	return nil
}
