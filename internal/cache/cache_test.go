package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/store"
	"wisetogether/internal/store/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUCacheTTL(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Hour).WithClock(clk.Now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	clk.Advance(2 * time.Hour)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size=%d", c.Size())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now least recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestCleanExpired(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](10, time.Minute).WithClock(clk.Now)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.Advance(2 * time.Minute)
	c.Set("c", 3)

	m := NewManager(log.New(log.DefaultConfig()))
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(log.New(log.DefaultConfig()))
	m.Register(NewLRUCache[int](1, time.Minute))
	m.StartCleanup(context.Background(), time.Millisecond)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

// countingStore counts account lookups reaching the backing store.
type countingStore struct {
	*memory.Store
	accountHits int
	profileHits int
}

func (s *countingStore) FindSharedAccountByMember(ctx context.Context, memberID string) (core.SharedAccount, error) {
	s.accountHits++
	return s.Store.FindSharedAccountByMember(ctx, memberID)
}

func (s *countingStore) GetProfile(ctx context.Context, memberID string) (core.UserProfile, error) {
	s.profileHits++
	return s.Store.GetProfile(ctx, memberID)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.New()}
	d := NewDirectory(backing, backing, 16, time.Hour)

	// Misses are not cached.
	if _, err := d.FindSharedAccountByMember(ctx, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	acc, err := d.CreateSharedAccount(ctx, core.SharedAccount{MemberAID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := d.FindSharedAccountByMember(ctx, "alice")
	if err != nil || got.ID != acc.ID {
		t.Fatalf("got %+v, %v", got, err)
	}
	if backing.accountHits != 1 {
		t.Fatalf("expected create to warm the cache, store hits=%d", backing.accountHits)
	}

	if _, err := d.JoinSharedAccount(ctx, acc.InvitationCode, "bob"); err != nil {
		t.Fatal(err)
	}
	got, _ = d.FindSharedAccountByMember(ctx, "alice")
	if got.MemberBID != "bob" {
		t.Fatal("join did not refresh the cached account")
	}
	if got, _ := d.FindSharedAccountByMember(ctx, "bob"); got.ID != acc.ID {
		t.Fatal("partner lookup missed")
	}
	if backing.accountHits != 1 {
		t.Fatalf("store hits=%d, want 1", backing.accountHits)
	}

	if err := d.UpsertProfile(ctx, core.NewUserProfile("bob", "Bob Builder", "")); err != nil {
		t.Fatal(err)
	}
	p, err := d.GetProfile(ctx, "bob")
	if err != nil || p.DisplayName != "Bob" || backing.profileHits != 0 {
		t.Fatalf("profile %+v err=%v hits=%d", p, err, backing.profileHits)
	}
	if len(d.Cleaners()) != 2 {
		t.Fatal("expected two cleaners")
	}
}
