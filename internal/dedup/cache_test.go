package dedup

import (
	"fmt"
	"testing"
	"time"
)

func TestAdmitSuppressesWithinWindow(t *testing.T) {
	t.Parallel()
	c := New(time.Minute, 0)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if !c.Admit("k1", now) {
		t.Fatal("first admit should pass")
	}
	if c.Admit("k1", now.Add(30*time.Second)) {
		t.Fatal("same key inside window should be suppressed")
	}
	if !c.Admit("k2", now.Add(30*time.Second)) {
		t.Fatal("different key should pass")
	}
}

func TestAdmitReadmitsAfterExpiry(t *testing.T) {
	t.Parallel()
	c := New(time.Minute, 0)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if !c.Admit("k", now) {
		t.Fatal("first admit should pass")
	}
	// exactly at the deadline counts as expired
	if !c.Admit("k", now.Add(time.Minute)) {
		t.Fatal("admit at window boundary should pass")
	}
	if !c.Admit("k", now.Add(3*time.Minute)) {
		t.Fatal("admit well past expiry should pass")
	}
}

func TestSuppressionDoesNotRefreshDeadline(t *testing.T) {
	t.Parallel()
	c := New(time.Minute, 0)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Admit("k", now)
	// repeated suppressed observations must not push the deadline out
	c.Admit("k", now.Add(20*time.Second))
	c.Admit("k", now.Add(40*time.Second))
	if !c.Admit("k", now.Add(61*time.Second)) {
		t.Fatal("window must decay from first observation")
	}
}

func TestZeroWindowDisablesDedup(t *testing.T) {
	t.Parallel()
	c := New(0, 0)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if !c.Admit("same", now) {
			t.Fatalf("admit %d: zero window must always pass", i)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 (nothing recorded)", c.Len())
	}
}

func TestCapEvictsEarliestExpiry(t *testing.T) {
	t.Parallel()
	c := New(time.Hour, 3)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		c.Admit(fmt.Sprintf("k%d", i), now.Add(time.Duration(i)*time.Second))
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	// k0 had the earliest deadline, so it was evicted and is admitted again
	if !c.Admit("k0", now.Add(5*time.Second)) {
		t.Fatal("evicted key should be admitted again")
	}
	// k3 is still cached
	if c.Admit("k3", now.Add(5*time.Second)) {
		t.Fatal("most recent key must still be suppressed")
	}
}

func TestPruneDropsExpiredOnInsert(t *testing.T) {
	t.Parallel()
	c := New(time.Minute, 0)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Admit("a", now)
	c.Admit("b", now)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	c.Admit("c", now.Add(2*time.Minute))
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after expired entries pruned", c.Len())
	}
}
