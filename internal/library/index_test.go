package library

import (
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

func TestIndexClaim(t *testing.T) {
	t.Run("claim then finalize", func(t *testing.T) {
		ix := NewIndex()
		c, dup := ix.Claim("id:aaaaaaaaaaa", "fz:artist|song")
		if c == nil || dup != nil {
			t.Fatalf("expected claim, got dup %+v", dup)
		}

		if _, ok := ix.Lookup("id:aaaaaaaaaaa"); ok {
			t.Error("pending claim should not be visible to Lookup")
		}

		if err := ix.Finalize(c, models.LibraryEntry{Path: "/lib/a.m4a", SourceID: "aaaaaaaaaaa"}); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}

		for _, k := range []string{"id:aaaaaaaaaaa", "fz:artist|song"} {
			e, ok := ix.Lookup(k)
			if !ok || e.Path != "/lib/a.m4a" {
				t.Errorf("Lookup(%q) = %+v, %v", k, e, ok)
			}
		}

		if err := ix.Finalize(c, models.LibraryEntry{Path: "/other"}); err != nil {
			t.Errorf("second Finalize() should be a no-op, got %v", err)
		}
		if e, _ := ix.Lookup("id:aaaaaaaaaaa"); e.Path != "/lib/a.m4a" {
			t.Errorf("second Finalize() changed entry to %q", e.Path)
		}
	})

	t.Run("pending claim blocks second claimant", func(t *testing.T) {
		ix := NewIndex()
		c, _ := ix.Claim("id:aaaaaaaaaaa")

		c2, dup := ix.Claim("id:aaaaaaaaaaa")
		if c2 != nil {
			t.Fatal("second claim should fail")
		}
		if !dup.Entry.Pending || dup.Key != "id:aaaaaaaaaaa" {
			t.Errorf("unexpected duplicate %+v", dup)
		}

		ix.Release(c)
		if c3, _ := ix.Claim("id:aaaaaaaaaaa"); c3 == nil {
			t.Error("released key should be claimable again")
		}
	})

	t.Run("any held key blocks the claim", func(t *testing.T) {
		ix := NewIndex()
		ix.Insert(models.LibraryEntry{Path: "/lib/b.m4a"}, "fz:artist|song")

		c, dup := ix.Claim("id:bbbbbbbbbbb", "fz:artist|song")
		if c != nil {
			t.Fatal("claim should be blocked by fuzzy key")
		}
		if dup.Entry.Path != "/lib/b.m4a" || dup.Entry.Pending {
			t.Errorf("unexpected duplicate %+v", dup)
		}
		if st := ix.Stats(); st.Pending != 0 {
			t.Errorf("blocked claim must not leave placeholders, got %d", st.Pending)
		}
	})

	t.Run("finalize after release fails", func(t *testing.T) {
		ix := NewIndex()
		c, _ := ix.Claim("id:aaaaaaaaaaa")
		ix.Release(c)

		if err := ix.Finalize(c, models.LibraryEntry{Path: "/x"}); err != nil {
			t.Errorf("finalize of a released claim is a no-op, got %v", err)
		}
		if _, ok := ix.Lookup("id:aaaaaaaaaaa"); ok {
			t.Error("released claim must not be finalized")
		}
	})

	t.Run("nil claim", func(t *testing.T) {
		ix := NewIndex()
		ix.Release(nil)
		if err := ix.Finalize(nil, models.LibraryEntry{}); !errors.Is(err, shared.ErrClaimLost) {
			t.Errorf("expected ErrClaimLost, got %v", err)
		}
	})

	t.Run("release only drops own placeholders", func(t *testing.T) {
		ix := NewIndex()
		c, _ := ix.Claim("id:aaaaaaaaaaa")
		ix.Insert(models.LibraryEntry{Path: "/lib/z.m4a"}, "id:zzzzzzzzzzz")
		ix.Release(c)

		if _, ok := ix.Lookup("id:zzzzzzzzzzz"); !ok {
			t.Error("release removed an unrelated entry")
		}
	})
}

func TestIndexClaimRace(t *testing.T) {
	ix := NewIndex()
	const racers = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := ix.Claim("id:aaaaaaaaaaa", "fz:a|b")
			if c == nil {
				return
			}
			mu.Lock()
			wins++
			mu.Unlock()
			ix.Finalize(c, models.LibraryEntry{Path: "/lib/a.m4a"})
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
	if st := ix.Stats(); st.Entries != 1 || st.Pending != 0 || st.Keys != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestIndexInsertFirstWins(t *testing.T) {
	ix := NewIndex()
	if n := ix.Insert(models.LibraryEntry{Path: "/a"}, "id:aaaaaaaaaaa", ""); n != 1 {
		t.Errorf("Insert() added %d keys, want 1", n)
	}
	if n := ix.Insert(models.LibraryEntry{Path: "/b"}, "id:aaaaaaaaaaa"); n != 0 {
		t.Errorf("conflicting Insert() added %d keys, want 0", n)
	}

	entries := ix.Entries()
	if len(entries) != 1 || entries[0].Path != "/a" {
		t.Errorf("Entries() = %+v", entries)
	}
}
