package library

import (
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

// Index maps dedup keys to library entries. The zero value is not usable; see [NewIndex].
type Index struct {
	mu      sync.Mutex
	slots   map[string]*slot
	nextTok uint64
}

type slot struct {
	entry *models.LibraryEntry
	owner uint64 // claim token while pending; 0 once finalized
}

// Claim is a placeholder reservation over a set of keys.
type Claim struct {
	token uint64
	keys  []string
	done  bool
}

// Keys returns the reserved keys.
func (c *Claim) Keys() []string { return c.keys }

// Duplicate describes the entry that blocked a claim.
type Duplicate struct {
	Key   string
	Entry models.LibraryEntry // Pending is set when another job holds the key
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{slots: make(map[string]*slot)}
}

// Insert records a finalized entry under keys. Keys already present are left untouched.
//
// It returns the number of keys added. Used while building from a scan.
func (ix *Index) Insert(e models.LibraryEntry, keys ...string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e.Pending = false
	added := 0
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := ix.slots[k]; ok {
			continue
		}
		ix.slots[k] = &slot{entry: &e}
		added++
	}
	return added
}

// Claim atomically tests keys and reserves all of them when none is held.
//
// Exactly one of the return values is non-nil.
func (ix *Index) Claim(keys ...string) (*Claim, *Duplicate) {
	keys = compactKeys(append([]string(nil), keys...)...)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, k := range keys {
		if s, ok := ix.slots[k]; ok {
			d := &Duplicate{Key: k, Entry: *s.entry}
			d.Entry.Pending = s.owner != 0
			return nil, d
		}
	}

	ix.nextTok++
	c := &Claim{token: ix.nextTok, keys: keys}
	placeholder := &models.LibraryEntry{Pending: true}
	for _, k := range keys {
		ix.slots[k] = &slot{entry: placeholder, owner: c.token}
	}
	return c, nil
}

// Finalize backs a claim with e. Calling it again on the same claim is a no-op.
//
// It fails with [shared.ErrClaimLost] when the claim was already released.
func (ix *Index) Finalize(c *Claim, e models.LibraryEntry) error {
	if c == nil {
		return fmt.Errorf("%w: nil claim", shared.ErrClaimLost)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if c.done {
		return nil
	}
	for _, k := range c.keys {
		s, ok := ix.slots[k]
		if !ok || s.owner != c.token {
			return fmt.Errorf("%w: %s", shared.ErrClaimLost, k)
		}
	}

	e.Pending = false
	for _, k := range c.keys {
		ix.slots[k] = &slot{entry: &e}
	}
	c.done = true
	return nil
}

// Release drops every placeholder still owned by c. Safe to call on nil or finalized claims.
func (ix *Index) Release(c *Claim) {
	if c == nil {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if c.done {
		return
	}
	for _, k := range c.keys {
		if s, ok := ix.slots[k]; ok && s.owner == c.token {
			delete(ix.slots, k)
		}
	}
	c.done = true
}

// Lookup returns the finalized entry for key.
func (ix *Index) Lookup(key string) (models.LibraryEntry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, ok := ix.slots[key]
	if !ok || s.owner != 0 {
		return models.LibraryEntry{}, false
	}
	return *s.entry, true
}

// Stats summarizes the index contents.
type Stats struct {
	Keys    int
	Entries int
	Pending int
}

// Stats counts keys, distinct finalized entries and pending placeholders.
func (ix *Index) Stats() Stats {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var st Stats
	seen := make(map[*models.LibraryEntry]struct{})
	for _, s := range ix.slots {
		st.Keys++
		if s.owner != 0 {
			st.Pending++
			continue
		}
		seen[s.entry] = struct{}{}
	}
	st.Entries = len(seen)
	return st
}

// Entries returns the distinct finalized entries sorted by path.
func (ix *Index) Entries() []models.LibraryEntry {
	ix.mu.Lock()
	seen := make(map[*models.LibraryEntry]struct{})
	out := make([]models.LibraryEntry, 0, len(ix.slots))
	for _, s := range ix.slots {
		if s.owner != 0 {
			continue
		}
		if _, ok := seen[s.entry]; ok {
			continue
		}
		seen[s.entry] = struct{}{}
		out = append(out, *s.entry)
	}
	ix.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
