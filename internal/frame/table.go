// Copyright 2026 The Pintos-Go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package frame

import (
	"context"

	"github.com/jacobsa/syncutil"
	"golang.org/x/sync/semaphore"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/kernelerrors"
	"github.com/pintos-go/kernel/internal/swap"
)

// entry is one resident frame: which kernel page backs it, who owns it,
// which of the owner's user pages it's mapped at, and whether it may be
// evicted right now.
type entry struct {
	kpage  blockdev.Frame
	owner  Owner
	upage  blockdev.UserPage
	pinned bool
}

// Table is the frame registry: a hash by kernel page for O(1) Free, and an
// ordered slice with a clock cursor for eviction scans, both guarded by a
// single mutex (§4.4 Concurrency).
type Table struct {
	Mu syncutil.InvariantMutex

	pool *blockdev.PagePool
	sw   *swap.Store
	sem  *semaphore.Weighted

	// GUARDED_BY(Mu)
	byKpage map[blockdev.Frame]*entry
	// GUARDED_BY(Mu) — clock-ordered; cursor indexes the next candidate.
	order  []*entry
	cursor int
}

// New creates a frame table drawing pages from pool and swapping evicted
// pages to sw. The semaphore bounds concurrent allocation attempts to the
// pool's capacity, per §9's open question on eviction contention.
func New(pool *blockdev.PagePool, sw *swap.Store) *Table {
	t := &Table{
		pool:    pool,
		sw:      sw,
		sem:     semaphore.NewWeighted(int64(pool.Capacity())),
		byKpage: make(map[blockdev.Frame]*entry),
	}
	t.Mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Table) checkInvariants() {
	kernelerrors.Assert(len(t.byKpage) == len(t.order),
		"frame: hash has %d entries but order list has %d", len(t.byKpage), len(t.order))
	kernelerrors.Assert(t.cursor >= 0 && (t.cursor < len(t.order) || (t.cursor == 0 && len(t.order) == 0)),
		"frame: cursor %d out of range for %d entries", t.cursor, len(t.order))
}

// Allocate asks the page pool for a user-pool frame. On success it records
// a new pinned frame for (owner, upage) and returns it. On exhaustion it
// runs second-chance eviction, reuses the victim's (zeroed) kernel page,
// retargets it to (owner, upage), and returns it pinned.
func (t *Table) Allocate(ctx context.Context, owner Owner, upage blockdev.UserPage) (blockdev.Frame, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.sem.Release(1)

	t.Mu.Lock()
	defer t.Mu.Unlock()

	kpage, ok := t.pool.GetPage()
	if !ok {
		// Eviction happens while still holding Mu: §4.4 "the swap write is
		// allowed to happen while still holding it (teaching simplicity)".
		kpage = t.evictLocked()
	}

	e := &entry{kpage: kpage, owner: owner, upage: upage, pinned: true}
	t.byKpage[kpage] = e
	t.insertAtCursorLocked(e)
	return kpage, nil
}

// Free locates the frame backing kpage, removes it from the cursor/list/
// hash (advancing the cursor if it pointed at this entry), optionally
// returns the kernel page to the pool, and drops the record.
func (t *Table) Free(kpage blockdev.Frame, releaseToPool bool) {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	e, ok := t.byKpage[kpage]
	kernelerrors.Assert(ok, "frame: free of untracked frame")

	idx := t.indexOfLocked(e)
	t.removeAtLocked(idx)
	delete(t.byKpage, kpage)

	if releaseToPool {
		t.pool.FreePage(kpage)
	}
}

// PinUpdate changes the pin flag of the frame backing kpage.
func (t *Table) PinUpdate(kpage blockdev.Frame, pinned bool) {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	e, ok := t.byKpage[kpage]
	kernelerrors.Assert(ok, "frame: pin_update on untracked frame")
	e.pinned = pinned
}

// evictLocked runs the second-chance clock over at most 2*len(order) steps
// and evicts the first unpinned, unaccessed frame it finds. Caller must
// hold Mu. Returns the victim's zeroed kernel page, ready for reuse.
func (t *Table) evictLocked() blockdev.Frame {
	n := len(t.order)
	kernelerrors.Assert(n > 0, "frame: out of frames with nothing to evict")

	for step := 0; step < 2*n; step++ {
		idx := t.cursor
		e := t.order[idx]
		t.cursor = (t.cursor + 1) % n

		if e.pinned {
			continue
		}

		pd := e.owner.PageDirectory()
		if pd.IsAccessed(e.upage) {
			pd.SetAccessed(e.upage, false)
			continue
		}

		slot := t.sw.Save(e.kpage)
		pd.ClearPage(e.upage)
		e.owner.MarkEvicted(e.upage, slot)

		t.removeAtLocked(idx)
		delete(t.byKpage, e.kpage)

		for i := range e.kpage {
			e.kpage[i] = 0
		}
		return e.kpage
	}

	kernelerrors.Assert(false, "frame: every frame pinned or re-accessed across two full scans")
	panic("unreachable")
}

func (t *Table) indexOfLocked(e *entry) int {
	for i, x := range t.order {
		if x == e {
			return i
		}
	}
	kernelerrors.Assert(false, "frame: entry missing from order list")
	panic("unreachable")
}

// insertAtCursorLocked inserts e immediately before the cursor, the slice
// analog of list_insert(clock_pointer, elem): the cursor keeps pointing at
// the entry it pointed at before, so a freshly allocated frame is the last
// one the clock reaches, after a full revolution.
func (t *Table) insertAtCursorLocked(e *entry) {
	t.order = append(t.order, nil)
	copy(t.order[t.cursor+1:], t.order[t.cursor:len(t.order)-1])
	t.order[t.cursor] = e
	t.cursor = (t.cursor + 1) % len(t.order)
}

// removeAtLocked deletes the entry at idx, adjusting the cursor the way
// frame_free does: if the cursor pointed past idx it shifts left with the
// slice; if it pointed at idx it is left as-is, which (because everything
// past idx shifts down by one) now correctly points at what was the next
// entry.
func (t *Table) removeAtLocked(idx int) {
	t.order = append(t.order[:idx], t.order[idx+1:]...)
	if idx < t.cursor {
		t.cursor--
	}
	if len(t.order) == 0 {
		t.cursor = 0
	} else {
		t.cursor %= len(t.order)
	}
}
