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

package spt

import (
	"context"

	"github.com/jacobsa/syncutil"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/frame"
	"github.com/pintos-go/kernel/internal/kernelerrors"
	"github.com/pintos-go/kernel/internal/metrics"
	"github.com/pintos-go/kernel/internal/swap"
)

// Table is one process's supplemental page table: the map from user page
// to the state needed to bring it in on a fault, and the authority that
// tears a page down again on eviction, unmap, or process exit.
//
// Table implements frame.Owner so the shared frame.Table can evict one of
// this table's pages without importing this package.
type Table struct {
	Mu syncutil.InvariantMutex

	frames *frame.Table
	sw     *swap.Store
	pd     *blockdev.PageDirectory

	metrics metrics.Handle

	// GUARDED_BY(Mu)
	entries map[blockdev.UserPage]*entry
}

// New creates a supplemental page table for one process's address space,
// backed by the shared frame table and swap store. m records page-fault and
// swap-traffic counts; pass metrics.Noop{} where no backend is configured.
func New(frames *frame.Table, sw *swap.Store, pd *blockdev.PageDirectory, m metrics.Handle) *Table {
	t := &Table{
		frames:  frames,
		sw:      sw,
		pd:      pd,
		metrics: m,
		entries: make(map[blockdev.UserPage]*entry),
	}
	t.Mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Table) checkInvariants() {
	for upage, e := range t.entries {
		kernelerrors.Assert(e != nil, "spt: nil entry for upage %v", upage)
		if e.status == StatusLoaded {
			kernelerrors.Assert(e.kpage != nil, "spt: loaded entry %v has no frame", upage)
		}
	}
}

// PageDirectory implements frame.Owner.
func (t *Table) PageDirectory() *blockdev.PageDirectory { return t.pd }

// MarkEvicted implements frame.Owner: the frame table has already swapped
// upage's contents out and unmapped it from the page directory; record
// that here so a later fault knows to pull it back from slot.
func (t *Table) MarkEvicted(upage blockdev.UserPage, slot swap.Slot) {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	e, ok := t.entries[upage]
	kernelerrors.Assert(ok, "spt: MarkEvicted on unmapped upage %v", upage)

	e.status = StatusOnSwap
	e.kpage = nil
	e.swapSlot = slot
	t.metrics.SwapOut()
}

// InstallPage records that upage is already resident in kpage (used for
// the first page installed into a fresh stack or a just-loaded segment
// whose frame the caller already obtained). It fails if upage already has
// an entry. The page is writable, matching vm_sup_page_load_page's default
// for every status but IN_FILE.
func (t *Table) InstallPage(upage blockdev.UserPage, kpage blockdev.Frame) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if _, ok := t.entries[upage]; ok {
		return kernelerrors.ErrPageAlreadyMapped
	}
	t.entries[upage] = &entry{status: StatusLoaded, kpage: kpage, writable: true}
	return nil
}

// InstallZero records upage as a lazy anonymous page: the first fault
// zero-fills it. The page is writable, matching vm_sup_page_load_page's
// default for every status but IN_FILE.
func (t *Table) InstallZero(upage blockdev.UserPage) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if _, ok := t.entries[upage]; ok {
		return kernelerrors.ErrPageAlreadyMapped
	}
	t.entries[upage] = &entry{status: StatusZero, writable: true}
	return nil
}

// InstallFile records upage as a lazy demand-loaded page: the first fault
// reads readBytes bytes from file at offset and zero-fills the remainder
// of the page.
func (t *Table) InstallFile(upage blockdev.UserPage, file File, offset int64, readBytes int, writable bool) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if _, ok := t.entries[upage]; ok {
		return kernelerrors.ErrPageAlreadyMapped
	}
	t.entries[upage] = &entry{
		status:    StatusInFile,
		file:      file,
		offset:    offset,
		readBytes: readBytes,
		writable:  writable,
	}
	return nil
}

// Map is InstallFile plus the mmap bookkeeping: Unmap writes a mapped
// page's first readBytes bytes back to file. Eviction does not write to the
// file; it sends a mapped page to swap like any other page, and Unmap then
// writes it back from its swap slot.
func (t *Table) Map(upage blockdev.UserPage, file File, offset int64, readBytes int) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if _, ok := t.entries[upage]; ok {
		return kernelerrors.ErrPageAlreadyMapped
	}
	t.entries[upage] = &entry{
		status:    StatusInFile,
		file:      file,
		offset:    offset,
		readBytes: readBytes,
		writable:  true,
		mapped:    true,
	}
	return nil
}

// Load brings upage into a frame if it is not already resident, per the
// per-status table in §4.5: ZERO zero-fills, IN_FILE reads readBytes bytes
// from the backing file and zero-fills the rest, ON_SWAP reads the page
// back from its swap slot. Idempotent on an already-loaded page.
func (t *Table) Load(ctx context.Context, upage blockdev.UserPage) error {
	t.Mu.Lock()
	e, ok := t.entries[upage]
	kernelerrors.Assert(ok, "spt: Load on unmapped upage %v", upage)
	if e.status == StatusLoaded {
		t.Mu.Unlock()
		return nil
	}
	status := e.status
	t.Mu.Unlock()

	t.metrics.PageFault()

	kpage, err := t.frames.Allocate(ctx, t, upage)
	if err != nil {
		t.metrics.PageFaultError()
		return err
	}

	switch status {
	case StatusZero:
		for i := range kpage {
			kpage[i] = 0
		}

	case StatusInFile:
		t.Mu.Lock()
		file, offset, readBytes := e.file, e.offset, e.readBytes
		t.Mu.Unlock()

		n, rerr := file.ReadAt(kpage[:readBytes], offset)
		if rerr != nil || n != readBytes {
			t.frames.Free(kpage, true)
			t.metrics.PageFaultError()
			return kernelerrors.ErrLoadFailed
		}
		for i := readBytes; i < blockdev.PageSize; i++ {
			kpage[i] = 0
		}

	case StatusOnSwap:
		t.Mu.Lock()
		slot := e.swapSlot
		t.Mu.Unlock()
		t.sw.Load(kpage, slot)
		t.metrics.SwapIn()

	default:
		kernelerrors.Assert(false, "spt: Load saw impossible status %v for upage %v", status, upage)
	}

	t.Mu.Lock()
	defer t.Mu.Unlock()

	t.pd.SetPage(upage, kpage, e.writable)
	t.pd.SetDirty(upage, false)
	e.kpage = kpage
	e.status = StatusLoaded
	t.frames.PinUpdate(kpage, false)
	return nil
}

// Unmap tears down nPages consecutive entries starting at upageBegin,
// writing back dirty resident mapped pages before releasing their frames
// and mapped pages evicted to swap before releasing their slots, and
// closing the backing file once the last page in the range is gone.
func (t *Table) Unmap(upageBegin blockdev.UserPage, nPages int) error {
	for i := 0; i < nPages; i++ {
		upage := upageBegin + blockdev.UserPage(i*blockdev.PageSize)

		t.Mu.Lock()
		e, ok := t.entries[upage]
		kernelerrors.Assert(ok, "spt: Unmap on unmapped upage %v", upage)

		switch e.status {
		case StatusLoaded:
			if e.mapped && t.pd.IsDirty(upage) {
				if _, err := e.file.WriteAt(e.kpage[:e.readBytes], e.offset); err != nil {
					t.Mu.Unlock()
					return err
				}
			}
			kpage := e.kpage
			t.pd.ClearPage(upage)
			t.Mu.Unlock()
			t.frames.Free(kpage, true)

		case StatusOnSwap:
			slot := e.swapSlot
			t.Mu.Unlock()
			if e.mapped {
				// The page's contents live only in its swap slot now.
				page := new([blockdev.PageSize]byte)
				t.sw.Load(page, slot)
				if _, err := e.file.WriteAt(page[:e.readBytes], e.offset); err != nil {
					return err
				}
			} else {
				t.sw.Discard(slot)
			}

		default:
			t.Mu.Unlock()
		}

		if i == nPages-1 && e.file != nil {
			e.file.Close()
		}

		t.Mu.Lock()
		delete(t.entries, upage)
		t.Mu.Unlock()
	}
	return nil
}

// Destroy tears down every remaining entry as a process exits: mapped
// pages must already have been unmapped (Unmap is the only path that
// writes them back), so Destroy only frees frames and discards swap slots.
func (t *Table) Destroy() {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	for upage, e := range t.entries {
		kernelerrors.Assert(!e.mapped, "spt: Destroy found still-mapped upage %v", upage)

		switch e.status {
		case StatusLoaded:
			t.frames.Free(e.kpage, false)
		case StatusOnSwap:
			t.sw.Discard(e.swapSlot)
		}
		delete(t.entries, upage)
	}
}
