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

// Package swap implements §4.3: a slot-indexed store over a second block
// device, used by the frame table to page out evicted frames.
package swap

import (
	"github.com/jacobsa/syncutil"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/kernelerrors"
)

// sectorsPerSlot is PGSIZE / BLOCK_SECTOR_SIZE: a swap slot is exactly one
// physical frame's worth of sectors.
const sectorsPerSlot = blockdev.PageSize / blockdev.SectorSize

// Slot identifies one page-sized region of the swap device.
type Slot uint32

// Store is the swap area: a bitmap of occupied slots over a block device,
// serialized by a single mutex the way vm_swap_init guards used_slots with
// swap_lock.
type Store struct {
	// Mu guards used. The write/read of the slot's sectors happens outside
	// Mu, mirroring vm_swap_save/vm_swap_load which only hold swap_lock
	// across the bitmap update, not the block I/O.
	Mu syncutil.InvariantMutex

	// GUARDED_BY(Mu)
	used []bool

	dev blockdev.Device
}

// New creates a swap store over dev, with one slot per sectorsPerSlot
// sectors of the device.
func New(dev blockdev.Device, sectors blockdev.Sector) *Store {
	s := &Store{
		dev:  dev,
		used: make([]bool, int(sectors)/sectorsPerSlot),
	}
	s.Mu = syncutil.NewInvariantMutex(s.checkInvariants)
	return s
}

func (s *Store) checkInvariants() {}

// Save finds a clear bit, marks it used, writes the frame's PageSize bytes
// to the corresponding sectorsPerSlot sectors, and returns the slot.
// Asserts if the bitmap is exhausted — the teaching harness never
// overcommits swap (§4.3).
func (s *Store) Save(page blockdev.Frame) Slot {
	s.Mu.Lock()
	slot, ok := s.findFreeSlotLocked()
	if ok {
		s.used[slot] = true
	}
	s.Mu.Unlock()

	kernelerrors.Assert(ok, "swap: bitmap exhausted, no free slot to save page")

	s.writeSlot(Slot(slot), page)
	return Slot(slot)
}

// Load requires slot to be occupied, clears its bit, and reads its sectors
// back into page.
func (s *Store) Load(page blockdev.Frame, slot Slot) {
	s.Mu.Lock()
	kernelerrors.Assert(int(slot) < len(s.used) && s.used[slot], "swap: load from unoccupied slot %d", slot)
	s.used[slot] = false
	s.Mu.Unlock()

	s.readSlot(slot, page)
}

// Discard requires slot to be occupied and clears its bit without reading
// it back, for when a page is dropped without needing its contents (e.g.
// a swapped-out page that is unmapped or whose process exits).
func (s *Store) Discard(slot Slot) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	kernelerrors.Assert(int(slot) < len(s.used) && s.used[slot], "swap: discard of unoccupied slot %d", slot)
	s.used[slot] = false
}

func (s *Store) writeSlot(slot Slot, page blockdev.Frame) {
	base := blockdev.Sector(int(slot) * sectorsPerSlot)
	for i := 0; i < sectorsPerSlot; i++ {
		off := i * blockdev.SectorSize
		err := s.dev.WriteSector(base+blockdev.Sector(i), page[off:off+blockdev.SectorSize])
		kernelerrors.Assert(err == nil, "swap: write failed for slot %d sector %d: %v", slot, i, err)
	}
}

func (s *Store) readSlot(slot Slot, page blockdev.Frame) {
	base := blockdev.Sector(int(slot) * sectorsPerSlot)
	for i := 0; i < sectorsPerSlot; i++ {
		off := i * blockdev.SectorSize
		err := s.dev.ReadSector(base+blockdev.Sector(i), page[off:off+blockdev.SectorSize])
		kernelerrors.Assert(err == nil, "swap: read failed for slot %d sector %d: %v", slot, i, err)
	}
}

// findFreeSlotLocked is bitmap_scan(used_slots, 0, 1, false). Caller must
// hold Mu.
func (s *Store) findFreeSlotLocked() (int, bool) {
	for i, used := range s.used {
		if !used {
			return i, true
		}
	}
	return 0, false
}
