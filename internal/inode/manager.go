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

package inode

import (
	"sync"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/buffercache"
	"github.com/pintos-go/kernel/internal/kernelerrors"
)

// Manager is the process-wide open-inode list (the package-level
// open_inodes in the original): it deduplicates concurrent opens of the
// same sector onto a single in-memory Inode and owns the free-map used for
// allocation and release.
type Manager struct {
	cache *buffercache.Cache
	fm    *blockdev.FreeMap

	mu   sync.Mutex
	open map[blockdev.Sector]*Inode
}

// NewManager creates an inode manager backed by cache for data I/O and fm
// for sector allocation. Both must already be initialized.
func NewManager(cache *buffercache.Cache, fm *blockdev.FreeMap) *Manager {
	return &Manager{
		cache: cache,
		fm:    fm,
		open:  make(map[blockdev.Sector]*Inode),
	}
}

// allocateSector grabs one free sector and zeroes it, per allocate_sector.
func (m *Manager) allocateSector() (blockdev.Sector, error) {
	sec, ok := m.fm.Allocate(1)
	if !ok {
		return 0, kernelerrors.ErrOutOfDisk
	}
	var zeros [blockdev.SectorSize]byte
	if err := m.cache.Write(sec, zeros[:], 0, blockdev.SectorSize); err != nil {
		m.fm.Release(sec, 1)
		return 0, err
	}
	return sec, nil
}

func (m *Manager) releaseSector(sec blockdev.Sector) {
	m.fm.Release(sec, 1)
}

// allocateIndirect allocates an indirect block sector populated with
// dataBlocks freshly-allocated data sectors. On partial failure it rolls
// back every sector it obtained during this call, per allocate_indirect.
func (m *Manager) allocateIndirect(dataBlocks int) (blockdev.Sector, error) {
	kernelerrors.Assert(dataBlocks <= ptrPerSector, "inode: %d data blocks exceeds indirect block capacity %d", dataBlocks, ptrPerSector)

	indSec, err := m.allocateSector()
	if err != nil {
		return 0, err
	}

	blk := newIndirectBlock()
	for i := 0; i < dataBlocks; i++ {
		sec, err := m.allocateSector()
		if err != nil {
			for j := 0; j < i; j++ {
				m.releaseSector(blk.dataSectors[j])
			}
			m.releaseSector(indSec)
			return 0, err
		}
		blk.dataSectors[i] = sec
	}

	if err := m.cache.Write(indSec, blk.encode(), 0, blockdev.SectorSize); err != nil {
		return 0, err
	}
	return indSec, nil
}

// releaseIndirect frees every one of dataBlocks data sectors referenced by
// the indirect block at indSec, then the indirect block itself.
func (m *Manager) releaseIndirect(indSec blockdev.Sector, dataBlocks int) error {
	var blk indirectBlock
	buf := make([]byte, blockdev.SectorSize)
	if err := m.cache.Read(indSec, buf, 0, blockdev.SectorSize); err != nil {
		return err
	}
	blk.decode(buf)

	for i := 0; i < dataBlocks; i++ {
		m.releaseSector(blk.dataSectors[i])
	}
	m.releaseSector(indSec)
	return nil
}

// Create writes a zeroed disk inode to sector and allocates ⌈length/512⌉
// data sectors across as many indirect blocks as required. On any
// allocation failure it rolls back every sector obtained during this call
// and returns the failure, per §4.2.
func (m *Manager) Create(sector blockdev.Sector, length int64, isDir bool, parentSector blockdev.Sector) error {
	kernelerrors.Assert(length >= 0, "inode: create with negative length %d", length)
	if length > maxFileBytes {
		return kernelerrors.ErrOutOfDisk
	}

	disk := newDiskInode(length, isDir, parentSector)

	sectors := bytesToSectors(length)
	indirects := (sectors + ptrPerSector - 1) / ptrPerSector

	for i := 0; i < indirects; i++ {
		dataBlocks := sectors
		if dataBlocks > ptrPerSector {
			dataBlocks = ptrPerSector
		}
		indSec, err := m.allocateIndirect(dataBlocks)
		if err != nil {
			for j := 0; j < i; j++ {
				_ = m.releaseIndirect(disk.indirectBlocks[j], ptrPerSector)
			}
			return err
		}
		disk.indirectBlocks[i] = indSec
		sectors -= dataBlocks
	}

	return m.cache.Write(sector, disk.encode(), 0, blockdev.SectorSize)
}

// Open returns the canonical in-memory Inode for sector, reading it from
// disk on first open and reference-counting subsequent opens.
func (m *Manager) Open(sector blockdev.Sector) (*Inode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in, ok := m.open[sector]; ok {
		in.Mu.Lock()
		in.openCount++
		in.Mu.Unlock()
		return in, nil
	}

	buf := make([]byte, blockdev.SectorSize)
	if err := m.cache.Read(sector, buf, 0, blockdev.SectorSize); err != nil {
		return nil, err
	}
	var disk diskInode
	disk.decode(buf)
	kernelerrors.Assert(disk.magic == diskInodeMagic, "inode: bad magic at sector %d", sector)

	in := &Inode{
		mgr:       m,
		sector:    sector,
		openCount: 1,
		disk:      disk,
	}
	in.Mu = newInvariantMutex(in)
	m.open[sector] = in
	return in, nil
}

// forget removes sector from the open list. Called by Inode.Close once its
// reference count reaches zero.
func (m *Manager) forget(sector blockdev.Sector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, sector)
}
