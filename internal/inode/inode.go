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
	"github.com/jacobsa/syncutil"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/kernelerrors"
)

// Inode is the in-memory representation of an open file or directory.
// Opening the same sector twice returns the same *Inode (§4.2 "open").
type Inode struct {
	// Mu guards every field below. Held across the whole of WriteAt when
	// the call extends the file, so concurrent extensions serialize
	// (§5 "Inode writes that extend").
	Mu syncutil.InvariantMutex

	mgr    *Manager
	sector blockdev.Sector

	// GUARDED_BY(Mu)
	openCount int
	// GUARDED_BY(Mu)
	removed bool
	// GUARDED_BY(Mu)
	denyWriteCount int
	// GUARDED_BY(Mu)
	disk diskInode
}

func newInvariantMutex(in *Inode) syncutil.InvariantMutex {
	return syncutil.NewInvariantMutex(in.checkInvariants)
}

func (in *Inode) checkInvariants() {
	kernelerrors.Assert(in.denyWriteCount <= in.openCount,
		"inode %d: deny-write count %d exceeds open count %d", in.sector, in.denyWriteCount, in.openCount)
	kernelerrors.Assert(in.disk.magic == diskInodeMagic,
		"inode %d: corrupt magic %x", in.sector, in.disk.magic)
}

// Sector returns the disk sector this inode is stored at (its inumber).
func (in *Inode) Sector() blockdev.Sector {
	return in.sector
}

// Length returns the file's length in bytes.
func (in *Inode) Length() int64 {
	in.Mu.Lock()
	defer in.Mu.Unlock()
	return in.disk.length
}

// IsDir reports whether this inode represents a directory.
func (in *Inode) IsDir() bool {
	in.Mu.Lock()
	defer in.Mu.Unlock()
	return in.disk.isDir
}

// ParentSector returns the sector of the directory this inode was created
// in, used to resolve "..".
func (in *Inode) ParentSector() blockdev.Sector {
	in.Mu.Lock()
	defer in.Mu.Unlock()
	return in.disk.parentSector
}

// DenyWrite disables writes to the inode. May be called at most once per
// opener.
func (in *Inode) DenyWrite() {
	in.Mu.Lock()
	defer in.Mu.Unlock()
	in.denyWriteCount++
	kernelerrors.Assert(in.denyWriteCount <= in.openCount,
		"inode %d: deny-write count exceeds open count", in.sector)
}

// AllowWrite re-enables writes previously denied with DenyWrite. Must be
// called once by each opener who called DenyWrite, before Close.
func (in *Inode) AllowWrite() {
	in.Mu.Lock()
	defer in.Mu.Unlock()
	kernelerrors.Assert(in.denyWriteCount > 0,
		"inode %d: allow-write with no matching deny-write", in.sector)
	in.denyWriteCount--
}

// Remove marks the inode for deletion once the last opener closes it.
func (in *Inode) Remove() {
	in.Mu.Lock()
	defer in.Mu.Unlock()
	in.removed = true
}

// Close decrements the open count. If this was the last reference, the
// inode is dropped from the manager's open list; if it was also removed,
// every data sector, indirect block, and the inode sector itself are
// released.
func (in *Inode) Close() error {
	in.Mu.Lock()
	in.openCount--
	last := in.openCount == 0
	removed := in.removed
	var sectors, indirects int
	var indirectBlocks [indirectCount]blockdev.Sector
	if last && removed {
		sectors = bytesToSectors(in.disk.length)
		indirects = (sectors + ptrPerSector - 1) / ptrPerSector
		indirectBlocks = in.disk.indirectBlocks
	}
	sector := in.sector
	in.Mu.Unlock()

	if !last {
		return nil
	}
	in.mgr.forget(sector)

	if !removed {
		return nil
	}

	for i := 0; i < indirects; i++ {
		dataBlocks := sectors
		if dataBlocks > ptrPerSector {
			dataBlocks = ptrPerSector
		}
		if err := in.mgr.releaseIndirect(indirectBlocks[i], dataBlocks); err != nil {
			return err
		}
		sectors -= dataBlocks
	}
	in.mgr.releaseSector(sector)
	return nil
}

// byteToSector returns the data sector backing byte offset pos, per
// §4.2 "Addressing". Caller must hold Mu.
func (in *Inode) byteToSector(pos int64) (blockdev.Sector, error) {
	kernelerrors.Assert(pos < in.disk.length, "inode %d: byte_to_sector past EOF", in.sector)

	secOff := pos / blockdev.SectorSize
	indBlk := secOff / ptrPerSector
	indIdx := secOff % ptrPerSector

	kernelerrors.Assert(in.disk.indirectBlocks[indBlk] != sentinelSector,
		"inode %d: missing indirect block %d", in.sector, indBlk)

	buf := make([]byte, blockdev.SectorSize)
	if err := in.mgr.cache.Read(in.disk.indirectBlocks[indBlk], buf, 0, blockdev.SectorSize); err != nil {
		return 0, err
	}
	var blk indirectBlock
	blk.decode(buf)

	kernelerrors.Assert(blk.dataSectors[indIdx] != sentinelSector,
		"inode %d: missing data sector at offset %d", in.sector, pos)
	return blk.dataSectors[indIdx], nil
}
