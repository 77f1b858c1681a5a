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

import "github.com/pintos-go/kernel/internal/blockdev"

// ReadAt reads len(dst) bytes starting at offset, stopping at EOF. It
// returns the number of bytes actually read, which may be less than
// len(dst). Shaped like io.ReaderAt, though it never returns io.EOF: a
// short read at EOF is success, matching inode_read_at.
func (in *Inode) ReadAt(dst []byte, offset int64) (int, error) {
	in.Mu.Lock()
	defer in.Mu.Unlock()

	read := 0
	for read < len(dst) {
		inodeLeft := in.disk.length - offset
		if inodeLeft <= 0 {
			break
		}
		sectorOfs := int(offset % blockdev.SectorSize)
		sectorLeft := blockdev.SectorSize - sectorOfs
		chunk := min(len(dst)-read, int(inodeLeft), sectorLeft)
		if chunk <= 0 {
			break
		}

		sector, err := in.byteToSector(offset)
		if err != nil {
			return read, err
		}
		if err := in.mgr.cache.Read(sector, dst[read:read+chunk], sectorOfs, chunk); err != nil {
			return read, err
		}

		offset += int64(chunk)
		read += chunk
	}
	return read, nil
}

// WriteAt writes len(src) bytes starting at offset, extending the file if
// offset+len(src) exceeds the current length. Growth allocates the
// missing indirect and data sectors one at a time, holding Mu across the
// whole call so concurrent extensions serialize (§5). A partial
// allocation failure during growth rolls back every sector obtained
// during this call and returns the failure with zero bytes written.
func (in *Inode) WriteAt(src []byte, offset int64) (int, error) {
	in.Mu.Lock()
	defer in.Mu.Unlock()

	if in.denyWriteCount > 0 {
		return 0, nil
	}

	newLength := offset + int64(len(src))
	if newLength > in.disk.length {
		if err := in.growLocked(newLength); err != nil {
			return 0, err
		}
	}

	written := 0
	for written < len(src) {
		inodeLeft := in.disk.length - offset
		if inodeLeft <= 0 {
			break
		}
		sectorOfs := int(offset % blockdev.SectorSize)
		sectorLeft := blockdev.SectorSize - sectorOfs
		chunk := min(len(src)-written, int(inodeLeft), sectorLeft)
		if chunk <= 0 {
			break
		}

		sector, err := in.byteToSector(offset)
		if err != nil {
			return written, err
		}
		if err := in.mgr.cache.Write(sector, src[written:written+chunk], sectorOfs, chunk); err != nil {
			return written, err
		}

		offset += int64(chunk)
		written += chunk
	}
	return written, nil
}

// growLocked extends the inode to newLength, allocating whichever
// indirect blocks and data sectors are missing in [length, newLength).
// Caller must hold Mu.
func (in *Inode) growLocked(newLength int64) error {
	var allocatedData []blockdev.Sector
	var allocatedIndirects []blockdev.Sector
	var allocatedIndirectIdx []int64

	rollback := func() {
		for _, s := range allocatedData {
			in.mgr.releaseSector(s)
		}
		for i, s := range allocatedIndirects {
			in.mgr.releaseSector(s)
			in.disk.indirectBlocks[allocatedIndirectIdx[i]] = sentinelSector
		}
	}

	startSec := in.disk.length / blockdev.SectorSize
	endSec := (newLength - 1) / blockdev.SectorSize

	for secOff := startSec; secOff <= endSec; secOff++ {
		indBlk := secOff / ptrPerSector
		indIdx := secOff % ptrPerSector

		if in.disk.indirectBlocks[indBlk] == sentinelSector {
			indSec, err := in.mgr.allocateSector()
			if err != nil {
				rollback()
				return err
			}
			blk := newIndirectBlock()
			if err := in.mgr.cache.Write(indSec, blk.encode(), 0, blockdev.SectorSize); err != nil {
				in.mgr.releaseSector(indSec)
				rollback()
				return err
			}
			in.disk.indirectBlocks[indBlk] = indSec
			allocatedIndirects = append(allocatedIndirects, indSec)
			allocatedIndirectIdx = append(allocatedIndirectIdx, indBlk)
		}

		buf := make([]byte, blockdev.SectorSize)
		if err := in.mgr.cache.Read(in.disk.indirectBlocks[indBlk], buf, 0, blockdev.SectorSize); err != nil {
			rollback()
			return err
		}
		var blk indirectBlock
		blk.decode(buf)

		if blk.dataSectors[indIdx] == sentinelSector {
			dataSec, err := in.mgr.allocateSector()
			if err != nil {
				rollback()
				return err
			}
			blk.dataSectors[indIdx] = dataSec
			if err := in.mgr.cache.Write(in.disk.indirectBlocks[indBlk], blk.encode(), 0, blockdev.SectorSize); err != nil {
				in.mgr.releaseSector(dataSec)
				rollback()
				return err
			}
			allocatedData = append(allocatedData, dataSec)
		}
	}

	in.disk.length = newLength
	return in.mgr.cache.Write(in.sector, in.disk.encode(), 0, blockdev.SectorSize)
}
