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

// Package inode implements §4.2: on-disk inodes with one level of indirect
// addressing, a process-wide open-inode list, lazy growth on write, and
// deny-write tracking for running executables.
package inode

import (
	"encoding/binary"

	"github.com/pintos-go/kernel/internal/blockdev"
)

const (
	// ptrSize is the width of an on-disk sector pointer: 16 bits, enough
	// to index an 8 MiB partition of 512-byte sectors.
	ptrSize = 2

	// ptrPerSector is how many sector pointers fit in one indirect block.
	ptrPerSector = blockdev.SectorSize / ptrSize

	// indirectCount bounds a file to indirectCount*ptrPerSector data
	// sectors (64*256*512 bytes = 8 MiB), matching the partition size the
	// design was sized against.
	indirectCount = 64

	// sentinelSector marks an unallocated pointer slot, the 16-bit analog
	// of ERR_SECTOR.
	sentinelSector = blockdev.Sector(0xFFFF)

	diskInodeMagic = uint32(0x494e4f44)
)

// maxFileBytes is the largest length create/growth will accept.
const maxFileBytes = int64(indirectCount) * int64(ptrPerSector) * blockdev.SectorSize

// indirectBlock is the on-disk layout of one indirect block: ptrPerSector
// data-sector numbers, unused slots holding sentinelSector.
type indirectBlock struct {
	dataSectors [ptrPerSector]blockdev.Sector
}

func newIndirectBlock() indirectBlock {
	var b indirectBlock
	for i := range b.dataSectors {
		b.dataSectors[i] = sentinelSector
	}
	return b
}

func (b *indirectBlock) encode() []byte {
	buf := make([]byte, blockdev.SectorSize)
	for i, s := range b.dataSectors {
		binary.LittleEndian.PutUint16(buf[i*ptrSize:], uint16(s))
	}
	return buf
}

func (b *indirectBlock) decode(buf []byte) {
	for i := range b.dataSectors {
		b.dataSectors[i] = blockdev.Sector(binary.LittleEndian.Uint16(buf[i*ptrSize:]))
	}
}

// diskInode is the on-disk inode layout (§3 "On-disk inode"): indirect
// block pointers, length, directory flag, parent directory sector (for
// ".." lookups), and a magic number guarding against reading garbage.
type diskInode struct {
	indirectBlocks [indirectCount]blockdev.Sector
	length         int64
	isDir          bool
	parentSector   blockdev.Sector
	magic          uint32
}

func newDiskInode(length int64, isDir bool, parentSector blockdev.Sector) diskInode {
	d := diskInode{
		length:       length,
		isDir:        isDir,
		parentSector: parentSector,
		magic:        diskInodeMagic,
	}
	for i := range d.indirectBlocks {
		d.indirectBlocks[i] = sentinelSector
	}
	return d
}

func (d *diskInode) encode() []byte {
	buf := make([]byte, blockdev.SectorSize)
	off := 0
	for _, s := range d.indirectBlocks {
		binary.LittleEndian.PutUint16(buf[off:], uint16(s))
		off += ptrSize
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(int32(d.length)))
	off += 4
	if d.isDir {
		buf[off] = 1
	}
	off++
	binary.LittleEndian.PutUint16(buf[off:], uint16(d.parentSector))
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], d.magic)
	return buf
}

func (d *diskInode) decode(buf []byte) {
	off := 0
	for i := range d.indirectBlocks {
		d.indirectBlocks[i] = blockdev.Sector(binary.LittleEndian.Uint16(buf[off:]))
		off += ptrSize
	}
	d.length = int64(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	d.isDir = buf[off] != 0
	off++
	d.parentSector = blockdev.Sector(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	d.magic = binary.LittleEndian.Uint32(buf[off:])
}

// bytesToSectors is DIV_ROUND_UP(size, BLOCK_SECTOR_SIZE).
func bytesToSectors(size int64) int {
	return int((size + blockdev.SectorSize - 1) / blockdev.SectorSize)
}
