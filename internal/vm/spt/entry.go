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

// Package spt implements §4.5: a per-process supplemental page table
// mapping user pages to either a resident frame, a lazy load source, or a
// swap slot.
package spt

import (
	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/swap"
)

// Status is one state in the per-entry state machine documented in §4.5.
type Status int

const (
	// StatusZero is a lazy anonymous page: load() zero-fills it.
	StatusZero Status = iota
	// StatusInFile is a lazy demand-loaded page backed by a file region.
	StatusInFile
	// StatusOnSwap means the page's contents were evicted to swap.
	StatusOnSwap
	// StatusLoaded means the page is resident in a frame and mapped.
	StatusLoaded
)

// File is the narrow slice of *inode.Inode that lazy-loaded and mapped
// pages need: read their backing bytes on load, write them back on
// eviction or unmap, and close once the last page referencing them is
// torn down. Any type with this shape satisfies it, so this package never
// imports internal/inode.
type File interface {
	ReadAt(dst []byte, offset int64) (int, error)
	WriteAt(src []byte, offset int64) (int, error)
	Close() error
}

// entry is one supplemental page table row, keyed by user page.
type entry struct {
	status Status

	// GUARDED_BY(Table.Mu)
	kpage    blockdev.Frame
	swapSlot swap.Slot

	// Lazy-load / mmap source, meaningful for StatusInFile and any entry
	// that started life as one (a page keeps its file/offset/readBytes
	// even after being loaded or evicted to swap, so Unmap knows where to
	// write its bytes back).
	file      File
	offset    int64
	readBytes int
	writable  bool
	mapped    bool
}
