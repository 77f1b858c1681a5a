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

// Package frame implements §4.4: a registry of every physical frame
// currently backing a user mapping, with second-chance eviction.
package frame

import (
	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/swap"
)

// Owner is the callback surface a frame's owning process provides so the
// table can evict one of its pages without importing the supplemental
// page table package (which itself calls into Table.Allocate — owner is
// the seam that breaks that cycle).
type Owner interface {
	// PageDirectory returns the MMU for this owner's address space, used
	// to read/clear the accessed bit and unmap an evicted upage.
	PageDirectory() *blockdev.PageDirectory

	// MarkEvicted records, in the owner's supplemental page table, that
	// upage's contents now live at slot on the swap device rather than in
	// a frame (§4.4 eviction step 3).
	MarkEvicted(upage blockdev.UserPage, slot swap.Slot)
}
