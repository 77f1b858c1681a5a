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

package blockdev

import "sync"

// PageSize is the unit of virtual memory, matching PGSIZE (4 KiB pages).
const PageSize = 4096

// Frame is a page-sized chunk of simulated physical memory. The frame table
// and supplemental page table pass these around the way real Pintos passes
// kernel virtual addresses of physical pages.
type Frame = *[PageSize]byte

// PagePool is the external page-allocator collaborator (§6): a fixed-size
// pool of physical pages, standing in for palloc_get_page/palloc_free_page
// over the user pool. Exhaustion is reported, never panics — callers (the
// frame table) decide whether exhaustion is recoverable via eviction.
type PagePool struct {
	mu   sync.Mutex
	free []Frame
}

// NewPagePool preallocates `pages` frames.
func NewPagePool(pages int) *PagePool {
	p := &PagePool{free: make([]Frame, 0, pages)}
	for i := 0; i < pages; i++ {
		p.free = append(p.free, new([PageSize]byte))
	}
	return p
}

// GetPage removes and returns a free frame, zeroing it first. ok is false if
// the pool is exhausted.
func (p *PagePool) GetPage() (f Frame, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, false
	}
	n := len(p.free) - 1
	f = p.free[n]
	p.free = p.free[:n]
	for i := range f {
		f[i] = 0
	}
	return f, true
}

// FreePage returns a frame to the pool for reuse.
func (p *PagePool) FreePage(f Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, f)
}

// Capacity returns the total number of frames the pool was created with.
func (p *PagePool) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cap(p.free)
}

// Available returns the number of frames currently free.
func (p *PagePool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
