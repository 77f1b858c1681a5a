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

// Package kernelerrors is the error taxonomy of §7: sentinel errors for the
// conditions that surface to a caller, plus Assert for the two conditions
// the spec treats as kernel-internal invariant violations rather than
// recoverable errors.
package kernelerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfDisk is returned when the free-map cannot satisfy an
	// allocation request. Surfaces from inode creation or growth; the
	// caller rolls back whatever partial state it created.
	ErrOutOfDisk = errors.New("kernel: free map exhausted")

	// ErrBadUserAddress is returned when a fault or syscall argument
	// references memory outside the user address space.
	ErrBadUserAddress = errors.New("kernel: address outside user space")

	// ErrUnknownChild is returned by wait() for an unknown or
	// already-reaped child id.
	ErrUnknownChild = errors.New("kernel: wait on unknown or already-reaped child")

	// ErrLoadFailed is returned by the page-fault path when a page cannot
	// be brought in from any source (zero, file, or swap). The caller
	// terminates the faulting process with ERROR_EXIT/-1.
	ErrLoadFailed = errors.New("kernel: page load failed")

	// ErrPageAlreadyMapped is returned by the supplemental page table's
	// install_* operations when the target user page already has an
	// entry.
	ErrPageAlreadyMapped = errors.New("kernel: user page already has a supplemental page table entry")

	// ErrBadFD is returned by the FD list's get/remove when no open file
	// is registered under the given descriptor.
	ErrBadFD = errors.New("kernel: unknown file descriptor")

	// ErrTooManyChildren is returned when a process record's fixed-size
	// child array is already full (§3, MaxChildren).
	ErrTooManyChildren = errors.New("kernel: process child array full")
)

// Assert panics with a formatted message if cond is false. It marks the two
// conditions spec.md §7 calls assertions rather than recoverable errors:
// OutOfFrame (the frame allocator cannot evict) and CorruptInode (magic
// mismatch or a sentinel found mid-file). A teaching kernel halts on these;
// this module panics so a caller driving it sees the failure immediately.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
