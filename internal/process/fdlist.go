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

package process

import (
	"sync"

	"github.com/pintos-go/kernel/internal/kernelerrors"
)

// File is the minimal surface an open file needs for the FD list to close
// it on remove/exit; satisfied structurally by *inode.Inode wrappers or
// any other open-file handle the syscall layer hands out.
type File interface {
	Close() error
}

type fdEntry struct {
	fd   int
	file File
}

// FDList is a process's open-file table: a sorted-by-fd list starting at 2
// (0 and 1 are reserved for stdin/stdout), matching §4.6's description of
// fd_insert/fd_get/fd_remove.
type FDList struct {
	mu      sync.Mutex
	entries []fdEntry
}

func newFDList() *FDList {
	return &FDList{}
}

// Insert assigns file the first unused fd at or above 2 and returns it.
func (l *FDList) Insert(file File) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	fd := 2
	i := 0
	for i < len(l.entries) && l.entries[i].fd == fd {
		fd++
		i++
	}

	l.entries = append(l.entries, fdEntry{})
	copy(l.entries[i+1:], l.entries[i:len(l.entries)-1])
	l.entries[i] = fdEntry{fd: fd, file: file}
	return fd
}

// Get returns the file registered under fd, if any.
func (l *FDList) Get(fd int) (File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.fd == fd {
			return e.file, nil
		}
	}
	return nil, kernelerrors.ErrBadFD
}

// Remove closes and forgets fd.
func (l *FDList) Remove(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.fd == fd {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return e.file.Close()
		}
	}
	return kernelerrors.ErrBadFD
}

// Clear closes every remaining open file, used on process exit.
func (l *FDList) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		e.file.Close()
	}
	l.entries = nil
}
