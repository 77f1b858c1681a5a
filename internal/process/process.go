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

// Package process implements §4.6: a process control block ("record")
// tracking parent/child relationships and exit status, plus its open-file
// table. A Manager is the system-wide registry proc_find looks processes
// up in.
package process

import (
	"sync"

	"github.com/pintos-go/kernel/internal/kernelerrors"
)

// ID identifies a process record, analogous to a Pintos tid_t.
type ID int

// Status is a record's lifecycle state.
type Status int

const (
	// StatusRunning is a live process (or one that hasn't exited yet).
	StatusRunning Status = iota
	// StatusExited is a process that called exit() or returned normally.
	StatusExited
	// StatusErrorExit is a process the kernel killed on an exception;
	// wait() reports -1 for these regardless of the stored exit code.
	StatusErrorExit
)

// Record is one process control block. children holds pointers to records
// for every child this process has spawned and not yet reaped; §5 notes
// the original disables interrupts while mutating this array, so here a
// plain mutex stands in as the equivalent coarse critical section.
type Record struct {
	id ID

	mu       sync.Mutex // GUARDED_BY: status, exitCode, orphan, children
	status   Status
	exitCode int
	orphan   bool
	children []*Record

	maxChildren int
	exitCh      chan struct{}

	FDs *FDList
}

// ID returns the record's process id.
func (r *Record) ID() ID { return r.id }

// Manager is the system-wide process record registry (proc_find).
type Manager struct {
	mu          sync.Mutex
	maxChildren int
	byID        map[ID]*Record
	next        ID
}

// NewManager creates a registry whose records each hold up to maxChildren
// children (§3's "array of up to 64 child records").
func NewManager(maxChildren int) *Manager {
	return &Manager{
		maxChildren: maxChildren,
		byID:        make(map[ID]*Record),
	}
}

// Create allocates a new process record. If parent is non-nil, the new
// record is installed into parent's children array under a brief critical
// section, mirroring proc_add_child (§4.6 step 1).
func (m *Manager) Create(parent *Record) (*Record, error) {
	m.mu.Lock()
	id := m.next
	m.next++
	r := &Record{
		id:          id,
		status:      StatusRunning,
		maxChildren: m.maxChildren,
		exitCh:      make(chan struct{}),
		FDs:         newFDList(),
	}
	m.byID[id] = r
	m.mu.Unlock()

	if parent != nil {
		if err := parent.addChild(r); err != nil {
			m.forget(id)
			return nil, err
		}
	}
	return r, nil
}

// Find looks up a record by id (proc_find), used by the syscall layer to
// validate a thread id before operating on it.
func (m *Manager) Find(id ID) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	return r, ok
}

func (m *Manager) forget(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (r *Record) addChild(child *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kernelerrors.Assert(len(r.children) <= r.maxChildren,
		"process: child array over capacity for record %d", r.id)
	if len(r.children) == r.maxChildren {
		return kernelerrors.ErrTooManyChildren
	}
	r.children = append(r.children, child)
	return nil
}

// FindChild looks up one of r's own, not-yet-reaped children (proc_find_child).
func (r *Record) FindChild(id ID) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.children {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

func (r *Record) removeChild(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.children {
		if c.id == id {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return
		}
	}
}

// Wait blocks until child id exits and returns its exit code (§4.6 step
// 3). It returns ErrUnknownChild immediately if id does not name a
// not-yet-reaped child of r — including a second wait on the same id.
func (r *Record) Wait(id ID) (int, error) {
	child, ok := r.FindChild(id)
	if !ok {
		return -1, kernelerrors.ErrUnknownChild
	}

	<-child.exitCh

	child.mu.Lock()
	code, status := child.exitCode, child.status
	child.mu.Unlock()

	r.removeChild(id)

	if status == StatusErrorExit {
		return -1, nil
	}
	return code, nil
}

// Exit tears r down (§4.6 step 4): every still-running child is marked
// orphaned; every already-exited child is reaped from the registry
// immediately; the FD list is cleared; the exit semaphore (here, closing
// exitCh) wakes any waiting parent; finally, if r itself was orphaned, it
// reaps itself.
func (r *Record) Exit(mgr *Manager, exitCode int, killedByKernel bool) {
	r.mu.Lock()
	r.exitCode = exitCode
	if killedByKernel {
		r.status = StatusErrorExit
	} else {
		r.status = StatusExited
	}
	children := append([]*Record(nil), r.children...)
	r.mu.Unlock()

	for _, ch := range children {
		ch.mu.Lock()
		running := ch.status == StatusRunning
		if running {
			ch.orphan = true
		}
		ch.mu.Unlock()

		if !running {
			mgr.forget(ch.id)
		}
	}

	r.FDs.Clear()
	close(r.exitCh)

	r.mu.Lock()
	orphan := r.orphan
	r.mu.Unlock()
	if orphan {
		mgr.forget(r.id)
	}
}
