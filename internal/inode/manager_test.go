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

package inode_test

import (
	"testing"
	"time"

	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"

	"github.com/pintos-go/kernel/clock"
	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/buffercache"
	"github.com/pintos-go/kernel/internal/inode"
	"github.com/pintos-go/kernel/internal/kernelerrors"
	"github.com/pintos-go/kernel/internal/metrics"
)

func TestManager(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

const partitionSectors = 256

type ManagerTest struct {
	dev   *blockdev.MemDevice
	cache *buffercache.Cache
	fm    *blockdev.FreeMap
	mgr   *inode.Manager
}

func init() { RegisterTestSuite(&ManagerTest{}) }

func (t *ManagerTest) SetUp(ti *TestInfo) {
	t.dev = blockdev.NewMemDevice(partitionSectors)
	t.cache = buffercache.New(t.dev, 8, time.Hour, clock.NewSimulatedClock(time.Now()), metrics.Noop{})
	t.fm = blockdev.NewFreeMap(partitionSectors)
	// Reserve sector 1 for the inode under test, as a caller of Create does.
	_, _ = t.fm.Allocate(1)
	t.mgr = inode.NewManager(t.cache, t.fm)
}

func (t *ManagerTest) TearDown() {
	AssertEq(nil, t.cache.Close())
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *ManagerTest) CreateOpenRoundTrips() {
	AssertEq(nil, t.mgr.Create(1, 1000, false, 1))

	in, err := t.mgr.Open(1)
	AssertEq(nil, err)
	ExpectEq(int64(1000), in.Length())
	ExpectFalse(in.IsDir())
	ExpectEq(blockdev.Sector(1), in.ParentSector())

	AssertEq(nil, in.Close())
}

func (t *ManagerTest) OpenDeduplicatesConcurrentOpens() {
	AssertEq(nil, t.mgr.Create(1, 10, false, 1))

	a, err := t.mgr.Open(1)
	AssertEq(nil, err)
	b, err := t.mgr.Open(1)
	AssertEq(nil, err)

	ExpectEq(a, b)

	AssertEq(nil, a.Close())
	AssertEq(nil, b.Close())
}

func (t *ManagerTest) WriteAtExtendsFile() {
	AssertEq(nil, t.mgr.Create(1, 0, false, 1))
	in, err := t.mgr.Open(1)
	AssertEq(nil, err)
	defer in.Close()

	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i)
	}

	n, err := in.WriteAt(payload, 0)
	AssertEq(nil, err)
	ExpectEq(len(payload), n)
	ExpectEq(int64(1000), in.Length())

	out := make([]byte, len(payload))
	n, err = in.ReadAt(out, 0)
	AssertEq(nil, err)
	ExpectEq(len(payload), n)
	ExpectThat(out, DeepEquals(payload))
}

func (t *ManagerTest) ReadAtStopsAtEOF() {
	AssertEq(nil, t.mgr.Create(1, 10, false, 1))
	in, err := t.mgr.Open(1)
	AssertEq(nil, err)
	defer in.Close()

	buf := make([]byte, 100)
	n, err := in.ReadAt(buf, 5)
	AssertEq(nil, err)
	ExpectEq(5, n)
}

func (t *ManagerTest) DenyWritePreventsWrite() {
	AssertEq(nil, t.mgr.Create(1, 10, false, 1))
	in, err := t.mgr.Open(1)
	AssertEq(nil, err)
	defer in.Close()

	in.DenyWrite()
	n, err := in.WriteAt([]byte("x"), 0)
	AssertEq(nil, err)
	ExpectEq(0, n)

	in.AllowWrite()
	n, err = in.WriteAt([]byte("x"), 0)
	AssertEq(nil, err)
	ExpectEq(1, n)
}

func (t *ManagerTest) RemoveReleasesSectorsOnLastClose() {
	AssertEq(nil, t.mgr.Create(1, 2000, false, 1))
	freeBefore := t.fm.Free()

	in, err := t.mgr.Open(1)
	AssertEq(nil, err)
	in.Remove()
	AssertEq(nil, in.Close())

	// 2000 bytes needs 4 data sectors under 1 indirect block; closing a
	// removed inode releases those plus the indirect block and the inode
	// sector itself: 4 + 1 + 1 = 6.
	ExpectEq(freeBefore+6, t.fm.Free())
}

func (t *ManagerTest) CreateFailsAndRollsBackWhenDiskExhausted() {
	freeBefore := t.fm.Free()

	// Demand more data than the tiny partition can back.
	err := t.mgr.Create(1, int64(partitionSectors)*blockdev.SectorSize*2, false, 1)
	ExpectEq(kernelerrors.ErrOutOfDisk, err)
	ExpectEq(freeBefore, t.fm.Free())
}
