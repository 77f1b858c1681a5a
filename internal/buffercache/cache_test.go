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

package buffercache_test

import (
	"testing"
	"time"

	. "github.com/jacobsa/ogletest"

	"github.com/pintos-go/kernel/clock"
	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/buffercache"
	"github.com/pintos-go/kernel/internal/metrics"
)

func TestCache(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

const numSlots = 4

type CacheTest struct {
	dev *blockdev.CountingDevice
	clk *clock.SimulatedClock
	c   *buffercache.Cache
}

func init() { RegisterTestSuite(&CacheTest{}) }

func (t *CacheTest) SetUp(ti *TestInfo) {
	t.dev = blockdev.NewCountingDevice(blockdev.NewMemDevice(16))
	t.clk = clock.NewSimulatedClock(time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	t.c = buffercache.New(t.dev, numSlots, time.Hour, t.clk, metrics.Noop{})
}

func (t *CacheTest) TearDown() {
	AssertEq(nil, t.c.Close())
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

// §8 scenario 1: a cold read issues exactly one underlying read; a
// subsequent read of the same sector hits the cache and issues none.
func (t *CacheTest) MissThenHit() {
	buf := make([]byte, blockdev.SectorSize)

	err := t.c.Read(5, buf, 0, blockdev.SectorSize)
	AssertEq(nil, err)
	ExpectEq(int64(1), t.dev.Reads())

	err = t.c.Read(5, buf, 0, blockdev.SectorSize)
	AssertEq(nil, err)
	ExpectEq(int64(1), t.dev.Reads())
}

func (t *CacheTest) WriteThenReadBack() {
	payload := []byte("scribbled")

	AssertEq(nil, t.c.Write(2, payload, 10, len(payload)))

	out := make([]byte, len(payload))
	AssertEq(nil, t.c.Read(2, out, 10, len(payload)))
	ExpectEq(string(payload), string(out))
}

// A write does not hit the device until either eviction or a flush pass;
// §4.1 "writes are buffered".
func (t *CacheTest) WriteIsBufferedUntilFlush() {
	AssertEq(nil, t.c.Write(0, []byte("x"), 0, 1))
	ExpectEq(int64(0), t.dev.Writes())

	t.clk.AdvanceTime(time.Hour)
	time.Sleep(10 * time.Millisecond) // let the background worker observe the tick

	ExpectEq(int64(1), t.dev.Writes())
}

// Filling the cache past its slot count forces eviction; a dirty victim is
// flushed before its slot is reused (§4.1 Replacement).
func (t *CacheTest) EvictionFlushesDirtyVictim() {
	for i := 0; i < numSlots; i++ {
		AssertEq(nil, t.c.Write(blockdev.Sector(i), []byte{byte(i)}, 0, 1))
	}
	ExpectEq(int64(0), t.dev.Writes())

	// One more distinct sector forces an eviction of whichever slot the
	// clock hand lands on; all slots are dirty, so exactly one write-back
	// must occur before the new sector is installed.
	AssertEq(nil, t.c.Write(blockdev.Sector(numSlots), []byte{0xFF}, 0, 1))
	ExpectEq(int64(1), t.dev.Writes())
}

func (t *CacheTest) PrefetchWarmsCacheWithoutCopyingBytes() {
	AssertEq(nil, t.c.Prefetch(3))
	ExpectEq(int64(1), t.dev.Reads())

	buf := make([]byte, blockdev.SectorSize)
	AssertEq(nil, t.c.Read(3, buf, 0, blockdev.SectorSize))
	ExpectEq(int64(1), t.dev.Reads())
}

func (t *CacheTest) CloseFlushesDirtySlots() {
	AssertEq(nil, t.c.Write(1, []byte("dirty"), 0, 5))
	AssertEq(nil, t.c.Close())
	ExpectEq(int64(1), t.dev.Writes())

	// Give TearDown a fresh cache to close, since this one is already closed.
	t.c = buffercache.New(t.dev, numSlots, time.Hour, t.clk, metrics.Noop{})
}
