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

package frame_test

import (
	"context"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/frame"
	"github.com/pintos-go/kernel/internal/swap"
)

func TestTable(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

const framePoolPages = 3
const frameSwapSlots = 4
const frameSwapSectors = frameSwapSlots * blockdev.PageSize / blockdev.SectorSize

// fakeOwner is a single-upage owner whose MarkEvicted just records what it
// was told, the way a real process's SPT entry would update its state.
type fakeOwner struct {
	pd           *blockdev.PageDirectory
	evictedUpage blockdev.UserPage
	evictedSlot  swap.Slot
	evictedCount int
}

func newFakeOwner() *fakeOwner {
	return &fakeOwner{pd: blockdev.NewPageDirectory()}
}

func (o *fakeOwner) PageDirectory() *blockdev.PageDirectory { return o.pd }

func (o *fakeOwner) MarkEvicted(upage blockdev.UserPage, slot swap.Slot) {
	o.evictedUpage = upage
	o.evictedSlot = slot
	o.evictedCount++
}

type TableTest struct {
	pool *blockdev.PagePool
	sw   *swap.Store
	t    *frame.Table
}

func init() { RegisterTestSuite(&TableTest{}) }

func (tt *TableTest) SetUp(ti *TestInfo) {
	tt.pool = blockdev.NewPagePool(framePoolPages)
	tt.sw = swap.New(blockdev.NewMemDevice(frameSwapSectors), frameSwapSectors)
	tt.t = frame.New(tt.pool, tt.sw)
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (tt *TableTest) AllocateUntilExhaustedThenEvictsUnaccessed() {
	owners := make([]*fakeOwner, framePoolPages+1)
	kpages := make([]blockdev.Frame, framePoolPages+1)

	for i := 0; i < framePoolPages; i++ {
		owners[i] = newFakeOwner()
		kp, err := tt.t.Allocate(context.Background(), owners[i], blockdev.UserPage(i))
		AssertEq(nil, err)
		kpages[i] = kp
		tt.t.PinUpdate(kp, false) // unpin so it is evictable
	}

	// Touch every frame but the first, so the clock's second chance skips
	// them and lands back on the untouched one.
	for i := 1; i < framePoolPages; i++ {
		owners[i].pd.Touch(blockdev.UserPage(i), false)
	}

	owners[framePoolPages] = newFakeOwner()
	_, err := tt.t.Allocate(context.Background(), owners[framePoolPages], blockdev.UserPage(framePoolPages))
	AssertEq(nil, err)

	ExpectEq(1, owners[0].evictedCount)
	ExpectEq(blockdev.UserPage(0), owners[0].evictedUpage)
}

func (tt *TableTest) FreeRemovesEntryAndCanReturnPageToPool() {
	owner := newFakeOwner()
	kp, err := tt.t.Allocate(context.Background(), owner, blockdev.UserPage(7))
	AssertEq(nil, err)

	before := tt.pool.Available()
	tt.t.Free(kp, true)
	ExpectEq(before+1, tt.pool.Available())
}

func (tt *TableTest) PinnedFramesAreNeverEvicted() {
	owners := make([]*fakeOwner, framePoolPages+1)
	for i := 0; i < framePoolPages; i++ {
		owners[i] = newFakeOwner()
		kp, err := tt.t.Allocate(context.Background(), owners[i], blockdev.UserPage(i))
		AssertEq(nil, err)
		if i != 0 {
			tt.t.PinUpdate(kp, false)
		}
		// owners[0]'s frame stays pinned.
	}

	owners[framePoolPages] = newFakeOwner()
	_, err := tt.t.Allocate(context.Background(), owners[framePoolPages], blockdev.UserPage(framePoolPages))
	AssertEq(nil, err)

	ExpectEq(0, owners[0].evictedCount)
}
