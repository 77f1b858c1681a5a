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

package spt_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/frame"
	"github.com/pintos-go/kernel/internal/kernelerrors"
	"github.com/pintos-go/kernel/internal/metrics"
	"github.com/pintos-go/kernel/internal/swap"
	"github.com/pintos-go/kernel/internal/vm/spt"
)

const (
	poolPages   = 4
	swapSlots   = 4
	swapSectors = swapSlots * blockdev.PageSize / blockdev.SectorSize
)

// fakeFile is a minimal spt.File backed by an in-memory byte slice, used in
// place of *inode.Inode so this package never needs to import internal/inode.
type fakeFile struct {
	data   []byte
	closed bool
}

func newFakeFile(contents []byte) *fakeFile {
	return &fakeFile{data: append([]byte(nil), contents...)}
}

func (f *fakeFile) ReadAt(dst []byte, offset int64) (int, error) {
	n := copy(dst, f.data[offset:])
	return n, nil
}

func (f *fakeFile) WriteAt(src []byte, offset int64) (int, error) {
	need := offset + int64(len(src))
	if need > int64(len(f.data)) {
		grown := make([]byte, need)
		copy(grown, f.data)
		f.data = grown
	}
	n := copy(f.data[offset:], src)
	return n, nil
}

func (f *fakeFile) Close() error {
	f.closed = true
	return nil
}

func newTable(t *testing.T) (*spt.Table, *frame.Table) {
	t.Helper()
	pool := blockdev.NewPagePool(poolPages)
	sw := swap.New(blockdev.NewMemDevice(swapSectors), swapSectors)
	frames := frame.New(pool, sw)
	pd := blockdev.NewPageDirectory()
	return spt.New(frames, sw, pd, metrics.Noop{}), frames
}

func TestInstallZeroThenLoadZeroFillsThePage(t *testing.T) {
	tbl, _ := newTable(t)
	const upage = blockdev.UserPage(0x1000)

	require.NoError(t, tbl.InstallZero(upage))
	require.NoError(t, tbl.Load(context.Background(), upage))

	got, ok := tbl.PageDirectory().GetPage(upage)
	require.True(t, ok)
	assert.Equal(t, make([]byte, blockdev.PageSize), got[:])

	// Loading twice is idempotent.
	require.NoError(t, tbl.Load(context.Background(), upage))
}

func TestInstallPageRejectsDuplicateUpage(t *testing.T) {
	tbl, _ := newTable(t)
	const upage = blockdev.UserPage(0x2000)

	require.NoError(t, tbl.InstallZero(upage))
	err := tbl.InstallPage(upage, &[blockdev.PageSize]byte{})
	assert.True(t, errors.Is(err, kernelerrors.ErrPageAlreadyMapped))
}

func TestInstallFileThenLoadReadsBackingBytes(t *testing.T) {
	tbl, _ := newTable(t)
	const upage = blockdev.UserPage(0x3000)

	want := bytes.Repeat([]byte{0xAB}, 100)
	file := newFakeFile(want)
	require.NoError(t, tbl.InstallFile(upage, file, 0, len(want), true))
	require.NoError(t, tbl.Load(context.Background(), upage))

	got, ok := tbl.PageDirectory().GetPage(upage)
	require.True(t, ok)
	assert.Equal(t, want, got[:len(want)])
}

func TestLoadReturnsErrLoadFailedWhenFileIsShort(t *testing.T) {
	tbl, _ := newTable(t)
	const upage = blockdev.UserPage(0x4000)

	file := newFakeFile([]byte{1, 2, 3})
	require.NoError(t, tbl.InstallFile(upage, file, 0, 10, true))
	err := tbl.Load(context.Background(), upage)
	assert.True(t, errors.Is(err, kernelerrors.ErrLoadFailed))
}

func TestEvictionRoundTripsThroughSwap(t *testing.T) {
	tbl, frames := newTable(t)

	// Fill the pool so the next load must evict.
	upages := make([]blockdev.UserPage, poolPages+1)
	for i := range upages {
		upages[i] = blockdev.UserPage(uintptr(i+1) * blockdev.PageSize)
		require.NoError(t, tbl.InstallZero(upages[i]))
	}

	for i := 0; i < poolPages; i++ {
		require.NoError(t, tbl.Load(context.Background(), upages[i]))
	}
	// Every loaded page is unpinned by Load itself, so the (poolPages+1)th
	// load below forces the frame table to evict one of them.
	require.NoError(t, tbl.Load(context.Background(), upages[poolPages]))

	// Loading the evicted page again must succeed by pulling it back from
	// swap rather than erroring.
	for _, up := range upages[:poolPages] {
		require.NoError(t, tbl.Load(context.Background(), up))
	}
	_ = frames
}

func TestUnmapWritesBackDirtyMappedPage(t *testing.T) {
	tbl, _ := newTable(t)
	const upage = blockdev.UserPage(0x5000)

	file := newFakeFile(make([]byte, 50))
	require.NoError(t, tbl.Map(upage, file, 0, 50))
	require.NoError(t, tbl.Load(context.Background(), upage))

	pd := tbl.PageDirectory()
	kpage, ok := pd.GetPage(upage)
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		kpage[i] = 0x55
	}
	pd.SetDirty(upage, true)

	require.NoError(t, tbl.Unmap(upage, 1))
	assert.Equal(t, bytes.Repeat([]byte{0x55}, 50), file.data)
	assert.True(t, file.closed, "unmapping the last page over a file must close it")
}

func TestDestroyAssertsNoMappedPagesRemain(t *testing.T) {
	tbl, _ := newTable(t)
	const upage = blockdev.UserPage(0x6000)

	file := newFakeFile(make([]byte, 10))
	require.NoError(t, tbl.Map(upage, file, 0, 10))
	require.NoError(t, tbl.Load(context.Background(), upage))

	assert.Panics(t, func() { tbl.Destroy() })
}

func TestDestroyFreesLoadedAndSwappedEntries(t *testing.T) {
	tbl, _ := newTable(t)

	// One more page than the pool holds, so one of them ends up on swap.
	for i := 0; i < poolPages+1; i++ {
		upage := blockdev.UserPage(0x7000 + i*blockdev.PageSize)
		require.NoError(t, tbl.InstallZero(upage))
		require.NoError(t, tbl.Load(context.Background(), upage))
	}

	assert.NotPanics(t, func() { tbl.Destroy() })
}
