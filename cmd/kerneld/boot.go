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

package main

import (
	"github.com/pintos-go/kernel/cfg"
	"github.com/pintos-go/kernel/clock"
	"github.com/pintos-go/kernel/internal/blockdev"
	"github.com/pintos-go/kernel/internal/buffercache"
	"github.com/pintos-go/kernel/internal/frame"
	"github.com/pintos-go/kernel/internal/inode"
	"github.com/pintos-go/kernel/internal/klog"
	"github.com/pintos-go/kernel/internal/metrics"
	"github.com/pintos-go/kernel/internal/process"
	"github.com/pintos-go/kernel/internal/swap"
)

// kernel holds every process-wide subsystem object, initialized at boot and
// torn down in reverse order at shutdown (§9 "Global state ... pass by
// capability").
type kernel struct {
	cfg cfg.Config

	fsDevice   *blockdev.CountingDevice
	swapDevice blockdev.Device
	freeMap    *blockdev.FreeMap
	pagePool   *blockdev.PagePool

	cache   *buffercache.Cache
	inodes  *inode.Manager
	swap    *swap.Store
	frames  *frame.Table
	procs   *process.Manager
	metrics metrics.Handle
}

// boot constructs every subsystem in dependency order (§2 "Dependency
// order, leaves first"): block devices and free-map first, then buffer
// cache, then inode layer, swap, frame table, and finally the process
// registry, which depends on nothing below it but is what a syscall
// dispatcher would reach first.
func boot(c cfg.Config) (*kernel, error) {
	if err := klog.Init(klog.Config{
		Severity:        c.Logging.Severity,
		Format:          c.Logging.Format,
		FilePath:        c.Logging.FilePath,
		MaxFileSizeMB:   c.Logging.MaxFileSizeMB,
		BackupFileCount: c.Logging.BackupFileCount,
		Compress:        c.Logging.Compress,
	}); err != nil {
		return nil, err
	}

	var m metrics.Handle = metrics.Noop{}
	if c.Metrics.Addr != "" {
		h, _ := metrics.Register()
		m = h
	}

	fsDev := blockdev.NewCountingDevice(blockdev.NewMemDevice(blockdev.Sector(c.FileSystem.PartitionSectors)))
	swapDev := blockdev.NewMemDevice(blockdev.Sector(c.VM.SwapSectors))
	freeMap := blockdev.NewFreeMap(blockdev.Sector(c.FileSystem.PartitionSectors))
	pagePool := blockdev.NewPagePool(c.VM.UserPoolPages)

	cache := buffercache.New(fsDev, c.FileSystem.CacheSlots, c.FileSystem.FlushInterval, clock.RealClock{}, m)
	inodes := inode.NewManager(cache, freeMap)
	swapStore := swap.New(swapDev, blockdev.Sector(c.VM.SwapSectors))
	frames := frame.New(pagePool, swapStore)
	procs := process.NewManager(c.Process.MaxChildren)

	klog.Infof("kerneld: booted (cache-slots=%d partition-sectors=%d swap-sectors=%d user-pool-pages=%d)",
		c.FileSystem.CacheSlots, c.FileSystem.PartitionSectors, c.VM.SwapSectors, c.VM.UserPoolPages)

	return &kernel{
		cfg:        c,
		fsDevice:   fsDev,
		swapDevice: swapDev,
		freeMap:    freeMap,
		pagePool:   pagePool,
		cache:      cache,
		inodes:     inodes,
		swap:       swapStore,
		frames:     frames,
		procs:      procs,
		metrics:    m,
	}, nil
}

// shutdown tears the kernel down in reverse boot order (§9). Only the
// buffer cache owns state that must be flushed; everything below it is
// either stateless (the page pool, free-map) or already durable (swap is
// discarded, not flushed, since it holds no filesystem data).
func (k *kernel) shutdown() error {
	klog.Infof("kerneld: shutting down")
	return k.cache.Close()
}

// rootInodeSector is the well-known sector the root directory inode lives
// at, mirroring ROOT_DIR_SECTOR in the original filesystem layout.
const rootInodeSector = blockdev.Sector(1)
