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

import "sync/atomic"

// CountingDevice wraps a Device and counts reads and writes, the test seam
// §8 scenario 1 ("cache miss then hit") is written against: assert exactly
// one underlying read on a cold access and zero on a subsequent hit.
type CountingDevice struct {
	Device
	reads  atomic.Int64
	writes atomic.Int64
}

// NewCountingDevice wraps dev with read/write counters.
func NewCountingDevice(dev Device) *CountingDevice {
	return &CountingDevice{Device: dev}
}

func (d *CountingDevice) ReadSector(sector Sector, dst []byte) error {
	d.reads.Add(1)
	return d.Device.ReadSector(sector, dst)
}

func (d *CountingDevice) WriteSector(sector Sector, src []byte) error {
	d.writes.Add(1)
	return d.Device.WriteSector(sector, src)
}

// Reads returns the number of ReadSector calls observed so far.
func (d *CountingDevice) Reads() int64 { return d.reads.Load() }

// Writes returns the number of WriteSector calls observed so far.
func (d *CountingDevice) Writes() int64 { return d.writes.Load() }

// Reset zeroes both counters.
func (d *CountingDevice) Reset() {
	d.reads.Store(0)
	d.writes.Store(0)
}
