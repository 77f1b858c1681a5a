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

// MemDevice is an in-memory Device, standing in for a real disk. Safe for
// concurrent use: every sector access is serialized with a single mutex, the
// way the original block device driver serializes DMA requests.
type MemDevice struct {
	mu      sync.Mutex
	sectors [][SectorSize]byte
}

// NewMemDevice allocates a device with the given number of zeroed sectors.
func NewMemDevice(sectors Sector) *MemDevice {
	return &MemDevice{sectors: make([][SectorSize]byte, sectors)}
}

func (d *MemDevice) Size() Sector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Sector(len(d.sectors))
}

func (d *MemDevice) ReadSector(sector Sector, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(sector) >= len(d.sectors) {
		return ErrOutOfRange{Sector: sector, Size: Sector(len(d.sectors))}
	}
	copy(dst, d.sectors[sector][:])
	return nil
}

func (d *MemDevice) WriteSector(sector Sector, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(sector) >= len(d.sectors) {
		return ErrOutOfRange{Sector: sector, Size: Sector(len(d.sectors))}
	}
	copy(d.sectors[sector][:], src)
	return nil
}
