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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pintos-go/kernel/internal/klog"
)

// formatCmd lays down a fresh free-map and root-directory inode, mirroring
// filesys_format (§6: "filesystem formatting is triggered by a single
// flag" — here, a dedicated subcommand rather than a mount-time flag, since
// there is no mount point to attach to).
var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Lay down a fresh free-map and root-directory inode",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := boot(cfgValue)
		if err != nil {
			return err
		}
		defer k.shutdown()

		sector, ok := k.freeMap.Allocate(1)
		if !ok {
			return fmt.Errorf("format: partition has no room for a root inode")
		}
		if sector != rootInodeSector {
			klog.Warnf("kerneld: root inode landed at sector %d, not the conventional %d", sector, rootInodeSector)
		}

		if err := k.inodes.Create(sector, 0, true, sector); err != nil {
			k.freeMap.Release(sector, 1)
			return fmt.Errorf("format: creating root inode: %w", err)
		}

		klog.Infof("kerneld: formatted filesystem, root directory inode at sector %d", sector)
		fmt.Printf("formatted: root inode at sector %d, %d sectors free\n", sector, k.freeMap.Free())
		return nil
	},
}
