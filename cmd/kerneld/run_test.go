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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pintos-go/kernel/cfg"
)

func testConfig() cfg.Config {
	c := cfg.Default()
	// Small enough to force eviction in the VM demo quickly, large enough
	// to hold the demo's two small files plus a root inode.
	c.FileSystem.CacheSlots = 8
	c.FileSystem.PartitionSectors = 64
	c.VM.SwapSectors = 64
	c.VM.UserPoolPages = 4
	c.Process.MaxChildren = 4
	c.Logging.Severity = "OFF"
	return c
}

func TestFilesysDemoGrowsAndRemoves(t *testing.T) {
	k, err := boot(testConfig())
	require.NoError(t, err)
	defer k.shutdown()

	require.NoError(t, k.runFilesysDemo())
}

func TestVMDemoEvictsAndRestores(t *testing.T) {
	k, err := boot(testConfig())
	require.NoError(t, err)
	defer k.shutdown()

	require.NoError(t, k.runVMDemo())
}

func TestProcessDemoJoins(t *testing.T) {
	k, err := boot(testConfig())
	require.NoError(t, err)
	defer k.shutdown()

	require.NoError(t, k.runProcessDemo())
}

func TestFormatLaysDownRootInode(t *testing.T) {
	cfgValue = testConfig()
	err := formatCmd.RunE(formatCmd, nil)
	require.NoError(t, err)
}
