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

package cfg

import "fmt"

// Validate returns a non-nil error if the config cannot describe a runnable
// kernel. Mirrors the teacher's ValidateConfig: one fmt.Errorf per
// sub-config, each wrapped with the sub-config's name.
func Validate(c *Config) error {
	if err := validateFileSystem(&c.FileSystem); err != nil {
		return fmt.Errorf("file-system: %w", err)
	}
	if err := validateVM(&c.VM); err != nil {
		return fmt.Errorf("vm: %w", err)
	}
	if err := validateProcess(&c.Process); err != nil {
		return fmt.Errorf("process: %w", err)
	}
	if err := validateLogging(&c.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func validateFileSystem(c *FileSystemConfig) error {
	if c.CacheSlots <= 0 {
		return fmt.Errorf("cache-slots must be positive, got %d", c.CacheSlots)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush-interval must be positive, got %v", c.FlushInterval)
	}
	// Need at least one sector for the free-map, one for a root inode, one
	// indirect block, and one data sector.
	if c.PartitionSectors < 4 {
		return fmt.Errorf("partition-sectors too small to hold a free map and an inode, got %d", c.PartitionSectors)
	}
	return nil
}

func validateVM(c *VMConfig) error {
	if c.SwapSectors < 0 {
		return fmt.Errorf("swap-sectors cannot be negative, got %d", c.SwapSectors)
	}
	if c.UserPoolPages <= 0 {
		return fmt.Errorf("user-pool-pages must be positive, got %d", c.UserPoolPages)
	}
	return nil
}

func validateProcess(c *ProcessConfig) error {
	if c.MaxChildren <= 0 {
		return fmt.Errorf("max-children must be positive, got %d", c.MaxChildren)
	}
	return nil
}

func validateLogging(c *LoggingConfig) error {
	switch c.Severity {
	case "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF", "":
	default:
		return fmt.Errorf("invalid severity: %s", c.Severity)
	}
	if c.FilePath != "" && c.MaxFileSizeMB < 0 {
		return fmt.Errorf("max-file-size-mb cannot be negative, got %d", c.MaxFileSizeMB)
	}
	return nil
}
