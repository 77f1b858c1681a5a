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

// Package cfg is the kernel's typed configuration, bound from flags, a YAML
// file, and environment variables via viper the way the teacher's cfg
// package binds gcsfuse's mount options.
package cfg

import "time"

// Config holds every tunable of the storage and memory subsystem. Defaults
// (see Default()) match spec.md's concrete numbers (64-entry cache, 2s
// write-behind, 64 children) but are overridable so tests can force
// contention with tiny pools.
type Config struct {
	FileSystem FileSystemConfig `yaml:"file-system" mapstructure:"file-system"`
	VM         VMConfig         `yaml:"vm" mapstructure:"vm"`
	Process    ProcessConfig    `yaml:"process" mapstructure:"process"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// FileSystemConfig governs the buffer cache and inode layer.
type FileSystemConfig struct {
	// CacheSlots is the number of fixed-size buffer cache entries (§4.1).
	CacheSlots int `yaml:"cache-slots" mapstructure:"cache-slots"`
	// FlushInterval is how often the background write-behind worker
	// flushes dirty slots (§4.1, "sleeps 2 s").
	FlushInterval time.Duration `yaml:"flush-interval" mapstructure:"flush-interval"`
	// PartitionSectors is the size of the simulated filesystem device, in
	// 512-byte sectors. Determines INDIRECT_COUNT (§3).
	PartitionSectors int `yaml:"partition-sectors" mapstructure:"partition-sectors"`
}

// VMConfig governs swap, the frame table, and the supplemental page table.
type VMConfig struct {
	// SwapSectors is the size of the simulated swap device, in sectors.
	SwapSectors int `yaml:"swap-sectors" mapstructure:"swap-sectors"`
	// UserPoolPages is the number of physical frames available to user
	// processes — the budget eviction fights over.
	UserPoolPages int `yaml:"user-pool-pages" mapstructure:"user-pool-pages"`
}

// ProcessConfig governs process records and FD lists.
type ProcessConfig struct {
	// MaxChildren is the fixed capacity of a process record's child array
	// (§3, "array of up to 64 child records").
	MaxChildren int `yaml:"max-children" mapstructure:"max-children"`
}

// MetricsConfig governs the optional Prometheus counters (internal/metrics).
type MetricsConfig struct {
	// Addr switches metrics on. Empty (the default) means metrics stay a
	// no-op handle — no registry. Any non-empty value makes boot register
	// Prometheus-backed counters in a private registry; no HTTP listener is
	// started on Addr.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LoggingConfig is handed to klog.Init.
type LoggingConfig struct {
	Severity        string `yaml:"severity" mapstructure:"severity"`
	Format          string `yaml:"format" mapstructure:"format"`
	FilePath        string `yaml:"file-path" mapstructure:"file-path"`
	MaxFileSizeMB   int    `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int    `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool   `yaml:"compress" mapstructure:"compress"`
}

// Default returns the configuration spec.md's concrete numbers describe.
func Default() Config {
	return Config{
		FileSystem: FileSystemConfig{
			CacheSlots:       64,
			FlushInterval:    2 * time.Second,
			PartitionSectors: (8 << 20) / 512, // 8 MiB partition, matching FS_SIZE
		},
		VM: VMConfig{
			SwapSectors:   (4 << 20) / 512,
			UserPoolPages: 64,
		},
		Process: ProcessConfig{
			MaxChildren: 64,
		},
		Logging: LoggingConfig{
			Severity: "INFO",
			Format:   "json",
		},
	}
}
