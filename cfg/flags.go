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

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags registers every Config field as a flag on flagSet and binds it
// into viper, the way the teacher's generated cfg.BindFlags wires mount
// options. Call Decode afterwards to materialize a Config.
func BindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	d := Default()

	flagSet.Int("file-system.cache-slots", d.FileSystem.CacheSlots, "number of buffer cache slots")
	flagSet.Duration("file-system.flush-interval", d.FileSystem.FlushInterval, "background write-behind interval")
	flagSet.Int("file-system.partition-sectors", d.FileSystem.PartitionSectors, "simulated filesystem device size, in sectors")

	flagSet.Int("vm.swap-sectors", d.VM.SwapSectors, "simulated swap device size, in sectors")
	flagSet.Int("vm.user-pool-pages", d.VM.UserPoolPages, "physical frames available to user processes")

	flagSet.Int("process.max-children", d.Process.MaxChildren, "max children tracked per process record")

	flagSet.String("logging.severity", d.Logging.Severity, "TRACE, DEBUG, INFO, WARNING, ERROR, or OFF")
	flagSet.String("logging.format", d.Logging.Format, "text or json")
	flagSet.String("logging.file-path", d.Logging.FilePath, "log file path; stderr if empty")

	flagSet.String("metrics.addr", d.Metrics.Addr, "non-empty enables Prometheus-backed counters (no /metrics listener is started); empty disables metrics")

	for _, name := range []string{
		"file-system.cache-slots", "file-system.flush-interval", "file-system.partition-sectors",
		"vm.swap-sectors", "vm.user-pool-pages",
		"process.max-children",
		"logging.severity", "logging.format", "logging.file-path",
		"metrics.addr",
	} {
		if err := v.BindPFlag(name, flagSet.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// Decode unmarshals v's bound values into a Config, applying DecodeHook for
// the field types viper's defaults don't already know how to coerce.
func Decode(v *viper.Viper) (Config, error) {
	c := Default()
	if err := v.Unmarshal(&c, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = DecodeHook()
	}); err != nil {
		return Config{}, err
	}
	return c, nil
}
