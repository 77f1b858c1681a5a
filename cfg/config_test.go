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
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	d := Default()
	require.NoError(t, Validate(&d))
}

func TestValidateRejectsZeroCacheSlots(t *testing.T) {
	d := Default()
	d.FileSystem.CacheSlots = 0
	assert.Error(t, Validate(&d))
}

func TestValidateRejectsTinyPartition(t *testing.T) {
	d := Default()
	d.FileSystem.PartitionSectors = 1
	assert.Error(t, Validate(&d))
}

func TestValidateRejectsInvalidSeverity(t *testing.T) {
	d := Default()
	d.Logging.Severity = "LOUD"
	assert.Error(t, Validate(&d))
}

func TestBindFlagsAndDecodeRoundTrips(t *testing.T) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, fs))

	require.NoError(t, fs.Parse([]string{
		"--file-system.cache-slots=128",
		"--file-system.flush-interval=5s",
		"--logging.severity=trace",
	}))

	c, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 128, c.FileSystem.CacheSlots)
	assert.Equal(t, 5*time.Second, c.FileSystem.FlushInterval)
	assert.Equal(t, "TRACE", c.Logging.Severity)
}
