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
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var validSeverities = []string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF"}

func severityHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.String {
			return data, nil
		}
		s, ok := data.(string)
		if !ok || t.Name() != "string" {
			return data, nil
		}
		upper := strings.ToUpper(s)
		if slices.Contains(validSeverities, upper) {
			return upper, nil
		}
		return data, nil
	}
}

// DecodeHook composes the severity-name normalizer with mapstructure's
// built-in string-to-duration and string-to-slice hooks, the way the
// teacher's cfg.DecodeHook composes hookFunc with its defaults.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		severityHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
