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

// Package klog is the kernel's structured logger: a package-level slog.Logger
// with five severities (TRACE below DEBUG, WARNING between INFO and ERROR,
// named to match the severity vocabulary a teaching OS course uses), a JSON
// or text handler, and optional rotation to a log file via lumberjack.
package klog

import "log/slog"

// Severity levels. slog only defines DEBUG/INFO/WARN/ERROR natively; TRACE
// and OFF are kernel-specific extensions, spaced below/above the native
// levels so slog's ordering comparisons keep working.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelOff   slog.Level = 100
)

// Severity name strings accepted by cfg and SetLevel.
const (
	SeverityTrace   = "TRACE"
	SeverityDebug   = "DEBUG"
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
	SeverityOff     = "OFF"
)

func severityToLevel(severity string) slog.Level {
	switch severity {
	case SeverityTrace:
		return LevelTrace
	case SeverityDebug:
		return LevelDebug
	case SeverityInfo:
		return LevelInfo
	case SeverityWarning:
		return LevelWarn
	case SeverityError:
		return LevelError
	case SeverityOff:
		return LevelOff
	default:
		return LevelInfo
	}
}

func levelName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return SeverityTrace
	case l < LevelInfo:
		return SeverityDebug
	case l < LevelWarn:
		return SeverityInfo
	case l < LevelError:
		return SeverityWarning
	default:
		return SeverityError
	}
}
