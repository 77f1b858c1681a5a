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

package klog

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	jsonTraceString = `^\{"timestamp":\{"seconds":\d+,"nanos":\d+\},"severity":"TRACE","message":"traceExample"\}`
	jsonErrorString = `^\{"timestamp":\{"seconds":\d+,"nanos":\d+\},"severity":"ERROR","message":"errorExample"\}`
)

type LoggerSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) { suite.Run(t, new(LoggerSuite)) }

func redirectToBuffer(buf *bytes.Buffer, severity string) {
	programLevel := new(slog.LevelVar)
	setLoggingLevel(severity, programLevel)
	defaultLoggerFactory.format = "json"
	defaultLoggerFactory.programLevel = programLevel
	defaultLogger = slog.New(defaultLoggerFactory.createHandler(buf, "", programLevel))
}

func (s *LoggerSuite) TestLevelFiltering_ErrorOnlyAtErrorSeverity() {
	var buf bytes.Buffer
	redirectToBuffer(&buf, SeverityError)

	Tracef("traceExample")
	s.Empty(buf.String())

	Errorf("errorExample")
	assert.Regexp(s.T(), regexp.MustCompile(jsonErrorString), buf.String())
}

func (s *LoggerSuite) TestLevelFiltering_AllAtTraceSeverity() {
	var buf bytes.Buffer
	redirectToBuffer(&buf, SeverityTrace)

	Tracef("traceExample")
	assert.Regexp(s.T(), regexp.MustCompile(jsonTraceString), buf.String())
}

func (s *LoggerSuite) TestOffSuppressesEverything() {
	var buf bytes.Buffer
	redirectToBuffer(&buf, SeverityOff)

	Tracef("traceExample")
	Debugf("d")
	Infof("i")
	Warnf("w")
	Errorf("e")

	s.Empty(buf.String())
}

func (s *LoggerSuite) TestSetLoggingLevelOrdering() {
	levels := []string{SeverityTrace, SeverityDebug, SeverityInfo, SeverityWarning, SeverityError, SeverityOff}
	var prev slog.Level
	for i, sev := range levels {
		pl := new(slog.LevelVar)
		setLoggingLevel(sev, pl)
		if i > 0 {
			s.Greater(pl.Level(), prev)
		}
		prev = pl.Level()
	}
}
