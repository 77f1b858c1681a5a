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
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncLogger decouples log formatting from the (possibly slow, rotating)
// underlying file writer: Write copies the message onto a bounded channel
// and returns immediately; a single background goroutine drains the channel
// to dest. A full buffer drops the message with a warning to stderr rather
// than blocking the caller — logging must never become a suspension point
// for the subsystems that use it.
type AsyncLogger struct {
	dest io.Writer
	ch   chan []byte
	done chan struct{}
	wg   sync.WaitGroup

	closeOnce sync.Once
}

// NewAsyncLogger starts a background writer draining into dest, buffering up
// to bufferSize pending messages.
func NewAsyncLogger(dest io.Writer, bufferSize int) *AsyncLogger {
	a := &AsyncLogger{
		dest: dest,
		ch:   make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	defer a.wg.Done()
	for msg := range a.ch {
		a.dest.Write(msg)
	}
}

// Write implements io.Writer. p is copied before being handed to the
// background goroutine since the caller may reuse its buffer.
func (a *AsyncLogger) Write(p []byte) (int, error) {
	msg := make([]byte, len(p))
	copy(msg, p)

	select {
	case a.ch <- msg:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close drains remaining messages and stops the background goroutine. If
// the destination implements io.Closer, it is closed too.
func (a *AsyncLogger) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		a.wg.Wait()
		if c, ok := a.dest.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
