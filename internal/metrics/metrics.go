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

// Package metrics is the kernel's opt-in counter surface: cache hits and
// misses, evictions, page faults, and swap traffic. Nothing in the spec
// requires it — it exists the way the teacher's common.MetricHandle exists,
// as an ambient concern every subsystem can reach for without forcing one on
// tests that never configure a listener.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Handle is the counter surface every subsystem takes. A nil-safe no-op
// implementation (Noop) is the default; Register returns a Prometheus-backed
// one when cfg.Config.Metrics.Addr is non-empty.
type Handle interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
	PageFault()
	PageFaultError()
	SwapOut()
	SwapIn()
}

// Noop satisfies Handle by discarding every observation, the way the
// teacher's common.NewNoopMetrics stands in when no metrics backend is
// configured.
type Noop struct{}

func (Noop) CacheHit()       {}
func (Noop) CacheMiss()      {}
func (Noop) CacheEviction()  {}
func (Noop) PageFault()      {}
func (Noop) PageFaultError() {}
func (Noop) SwapOut()        {}
func (Noop) SwapIn()         {}

// prom is the Prometheus-backed Handle, registered into its own registry so
// repeated Register calls in tests never collide with the global default
// registry.
type prom struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	pageFaults     prometheus.Counter
	pageFaultErrs  prometheus.Counter
	swapOuts       prometheus.Counter
	swapIns        prometheus.Counter
}

// Register builds a Prometheus-backed Handle and the registry it was
// registered into, so the caller can serve /metrics off it.
func Register() (Handle, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	p := &prom{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "buffercache", Name: "hits_total",
			Help: "Buffer cache reads/writes served without a block device access.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "buffercache", Name: "misses_total",
			Help: "Buffer cache reads/writes that loaded a sector from the block device.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "buffercache", Name: "evictions_total",
			Help: "Clock-replacement evictions of a cache slot.",
		}),
		pageFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "vm", Name: "page_faults_total",
			Help: "Page faults resolved by the supplemental page table.",
		}),
		pageFaultErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "vm", Name: "page_fault_errors_total",
			Help: "Page faults that could not be resolved and killed the faulting process.",
		}),
		swapOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "vm", Name: "swap_outs_total",
			Help: "Frames evicted to swap.",
		}),
		swapIns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kerneld", Subsystem: "vm", Name: "swap_ins_total",
			Help: "Pages loaded back in from swap.",
		}),
	}
	reg.MustRegister(
		p.cacheHits, p.cacheMisses, p.cacheEvictions,
		p.pageFaults, p.pageFaultErrs, p.swapOuts, p.swapIns,
	)
	return p, reg
}

func (p *prom) CacheHit()       { p.cacheHits.Inc() }
func (p *prom) CacheMiss()      { p.cacheMisses.Inc() }
func (p *prom) CacheEviction()  { p.cacheEvictions.Inc() }
func (p *prom) PageFault()      { p.pageFaults.Inc() }
func (p *prom) PageFaultError() { p.pageFaultErrs.Inc() }
func (p *prom) SwapOut()        { p.swapOuts.Inc() }
func (p *prom) SwapIn()         { p.swapIns.Inc() }
