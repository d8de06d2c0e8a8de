// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is the process-wide counter set. It is a singleton
// initialized at package init and never torn down; readers take a snapshot
// with GetJSON and diff two snapshots with Sub.
type Stats struct {
	requestsFailed     int64
	requestsSuccessful int64
	bytesSent          int64
}

// StatsSnapshot is the JSON-shaped view returned by Stats.GetJSON.
type StatsSnapshot struct {
	RequestsFailed     int64 `json:"requests_failed"`
	RequestsSuccessful int64 `json:"requests_successful"`
	BytesSent          int64 `json:"bytes_sent"`
}

// Sub computes the structural diff a - b, for reporting over an interval
// between two snapshots.
func (a StatsSnapshot) Sub(b StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		RequestsFailed:     a.RequestsFailed - b.RequestsFailed,
		RequestsSuccessful: a.RequestsSuccessful - b.RequestsSuccessful,
		BytesSent:          a.BytesSent - b.BytesSent,
	}
}

func (s *Stats) incFailed()              { atomic.AddInt64(&s.requestsFailed, 1); promRequestsFailed.Inc() }
func (s *Stats) incSuccessful()          { atomic.AddInt64(&s.requestsSuccessful, 1); promRequestsSuccessful.Inc() }
func (s *Stats) addBytesSent(n int64) {
	if n > 0 {
		atomic.AddInt64(&s.bytesSent, n)
		promBytesSent.Add(float64(n))
	}
}

// GetJSON returns a point-in-time snapshot of the counters.
func (s *Stats) GetJSON() StatsSnapshot {
	return StatsSnapshot{
		RequestsFailed:     atomic.LoadInt64(&s.requestsFailed),
		RequestsSuccessful: atomic.LoadInt64(&s.requestsSuccessful),
		BytesSent:          atomic.LoadInt64(&s.bytesSent),
	}
}

// globalStats is the one Stats instance shared by every Endpoint in the
// process.
var globalStats = &Stats{}

// GlobalStats returns the process-wide Stats singleton.
func GlobalStats() *Stats { return globalStats }

// Prometheus counters mirror the same three fields for scraping, alongside
// the JSON snapshot above — additive observability, not a replacement for
// GetJSON/Sub.
var (
	promRequestsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobstore",
		Name:      "requests_failed_total",
		Help:      "Count of blob-store HTTP attempts that did not land on a success code.",
	})
	promRequestsSuccessful = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobstore",
		Name:      "requests_successful_total",
		Help:      "Count of blob-store HTTP attempts that landed on a success code.",
	})
	promBytesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobstore",
		Name:      "bytes_sent_total",
		Help:      "Bytes written to blob-store connections across all requests.",
	})
)

func init() {
	prometheus.MustRegister(promRequestsFailed, promRequestsSuccessful, promBytesSent)
}
