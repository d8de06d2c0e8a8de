// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Endpoint is a configured, credentialed handle to one blob-store service.
// It is not a single connection: it owns a connection pool, the two
// concurrency gates, and the three rate shapers, and is shared by every
// outstanding operation issued against it. Equality is by identity, not by
// URL — two Endpoints parsed from the same URL are distinct endpoints.
type Endpoint struct {
	Host    string
	Service string // port number or scheme name; empty means "http"
	Key     string
	Secret  string
	Knobs   Knobs

	mu   sync.Mutex
	pool []reusableConn

	concurrentRequests *semaphore.Weighted
	concurrentUploads  *semaphore.Weighted

	requestRate *rate.Limiter
	sendRate    *rate.Limiter
	recvRate    *rate.Limiter

	openConns int64 // observability only; not consulted by any decision

	stats *Stats
}

// newEndpoint builds an Endpoint from parsed fields, wiring the gates and
// rate shapers from knobs. A zero knob for requests_per_second/byte-rates
// means "unlimited" and is modeled as rate.Inf.
func newEndpoint(host, service, key, secret string, knobs Knobs) *Endpoint {
	e := &Endpoint{
		Host:    host,
		Service: service,
		Key:     key,
		Secret:  secret,
		Knobs:   knobs,
		stats:   globalStats,
	}
	e.concurrentRequests = semaphore.NewWeighted(int64(knobs.ConcurrentRequests))
	e.concurrentUploads = semaphore.NewWeighted(int64(knobs.ConcurrentUploads))
	e.requestRate = newTokenBucket(knobs.RequestsPerSecond)
	e.sendRate = newTokenBucket(knobs.MaxSendBytesPerSecond)
	e.recvRate = newTokenBucket(knobs.MaxRecvBytesPerSecond)
	return e
}

func newTokenBucket(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}

// serviceOrDefault returns the connector's target port/service name, "http"
// when the URL carried none.
func (e *Endpoint) serviceOrDefault() string {
	if e.Service == "" {
		return "http"
	}
	return e.Service
}

// PoolSize reports the number of idle pooled connections. Additive
// observability beyond the Stats counters.
func (e *Endpoint) PoolSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pool)
}
