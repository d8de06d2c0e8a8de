// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aistore/blobstore/internal/debug"
)

// reusableConn pairs a raw connection with its absolute expiry. A pooled
// connection is presumed healthy iff expiresAt is in the future; it is
// removed from the pool strictly before use and either returned or
// discarded after.
type reusableConn struct {
	conn      *rawConn
	expiresAt time.Time
}

// acquire pops from the back of the pool (LIFO); expired entries are
// discarded and the search continues. An empty pool dials a new connection.
func (e *Endpoint) acquire(ctx context.Context) (reusableConn, error) {
	now := time.Now()
	e.mu.Lock()
	for len(e.pool) > 0 {
		last := len(e.pool) - 1
		rc := e.pool[last]
		e.pool = e.pool[:last]
		if rc.expiresAt.After(now) {
			e.mu.Unlock()
			trace(traceReuse, "reused pooled connection", e.Host)
			return rc, nil
		}
		// expired: drop and keep looking
		_ = rc.conn.close()
		atomic.AddInt64(&e.openConns, -1)
	}
	e.mu.Unlock()

	timeout := time.Duration(e.Knobs.ConnectTimeout) * time.Second
	conn, err := dial(ctx, e.Host, e.serviceOrDefault(), timeout)
	if err != nil {
		return reusableConn{}, err
	}
	atomic.AddInt64(&e.openConns, 1)
	trace(traceNewConn, "opened new connection", e.Host)
	life := time.Duration(e.Knobs.MaxConnectionLife) * time.Second
	return reusableConn{conn: conn, expiresAt: time.Now().Add(life)}, nil
}

// release pushes rc onto the back of the pool if it still has life left in
// it, so the most recently used (and thus longest-lived) connection is the
// next one handed out; otherwise it is discarded.
func (e *Endpoint) release(rc reusableConn) {
	debug.Assert(rc.conn != nil, "release of a zero-value reusableConn")
	if !rc.expiresAt.After(time.Now()) {
		_ = rc.conn.close()
		atomic.AddInt64(&e.openConns, -1)
		return
	}
	e.mu.Lock()
	e.pool = append(e.pool, rc)
	e.mu.Unlock()
}

// discard drops rc without returning it to the pool, used on
// Connection: close, cancellation, and mid-attempt failures.
func (e *Endpoint) discard(rc reusableConn) {
	_ = rc.conn.close()
	atomic.AddInt64(&e.openConns, -1)
	trace(traceFailure, "discarded connection", e.Host)
}
