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
	"time"

	"github.com/golang/glog"
	"github.com/teris-io/shortid"
)

type traceKind uint8

const (
	traceReuse traceKind = iota
	traceNewConn
	traceFailure
)

func (k traceKind) String() string {
	switch k {
	case traceReuse:
		return "reuse"
	case traceNewConn:
		return "new-conn"
	case traceFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// traceGate rate-limits trace events to at most one per 5 seconds per call
// site, keyed by an explicit site name rather than globally so a busy
// call site can't starve a quiet one's warnings.
type traceGate struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var gate = &traceGate{last: make(map[string]time.Time)}

const traceSuppressWindow = 5 * time.Second

func (g *traceGate) allow(site string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.last[site]; ok && now.Sub(last) < traceSuppressWindow {
		return false
	}
	g.last[site] = now
	return true
}

// trace emits a connection-lifecycle event (reuse/new-conn/failure); these
// are not rate-limited the way attempt-failure events are. reuse/new-conn
// are logged at V(4) since they're naturally frequent; a discarded
// connection is rarer and more worth a look, so it logs at V(2).
func trace(kind traceKind, msg, host string) {
	level := glog.Level(4)
	if kind == traceFailure {
		level = 2
	}
	if !glog.V(level) {
		return
	}
	glog.Infof("[blobstore][%s] %s host=%s", kind, msg, host)
}

// traceABC is a custom base-64-ish alphabet avoiding characters that need
// escaping in a log line or URL.
const traceABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

// sidGenerator produces short correlation ids for failed-attempt trace
// events.
var sidGenerator = shortid.MustNew(1, traceABC, 1)

// traceAttemptFailure emits one structured trace event for a failed
// attempt, severity warn if retryable else error, rate-limited to one per
// 5s per callSite.
func traceAttemptFailure(callSite, remoteAddr, verb, resource string, attempt int, delay time.Duration, err error, code int, retryAfter string) {
	now := time.Now()
	if !gate.allow(callSite, now) {
		return
	}
	cid, _ := sidGenerator.Generate()
	if err != nil {
		glog.Warningf("[blobstore][%s] addr=%s verb=%s resource=%s attempt=%d delay=%s err=%v",
			cid, remoteAddr, verb, resource, attempt, delay, err)
		return
	}
	sev := glog.Warningf
	if !isRetryableCode(code) {
		sev = glog.Errorf
	}
	sev("[blobstore][%s] addr=%s verb=%s resource=%s attempt=%d delay=%s code=%d retry-after=%q",
		cid, remoteAddr, verb, resource, attempt, delay, code, retryAfter)
}

func isRetryableCode(code int) bool {
	return code == 500 || code == 502 || code == 503
}
