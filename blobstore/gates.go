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

	"golang.org/x/sync/semaphore"
)

// acquireGate takes one unit of sem and returns a release func that must
// run on every exit path — success, retry, terminal failure, or
// cancellation.
func acquireGate(ctx context.Context, sem *semaphore.Weighted) (func(), error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return func() {}, wrapTimedOut(err)
	}
	released := false
	return func() {
		if !released {
			released = true
			sem.Release(1)
		}
	}, nil
}
