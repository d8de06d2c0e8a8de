// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import "strings"

// orderedHeaders is an insertion-ordered header container. A plain Go map
// would shuffle x-amz*/x-icloud* signing lines on every iteration, but
// canonicalString must walk headers in container order without sorting or
// deduplicating, so the container itself has to preserve order.
type orderedHeaders struct {
	names  []string
	values []string
}

func newHeaders() *orderedHeaders { return &orderedHeaders{} }

// Set adds name=value, appended at the end if name is new, or updated in
// place (keeping its original position) if name was already present.
func (h *orderedHeaders) Set(name, value string) {
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			h.values[i] = value
			return
		}
	}
	h.names = append(h.names, name)
	h.values = append(h.values, value)
}

func (h *orderedHeaders) Get(name string) string {
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			return h.values[i]
		}
	}
	return ""
}

// Each walks name/value pairs in container order, the order signing and
// dispatch both rely on.
func (h *orderedHeaders) Each(f func(name, value string)) {
	for i, n := range h.names {
		f(n, h.values[i])
	}
}

func (h *orderedHeaders) clone() *orderedHeaders {
	c := &orderedHeaders{
		names:  make([]string, len(h.names)),
		values: make([]string, len(h.values)),
	}
	copy(c.names, h.names)
	copy(c.values, h.values)
	return c
}
