// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds, per the taxonomy: terminal parse/credential/framing failures
// the facade surfaces to callers, and the retryable kinds the engine itself
// recovers from internally (connectionFailed, timedOut, httpBadResponse).
var (
	ErrInvalidURL       = errors.New("invalid blobstore url")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimedOut         = errors.New("timed out")
	ErrHTTPBadResponse  = errors.New("bad http response")
	ErrHTTPNotAccepted  = errors.New("http request not accepted (406)")
	ErrHTTPRequestFailed = errors.New("http request failed")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileNotWritable  = errors.New("file not writable")
	ErrFileTooLarge     = errors.New("file too large for a single part")
	ErrChecksumFailed   = errors.New("checksum failed")
	ErrIOError          = errors.New("io error")
)

// kind classifies an error against the taxonomy above for retry decisions.
// Unknown errors are not a kind; they are out-of-taxonomy and propagate as-is.
type kind uint8

const (
	kindOther kind = iota
	kindConnectionFailed
	kindTimedOut
	kindHTTPBadResponse
)

// wrappedErr carries a kind alongside the wrapped cause so retry
// classification doesn't need string matching.
type wrappedErr struct {
	k     kind
	cause error
}

func (e *wrappedErr) Error() string { return e.cause.Error() }
func (e *wrappedErr) Unwrap() error { return e.cause }

// Is lets errors.Is match the taxonomy sentinel for e's kind.
func (e *wrappedErr) Is(target error) bool {
	switch e.k {
	case kindConnectionFailed:
		return target == ErrConnectionFailed
	case kindTimedOut:
		return target == ErrTimedOut
	case kindHTTPBadResponse:
		return target == ErrHTTPBadResponse
	default:
		return false
	}
}

func wrapConnectionFailed(cause error) error {
	return &wrappedErr{k: kindConnectionFailed, cause: errors.Wrap(cause, ErrConnectionFailed.Error())}
}

func wrapTimedOut(cause error) error {
	return &wrappedErr{k: kindTimedOut, cause: errors.Wrap(cause, ErrTimedOut.Error())}
}

func wrapHTTPBadResponse(cause error) error {
	return &wrappedErr{k: kindHTTPBadResponse, cause: errors.Wrap(cause, ErrHTTPBadResponse.Error())}
}

// retryable reports whether err is one of the engine-recoverable kinds.
func retryable(err error) bool {
	we, ok := err.(*wrappedErr)
	if !ok {
		return false
	}
	switch we.k {
	case kindConnectionFailed, kindTimedOut, kindHTTPBadResponse:
		return true
	default:
		return false
	}
}

// httpError reports a final, non-retryable facade-level failure carrying the
// response status code that produced it.
type httpError struct {
	code int
	verb string
	res  string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.verb, e.res, e.code)
}

func newTerminalError(code int, verb, resource string) error {
	he := &httpError{code: code, verb: verb, res: resource}
	if code == 406 {
		return errors.Wrap(ErrHTTPNotAccepted, he.Error())
	}
	return errors.Wrap(ErrHTTPRequestFailed, he.Error())
}
