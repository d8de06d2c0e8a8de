// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"testing"
	"time"
)

func TestCanonicalStringOrderAndGetStripsQuery(t *testing.T) {
	headers := newHeaders()
	headers.Set("X-Amz-Meta-Foo", "bar")
	headers.Set("Content-Type", "text/plain")
	headers.Set("X-Amz-Meta-Baz", "qux")
	headers.Set("Content-MD5", "abc123")

	got := canonicalString("GET", "/bucket/obj?max-keys=10", headers, "Mon Jan 02 15:04:05 2006 GMT")
	want := "GET\n" +
		"abc123\n" +
		"text/plain\n" +
		"Mon Jan 02 15:04:05 2006 GMT\n" +
		"X-Amz-Meta-Foo:bar\n" +
		"X-Amz-Meta-Baz:qux\n" +
		"/bucket/obj"
	if got != want {
		t.Errorf("canonicalString() =\n%q\nwant\n%q", got, want)
	}
}

func TestCanonicalStringNonGETKeepsQuery(t *testing.T) {
	headers := newHeaders()
	got := canonicalString("PUT", "/bucket/obj?partNumber=1", headers, "date")
	want := "PUT\n\n\ndate\n/bucket/obj?partNumber=1"
	if got != want {
		t.Errorf("canonicalString() = %q, want %q", got, want)
	}
}

func TestSignIsDeterministicForFixedTime(t *testing.T) {
	ep := newEndpoint("host", "", "AKEY", "ASECRET", defaultKnobs())
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	h1 := newHeaders()
	ep.sign("GET", "/b/o", h1, now)
	h2 := newHeaders()
	ep.sign("GET", "/b/o", h2, now)

	if h1.Get("Authorization") != h2.Get("Authorization") {
		t.Errorf("signing the same request at the same instant produced different signatures")
	}
	if h1.Get("Authorization") == "" {
		t.Error("Authorization header was not set")
	}
}

func TestHMACSHA1KnownVector(t *testing.T) {
	// RFC 2202 test case 1: key = 20 bytes of 0x0b, data = "Hi There".
	key := make([]byte, 20)
	for i := range key {
		key[i] = 0x0b
	}
	got := hmacSHA1(key, []byte("Hi There"))
	want := []byte{
		0xb6, 0x17, 0x31, 0x86, 0x55, 0x05, 0x72, 0x64,
		0xe2, 0x8b, 0xc0, 0xb6, 0xfb, 0x37, 0x8c, 0x8e,
		0xf1, 0x46, 0xbe, 0x00,
	}
	if len(got) != len(want) {
		t.Fatalf("hmacSHA1 returned %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("hmacSHA1 mismatch at byte %d: got %x, want %x", i, got, want)
		}
	}
}

func TestHMACSHA1TruncatesOversizedKeys(t *testing.T) {
	// A key longer than the 64-byte block size is truncated, not hashed
	// first as crypto/hmac would (see DESIGN.md Open Question (a)).
	long := make([]byte, 100)
	for i := range long {
		long[i] = byte(i)
	}
	truncated := long[:hmacBlockSize]

	got := hmacSHA1(long, []byte("msg"))
	want := hmacSHA1(truncated, []byte("msg"))
	if string(got) != string(want) {
		t.Error("hmacSHA1 did not truncate an oversized key to the block size")
	}
}
