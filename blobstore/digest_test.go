// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import "testing"

func TestMD5Base64KnownVector(t *testing.T) {
	// md5("") == d41d8cd98f00b204e9800998ecf8427e
	got := md5Base64(nil)
	want := "1B2M2Y8AsgTpgAmY7PhCfg=="
	if got != want {
		t.Errorf("md5Base64(nil) = %q, want %q", got, want)
	}
}

func TestMD5Base64IsDeterministic(t *testing.T) {
	content := []byte("the quick brown fox")
	if md5Base64(content) != md5Base64(content) {
		t.Error("md5Base64 is not deterministic for identical input")
	}
	if md5Base64(content) == md5Base64([]byte("different content")) {
		t.Error("md5Base64 collided on distinct inputs")
	}
}
