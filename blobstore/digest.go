// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"crypto/md5" //nolint:gosec // content digest, not a security boundary
	"encoding/base64"
	"strings"
)

// md5Base64 computes MD5 over content and base64-encodes it, stripping the
// trailing newline base64.StdEncoding never actually emits but that callers
// historically stripped defensively.
func md5Base64(content []byte) string {
	sum := md5.Sum(content) //nolint:gosec
	return strings.TrimRight(base64.StdEncoding.EncodeToString(sum[:]), "\n")
}
