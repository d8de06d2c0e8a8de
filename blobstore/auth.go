// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"crypto/sha1" //nolint:gosec // required by the S3-compatible signing scheme
	"encoding/base64"
	"strings"
	"time"
)

const dateFormat = "Mon Jan 02 15:04:05 2006 GMT"

// sign sets Date and Authorization on headers for the given verb/resource.
// Signing is done fresh on every call (including retries) because Date
// must be current at dispatch time.
func (e *Endpoint) sign(verb, resource string, headers *orderedHeaders, now time.Time) {
	date := now.UTC().Format(dateFormat)
	headers.Set("Date", date)

	canonical := canonicalString(verb, resource, headers, date)
	sig := base64.StdEncoding.EncodeToString(hmacSHA1([]byte(e.Secret), []byte(canonical)))
	sig = strings.TrimRight(sig, "\n")
	headers.Set("Authorization", e.Key+":"+sig)
}

// canonicalString builds the string signed by HMAC-SHA1:
//
//  1. verb
//  2. Content-MD5 (or empty)
//  3. Content-Type (or empty)
//  4. Date
//  5. every x-amz*/x-icloud* header, in header-container order, unsorted
//     and undeduplicated — signatures depend on matching this exactly
//  6. resource, with the query suffix stripped for GET
func canonicalString(verb, resource string, headers *orderedHeaders, date string) string {
	var b strings.Builder
	b.WriteString(verb)
	b.WriteByte('\n')
	b.WriteString(headers.Get("Content-MD5"))
	b.WriteByte('\n')
	b.WriteString(headers.Get("Content-Type"))
	b.WriteByte('\n')
	b.WriteString(date)
	b.WriteByte('\n')

	headers.Each(func(name, value string) {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-amz") || strings.HasPrefix(lower, "x-icloud") {
			b.WriteString(name)
			b.WriteByte(':')
			b.WriteString(value)
			b.WriteByte('\n')
		}
	})

	if verb == "GET" {
		if i := strings.LastIndex(resource, "?"); i >= 0 {
			resource = resource[:i]
		}
	}
	b.WriteString(resource)
	return b.String()
}

const (
	hmacBlockSize = 64 // SHA-1 block size
)

// hmacSHA1 computes HMAC-SHA1 by hand with the ipad/opad construction over a
// 64-byte zero-padded key. This intentionally does NOT hash keys longer
// than the block size first (unlike crypto/hmac, which follows RFC 2104):
// secrets longer than 64 bytes are simply truncated to the block size. See
// DESIGN.md, Open Question (a).
func hmacSHA1(key, message []byte) []byte {
	if len(key) > hmacBlockSize {
		key = key[:hmacBlockSize]
	}
	padded := make([]byte, hmacBlockSize)
	copy(padded, key)

	ipad := make([]byte, hmacBlockSize)
	opad := make([]byte, hmacBlockSize)
	for i := 0; i < hmacBlockSize; i++ {
		ipad[i] = padded[i] ^ 0x36
		opad[i] = padded[i] ^ 0x5c
	}

	inner := sha1.New() //nolint:gosec
	inner.Write(ipad)
	inner.Write(message)
	innerSum := inner.Sum(nil)

	outer := sha1.New() //nolint:gosec
	outer.Write(opad)
	outer.Write(innerSum)
	return outer.Sum(nil)
}
