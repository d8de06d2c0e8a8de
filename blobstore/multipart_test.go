// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import "testing"

func TestMultipartSessionResources(t *testing.T) {
	s := multipartSession{bucket: "b", object: "o", uploadID: "UP123"}
	if got := s.beginResource(); got != "/b/o?uploads" {
		t.Errorf("beginResource() = %q", got)
	}
	if got := s.partResource(3); got != "/b/o?partNumber=3&uploadId=UP123" {
		t.Errorf("partResource() = %q", got)
	}
	if got := s.finishResource(); got != "/b/o?uploadId=UP123" {
		t.Errorf("finishResource() = %q", got)
	}
}

func TestExtractTag(t *testing.T) {
	body := `<InitiateMultipartUploadResult><Bucket>b</Bucket><Key>o</Key><UploadId>ABC-123</UploadId></InitiateMultipartUploadResult>`
	got, ok := extractTag(body, "UploadId")
	if !ok || got != "ABC-123" {
		t.Errorf("extractTag() = (%q, %v), want (ABC-123, true)", got, ok)
	}
}

func TestExtractTagMissing(t *testing.T) {
	if _, ok := extractTag("<Foo>bar</Foo>", "UploadId"); ok {
		t.Error("extractTag() found a tag that isn't present")
	}
}

func TestBuildCompleteMultipartBodyPreservesOrder(t *testing.T) {
	parts := []PartUpload{
		{PartNumber: 2, ETag: "etag2"},
		{PartNumber: 1, ETag: "etag1"},
	}
	got := string(buildCompleteMultipartBody(parts))
	want := "<CompleteMultipartUpload>" +
		"<Part><PartNumber>2</PartNumber><ETag>etag2</ETag></Part>" +
		"<Part><PartNumber>1</PartNumber><ETag>etag1</ETag></Part>" +
		"</CompleteMultipartUpload>"
	if got != want {
		t.Errorf("buildCompleteMultipartBody() =\n%q\nwant\n%q", got, want)
	}
}
