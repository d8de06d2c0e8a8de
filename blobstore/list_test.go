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
	"strconv"
	"testing"
)

func TestListBucketSinglePage(t *testing.T) {
	page := `{"results":[{"key":"a.txt","size":10},{"key":"b.txt","size":20}],"CommonPrefixes":[],"truncated":false,"marker":""}`
	fs := newFakeServer(
		"HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(page)) + "\r\n\r\n" + page,
	)
	defer fs.close()
	ep := testEndpointAgainst(fs, testKnobs())

	result, err := ep.ListBucket(context.Background(), "bucket", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(result.Objects))
	}
	if result.Objects[0].Name != "a.txt" || result.Objects[0].Size != 10 {
		t.Errorf("Objects[0] = %+v", result.Objects[0])
	}
	if result.Objects[1].Name != "b.txt" || result.Objects[1].Size != 20 {
		t.Errorf("Objects[1] = %+v", result.Objects[1])
	}
}

func TestListBucketFollowsTruncationMarker(t *testing.T) {
	page1 := `{"results":[{"key":"a.txt","size":1}],"CommonPrefixes":[],"truncated":true,"marker":"a.txt"}`
	page2 := `{"results":[{"key":"b.txt","size":2}],"CommonPrefixes":[],"truncated":false,"marker":""}`
	fs := newFakeServer(
		"HTTP/1.1 200 OK\r\nContent-Length: "+strconv.Itoa(len(page1))+"\r\n\r\n"+page1,
		"HTTP/1.1 200 OK\r\nContent-Length: "+strconv.Itoa(len(page2))+"\r\n\r\n"+page2,
	)
	defer fs.close()
	ep := testEndpointAgainst(fs, testKnobs())

	result, err := ep.ListBucket(context.Background(), "bucket", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Objects) != 2 {
		t.Fatalf("got %d objects across pages, want 2", len(result.Objects))
	}
	if result.Objects[0].Name != "a.txt" || result.Objects[1].Name != "b.txt" {
		t.Errorf("objects out of order: %+v", result.Objects)
	}
}
