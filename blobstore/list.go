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
	"net/url"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ObjectSummary is one entry of a bucket listing page.
type ObjectSummary struct {
	Name string
	Size int64
}

// ListResult is one page (or, from listBucket, the full concatenation) of a
// bucket listing.
type ListResult struct {
	Objects        []ObjectSummary
	CommonPrefixes []string
}

// listPage is the wire shape of one listing response: JSON with S3-style
// keys. Real S3 returns XML for this; the JSON shape is preserved here
// deliberately, matching the consuming system's actual contract.
type listPage struct {
	Results []struct {
		Key  string `json:"key"`
		Size int64  `json:"size"`
	} `json:"results"`
	CommonPrefixes []struct {
		Prefix string `json:"Prefix"`
	} `json:"CommonPrefixes"`
	Truncated bool   `json:"truncated"`
	Marker    string `json:"marker"`
}

// listBucketStream pages through a bucket listing, delivering each page to
// consume in server order. Any parse failure raises
// HTTPBadResponse and ends the stream.
func (e *Endpoint) ListBucketStream(ctx context.Context, bucket, prefix, delimiter string, consume func(ListResult) error) error {
	base := "/" + bucket + "/"
	marker := ""
	for {
		resource := base + "?max-keys=1000&marker=" + url.QueryEscape(marker)
		if prefix != "" {
			resource += "&prefix=" + url.QueryEscape(prefix)
		}
		if delimiter != "" {
			resource += "&delimiter=" + url.QueryEscape(delimiter)
		}

		req := &Request{
			Verb:         "GET",
			Resource:     resource,
			Headers:      newHeaders(),
			SuccessCodes: successSet(200),
		}
		resp, err := e.doRequest(ctx, req)
		if err != nil {
			return err
		}

		var page listPage
		if jsonErr := json.Unmarshal(resp.Content, &page); jsonErr != nil {
			return wrapHTTPBadResponse(jsonErr)
		}

		result := ListResult{
			Objects:        make([]ObjectSummary, 0, len(page.Results)),
			CommonPrefixes: make([]string, 0, len(page.CommonPrefixes)),
		}
		for _, o := range page.Results {
			result.Objects = append(result.Objects, ObjectSummary{Name: o.Key, Size: o.Size})
		}
		for _, p := range page.CommonPrefixes {
			result.CommonPrefixes = append(result.CommonPrefixes, p.Prefix)
		}
		if err := consume(result); err != nil {
			return err
		}

		if !page.Truncated {
			return nil
		}
		marker = page.Marker
	}
}

// listBucket drains listBucketStream and concatenates all pages in arrival
// order, a convenience over the streaming form.
func (e *Endpoint) ListBucket(ctx context.Context, bucket, prefix, delimiter string) (ListResult, error) {
	var all ListResult
	err := e.ListBucketStream(ctx, bucket, prefix, delimiter, func(page ListResult) error {
		all.Objects = append(all.Objects, page.Objects...)
		all.CommonPrefixes = append(all.CommonPrefixes, page.CommonPrefixes...)
		return nil
	})
	return all, err
}
