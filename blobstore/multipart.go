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
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PartUpload is one completed part of a multipart upload, in the order the
// caller wants it stitched into the final object.
type PartUpload struct {
	PartNumber int
	ETag       string
}

// multipartSession builds the three resource strings a multipart upload
// needs from one place, so the signed resource can never diverge from the
// dispatched one.
type multipartSession struct {
	bucket, object, uploadID string
}

func (s multipartSession) beginResource() string {
	return objectResource(s.bucket, s.object) + "?uploads"
}

func (s multipartSession) partResource(partNumber int) string {
	return objectResource(s.bucket, s.object) + "?partNumber=" + strconv.Itoa(partNumber) + "&uploadId=" + url.QueryEscape(s.uploadID)
}

func (s multipartSession) finishResource() string {
	return objectResource(s.bucket, s.object) + "?uploadId=" + url.QueryEscape(s.uploadID)
}

// BeginMultiPartUpload issues POST /B/O?uploads and extracts the literal
// <UploadId>...</UploadId> tag from the response body.
func (e *Endpoint) BeginMultiPartUpload(ctx context.Context, bucket, object string) (string, error) {
	s := multipartSession{bucket: bucket, object: object}
	resp, err := e.doRequest(ctx, &Request{
		Verb:         "POST",
		Resource:     s.beginResource(),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200),
	})
	if err != nil {
		return "", err
	}
	uploadID, ok := extractTag(string(resp.Content), "UploadId")
	if !ok {
		return "", errors.Wrapf(ErrHTTPBadResponse, "%s/%s: missing <UploadId> in begin-multipart response", bucket, object)
	}
	return uploadID, nil
}

// UploadPart issues PUT /B/O?partNumber=N&uploadId=U with a Content-MD5
// digest, verifies it against the server's echoed value, and returns the
// part's ETag.
func (e *Endpoint) UploadPart(ctx context.Context, bucket, object, uploadID string, partNumber int, content []byte, contentMD5 string) (string, error) {
	release, err := acquireGate(ctx, e.concurrentUploads)
	if err != nil {
		return "", err
	}
	defer release()

	s := multipartSession{bucket: bucket, object: object, uploadID: uploadID}
	headers := newHeaders()
	headers.Set("Content-MD5", contentMD5)

	resp, err := e.doRequest(ctx, &Request{
		Verb:         "PUT",
		Resource:     s.partResource(partNumber),
		Headers:      headers,
		Body:         newBodyQueue(content),
		BodyLen:      int64(len(content)),
		SuccessCodes: successSet(200),
	})
	if err != nil {
		return "", err
	}
	if got := resp.Headers.Get("Content-MD5"); got != "" && got != contentMD5 {
		return "", errors.Wrapf(ErrChecksumFailed, "%s/%s part %d: sent %s, server echoed %s", bucket, object, partNumber, contentMD5, got)
	}
	etag := resp.Headers.Get("ETag")
	if etag == "" {
		return "", errors.Wrapf(ErrHTTPBadResponse, "%s/%s part %d: empty ETag", bucket, object, partNumber)
	}
	return etag, nil
}

// FinishMultiPartUpload issues POST /B/O?uploadId=U with an XML body
// listing parts in the caller-supplied order.
func (e *Endpoint) FinishMultiPartUpload(ctx context.Context, bucket, object, uploadID string, parts []PartUpload) error {
	s := multipartSession{bucket: bucket, object: object, uploadID: uploadID}
	body := buildCompleteMultipartBody(parts)
	_, err := e.doRequest(ctx, &Request{
		Verb:         "POST",
		Resource:     s.finishResource(),
		Headers:      newHeaders(),
		Body:         newBodyQueue(body),
		BodyLen:      int64(len(body)),
		SuccessCodes: successSet(200),
	})
	return err
}

func buildCompleteMultipartBody(parts []PartUpload) []byte {
	var b strings.Builder
	b.WriteString("<CompleteMultipartUpload>")
	for _, p := range parts {
		fmt.Fprintf(&b, "<Part><PartNumber>%d</PartNumber><ETag>%s</ETag></Part>", p.PartNumber, p.ETag)
	}
	b.WriteString("</CompleteMultipartUpload>")
	return []byte(b.String())
}

// extractTag returns the text between the first <tag>...</tag> pair in s.
func extractTag(s, tag string) (string, bool) {
	open := "<" + tag + ">"
	closeT := "</" + tag + ">"
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	i += len(open)
	j := strings.Index(s[i:], closeT)
	if j < 0 {
		return "", false
	}
	return s[i : i+j], true
}
