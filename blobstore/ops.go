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
	"runtime"

	"github.com/pkg/errors"
)

func objectResource(bucket, object string) string { return "/" + bucket + "/" + object }
func bucketResource(bucket string) string         { return "/" + bucket }

// ObjectExists issues HEAD /B/O; true iff the response is 200.
func (e *Endpoint) ObjectExists(ctx context.Context, bucket, object string) (bool, error) {
	resp, err := e.doRequest(ctx, &Request{
		Verb:         "HEAD",
		Resource:     objectResource(bucket, object),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200, 404),
	})
	if err != nil {
		return false, err
	}
	return resp.Code == 200, nil
}

// ObjectSize issues HEAD /B/O and returns the declared content length.
func (e *Endpoint) ObjectSize(ctx context.Context, bucket, object string) (int64, error) {
	resp, err := e.doRequest(ctx, &Request{
		Verb:         "HEAD",
		Resource:     objectResource(bucket, object),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200),
	})
	if err != nil {
		return 0, err
	}
	return resp.ContentLen, nil
}

// DeleteObject issues DELETE /B/O; idempotent, 404 counts as success.
func (e *Endpoint) DeleteObject(ctx context.Context, bucket, object string) error {
	_, err := e.doRequest(ctx, &Request{
		Verb:         "DELETE",
		Resource:     objectResource(bucket, object),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200, 404),
	})
	return err
}

// CreateBucket issues PUT /B; idempotent, 409 (already exists) counts as
// success.
func (e *Endpoint) CreateBucket(ctx context.Context, bucket string) error {
	_, err := e.doRequest(ctx, &Request{
		Verb:         "PUT",
		Resource:     bucketResource(bucket),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200, 409),
	})
	return err
}

// DeleteBucket issues DELETE /B; idempotent, 404 counts as success.
func (e *Endpoint) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := e.doRequest(ctx, &Request{
		Verb:         "DELETE",
		Resource:     bucketResource(bucket),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200, 404),
	})
	return err
}

// ReadEntireFile issues GET /B/O and returns the full object body; 404 is
// mapped to ErrFileNotFound.
func (e *Endpoint) ReadEntireFile(ctx context.Context, bucket, object string) ([]byte, error) {
	resp, err := e.doRequest(ctx, &Request{
		Verb:         "GET",
		Resource:     objectResource(bucket, object),
		Headers:      newHeaders(),
		SuccessCodes: successSet(200, 404),
	})
	if err != nil {
		return nil, err
	}
	if resp.Code == 404 {
		return nil, errors.Wrapf(ErrFileNotFound, "%s/%s", bucket, object)
	}
	return resp.Content, nil
}

// ReadObject reads up to length bytes starting at offset into dst, returning
// the number of bytes copied. length <= 0 is a no-op returning 0. 404 is
// mapped to ErrFileNotFound; a declared/actual content-length mismatch is
// mapped to ErrIOError.
func (e *Endpoint) ReadObject(ctx context.Context, bucket, object string, offset, length int64, dst []byte) (int, error) {
	if length <= 0 {
		return 0, nil
	}
	headers := newHeaders()
	headers.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := e.doRequest(ctx, &Request{
		Verb:         "GET",
		Resource:     objectResource(bucket, object),
		Headers:      headers,
		SuccessCodes: successSet(200, 206, 404),
	})
	if err != nil {
		return 0, err
	}
	if resp.Code == 404 {
		return 0, errors.Wrapf(ErrFileNotFound, "%s/%s", bucket, object)
	}
	if resp.ContentLen != int64(len(resp.Content)) {
		return 0, errors.Wrapf(ErrIOError, "%s/%s: declared length %d, got %d bytes", bucket, object, resp.ContentLen, len(resp.Content))
	}

	content := resp.Content
	if int64(len(content)) > length {
		content = content[:length]
	}
	return copy(dst, content), nil
}

// WriteEntireFileFromBuffer issues PUT /B/O with a Content-MD5 digest
// computed by the caller, verifying the server's echoed Content-MD5 matches.
func (e *Endpoint) WriteEntireFileFromBuffer(ctx context.Context, bucket, object string, content []byte, contentMD5 string) error {
	if len(content) == 0 {
		return errors.Wrapf(ErrFileNotWritable, "%s/%s: zero-length write", bucket, object)
	}
	if int64(len(content)) > int64(e.Knobs.MultipartMaxPartSize) {
		return errors.Wrapf(ErrFileTooLarge, "%s/%s: %d bytes exceeds multipart_max_part_size", bucket, object, len(content))
	}

	release, err := acquireGate(ctx, e.concurrentUploads)
	if err != nil {
		return err
	}
	defer release()

	headers := newHeaders()
	headers.Set("Content-MD5", contentMD5)

	resp, err := e.doRequest(ctx, &Request{
		Verb:         "PUT",
		Resource:     objectResource(bucket, object),
		Headers:      headers,
		Body:         newBodyQueue(content),
		BodyLen:      int64(len(content)),
		SuccessCodes: successSet(200),
	})
	if err != nil {
		return err
	}
	if got := resp.Headers.Get("Content-MD5"); got != "" && got != contentMD5 {
		return errors.Wrapf(ErrChecksumFailed, "%s/%s: sent %s, server echoed %s", bucket, object, contentMD5, got)
	}
	return nil
}

// WriteEntireFile computes the MD5 digest of content and calls
// WriteEntireFileFromBuffer. Hashing megabytes can take a while, so it
// yields to the scheduler first rather than starving other goroutines.
func (e *Endpoint) WriteEntireFile(ctx context.Context, bucket, object string, content []byte) error {
	runtime.Gosched()
	digest := md5Base64(content)
	return e.WriteEntireFileFromBuffer(ctx, bucket, object, content, digest)
}
