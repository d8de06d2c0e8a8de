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
	"testing"
	"time"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestBlobstoreEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "blobstore engine suite")
}

func testKnobs() Knobs {
	k := defaultKnobs()
	k.ConnectTimeout = 2
	k.RequestTimeout = 2
	k.MaxConnectionLife = 60
	k.ConcurrentRequests = 8
	k.ConcurrentUploads = 8
	k.RequestsPerSecond = 1000
	return k
}

func testEndpointAgainst(fs *fakeServer, knobs Knobs) *Endpoint {
	host, port := fs.hostPort()
	return newEndpoint(host, port, "KEY", "SECRET", knobs)
}

var _ = Describe("request execution engine", func() {
	var fs *fakeServer

	AfterEach(func() {
		if fs != nil {
			fs.close()
		}
	})

	It("treats HEAD 404 as a successful objectExists(false) (scenario 3)", func() {
		fs = newFakeServer("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n")
		ep := testEndpointAgainst(fs, testKnobs())

		before := GlobalStats().GetJSON()
		exists, err := ep.ObjectExists(context.Background(), "b", "o")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())

		after := GlobalStats().GetJSON()
		diff := after.Sub(before)
		Expect(diff.RequestsSuccessful).To(Equal(int64(1)))
		Expect(diff.RequestsFailed).To(Equal(int64(0)))
	})

	It("retries 503s and succeeds on the third try (scenario 5)", func() {
		fs = newFakeServer(
			"HTTP/1.1 503 Service Unavailable\r\nContent-Length: 0\r\n\r\n",
			"HTTP/1.1 503 Service Unavailable\r\nContent-Length: 0\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-MD5: {Content-MD5}\r\nContent-Length: 0\r\n\r\n",
		)
		knobs := testKnobs()
		knobs.RequestTries = 3
		knobs.ConnectTries = 3
		ep := testEndpointAgainst(fs, knobs)

		before := GlobalStats().GetJSON()
		start := time.Now()
		err := ep.WriteEntireFile(context.Background(), "b", "o", []byte("hello"))
		elapsed := time.Since(start)
		Expect(err).NotTo(HaveOccurred())

		after := GlobalStats().GetJSON()
		diff := after.Sub(before)
		Expect(diff.RequestsFailed).To(Equal(int64(2)))
		Expect(diff.RequestsSuccessful).To(Equal(int64(1)))
		// backoff: ~2s then ~4s before the third (successful) try.
		Expect(elapsed).To(BeNumerically(">=", 6*time.Second))
	})

	It("maps a 406 after exhausted retries to ErrHTTPNotAccepted", func() {
		fs = newFakeServer(
			"HTTP/1.1 406 Not Acceptable\r\nContent-Length: 0\r\n\r\n",
		)
		knobs := testKnobs()
		knobs.RequestTries = 1
		knobs.ConnectTries = 1
		ep := testEndpointAgainst(fs, knobs)

		_, err := ep.ObjectSize(context.Background(), "b", "o")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, ErrHTTPNotAccepted)).To(BeTrue())
	})

	It("obeys Retry-After on a 503", func() {
		fs = newFakeServer(
			"HTTP/1.1 503 Service Unavailable\r\nRetry-After: 1\r\nContent-Length: 0\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n",
		)
		knobs := testKnobs()
		knobs.RequestTries = 2
		knobs.ConnectTries = 2
		ep := testEndpointAgainst(fs, knobs)

		start := time.Now()
		_, err := ep.ObjectSize(context.Background(), "b", "o")
		elapsed := time.Since(start)
		Expect(err).NotTo(HaveOccurred())
		Expect(elapsed).To(BeNumerically(">=", 1*time.Second))
	})

	It("reads a short range delivered in full (scenario 4)", func() {
		body := make([]byte, 80)
		for i := range body {
			body[i] = 'x'
		}
		fs = newFakeServer("HTTP/1.1 206 Partial Content\r\nContent-Length: 80\r\n\r\n" + string(body))
		ep := testEndpointAgainst(fs, testKnobs())

		dst := make([]byte, 100)
		n, err := ep.ReadObject(context.Background(), "b", "o", 0, 100, dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(80))
	})
})
