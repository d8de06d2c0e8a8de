// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// rawConn is the TCP connector + low-level HTTP codec layer: request-line
// and header serialization and chunked-response parsing are fasthttp's job;
// everything above this file — pooling, retry, signing — is the engine's
// own.
type rawConn struct {
	nc net.Conn
	br *bufio.Reader
	bw *bufio.Writer
}

func (c *rawConn) close() error { return c.nc.Close() }

// dial opens a TCP connection to host:service, honoring timeout and ctx
// cancellation. service is a port number or a resolvable service name;
// net.Dial accepts both forms directly.
func dial(ctx context.Context, host, service string, timeout time.Duration) (*rawConn, error) {
	d := &net.Dialer{Timeout: timeout}
	type result struct {
		nc  net.Conn
		err error
	}
	ch := make(chan result, 1)
	go func() {
		nc, err := d.Dial("tcp", net.JoinHostPort(host, service))
		ch <- result{nc, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, wrapConnectionFailed(r.err)
		}
		return &rawConn{nc: r.nc, br: bufio.NewReader(r.nc), bw: bufio.NewWriter(r.nc)}, nil
	case <-ctx.Done():
		// the dial may still complete after we give up on it; when it does,
		// close the orphaned connection so it doesn't leak.
		go func() {
			if r := <-ch; r.nc != nil {
				_ = r.nc.Close()
			}
		}()
		return nil, wrapTimedOut(ctx.Err())
	}
}

// rateLimitedWriter shapes outbound bytes through lim and tallies them into
// stats, the process-wide bytes_sent counter's target.
type rateLimitedWriter struct {
	w     io.Writer
	ctx   context.Context
	lim   *rate.Limiter
	stats *Stats
}

func (w *rateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.lim.WaitN(w.ctx, len(p)); err != nil {
		return 0, wrapTimedOut(err)
	}
	n, err := w.w.Write(p)
	if n > 0 && w.stats != nil {
		w.stats.addBytesSent(int64(n))
	}
	return n, err
}

// rateLimitedReader shapes inbound bytes through lim.
type rateLimitedReader struct {
	r   io.Reader
	ctx context.Context
	lim *rate.Limiter
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		// account after the fact: WaitN before a read would block the
		// caller without bytes in hand yet, unlike on the send side.
		_ = r.lim.WaitN(r.ctx, n)
	}
	return n, err
}

// exchange writes req and reads the response over rc, shaped by sendRate /
// recvRate, bounded by timeout, cancellable via ctx. stats accumulates the
// process-wide bytes_sent counter.
func exchange(ctx context.Context, rc *rawConn, req *fasthttp.Request, timeout time.Duration, sendRate, recvRate *rate.Limiter, stats *Stats) (*fasthttp.Response, error) {
	sw := &rateLimitedWriter{w: rc.nc, ctx: ctx, lim: sendRate, stats: stats}
	bw := bufio.NewWriter(sw)

	sr := &rateLimitedReader{r: rc.nc, ctx: ctx, lim: recvRate}
	br := bufio.NewReader(sr)

	resp := fasthttp.AcquireResponse()
	// a HEAD response declares a Content-Length but carries no body
	resp.SkipBody = req.Header.IsHead()

	err := withDeadline(ctx, rc.nc, timeout, func() error {
		if err := req.Write(bw); err != nil {
			return wrapConnectionFailed(err)
		}
		if err := bw.Flush(); err != nil {
			return wrapConnectionFailed(err)
		}
		if err := resp.Read(br); err != nil {
			return wrapHTTPBadResponse(err)
		}
		return nil
	})
	if err != nil {
		fasthttp.ReleaseResponse(resp)
		return nil, err
	}
	return resp, nil
}

// withDeadline runs fn with a socket deadline, unblocking it early if ctx is
// cancelled before fn returns (fasthttp's blocking Write/Read calls don't
// take a context directly, so cancellation is wired through the deadline).
func withDeadline(ctx context.Context, nc net.Conn, timeout time.Duration, fn func() error) error {
	if timeout > 0 {
		_ = nc.SetDeadline(time.Now().Add(timeout))
		defer nc.SetDeadline(time.Time{}) //nolint:errcheck
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return wrapTimedOut(err)
		}
		return err
	case <-ctx.Done():
		_ = nc.SetDeadline(time.Now())
		<-done
		return wrapTimedOut(ctx.Err())
	}
}
