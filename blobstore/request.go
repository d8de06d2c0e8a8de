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
	"math"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/aistore/blobstore/internal/debug"
)

// Request is one object/bucket operation's wire-level description, shared
// by every facade call.
type Request struct {
	Verb         string
	Resource     string // full path including query string
	Headers      *orderedHeaders
	Body         *bodyQueue
	BodyLen      int64
	SuccessCodes map[int]struct{}
}

// Response is what the engine hands back to the facade for post-processing.
// ContentLen is the declared length (from Content-Length, or the number of
// bytes read if the server didn't send one); Content is what was actually read. ReadObject
// checks these against each other to catch a declared/actual mismatch.
type Response struct {
	Code       int
	Headers    *orderedHeaders
	Content    []byte
	ContentLen int64
}

func successSet(codes ...int) map[int]struct{} {
	m := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

func isSuccess(code int, set map[int]struct{}) bool {
	_, ok := set[code]
	return ok
}

// nextDelay computes the next backoff delay, doubling and capping at 60s:
// the i-th retry's delay is min(2.0*2^i, 60.0).
func nextDelay(prev float64) float64 { return math.Min(prev*2, 60.0) }

// doRequest is the request execution engine: the single retry/timeout/
// authenticate/dispatch loop driving every HTTP exchange.
func (e *Endpoint) doRequest(ctx context.Context, req *Request) (*Response, error) {
	if req.BodyLen > 0 {
		req.Headers.Set("Content-Length", strconv.FormatInt(req.BodyLen, 10))
	}

	releaseReqGate, err := acquireGate(ctx, e.concurrentRequests)
	if err != nil {
		return nil, err
	}
	defer releaseReqGate()

	maxTries := e.Knobs.RequestTries
	if e.Knobs.ConnectTries < maxTries {
		maxTries = e.Knobs.ConnectTries
	}
	if maxTries < 1 {
		maxTries = 1
	}

	thisTry := 1
	nextRetryDelay := 2.0

	for {
		debug.Assert(thisTry <= maxTries, "retry loop exceeded its own max-tries bound")
		resp, attemptErr := e.attempt(ctx, req)

		if attemptErr == nil && isSuccess(resp.Code, req.SuccessCodes) {
			e.stats.incSuccessful()
			return resp, nil
		}
		e.stats.incFailed()

		if attemptErr != nil && (!retryable(attemptErr) || ctx.Err() != nil) {
			// out-of-taxonomy: cancellation and fatal conditions propagate
			// as-is.
			return nil, attemptErr
		}

		retryableOutcome := retryable(attemptErr) || (attemptErr == nil && isRetryableCode(resp.Code))
		if retryableOutcome && thisTry < maxTries {
			delay := nextRetryDelay
			nextRetryDelay = nextDelay(nextRetryDelay)

			retryAfter := ""
			if resp != nil {
				retryAfter = resp.Headers.Get("Retry-After")
				if retryAfter != "" {
					if f, perr := strconv.ParseFloat(retryAfter, 64); perr == nil {
						delay = math.Max(delay, f)
					} else {
						delay = math.Max(delay, 300.0)
					}
				}
			}

			code := 0
			if resp != nil {
				code = resp.Code
			}
			traceAttemptFailure(req.Verb+" "+req.Resource, e.Host, req.Verb, req.Resource, thisTry, time.Duration(delay*float64(time.Second)), attemptErr, code, retryAfter)

			select {
			case <-time.After(time.Duration(delay * float64(time.Second))):
			case <-ctx.Done():
				return nil, wrapTimedOut(ctx.Err())
			}
			thisTry++
			continue
		}

		code := 0
		if resp != nil {
			code = resp.Code
		}
		traceAttemptFailure(req.Verb+" "+req.Resource, e.Host, req.Verb, req.Resource, thisTry, 0, attemptErr, code, "")

		if resp != nil && resp.Code == 406 {
			return nil, newTerminalError(406, req.Verb, req.Resource)
		}
		return nil, newTerminalError(code, req.Verb, req.Resource)
	}
}

// attempt executes exactly one try: connect (overlapped with signing),
// sign, clone body, finish connect under connect_timeout, take one
// request-rate token, dispatch under request_timeout, and either return or
// drop the connection based on the response's Connection header.
func (e *Endpoint) attempt(ctx context.Context, req *Request) (*Response, error) {
	connectTimeout := time.Duration(e.Knobs.ConnectTimeout) * time.Second
	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	defer cancelConnect()

	// Step 1: begin connect without awaiting it yet, so it overlaps with
	// header finalization below.
	type connResult struct {
		rc  reusableConn
		err error
	}
	connCh := make(chan connResult, 1)
	go func() {
		rc, err := e.acquire(connectCtx)
		connCh <- connResult{rc, err}
	}()

	// Step 2: sign on every attempt, Date must be current.
	headers := req.Headers.clone()
	e.sign(req.Verb, req.Resource, headers, time.Now())

	// Step 3: clone the body so a retry can replay it; the caller's queue
	// is untouched.
	bodyReader := req.Body.reader()

	// Step 4: finish connect.
	cr := <-connCh
	if cr.err != nil {
		return nil, cr.err
	}
	rc := cr.rc

	// Step 5: acquire one request-rate token.
	if err := e.requestRate.WaitN(ctx, 1); err != nil {
		e.discard(rc)
		return nil, wrapTimedOut(err)
	}

	// Step 6: dispatch.
	fReq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(fReq)
	fReq.Header.SetMethod(req.Verb)
	fReq.SetRequestURI(req.Resource)
	fReq.Header.SetHost(e.Host)
	headers.Each(func(name, value string) {
		fReq.Header.Set(name, value)
	})
	if bodyReader != nil {
		fReq.SetBodyStream(bodyReader, int(req.BodyLen))
	}

	requestTimeout := time.Duration(e.Knobs.RequestTimeout) * time.Second
	fResp, err := exchange(ctx, rc.conn, fReq, requestTimeout, e.sendRate, e.recvRate, e.stats)
	if err != nil {
		e.discard(rc)
		return nil, err
	}
	defer fasthttp.ReleaseResponse(fResp)

	resp := &Response{
		Code:       fResp.StatusCode(),
		Headers:    newHeaders(),
		Content:    append([]byte(nil), fResp.Body()...),
		ContentLen: int64(fResp.Header.ContentLength()),
	}
	fResp.Header.VisitAll(func(k, v []byte) {
		resp.Headers.Set(string(k), string(v))
	})
	if resp.ContentLen < 0 {
		resp.ContentLen = int64(len(resp.Content))
	}

	// Step 7: return or drop the connection per the Connection header.
	if resp.Headers.Get("Connection") == "close" {
		e.discard(rc)
	} else {
		e.release(rc)
	}

	return resp, nil
}
