// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const urlScheme = "blobstore"

// ParseURL tokenizes a blobstore:// URL by the fixed separator sequence
// "://", ":", "@", "/", "?" (in that order) and returns the endpoint plus
// the resource token, which is not stored on the endpoint.
//
//	blobstore://<KEY>:<SECRET>@<HOST>[:<SERVICE>]/<RESOURCE>[?<k>=<v>(&<k>=<v>)*]
func ParseURL(raw string) (ep *Endpoint, resource string, err error) {
	scheme, rest, ok := cut(raw, "://")
	if !ok || scheme != urlScheme {
		return nil, "", invalidURL(raw, "missing or unrecognized scheme")
	}

	cred, rest, ok := cut(rest, "@")
	if !ok {
		return nil, "", invalidURL(raw, "missing key:secret@")
	}
	key, secret, ok := cut(cred, ":")
	if !ok {
		return nil, "", invalidURL(raw, "missing ':' between key and secret")
	}

	hostPort, rest, ok := cut(rest, "/")
	if !ok {
		// a bare host with no resource at all is still invalid: a resource
		// token (possibly empty after the slash) is required by the grammar
		return nil, "", invalidURL(raw, "missing '/' before resource")
	}
	host, service, _ := cut(hostPort, ":")
	if host == "" {
		return nil, "", invalidURL(raw, "empty host")
	}

	resource, query, _ := cut(rest, "?")

	knobs := defaultKnobs()
	if query != "" {
		if err := parseKnobs(&knobs, query); err != nil {
			return nil, "", invalidURL(raw, err.Error())
		}
	}

	ep = newEndpoint(host, service, key, secret, knobs)
	return ep, resource, nil
}

// cut splits s at the first occurrence of sep, the way strings.Cut does,
// but named locally so the tokenization order above reads as a straight
// line of cuts matching the "fixed separators in order" tokenization.
func cut(s, sep string) (before, after string, found bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func parseKnobs(k *Knobs, query string) error {
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		name, value, ok := cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed knob %q: missing '='", pair)
		}
		field, ok := knobByShortName(name)
		if !ok {
			return fmt.Errorf("unknown knob %q", name)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("knob %q: value %q is not a base-10 integer", name, value)
		}
		if n == 0 {
			return fmt.Errorf("knob %q: value 0 is forbidden (0 means \"not set\")", name)
		}
		field.set(k, n)
	}
	return nil
}

func invalidURL(raw, why string) error {
	return errors.Wrapf(ErrInvalidURL, "%s: %s", raw, why)
}

// GetResourceURL reconstructs a canonical URL embedding credentials and any
// non-default knobs (only non-defaults are emitted, in knobTable's
// declaration order), for the given resource.
func (e *Endpoint) GetResourceURL(resource string) string {
	var b strings.Builder
	b.WriteString(urlScheme)
	b.WriteString("://")
	b.WriteString(e.Key)
	b.WriteByte(':')
	b.WriteString(e.Secret)
	b.WriteByte('@')
	b.WriteString(e.Host)
	if e.Service != "" {
		b.WriteByte(':')
		b.WriteString(e.Service)
	}
	b.WriteByte('/')
	b.WriteString(resource)

	defaults := defaultKnobs()
	var kv []string
	for _, f := range knobTable {
		if f.get(&e.Knobs) != f.get(&defaults) {
			kv = append(kv, f.short+"="+strconv.Itoa(f.get(&e.Knobs)))
		}
	}
	if len(kv) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(kv, "&"))
	}
	return b.String()
}
