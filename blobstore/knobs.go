// Package blobstore implements an asynchronous client endpoint for an
// S3-compatible blob store: connection pooling, bounded concurrency and
// request rate, HMAC-SHA1 request signing, retry with backoff, and the
// object/bucket/multipart operation facade built on top of it.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blobstore

// Knobs is the closed, enumerated set of tunables accepted on a blobstore://
// URL's query string. Every field is a non-negative integer; zero means "not
// set" (use the default) and is rejected on the wire (see parseKnobs).
type Knobs struct {
	ConnectTries           int
	ConnectTimeout         int // seconds
	MaxConnectionLife      int // seconds
	RequestTries           int
	RequestTimeout         int // seconds
	RequestsPerSecond      int
	ConcurrentRequests     int
	MultipartMaxPartSize   int
	MultipartMinPartSize   int
	ConcurrentUploads      int
	ConcurrentReadsPerFile int
	ConcurrentWritesPerFile int
	ReadBlockSize          int
	ReadAheadBlocks        int
	ReadCacheBlocksPerFile int
	MaxSendBytesPerSecond  int
	MaxRecvBytesPerSecond  int
}

// Every tunable default is declared as a named constant rather than
// scattered as a magic number through defaultKnobs.
const (
	defaultConnectTries            = 2
	defaultConnectTimeout          = 10
	defaultMaxConnectionLife       = 60
	defaultRequestTries            = 4
	defaultRequestTimeout          = 60
	defaultRequestsPerSecond       = 100
	defaultConcurrentRequests      = 16
	defaultMultipartMaxPartSize    = 5 << 30 // 5 GiB, the S3 per-part ceiling
	defaultMultipartMinPartSize    = 5 << 20 // 5 MiB, the S3 per-part floor (last part exempt)
	defaultConcurrentUploads       = 4
	defaultConcurrentReadsPerFile  = 4
	defaultConcurrentWritesPerFile = 4
	defaultReadBlockSize           = 1 << 20
	defaultReadAheadBlocks         = 0
	defaultReadCacheBlocksPerFile  = 0
	defaultMaxSendBytesPerSecond   = 0 // 0 == unlimited
	defaultMaxRecvBytesPerSecond   = 0 // 0 == unlimited
)

func defaultKnobs() Knobs {
	return Knobs{
		ConnectTries:            defaultConnectTries,
		ConnectTimeout:          defaultConnectTimeout,
		MaxConnectionLife:       defaultMaxConnectionLife,
		RequestTries:            defaultRequestTries,
		RequestTimeout:          defaultRequestTimeout,
		RequestsPerSecond:       defaultRequestsPerSecond,
		ConcurrentRequests:      defaultConcurrentRequests,
		MultipartMaxPartSize:    defaultMultipartMaxPartSize,
		MultipartMinPartSize:    defaultMultipartMinPartSize,
		ConcurrentUploads:       defaultConcurrentUploads,
		ConcurrentReadsPerFile:  defaultConcurrentReadsPerFile,
		ConcurrentWritesPerFile: defaultConcurrentWritesPerFile,
		ReadBlockSize:           defaultReadBlockSize,
		ReadAheadBlocks:         defaultReadAheadBlocks,
		ReadCacheBlocksPerFile:  defaultReadCacheBlocksPerFile,
		MaxSendBytesPerSecond:   defaultMaxSendBytesPerSecond,
		MaxRecvBytesPerSecond:   defaultMaxRecvBytesPerSecond,
	}
}

// knobField describes one entry of the normative short-name table:
// long name for diagnostics, short name for URL round-trip, and the
// struct field accessors needed to read/write it generically.
type knobField struct {
	long  string
	short string
	get   func(*Knobs) int
	set   func(*Knobs, int)
}

// knobTable is declared in this fixed order since getResourceURL emits
// non-default knobs sorted by declaration order.
var knobTable = []knobField{
	{"connect_tries", "ct", func(k *Knobs) int { return k.ConnectTries }, func(k *Knobs, v int) { k.ConnectTries = v }},
	{"connect_timeout", "cto", func(k *Knobs) int { return k.ConnectTimeout }, func(k *Knobs, v int) { k.ConnectTimeout = v }},
	{"max_connection_life", "mcl", func(k *Knobs) int { return k.MaxConnectionLife }, func(k *Knobs, v int) { k.MaxConnectionLife = v }},
	{"request_tries", "rt", func(k *Knobs) int { return k.RequestTries }, func(k *Knobs, v int) { k.RequestTries = v }},
	{"request_timeout", "rto", func(k *Knobs) int { return k.RequestTimeout }, func(k *Knobs, v int) { k.RequestTimeout = v }},
	{"requests_per_second", "rps", func(k *Knobs) int { return k.RequestsPerSecond }, func(k *Knobs, v int) { k.RequestsPerSecond = v }},
	{"concurrent_requests", "cr", func(k *Knobs) int { return k.ConcurrentRequests }, func(k *Knobs, v int) { k.ConcurrentRequests = v }},
	{"multipart_max_part_size", "maxps", func(k *Knobs) int { return k.MultipartMaxPartSize }, func(k *Knobs, v int) { k.MultipartMaxPartSize = v }},
	{"multipart_min_part_size", "minps", func(k *Knobs) int { return k.MultipartMinPartSize }, func(k *Knobs, v int) { k.MultipartMinPartSize = v }},
	{"concurrent_uploads", "cu", func(k *Knobs) int { return k.ConcurrentUploads }, func(k *Knobs, v int) { k.ConcurrentUploads = v }},
	{"concurrent_reads_per_file", "crpf", func(k *Knobs) int { return k.ConcurrentReadsPerFile }, func(k *Knobs, v int) { k.ConcurrentReadsPerFile = v }},
	{"concurrent_writes_per_file", "cwpf", func(k *Knobs) int { return k.ConcurrentWritesPerFile }, func(k *Knobs, v int) { k.ConcurrentWritesPerFile = v }},
	{"read_block_size", "rbs", func(k *Knobs) int { return k.ReadBlockSize }, func(k *Knobs, v int) { k.ReadBlockSize = v }},
	{"read_ahead_blocks", "rab", func(k *Knobs) int { return k.ReadAheadBlocks }, func(k *Knobs, v int) { k.ReadAheadBlocks = v }},
	{"read_cache_blocks_per_file", "rcb", func(k *Knobs) int { return k.ReadCacheBlocksPerFile }, func(k *Knobs, v int) { k.ReadCacheBlocksPerFile = v }},
	{"max_send_bytes_per_second", "sbps", func(k *Knobs) int { return k.MaxSendBytesPerSecond }, func(k *Knobs, v int) { k.MaxSendBytesPerSecond = v }},
	{"max_recv_bytes_per_second", "rbps", func(k *Knobs) int { return k.MaxRecvBytesPerSecond }, func(k *Knobs, v int) { k.MaxRecvBytesPerSecond = v }},
}

func knobByShortName(short string) (knobField, bool) {
	for _, f := range knobTable {
		if f.short == short {
			return f, true
		}
	}
	return knobField{}, false
}
