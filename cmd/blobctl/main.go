// Command blobctl is a small command-line driver for the blobstore client,
// useful for exercising an endpoint by hand during development.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/aistore/blobstore/blobstore"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) < 3 {
		usage()
		os.Exit(2)
	}
	rawURL, verb, bucket := args[0], args[1], args[2]

	ep, resource, err := blobstore.ParseURL(rawURL)
	if err != nil {
		glog.Exitf("parse url: %v", err)
	}
	object := resource
	if object == "" && len(args) > 3 {
		object = args[3]
	}

	ctx := context.Background()
	switch verb {
	case "exists":
		ok, err := ep.ObjectExists(ctx, bucket, object)
		fail(err)
		fmt.Println(ok)
	case "size":
		n, err := ep.ObjectSize(ctx, bucket, object)
		fail(err)
		fmt.Println(n)
	case "get":
		content, err := ep.ReadEntireFile(ctx, bucket, object)
		fail(err)
		os.Stdout.Write(content)
	case "put":
		content, err := os.ReadFile(object)
		fail(err)
		fail(ep.WriteEntireFile(ctx, bucket, object, content))
	case "rm":
		fail(ep.DeleteObject(ctx, bucket, object))
	case "mb":
		fail(ep.CreateBucket(ctx, bucket))
	case "rb":
		fail(ep.DeleteBucket(ctx, bucket))
	case "ls":
		result, err := ep.ListBucket(ctx, bucket, "", "")
		fail(err)
		for _, o := range result.Objects {
			fmt.Printf("%10d  %s\n", o.Size, o.Name)
		}
	case "stats":
		snap := blobstore.GlobalStats().GetJSON()
		b, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(b))
	default:
		usage()
		os.Exit(2)
	}
}

func fail(err error) {
	if err != nil {
		glog.Exitf("blobctl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: blobctl <blobstore-url> <exists|size|get|put|rm|mb|rb|ls|stats> <bucket> [object]")
}
