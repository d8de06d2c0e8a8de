//go:build !debug

// Package debug provides invariant checks that are compiled out of release builds.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func Assert(cond bool, a ...interface{})          {}
func Assertf(cond bool, f string, a ...interface{}) {}
func AssertNoErr(err error)                       {}
func Func(f func())                               {}
