// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Main package for the mongoindexes tool.
package main

import (
	"os"

	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/mongodb/mongo-index-tools/mongoindexes"
	"github.com/pkg/errors"
)

var (
	VersionStr = "built-without-version-string"
	GitCommit  = "build-without-git-commit"
)

func main() {
	// initialize command-line opts
	opts, err := mongoindexes.ParseOptions(os.Args[1:], VersionStr, GitCommit)
	if err != nil {
		log.Logvf(log.Always, "error parsing command line options: %s", err.Error())
		log.Logv(log.Always, util.ShortUsage("mongoindexes"))
		os.Exit(util.ExitBadOptions)
	}

	// print help, if specified
	if opts.PrintHelp(false) {
		return
	}

	// print version, if specified
	if opts.PrintVersion() {
		return
	}

	log.SetVerbosity(opts.Verbosity)

	// verify uri options and log them
	opts.URI.LogUnsupportedOptions()

	if opts.Auth.Username != "" && opts.Auth.Source == "" && !opts.Auth.RequiresExternalDB() {
		log.Logvf(log.Info, "no authentication database given, using %v", opts.GetAuthenticationDatabase())
	}

	tool, err := mongoindexes.New(opts)
	if err != nil {
		log.Logvf(log.Always, "%v", err)
		os.Exit(util.ExitFailure)
	}
	defer tool.Close()

	if _, err := tool.Run(); err != nil {
		log.Logvf(log.Always, "Failed: %v", err)
		tool.Close()
		if errors.Is(err, util.ErrTerminated) {
			os.Exit(util.ExitKill)
		}
		os.Exit(util.ExitFailure)
	}
}
