// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongoindexes

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mongodb/mongo-index-tools/common/options"
)

var Usage = `<options> <connection-string>

Converge the indexes of MongoDB collections to the set declared in a bindings file.
Indexes that are declared but missing are created; indexes that exist but are
not declared are dropped. The _id index is never dropped.

Connection strings must begin with mongodb:// or mongodb+srv://.`

// Bindings file formats.
const (
	YAML = "yaml"
	TOML = "toml"
)

type Options struct {
	*options.ToolOptions
	*InputOptions
	*ReconcileOptions
}

// InputOptions defines the set of options for reading the bindings file.
type InputOptions struct {
	File string `long:"file" value-name:"<filename>" description:"bindings file declaring the indexes of each collection"`
	Type string `long:"type" value-name:"<type>" choice:"yaml" choice:"toml" description:"bindings file format (yaml, toml); defaults to the file extension"`
}

// Name returns a human-readable group name for input options.
func (*InputOptions) Name() string {
	return "input"
}

// ReconcileOptions defines the set of options controlling a run.
type ReconcileOptions struct {
	DryRun          bool   `long:"dryRun" description:"report the indexes that would be created and dropped without changing anything"`
	ContinueOnError bool   `long:"continueOnError" description:"keep reconciling the remaining collections after one fails"`
	JSON            bool   `long:"json" description:"print the results as an Extended JSON document on stdout"`
	LockFile        string `long:"lockFile" value-name:"<filename>" description:"hold an advisory lock on this file for the duration of the run"`
	LockTimeout     int    `long:"lockTimeout" value-name:"<seconds>" default:"0" description:"seconds to wait for --lockFile before giving up"`
	CommitQuorum    string `long:"commitQuorum" value-name:"<quorum>" description:"commitQuorum for index builds (a number, majority, or votingMembers); requires 4.4+"`
}

// Name returns a human-readable group name for reconcile options.
func (*ReconcileOptions) Name() string {
	return "reconcile"
}

// ParseOptions reads the command line and validates the tool options.
func ParseOptions(rawArgs []string, versionStr, gitCommit string) (Options, error) {
	opts := options.New("mongoindexes", versionStr, gitCommit, Usage, true,
		options.EnabledOptions{Auth: true, Connection: true, Namespace: true, URI: true})

	inputOpts := &InputOptions{}
	opts.AddOptions(inputOpts)
	reconcileOpts := &ReconcileOptions{}
	opts.AddOptions(reconcileOpts)

	extraArgs, err := opts.ParseArgs(rawArgs)
	if err != nil {
		return Options{}, err
	}
	result := Options{opts, inputOpts, reconcileOpts}
	if opts.Help || opts.Version {
		return result, nil
	}

	if len(extraArgs) > 0 {
		return Options{}, fmt.Errorf("error parsing positional arguments: " +
			"provide only one MongoDB connection string. " +
			"Connection strings must begin with mongodb:// or mongodb+srv:// schemes",
		)
	}
	if inputOpts.File == "" {
		return Options{}, fmt.Errorf("--file is required")
	}
	if inputOpts.Type == "" {
		inputOpts.Type, err = typeFromExtension(inputOpts.File)
		if err != nil {
			return Options{}, err
		}
	}
	if reconcileOpts.LockTimeout < 0 {
		return Options{}, fmt.Errorf("invalid value for --lockTimeout: %v", reconcileOpts.LockTimeout)
	}

	return result, nil
}

func typeFromExtension(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("cannot infer the format of %v from extension %q, use --type", path, ext)
	}
}
