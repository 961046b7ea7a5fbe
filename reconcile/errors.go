// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"fmt"
	"strings"

	"github.com/mongodb/mongo-index-tools/common/options"
)

// State is a step of the per-collection reconciliation.
type State int

const (
	Idle State = iota
	ReadingSnapshot
	Materializing
	Diffing
	Dropping
	Done
	Failed
)

var stateNames = [...]string{
	Idle:            "idle",
	ReadingSnapshot: "reading snapshot",
	Materializing:   "materializing",
	Diffing:         "diffing",
	Dropping:        "dropping",
	Done:            "done",
	Failed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Error is returned for every failure of a collection's reconciliation. It
// names the collection and the step that failed, and wraps the store error.
type Error struct {
	Namespace options.Namespace
	Stage     State

	// Index is the index being dropped when a drop failed.
	Index string

	// Dropped lists the indexes removed before a drop failed. They stay
	// removed.
	Dropped []string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %v", e.Namespace, e.Stage)
	if e.Index != "" {
		fmt.Fprintf(&b, " index %v", e.Index)
	}
	if len(e.Dropped) > 0 {
		fmt.Fprintf(&b, " (already dropped: %v)", strings.Join(e.Dropped, ", "))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors.Cause see through an Error.
func (e *Error) Cause() error {
	return e.Err
}
