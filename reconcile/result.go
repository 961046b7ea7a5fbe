// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"fmt"
	"strings"

	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/samber/lo"
)

// Result holds the indexes a reconciliation added and removed.
type Result struct {
	Created []string
	Dropped []string
}

// IsEmpty reports whether nothing changed.
func (result Result) IsEmpty() bool {
	return len(result.Created) == 0 && len(result.Dropped) == 0
}

// CollectionResult is the outcome of reconciling one binding.
type CollectionResult struct {
	Namespace options.Namespace
	Result

	// Skipped is set when the binding declared no indexes and the collection
	// was left alone.
	Skipped bool
	// DryRun is set when Created and Dropped describe what would change.
	DryRun bool
	// Warnings describe existing indexes whose name is declared but whose
	// structure differs from the declaration.
	Warnings []string
	Err      error
}

// Summary renders the result as a single line, e.g.
// "app.users: created [age_1], dropped [name_1]".
func (result CollectionResult) Summary() string {
	var b strings.Builder
	b.WriteString(result.Namespace.String())
	b.WriteString(": ")
	switch {
	case result.Err != nil:
		fmt.Fprintf(&b, "failed: %v", result.Err)
		return b.String()
	case result.Skipped:
		b.WriteString("skipped, no indexes declared")
		return b.String()
	}

	created, dropped := "created", "dropped"
	if result.DryRun {
		created, dropped = "would create", "would drop"
	}
	fmt.Fprintf(&b, "%v [%v], %v [%v]",
		created, strings.Join(result.Created, ", "),
		dropped, strings.Join(result.Dropped, ", "))
	return b.String()
}

// log pretty-prints the result.
func (result CollectionResult) log() {
	verb := "reconciling"
	if result.DryRun {
		verb = "planning"
	}
	log.Logvf(log.Info, "finished %v %v (%v %v created, %v %v dropped)",
		verb, result.Namespace,
		len(result.Created), util.Pluralize(len(result.Created), "index", "indexes"),
		len(result.Dropped), util.Pluralize(len(result.Dropped), "index", "indexes"))
}

// AggregateResult holds one CollectionResult per binding in registration
// order.
type AggregateResult []CollectionResult

// Failed returns the entries that recorded an error.
func (results AggregateResult) Failed() AggregateResult {
	return lo.Filter(results, func(result CollectionResult, _ int) bool {
		return result.Err != nil
	})
}

// Err returns the first recorded error, or nil.
func (results AggregateResult) Err() error {
	for _, result := range results {
		if result.Err != nil {
			return result.Err
		}
	}
	return nil
}

// Totals counts the created and dropped indexes across all entries.
func (results AggregateResult) Totals() (created, dropped int) {
	return lo.SumBy(results, func(result CollectionResult) int { return len(result.Created) }),
		lo.SumBy(results, func(result CollectionResult) int { return len(result.Dropped) })
}
