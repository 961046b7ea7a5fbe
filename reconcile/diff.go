// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Plan is the difference between the indexes on a collection and the
// indexes that should be there.
type Plan struct {
	// Created holds the desired names that did not exist before, in
	// materialized order.
	Created []string
	// ToDrop holds the existing names that are no longer desired, in
	// existing order. It never contains PrimaryKeyIndexName.
	ToDrop []string
}

// IsEmpty reports whether the plan changes nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Created) == 0 && len(p.ToDrop) == 0
}

// Diff compares the names present before materialization with the names the
// desired indexes resolved to. Duplicate names collapse to their first
// occurrence.
func Diff(existing, materialized []string) Plan {
	existingSet := mapset.NewThreadUnsafeSet(existing...)
	materializedSet := mapset.NewThreadUnsafeSet(materialized...)

	return Plan{
		Created: ordered(materialized, func(name string) bool {
			return !existingSet.Contains(name)
		}),
		ToDrop: ordered(existing, func(name string) bool {
			return name != PrimaryKeyIndexName && !materializedSet.Contains(name)
		}),
	}
}

// ordered keeps the first occurrence of every name accepted by keep.
func ordered(names []string, keep func(string) bool) []string {
	var out []string
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, name := range names {
		if !seen.Add(name) || !keep(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
