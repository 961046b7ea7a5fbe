// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mongodb/mongo-index-tools/common/testtype"
)

func TestDiff(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	cases := []struct {
		name         string
		existing     []string
		materialized []string
		expect       Plan
	}{
		{
			name:         "new collection",
			existing:     nil,
			materialized: []string{"_id_", "email_1"},
			expect:       Plan{Created: []string{"_id_", "email_1"}},
		},
		{
			name:         "one new index",
			existing:     []string{"_id_", "name_1"},
			materialized: []string{"name_1", "age_1"},
			expect:       Plan{Created: []string{"age_1"}},
		},
		{
			name:         "replace every index",
			existing:     []string{"_id_", "name_1", "age_1"},
			materialized: []string{"email_1"},
			expect:       Plan{Created: []string{"email_1"}, ToDrop: []string{"name_1", "age_1"}},
		},
		{
			name:         "primary key index is never dropped",
			existing:     []string{"_id_", "tag_1"},
			materialized: []string{"tag_1"},
			expect:       Plan{},
		},
		{
			name:         "duplicates collapse to the first occurrence",
			existing:     []string{"b_1", "a_1", "b_1", "c_1"},
			materialized: []string{"d_1", "c_1", "d_1"},
			expect:       Plan{Created: []string{"d_1"}, ToDrop: []string{"b_1", "a_1"}},
		},
		{
			name:         "already converged",
			existing:     []string{"_id_", "a_1"},
			materialized: []string{"a_1"},
			expect:       Plan{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Diff(c.existing, c.materialized)
			if diff := cmp.Diff(c.expect, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Diff(%v, %v) mismatch (-want +got):\n%s", c.existing, c.materialized, diff)
			}
			if c.expect.IsEmpty() != got.IsEmpty() {
				t.Errorf("IsEmpty() = %v, want %v", got.IsEmpty(), c.expect.IsEmpty())
			}
		})
	}
}
