// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"sync"
	"testing"

	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/stretchr/testify/require"
)

func TestDataGuard(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	guard := NewDataGuard(map[string]int{})

	var wg sync.WaitGroup
	for i := range 100 {
		key := "even"
		if i%2 == 1 {
			key = "odd"
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			guard.Store(func(m map[string]int) map[string]int {
				m[key]++
				return m
			})
		}()
	}
	wg.Wait()

	guard.Load(func(m map[string]int) {
		require.Equal(t, 50, m["even"])
		require.Equal(t, 50, m["odd"])
	})
	require.Len(t, guard.GetValue(), 2)
}
