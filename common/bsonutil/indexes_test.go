// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonutil

import (
	"testing"

	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIsIndexKeysEqual(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	tests := []struct {
		IndexKeys1 bson.D
		IndexKeys2 bson.D
		Expected   bool
	}{
		{bson.D{{"a", int32(1)}, {"b", int32(1)}},
			bson.D{{"a", int32(1)}, {"b", int64(1)}},
			true},
		{bson.D{{"a", int32(1)}, {"b", int32(1)}},
			bson.D{{"a", float64(1)}, {"b", int64(1)}},
			true},
		{bson.D{{"a", -1.0}, {"b", 1.0}},
			bson.D{{"a", int32(-1)}, {"b", int32(1)}},
			true},
		{bson.D{{"a", -2.0}},
			bson.D{{"a", int32(-1)}},
			false},
		{bson.D{{"b", int32(1)}},
			bson.D{{"a", int32(1)}},
			false},
		{bson.D{{"a", int32(1)}, {"b", int32(1)}},
			bson.D{{"b", int32(1)}, {"a", int32(1)}},
			false},
		{bson.D{{"a", int32(1)}, {"b", int32(1)}},
			bson.D{{"a", int32(1)}},
			false},
		{bson.D{{"content", "text"}},
			bson.D{{"content", "text"}},
			true},
		{bson.D{{"content", "text"}},
			bson.D{{"content", int32(1)}},
			false},
	}

	for _, test := range tests {
		assert.Equal(
			t,
			test.Expected,
			IsIndexKeysEqual(test.IndexKeys1, test.IndexKeys2),
			"for test %v",
			test,
		)
	}
}

func TestIsIndexValueEqual(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.True(t, IsIndexValueEqual(int32(3600), int64(3600)))
	assert.True(t, IsIndexValueEqual(true, true))
	assert.False(t, IsIndexValueEqual(true, false))
	assert.False(t, IsIndexValueEqual(int32(1), "1"))
	assert.True(t, IsIndexValueEqual(
		bson.D{{"status", bson.D{{"$eq", "active"}}}},
		bson.D{{"status", bson.D{{"$eq", "active"}}}},
	))
	assert.False(t, IsIndexValueEqual(
		bson.D{{"a", int32(1)}, {"b", int32(1)}},
		bson.D{{"b", int32(1)}, {"a", int32(1)}},
	))
	assert.True(t, IsIndexValueEqual(bson.A{"a", int32(2)}, bson.A{"a", 2.0}))
}

func TestIsValidIndexOption(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	for _, key := range []string{"name", "unique", "expireAfterSeconds", "hidden", "partialFilterExpression"} {
		assert.True(t, IsValidIndexOption(key), key)
	}
	for _, key := range []string{"ttl", "uniqe", ""} {
		assert.False(t, IsValidIndexOption(key), key)
	}
}
