// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package idx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIsDefaultIdIndex(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	cases := []struct {
		Document  IndexDocument
		IsDefault bool
	}{
		{
			Document: IndexDocument{
				Key: bson.D{{"_id", int32(1)}},
			},
			IsDefault: true,
		},
		{
			Document: IndexDocument{
				Key: bson.D{{"_id", 1}},
			},
			IsDefault: true,
		},
		{
			Document: IndexDocument{
				Key: bson.D{{"_id", ""}}, // legacy
			},
			IsDefault: true,
		},
		{
			Document: IndexDocument{
				Key: bson.D{{"_id", "hashed"}},
			},
			IsDefault: false,
		},
		{
			Document: IndexDocument{
				Key: bson.D{{"_id", 1}, {"a", 1}},
			},
			IsDefault: false,
		},
	}

	for _, curCase := range cases {
		assert.Equal(
			t,
			curCase.IsDefault,
			curCase.Document.IsDefaultIdIndex(),
			"%+v", curCase.Document,
		)
	}
}

func TestDeriveName(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	decimalOne, _ := primitive.ParseDecimal128("1")
	cases := []struct {
		key  bson.D
		name string
	}{
		{bson.D{{"name", 1}}, "name_1"},
		{bson.D{{"a", int32(1)}, {"b", int32(-1)}}, "a_1_b_-1"},
		{bson.D{{"content", "text"}}, "content_text"},
		{bson.D{{"loc", "2dsphere"}, {"cat", int64(1)}}, "loc_2dsphere_cat_1"},
		{bson.D{{"score", -1.0}}, "score_-1"},
		{bson.D{{"score", 1.5}}, "score_1.5"},
		{bson.D{{"d", decimalOne}}, "d_1"},
		{bson.D{{"$**", 1}}, "$**_1"},
		{bson.D{{"_id", 1}}, "_id_"},
		{bson.D{{"_id", int64(1)}}, "_id_"},
		{bson.D{{"_id", ""}}, "_id_"},
		{bson.D{{"_id", -1}}, "_id_-1"},
		{bson.D{{"_id", "hashed"}}, "_id_hashed"},
		{bson.D{{"_id", 1}, {"a", 1}}, "_id_1_a_1"},
	}

	for _, c := range cases {
		assert.Equal(t, c.name, DeriveName(c.key), "%v", c.key)
	}
}

func TestName(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	derived := IndexDocument{Key: bson.D{{"email", 1}}}
	assert.Equal(t, "email_1", derived.Name())

	primary := IndexDocument{Key: bson.D{{"_id", 1}}}
	assert.Equal(t, "_id_", primary.Name())

	explicit := IndexDocument{Key: bson.D{{"lastName", 1}, {"firstName", 1}}, Options: bson.M{"name": "full_name"}}
	assert.Equal(t, "full_name", explicit.Name())

	empty := IndexDocument{Key: bson.D{{"email", 1}}, Options: bson.M{"name": ""}}
	assert.Equal(t, "email_1", empty.Name())
}

func TestNewIndexDocumentFromD(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	doc, err := NewIndexDocumentFromD(bson.D{
		{"v", int32(2)},
		{"key", bson.D{{"status", int32(1)}}},
		{"name", "status_1"},
		{"partialFilterExpression", bson.D{{"status", bson.D{{"$exists", true}}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{"status", int32(1)}}, doc.Key)
	assert.Equal(t, bson.M{"v": int32(2), "name": "status_1"}, doc.Options)
	assert.Len(t, doc.PartialFilterExpression, 1)

	_, err = NewIndexDocumentFromD(bson.D{{"key", "status"}})
	assert.Error(t, err)

	_, err = NewIndexDocumentFromD(bson.D{{"key", bson.D{{"a", 1}}}, {"partialFilterExpression", 3}})
	assert.Error(t, err)
}

func TestToD(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	doc := IndexDocument{
		Key: bson.D{{"createdAt", 1}},
		Options: bson.M{
			"sparse":             true,
			"expireAfterSeconds": int32(86400),
			"ns":                 "app.events",
		},
		PartialFilterExpression: bson.D{{"kind", "tmp"}},
	}

	want := bson.D{
		{"key", bson.D{{"createdAt", 1}}},
		{"name", "createdAt_1"},
		{"expireAfterSeconds", int32(86400)},
		{"sparse", true},
		{"partialFilterExpression", bson.D{{"kind", "tmp"}}},
	}
	if diff := cmp.Diff(want, doc.ToD()); diff != "" {
		t.Errorf("ToD mismatch (-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	doc := &IndexDocument{Key: bson.D{{"a", 1}}, Options: bson.M{"unique": true}}
	clone := doc.Clone()
	clone.Options["unique"] = false
	clone.Key[0].Value = -1

	assert.Equal(t, true, doc.Options["unique"])
	assert.Equal(t, 1, doc.Key[0].Value)
	assert.Nil(t, clone.PartialFilterExpression)
}
