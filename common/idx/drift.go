// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package idx

import (
	"fmt"
	"slices"

	"github.com/mongodb/mongo-index-tools/common/bsonutil"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// serverDefaultedOptions are filled in by the server when an index is built
// without them, so they only count as a difference when the desired
// descriptor sets them explicitly.
var serverDefaultedOptions = map[string]bool{
	"v":                    true,
	"ns":                   true,
	"background":           true,
	"2dsphereIndexVersion": true,
	"textIndexVersion":     true,
	"weights":              true,
	"default_language":     true,
	"language_override":    true,
	"collation":            true,
}

// subsetOptions are documents the server completes with defaults when it
// lists an index. Only the fields the desired descriptor sets are compared.
var subsetOptions = map[string]bool{
	"collation": true,
	"weights":   true,
}

// Drift lists the structural differences between a desired descriptor and
// an existing index of the same name. An empty result means the existing
// index already has the desired shape.
func (id *IndexDocument) Drift(existing *IndexDocument) []string {
	var diffs []string

	if !bsonutil.IsIndexKeysEqual(listedKey(id.Key), listedKey(existing.Key)) {
		diffs = append(diffs, fmt.Sprintf("key %s differs from existing %s",
			bsonutil.CreateExtJSONString(id.Key), bsonutil.CreateExtJSONString(existing.Key)))
	} else if weights, ok := asD(existing.Options["weights"]); ok {
		for _, elem := range id.Key {
			if elem.Value != "text" {
				continue
			}
			if _, found := lo.Find(weights, func(w bson.E) bool { return w.Key == elem.Key }); !found {
				diffs = append(diffs, fmt.Sprintf("text field %s is not indexed by the existing index", elem.Key))
			}
		}
	}

	if len(id.PartialFilterExpression) > 0 || len(existing.PartialFilterExpression) > 0 {
		if !bsonutil.IsIndexValueEqual(id.PartialFilterExpression, existing.PartialFilterExpression) {
			diffs = append(diffs, fmt.Sprintf("partialFilterExpression %s differs from existing %s",
				bsonutil.CreateExtJSONString(id.PartialFilterExpression),
				bsonutil.CreateExtJSONString(existing.PartialFilterExpression)))
		}
	}

	options := lo.Uniq(append(lo.Keys(id.Options), lo.Keys(existing.Options)...))
	slices.Sort(options)
	for _, option := range options {
		if option == "name" || option == "key" {
			continue
		}
		want, wantSet := optionValue(id.Options, option)
		have, haveSet := optionValue(existing.Options, option)
		switch {
		case !wantSet && !haveSet:
		case !wantSet:
			if !serverDefaultedOptions[option] {
				diffs = append(diffs, fmt.Sprintf("existing index sets %s: %v", option, have))
			}
		case !haveSet:
			diffs = append(diffs, fmt.Sprintf("%s: %v is not set on the existing index", option, want))
		case subsetOptions[option]:
			if !containsFields(want, have) {
				diffs = append(diffs, fmt.Sprintf("%s: %v differs from existing %v", option, want, have))
			}
		case !bsonutil.IsIndexValueEqual(want, have):
			diffs = append(diffs, fmt.Sprintf("%s: %v differs from existing %v", option, want, have))
		}
	}

	return diffs
}

// optionValue treats a false boolean the same as an absent option, and so is
// the simple collation, which the server never lists.
func optionValue(options map[string]interface{}, option string) (interface{}, bool) {
	value, ok := options[option]
	if !ok || value == nil {
		return nil, false
	}
	if b, isBool := value.(bool); isBool && !b {
		return nil, false
	}
	if option == "collation" {
		if collation, ok := asD(value); ok && len(collation) == 1 &&
			collation[0].Key == "locale" && collation[0].Value == "simple" {
			return nil, false
		}
	}
	return value, true
}

// listedKey rewrites a key pattern the way the server lists it. The text
// fields of a text index collapse into _fts and _ftsx at the position of the
// first one; the fields themselves live in the weights option.
func listedKey(key bson.D) bson.D {
	listed := make(bson.D, 0, len(key))
	text := false
	for _, elem := range key {
		if elem.Value != "text" {
			listed = append(listed, elem)
			continue
		}
		if !text {
			listed = append(listed, bson.E{Key: "_fts", Value: "text"}, bson.E{Key: "_ftsx", Value: int32(1)})
			text = true
		}
	}
	return listed
}

// containsFields reports whether every field of want is present in have with
// an equal value.
func containsFields(want, have interface{}) bool {
	wantDoc, ok := asD(want)
	if !ok {
		return bsonutil.IsIndexValueEqual(want, have)
	}
	haveDoc, ok := asD(have)
	if !ok {
		return false
	}
	for _, field := range wantDoc {
		found, ok := lo.Find(haveDoc, func(e bson.E) bool { return e.Key == field.Key })
		if !ok || !bsonutil.IsIndexValueEqual(field.Value, found.Value) {
			return false
		}
	}
	return true
}

func asD(value interface{}) (bson.D, bool) {
	var m map[string]interface{}
	switch v := value.(type) {
	case bson.D:
		return v, true
	case bson.M:
		m = v
	case map[string]interface{}:
		m = v
	default:
		return nil, false
	}
	keys := lo.Keys(m)
	slices.Sort(keys)
	return lo.Map(keys, func(key string, _ int) bson.E { return bson.E{Key: key, Value: m[key]} }), true
}
