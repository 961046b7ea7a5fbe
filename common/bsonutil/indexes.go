// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonutil

import (
	"math"

	"go.mongodb.org/mongo-driver/bson"
)

// validIndexOptions are taken from https://github.com/mongodb/mongo/blob/master/src/mongo/db/index/index_descriptor.h
var validIndexOptions = map[string]bool{
	"2dsphereIndexVersion":    true,
	"background":              true,
	"bits":                    true,
	"bucketSize":              true,
	"coarsestIndexedLevel":    true,
	"collation":               true,
	"default_language":        true,
	"expireAfterSeconds":      true,
	"finestIndexedLevel":      true,
	"hidden":                  true,
	"key":                     true,
	"language_override":       true,
	"max":                     true,
	"min":                     true,
	"name":                    true,
	"ns":                      true,
	"partialFilterExpression": true,
	"sparse":                  true,
	"storageEngine":           true,
	"textIndexVersion":        true,
	"unique":                  true,
	"v":                       true,
	"weights":                 true,
	"wildcardProjection":      true,
}

// IsValidIndexOption reports whether the server recognises key as a field of
// an index specification.
func IsValidIndexOption(key string) bool {
	return validIndexOptions[key]
}

const epsilon = 1e-9

// IsIndexKeysEqual compares two key patterns field by field, in order.
// Numeric directions compare by value regardless of their BSON type.
func IsIndexKeysEqual(indexKey1 bson.D, indexKey2 bson.D) bool {
	if len(indexKey1) != len(indexKey2) {
		// two indexes have different number of keys
		return false
	}

	for j, elem := range indexKey1 {
		if elem.Key != indexKey2[j].Key {
			return false
		}

		switch key1Value := elem.Value.(type) {
		case string:
			if key2Value, ok := indexKey2[j].Value.(string); ok {
				if key1Value == key2Value {
					continue
				}
			}
			return false
		default:
			if key1Value, ok := Bson2Float64(key1Value); ok {
				if key2Value, ok := Bson2Float64(indexKey2[j].Value); ok {
					if math.Abs(key1Value-key2Value) < epsilon {
						continue
					}
				}
			}
			return false
		}
	}
	return true
}

// IsIndexValueEqual compares two option values. Numbers compare by value,
// documents compare in order, arrays element-wise; anything else by equality
// of its Extended JSON rendering.
func IsIndexValueEqual(v1, v2 interface{}) bool {
	if f1, ok := Bson2Float64(v1); ok {
		f2, ok := Bson2Float64(v2)
		return ok && math.Abs(f1-f2) < epsilon
	}

	switch d1 := v1.(type) {
	case bson.D:
		d2, ok := v2.(bson.D)
		if !ok || len(d1) != len(d2) {
			return false
		}
		for i := range d1 {
			if d1[i].Key != d2[i].Key || !IsIndexValueEqual(d1[i].Value, d2[i].Value) {
				return false
			}
		}
		return true
	case bson.A:
		a2, ok := v2.(bson.A)
		if !ok || len(d1) != len(a2) {
			return false
		}
		for i := range d1 {
			if !IsIndexValueEqual(d1[i], a2[i]) {
				return false
			}
		}
		return true
	}

	return CreateExtJSONString(bson.D{{"v", v1}}) == CreateExtJSONString(bson.D{{"v", v2}})
}
