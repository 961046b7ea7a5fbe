// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bsonutil provides helpers for comparing and formatting the BSON
// documents that describe indexes.
package bsonutil

import (
	"strconv"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoSuchField is returned by FindValueByKey when the key is absent.
var ErrNoSuchField = errors.New("no such field")

// FindValueByKey returns the value of keyName in document.
func FindValueByKey(keyName string, document *bson.D) (interface{}, error) {
	for _, key := range *document {
		if key.Key == keyName {
			return key.Value, nil
		}
	}
	return nil, ErrNoSuchField
}

// Bson2Float64 converts a numeric BSON value to float64. The second return is
// false when value is not a number.
func Bson2Float64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case primitive.Decimal128:
		if f, err := decimalToFloat64(v); err == nil {
			return f, true
		}
	}
	return 0, false
}

func decimalToFloat64(d primitive.Decimal128) (float64, error) {
	return strconv.ParseFloat(d.String(), 64)
}

// MarshalExtJSON renders doc as relaxed (canonical=false) or canonical
// Extended JSON, optionally indented.
func MarshalExtJSON(doc interface{}, canonical, pretty bool) ([]byte, error) {
	if pretty {
		return bson.MarshalExtJSONIndent(doc, canonical, false, "", "\t")
	}
	return bson.MarshalExtJSON(doc, canonical, false)
}

// CreateExtJSONString stringifies doc as Extended JSON. It does not error
// if it's unable to marshal the doc to JSON.
func CreateExtJSONString(doc interface{}) string {
	// informational messages should never fail on formatting
	JSONString := "<unable to format document>"
	JSONBytes, err := MarshalExtJSON(doc, false, false)
	if err == nil {
		JSONString = string(JSONBytes)
	}
	return JSONString
}
