// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package idx describes collection indexes: their specification documents,
// the names the server derives for them, and an in-memory catalog of them.
package idx

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IndexDocument holds information about a collection's index.
type IndexDocument struct {
	Options                 bson.M `bson:",inline"`
	Key                     bson.D `bson:"key"`
	PartialFilterExpression bson.D `bson:"partialFilterExpression,omitempty"`
}

// NewIndexDocumentFromD converts a bson.D index spec into an IndexDocument
func NewIndexDocumentFromD(doc bson.D) (*IndexDocument, error) {
	indexDoc := IndexDocument{Options: bson.M{}}

	for _, elem := range doc {
		switch elem.Key {
		case "key":
			val, ok := elem.Value.(bson.D)
			if !ok {
				return nil, fmt.Errorf("index key could not type assert to bson.D")
			}
			indexDoc.Key = val
		case "partialFilterExpression":
			val, ok := elem.Value.(bson.D)
			if !ok {
				return nil, fmt.Errorf("index partialFilterExpression could not type assert to bson.D")
			}
			indexDoc.PartialFilterExpression = val
		default:
			indexDoc.Options[elem.Key] = elem.Value
		}
	}

	return &indexDoc, nil
}

// IsDefaultIdIndex indicates whether the IndexDocument represents its
// collection's default _id index.
func (id *IndexDocument) IsDefaultIdIndex() bool {
	if len(id.Key) != 1 || id.Key[0].Key != "_id" {
		return false
	}

	// legacy servers stored the _id direction as an empty string
	if s, ok := id.Key[0].Value.(string); ok {
		return s == ""
	}
	return true
}

// Name returns the explicit "name" option, or the name the server derives
// from the key pattern when none is set.
func (id *IndexDocument) Name() string {
	if name, ok := id.Options["name"].(string); ok && name != "" {
		return name
	}
	return DeriveName(id.Key)
}

// DeriveName renders a key pattern the way the server names an unnamed
// index: every field and its direction joined with underscores, so
// {a: 1, b: -1} becomes "a_1_b_-1". The ascending _id index is always "_id_".
func DeriveName(key bson.D) string {
	if len(key) == 1 && key[0].Key == "_id" {
		if v := formatKeyValue(key[0].Value); v == "1" || v == "" {
			return "_id_"
		}
	}
	parts := make([]string, 0, len(key)*2)
	for _, elem := range key {
		parts = append(parts, elem.Key, formatKeyValue(elem.Value))
	}
	return strings.Join(parts, "_")
}

func formatKeyValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case primitive.Decimal128:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToD renders the document as an index specification for the createIndexes
// command. The name is always present, and the remaining options follow in
// lexical order so the same descriptor always produces the same command.
func (id *IndexDocument) ToD() bson.D {
	spec := bson.D{{"key", id.Key}, {"name", id.Name()}}

	keys := lo.Filter(lo.Keys(id.Options), func(key string, _ int) bool {
		return key != "name" && key != "key" && key != "ns"
	})
	slices.Sort(keys)
	for _, key := range keys {
		spec = append(spec, bson.E{Key: key, Value: id.Options[key]})
	}

	if len(id.PartialFilterExpression) > 0 {
		spec = append(spec, bson.E{Key: "partialFilterExpression", Value: id.PartialFilterExpression})
	}
	return spec
}

// Clone returns a copy that shares no top-level maps or slices with id.
func (id *IndexDocument) Clone() *IndexDocument {
	clone := &IndexDocument{
		Options:                 make(bson.M, len(id.Options)),
		Key:                     append(bson.D(nil), id.Key...),
		PartialFilterExpression: append(bson.D(nil), id.PartialFilterExpression...),
	}
	for k, v := range id.Options {
		clone.Options[k] = v
	}
	if len(clone.PartialFilterExpression) == 0 {
		clone.PartialFilterExpression = nil
	}
	return clone
}

func (id *IndexDocument) String() string {
	return fmt.Sprintf("%s %v", id.Name(), id.Key)
}
