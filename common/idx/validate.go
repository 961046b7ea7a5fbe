// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package idx

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/mongodb/mongo-index-tools/common/bsonutil"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Key directions other than numbers that the server accepts.
var specialIndexTypes = map[string]bool{
	"2d":          true,
	"2dsphere":    true,
	"geoHaystack": true,
	"hashed":      true,
	"text":        true,
}

var boolOptions = []string{"unique", "sparse", "background", "hidden"}

var documentOptions = []string{"partialFilterExpression", "collation", "weights", "wildcardProjection", "storageEngine"}

// Validate reports every problem with the descriptor at once: unknown
// option keys, options of the wrong type and invalid key directions.
func (id IndexDocument) Validate() error {
	// []any is for easier inclusion into fmt.Errorf below.
	var errors []any

	if len(id.Key) == 0 {
		errors = append(errors, fmt.Errorf("index key pattern must not be empty"))
	}
	for _, keySpec := range id.Key {
		if err := validateKeyElement(keySpec); err != nil {
			errors = append(errors, err)
		}
	}

	options := lo.Keys(id.Options)
	slices.Sort(options)
	for _, option := range options {
		value := id.Options[option]
		if option == "key" || option == "ns" || !bsonutil.IsValidIndexOption(option) {
			errors = append(errors, fmt.Errorf("unrecognised index option %#q", option))
			continue
		}
		if err := validateOption(option, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) == 0 {
		return nil
	}

	return fmt.Errorf(
		"index %#q: "+strings.Join(repeat(len(errors), "%w"), "; "),
		append([]any{id.Name()}, errors...)...,
	)
}

func isWildcardField(field string) bool {
	return field == "$**" || strings.HasSuffix(field, ".$**")
}

func validateKeyElement(elem bson.E) error {
	if elem.Key == "" {
		return fmt.Errorf("index key field names must not be empty")
	}

	if s, ok := elem.Value.(string); ok {
		if isWildcardField(elem.Key) {
			return fmt.Errorf("wildcard field %#q must have direction 1, found %#q", elem.Key, s)
		}
		if !specialIndexTypes[s] {
			return fmt.Errorf("field %#q has unknown index type %#q", elem.Key, s)
		}
		return nil
	}

	f, ok := bsonutil.Bson2Float64(elem.Value)
	if !ok {
		return fmt.Errorf("field %#q has direction of unsupported type %T", elem.Key, elem.Value)
	}
	if isWildcardField(elem.Key) && f != 1 {
		return fmt.Errorf("wildcard field %#q must have direction 1, found %v", elem.Key, elem.Value)
	}
	if f == 0 || math.IsNaN(f) {
		return fmt.Errorf("field %#q must have a non-zero direction", elem.Key)
	}
	return nil
}

func validateOption(option string, value interface{}) error {
	switch {
	case option == "name":
		if s, ok := value.(string); !ok || s == "" {
			return fmt.Errorf("option %#q must be a non-empty string", option)
		}
	case option == "expireAfterSeconds":
		f, ok := bsonutil.Bson2Float64(value)
		if !ok || f < 0 || f != math.Trunc(f) {
			return fmt.Errorf("option %#q must be a non-negative integer, found %v", option, value)
		}
	case slices.Contains(boolOptions, option):
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("option %#q must be a boolean, found %T", option, value)
		}
	case slices.Contains(documentOptions, option):
		switch value.(type) {
		case bson.D, bson.M:
		default:
			return fmt.Errorf("option %#q must be a document, found %T", option, value)
		}
	}
	return nil
}

func repeat[T any](count int, prototype T) []T {
	retval := make([]T, count)
	for i := range count {
		retval[i] = prototype
	}

	return retval
}
