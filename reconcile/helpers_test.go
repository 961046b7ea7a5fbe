// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"github.com/mongodb/mongo-index-tools/common/idx"
	"go.mongodb.org/mongo-driver/bson"
)

// ascending builds an unnamed index with an ascending key on each field.
func ascending(fields ...string) *idx.IndexDocument {
	key := bson.D{}
	for _, field := range fields {
		key = append(key, bson.E{Key: field, Value: int32(1)})
	}
	return &idx.IndexDocument{Key: key, Options: bson.M{}}
}

func withOption(index *idx.IndexDocument, option string, value interface{}) *idx.IndexDocument {
	index = index.Clone()
	index.Options[option] = value
	return index
}
