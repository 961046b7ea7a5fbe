// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package reconcile converges the indexes of MongoDB collections to a
// declared set. For each collection it reads the existing index names,
// creates the declared indexes in one batch, and drops every index that
// is neither declared nor the primary-key index.
package reconcile

import (
	"context"

	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/pkg/errors"
)

// PrimaryKeyIndexName is the name the server gives the _id index. It is
// never dropped.
const PrimaryKeyIndexName = "_id_"

var (
	// ErrNamespaceNotFound is returned by a Store when the database or
	// collection does not exist.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrIndexConflict is returned by a Store when a submitted index has the
	// name or key pattern of an existing index with a different shape.
	ErrIndexConflict = errors.New("index conflicts with an existing index")

	// ErrIndexNotFound is returned by a Store when dropping an unknown index.
	ErrIndexNotFound = errors.New("index not found")
)

// Store is the narrow view of a document store the engine works through.
type Store interface {
	// ListIndexes returns every index on the collection in the order the
	// store reports them. It fails with ErrNamespaceNotFound when the
	// collection does not exist.
	ListIndexes(ctx context.Context, ns options.Namespace) ([]*idx.IndexDocument, error)

	// CreateIndexes submits all indexes in one batch and returns the names
	// they resolve to. Indexes identical to existing ones are accepted
	// without change.
	CreateIndexes(ctx context.Context, ns options.Namespace, indexes []*idx.IndexDocument) ([]string, error)

	// DropIndex removes the named index.
	DropIndex(ctx context.Context, ns options.Namespace, name string) error
}
