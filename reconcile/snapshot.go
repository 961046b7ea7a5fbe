// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"context"

	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ListExistingIndexes returns the indexes currently on the collection. A
// collection that does not exist yet has no indexes, so a not-found error
// from the store yields an empty result.
func ListExistingIndexes(ctx context.Context, store Store, ns options.Namespace) ([]*idx.IndexDocument, error) {
	indexes, err := store.ListIndexes(ctx, ns)
	if errors.Is(err, ErrNamespaceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return indexes, nil
}

// ListExistingIndexNames returns the names of the indexes currently on the
// collection, in the order the store reports them.
func ListExistingIndexNames(ctx context.Context, store Store, ns options.Namespace) ([]string, error) {
	indexes, err := ListExistingIndexes(ctx, store, ns)
	if err != nil {
		return nil, err
	}
	return indexNames(indexes), nil
}

func indexNames(indexes []*idx.IndexDocument) []string {
	return lo.Map(indexes, func(index *idx.IndexDocument, _ int) string {
		return index.Name()
	})
}
