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
)

// EnsureIndexes submits every desired index to the store in a single batch
// and returns the names the store reports for them. Indexes that already
// exist with the same shape are accepted unchanged. desired must not be
// empty. Store errors are returned as an *Error and still match the store's
// sentinels through errors.Is.
func EnsureIndexes(ctx context.Context, store Store, ns options.Namespace, desired []*idx.IndexDocument) ([]string, error) {
	if len(desired) == 0 {
		return nil, errors.Errorf("no indexes to create on %v", ns)
	}
	names, err := store.CreateIndexes(ctx, ns, desired)
	if err != nil {
		return nil, &Error{Namespace: ns, Stage: Materializing, Err: err}
	}
	return names, nil
}
