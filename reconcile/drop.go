// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"context"

	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
)

// DropAll drops the named indexes one at a time, in order, and stops at the
// first failure. Indexes dropped before a failure are not restored; the
// returned *Error lists them and names the index that failed.
func DropAll(ctx context.Context, store Store, ns options.Namespace, names []string) ([]string, error) {
	dropped := make([]string, 0, len(names))
	for _, name := range names {
		log.Logvf(log.DebugLow, "dropping index %v on %v", name, ns)
		if err := store.DropIndex(ctx, ns, name); err != nil {
			return dropped, &Error{
				Namespace: ns,
				Stage:     Dropping,
				Index:     name,
				Dropped:   dropped,
				Err:       err,
			}
		}
		dropped = append(dropped, name)
	}
	return dropped, nil
}
