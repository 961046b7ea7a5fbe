// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongoindexes

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/mongodb/mongo-index-tools/reconcile"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const runFixture = `
db: app
collections:
  - collection: users
    indexes:
      - key: {name: 1}
      - key: {age: 1}
  - collection: orders
    indexes:
      - key: {customer: 1}
`

var usersNS = options.Namespace{DB: "app", Collection: "users"}

func newTestTool(t *testing.T, store reconcile.Store, opts ReconcileOptions) (*MongoIndexes, *bytes.Buffer) {
	path := filepath.Join(t.TempDir(), "indexes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(runFixture), 0o600))

	out := &bytes.Buffer{}
	return &MongoIndexes{
		ToolOptions:      &options.ToolOptions{Namespace: &options.Namespace{}},
		InputOptions:     &InputOptions{File: path, Type: YAML},
		ReconcileOptions: &opts,
		Store:            store,
		RunID:            "test-run",
		Out:              out,
	}, out
}

func seededStore() *reconcile.MemoryStore {
	store := reconcile.NewMemoryStore()
	store.Seed(usersNS, &idx.IndexDocument{Key: bson.D{{"name", int32(1)}}, Options: bson.M{}},
		&idx.IndexDocument{Key: bson.D{{"legacy", int32(1)}}, Options: bson.M{}})
	return store
}

func TestRunLogsSummaries(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	var logs bytes.Buffer
	log.SetWriter(&logs)
	defer log.SetWriter(os.Stderr)

	tool, _ := newTestTool(t, seededStore(), ReconcileOptions{})
	results, err := tool.Run()
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, logs.String(), "app.users: created [age_1], dropped [legacy_1]")
	assert.Contains(t, logs.String(), "app.orders: created [customer_1], dropped []")
	assert.Contains(t, logs.String(), "run test-run: 2 indexes created, 1 index dropped, 0 collections failed")
}

func TestRunJSONReport(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	store := seededStore()
	tool, out := newTestTool(t, store, ReconcileOptions{JSON: true, DryRun: true})
	_, err := tool.reconcile(context.Background())
	require.NoError(t, err)
	require.Empty(t, store.Writes())

	var report Report
	require.NoError(t, bson.UnmarshalExtJSON(out.Bytes(), false, &report))
	assert.Equal(t, "test-run", report.RunID)
	assert.True(t, report.DryRun)
	require.Len(t, report.Results, 2)
	assert.Equal(t, CollectionReport{
		Namespace: "app.users",
		Created:   []string{"age_1"},
		Dropped:   []string{"legacy_1"},
	}, report.Results[0])
	assert.Empty(t, report.Results[1].Dropped)
	assert.Contains(t, out.String(), `"dropped": []`)
}

func TestRunContinueOnError(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	store := seededStore()
	store.InjectFault(reconcile.OpDropIndex, usersNS, "legacy_1", errors.New("not primary"))
	tool, out := newTestTool(t, store, ReconcileOptions{JSON: true, ContinueOnError: true})

	results, err := tool.reconcile(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 collections failed")
	require.Len(t, results, 2)

	var report Report
	require.NoError(t, bson.UnmarshalExtJSON(out.Bytes(), false, &report))
	assert.Contains(t, report.Results[0].Error, "not primary")
	assert.Empty(t, report.Results[1].Error)
	assert.Equal(t, []string{"customer_1"}, report.Results[1].Created)
	assert.NotEmpty(t, report.Error)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	store := seededStore()
	store.InjectFault(reconcile.OpDropIndex, usersNS, "legacy_1", errors.New("not primary"))
	tool, out := newTestTool(t, store, ReconcileOptions{JSON: true})

	results, err := tool.reconcile(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not primary")
	require.Len(t, results, 1)
	assert.Equal(t, usersNS, results[0].Namespace)

	var report Report
	require.NoError(t, bson.UnmarshalExtJSON(out.Bytes(), false, &report))
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Error, "not primary")
	assert.NotEmpty(t, report.Error)
}

func TestRunFilter(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	store := reconcile.NewMemoryStore()
	tool, _ := newTestTool(t, store, ReconcileOptions{})
	tool.ToolOptions.Namespace.Collection = "orders"

	results, err := tool.reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "app.orders", results[0].Namespace.String())
}

func TestRunLockFile(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	lockPath := filepath.Join(t.TempDir(), "mongoindexes.lock")
	store := reconcile.NewMemoryStore()
	tool, _ := newTestTool(t, store, ReconcileOptions{LockFile: lockPath})

	t.Run("free lock", func(t *testing.T) {
		_, err := tool.reconcile(context.Background())
		require.NoError(t, err)

		// The lock is released when the run ends.
		other := flock.New(lockPath)
		locked, err := other.TryLock()
		require.NoError(t, err)
		require.True(t, locked)
		require.NoError(t, other.Unlock())
	})

	t.Run("held lock", func(t *testing.T) {
		other := flock.New(lockPath)
		locked, err := other.TryLock()
		require.NoError(t, err)
		require.True(t, locked)
		defer other.Unlock()

		before := len(store.Calls())
		_, err = tool.reconcile(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "another run holds the lock")
		assert.Len(t, store.Calls(), before)
	})
}
