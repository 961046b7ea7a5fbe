// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"context"
	"strings"
	"sync"

	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Operation names a Store method.
type Operation string

const (
	OpListIndexes   Operation = "listIndexes"
	OpCreateIndexes Operation = "createIndexes"
	OpDropIndex     Operation = "dropIndexes"
)

// Call records one operation received by a MemoryStore.
type Call struct {
	Op        Operation
	Namespace options.Namespace
	// Index is the name of the dropped index, or the comma-separated names
	// of the created ones.
	Index string
}

type fault struct {
	Call
	err error
}

// MemoryStore is a Store kept in memory. It behaves like a server: the first
// create on a collection also creates the _id_ index, creating an index
// identical to an existing one is a no-op, and an index whose name or key
// pattern clashes with a differently shaped existing index is a conflict.
type MemoryStore struct {
	catalog *idx.IndexCatalog

	mu     sync.Mutex
	calls  []Call
	faults []fault
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{catalog: idx.NewIndexCatalog()}
}

// Seed creates a collection with the given indexes, bypassing conflict
// checks and the call log. The _id_ index is added unless already present.
func (s *MemoryStore) Seed(ns options.Namespace, indexes ...*idx.IndexDocument) {
	if !s.catalog.HasCollection(ns.DB, ns.Collection) {
		s.catalog.AddIndex(ns.DB, ns.Collection, primaryKeyIndex())
	}
	for _, index := range indexes {
		s.catalog.AddIndex(ns.DB, ns.Collection, stored(index))
	}
}

// InjectFault makes every later matching operation fail with err. An empty
// index matches any index.
func (s *MemoryStore) InjectFault(op Operation, ns options.Namespace, index string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{Call{op, ns, index}, err})
}

// Calls returns every operation received so far, in order.
func (s *MemoryStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Writes returns the create and drop operations received so far.
func (s *MemoryStore) Writes() []Call {
	var writes []Call
	for _, call := range s.Calls() {
		if call.Op != OpListIndexes {
			writes = append(writes, call)
		}
	}
	return writes
}

func (s *MemoryStore) record(call Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	for _, f := range s.faults {
		if f.Op == call.Op && f.Namespace == call.Namespace && (f.Index == "" || f.Index == call.Index) {
			return f.err
		}
	}
	return nil
}

// ListIndexes implements Store.
func (s *MemoryStore) ListIndexes(ctx context.Context, ns options.Namespace) ([]*idx.IndexDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.record(Call{Op: OpListIndexes, Namespace: ns}); err != nil {
		return nil, err
	}
	if !s.catalog.HasCollection(ns.DB, ns.Collection) {
		return nil, errors.Wrapf(ErrNamespaceNotFound, "%v", ns)
	}
	indexes := s.catalog.GetIndexes(ns.DB, ns.Collection)
	out := make([]*idx.IndexDocument, len(indexes))
	for i, index := range indexes {
		out[i] = index.Clone()
	}
	return out, nil
}

// CreateIndexes implements Store. Either every index is accepted or none is.
func (s *MemoryStore) CreateIndexes(ctx context.Context, ns options.Namespace, indexes []*idx.IndexDocument) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := indexNames(indexes)
	if err := s.record(Call{Op: OpCreateIndexes, Namespace: ns, Index: strings.Join(names, ",")}); err != nil {
		return nil, err
	}

	// The catalog lock is not held across the checks; callers serialize
	// writes to a namespace.
	current := s.catalog.GetIndexes(ns.DB, ns.Collection)
	if len(current) == 0 {
		current = []*idx.IndexDocument{primaryKeyIndex()}
	}
	for _, index := range indexes {
		if err := checkConflict(current, index); err != nil {
			return nil, err
		}
		current = append(current, stored(index))
	}

	if !s.catalog.HasCollection(ns.DB, ns.Collection) {
		s.catalog.AddIndex(ns.DB, ns.Collection, primaryKeyIndex())
	}
	for _, index := range indexes {
		if s.catalog.GetIndex(ns.DB, ns.Collection, index.Name()) == nil {
			s.catalog.AddIndex(ns.DB, ns.Collection, stored(index))
		}
	}
	return names, nil
}

func checkConflict(current []*idx.IndexDocument, index *idx.IndexDocument) error {
	for _, existing := range current {
		if existing.Name() != index.Name() {
			continue
		}
		if diffs := index.Drift(existing); len(diffs) > 0 {
			return errors.Wrapf(ErrIndexConflict, "an index named %v already exists with different options: %v",
				index.Name(), strings.Join(diffs, "; "))
		}
		return nil
	}
	for _, existing := range current {
		if len(index.Drift(existing)) == 0 {
			return errors.Wrapf(ErrIndexConflict, "index %v already exists with a different name: %v",
				index.Name(), existing.Name())
		}
	}
	return nil
}

// DropIndex implements Store.
func (s *MemoryStore) DropIndex(ctx context.Context, ns options.Namespace, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.record(Call{Op: OpDropIndex, Namespace: ns, Index: name}); err != nil {
		return err
	}
	if !s.catalog.HasCollection(ns.DB, ns.Collection) {
		return errors.Wrapf(ErrNamespaceNotFound, "%v", ns)
	}
	if name == PrimaryKeyIndexName {
		return errors.Errorf("cannot drop _id index on %v", ns)
	}
	dropped, err := s.catalog.DeleteIndexes(ns.DB, ns.Collection, bson.D{{"dropIndexes", ns.Collection}, {"index", name}})
	if err != nil {
		return err
	}
	if len(dropped) == 0 {
		return errors.Wrapf(ErrIndexNotFound, "index %v on %v", name, ns)
	}
	return nil
}

func primaryKeyIndex() *idx.IndexDocument {
	return &idx.IndexDocument{
		Key:     bson.D{{"_id", int32(1)}},
		Options: bson.M{"name": PrimaryKeyIndexName, "v": int32(2)},
	}
}

// stored returns the index as the server would list it.
func stored(index *idx.IndexDocument) *idx.IndexDocument {
	clone := index.Clone()
	clone.Options["name"] = index.Name()
	if _, ok := clone.Options["v"]; !ok {
		clone.Options["v"] = int32(2)
	}
	return clone
}
