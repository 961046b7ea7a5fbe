// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mongodb/mongo-index-tools/common/db"
	"github.com/mongodb/mongo-index-tools/common/failpoint"
	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// commitQuorum was added to createIndexes in 4.4.
var commitQuorumMinVersion = db.Version{4, 4, 0}

// MongoStore is a Store backed by a MongoDB deployment.
type MongoStore struct {
	provider *db.SessionProvider

	// commitQuorum is sent with createIndexes when non-empty: a number of
	// voting members or a name such as "majority" or "votingMembers".
	commitQuorum string
}

// NewMongoStore returns a MongoStore using the provider's client.
func NewMongoStore(provider *db.SessionProvider, commitQuorum string) *MongoStore {
	return &MongoStore{provider: provider, commitQuorum: commitQuorum}
}

func (s *MongoStore) collection(ns options.Namespace) (*mongo.Collection, error) {
	client, err := s.provider.GetSession()
	if err != nil {
		return nil, err
	}
	return client.Database(ns.DB).Collection(ns.Collection), nil
}

// ListIndexes implements Store.
func (s *MongoStore) ListIndexes(ctx context.Context, ns options.Namespace) ([]*idx.IndexDocument, error) {
	if failpoint.Enabled(failpoint.FailListIndexes) {
		return nil, errors.Errorf("failpoint %v: listIndexes on %v", failpoint.FailListIndexes, ns)
	}
	coll, err := s.collection(ns)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, s.mapError(ns, err)
	}
	defer cursor.Close(ctx)

	var indexes []*idx.IndexDocument
	for cursor.Next(ctx) {
		var spec bson.D
		if err := cursor.Decode(&spec); err != nil {
			return nil, errors.Wrapf(err, "decoding index on %v", ns)
		}
		index, err := idx.NewIndexDocumentFromD(spec)
		if err != nil {
			return nil, errors.Wrapf(err, "reading index on %v", ns)
		}
		indexes = append(indexes, index)
	}
	if err := cursor.Err(); err != nil {
		return nil, s.mapError(ns, err)
	}
	return indexes, nil
}

// CreateIndexes implements Store with a single createIndexes command.
func (s *MongoStore) CreateIndexes(ctx context.Context, ns options.Namespace, indexes []*idx.IndexDocument) ([]string, error) {
	client, err := s.provider.GetSession()
	if err != nil {
		return nil, err
	}

	cmd := bson.D{
		{"createIndexes", ns.Collection},
		{"indexes", lo.Map(indexes, func(index *idx.IndexDocument, _ int) bson.D { return index.ToD() })},
	}
	if s.commitQuorum != "" {
		quorum, err := s.commitQuorumValue(ctx)
		if err != nil {
			return nil, err
		}
		if quorum != nil {
			cmd = append(cmd, bson.E{Key: "commitQuorum", Value: quorum})
		}
	}

	log.Logvf(log.DebugHigh, "running createIndexes on %v: %v", ns, indexes)
	if err := client.Database(ns.DB).RunCommand(ctx, cmd).Err(); err != nil {
		return nil, s.mapError(ns, err)
	}
	return indexNames(indexes), nil
}

// commitQuorumValue returns nil if the server is too old to accept one.
func (s *MongoStore) commitQuorumValue(ctx context.Context) (interface{}, error) {
	version, err := s.provider.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version.LT(commitQuorumMinVersion) {
		log.Logvf(log.DebugLow, "server version %v does not support commitQuorum, ignoring %q",
			version, s.commitQuorum)
		return nil, nil
	}
	if n, err := strconv.Atoi(s.commitQuorum); err == nil {
		return int32(n), nil
	}
	return s.commitQuorum, nil
}

// DropIndex implements Store.
func (s *MongoStore) DropIndex(ctx context.Context, ns options.Namespace, name string) error {
	if value, ok := failpoint.Get(failpoint.FailDropIndex); ok && (value == "" || value == name) {
		return errors.Errorf("failpoint %v: dropIndexes %v on %v", failpoint.FailDropIndex, name, ns)
	}
	coll, err := s.collection(ns)
	if err != nil {
		return err
	}
	if _, err := coll.Indexes().DropOne(ctx, name); err != nil {
		return s.mapError(ns, err)
	}
	return nil
}

// mapError translates server errors into the Store sentinels while keeping
// the driver error in the chain.
func (s *MongoStore) mapError(ns options.Namespace, err error) error {
	switch {
	case db.IsNamespaceNotFound(err):
		return fmt.Errorf("%w: %w", ErrNamespaceNotFound, err)
	case db.IsIndexConflict(err):
		return fmt.Errorf("%w: %w", ErrIndexConflict, err)
	case db.IsIndexNotFound(err):
		return fmt.Errorf("%w: %w", ErrIndexNotFound, err)
	case db.IsTransientError(err):
		log.Logvf(log.DebugLow, "transient error on %v: %v", ns, err)
	}
	return err
}
