// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"context"
	"testing"

	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryStore(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	ctx := context.Background()
	ns := options.Namespace{DB: "app", Collection: "users"}

	Convey("With an empty MemoryStore", t, func() {
		store := NewMemoryStore()

		Convey("listing an unknown collection is not found", func() {
			_, err := store.ListIndexes(ctx, ns)
			So(errors.Is(err, ErrNamespaceNotFound), ShouldBeTrue)
		})

		Convey("dropping from an unknown collection is not found", func() {
			err := store.DropIndex(ctx, ns, "a_1")
			So(errors.Is(err, ErrNamespaceNotFound), ShouldBeTrue)
		})

		Convey("the first create also creates the primary key index", func() {
			names, err := store.CreateIndexes(ctx, ns, []*idx.IndexDocument{ascending("email")})
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"email_1"})

			indexes, err := store.ListIndexes(ctx, ns)
			So(err, ShouldBeNil)
			So(indexNames(indexes), ShouldResemble, []string{"_id_", "email_1"})
			So(indexes[0].IsDefaultIdIndex(), ShouldBeTrue)

			Convey("creating the same index again changes nothing", func() {
				names, err := store.CreateIndexes(ctx, ns, []*idx.IndexDocument{ascending("email")})
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"email_1"})

				indexes, err := store.ListIndexes(ctx, ns)
				So(err, ShouldBeNil)
				So(indexNames(indexes), ShouldResemble, []string{"_id_", "email_1"})
			})

			Convey("an index with the same name but other options conflicts", func() {
				_, err := store.CreateIndexes(ctx, ns, []*idx.IndexDocument{
					ascending("age"),
					withOption(ascending("email"), "unique", true),
				})
				So(errors.Is(err, ErrIndexConflict), ShouldBeTrue)

				Convey("and nothing from the batch is created", func() {
					indexes, err := store.ListIndexes(ctx, ns)
					So(err, ShouldBeNil)
					So(indexNames(indexes), ShouldResemble, []string{"_id_", "email_1"})
				})
			})

			Convey("an index with the same shape but another name conflicts", func() {
				_, err := store.CreateIndexes(ctx, ns, []*idx.IndexDocument{
					withOption(ascending("email"), "name", "by_email"),
				})
				So(errors.Is(err, ErrIndexConflict), ShouldBeTrue)
			})

			Convey("the same key with a different name and a filter is accepted", func() {
				partial := withOption(ascending("email"), "name", "active_email")
				partial.PartialFilterExpression = bson.D{{"active", true}}
				_, err := store.CreateIndexes(ctx, ns, []*idx.IndexDocument{partial})
				So(err, ShouldBeNil)
			})

			Convey("dropping an unknown index is not found", func() {
				err := store.DropIndex(ctx, ns, "age_1")
				So(errors.Is(err, ErrIndexNotFound), ShouldBeTrue)
			})

			Convey("the primary key index cannot be dropped", func() {
				So(store.DropIndex(ctx, ns, PrimaryKeyIndexName), ShouldNotBeNil)
			})

			Convey("the call log records every operation", func() {
				So(store.DropIndex(ctx, ns, "email_1"), ShouldBeNil)
				So(store.Writes(), ShouldResemble, []Call{
					{Op: OpCreateIndexes, Namespace: ns, Index: "email_1"},
					{Op: OpDropIndex, Namespace: ns, Index: "email_1"},
				})
				So(len(store.Calls()), ShouldEqual, 3)
			})
		})

		Convey("a cancelled context fails every operation", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.ListIndexes(cancelled, ns)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(store.Calls(), ShouldBeEmpty)
		})
	})
}
