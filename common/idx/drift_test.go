// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package idx

import (
	"testing"

	"github.com/mongodb/mongo-index-tools/common/testtype"
	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDrift(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	Convey("Comparing a desired index with the server's copy", t, func() {
		existing := &IndexDocument{
			Key: bson.D{{"email", int32(1)}},
			Options: bson.M{
				"v":      int32(2),
				"name":   "email_1",
				"unique": true,
			},
		}

		Convey("identical shapes have no drift", func() {
			desired := &IndexDocument{Key: bson.D{{"email", 1}}, Options: bson.M{"unique": true}}
			So(desired.Drift(existing), ShouldBeEmpty)
		})

		Convey("server-filled options are ignored unless requested", func() {
			desired := &IndexDocument{Key: bson.D{{"email", 1.0}}, Options: bson.M{"unique": true}}
			So(desired.Drift(existing), ShouldBeEmpty)

			desired.Options["v"] = int32(1)
			So(desired.Drift(existing), ShouldHaveLength, 1)
		})

		Convey("a different key pattern is drift", func() {
			desired := &IndexDocument{Key: bson.D{{"email", -1}}, Options: bson.M{"name": "email_1", "unique": true}}
			diffs := desired.Drift(existing)
			So(diffs, ShouldHaveLength, 1)
			So(diffs[0], ShouldContainSubstring, "key")
		})

		Convey("an option only the existing index has is drift", func() {
			desired := &IndexDocument{Key: bson.D{{"email", 1}}}
			diffs := desired.Drift(existing)
			So(diffs, ShouldHaveLength, 1)
			So(diffs[0], ShouldContainSubstring, "unique")
		})

		Convey("an explicit false matches an absent boolean", func() {
			desired := &IndexDocument{Key: bson.D{{"email", 1}}, Options: bson.M{"unique": true, "sparse": false}}
			So(desired.Drift(existing), ShouldBeEmpty)
		})

		Convey("a different partial filter is drift", func() {
			desired := &IndexDocument{
				Key:                     bson.D{{"email", 1}},
				Options:                 bson.M{"unique": true},
				PartialFilterExpression: bson.D{{"active", true}},
			}
			diffs := desired.Drift(existing)
			So(diffs, ShouldHaveLength, 1)
			So(diffs[0], ShouldContainSubstring, "partialFilterExpression")
		})
	
		Convey("a text index matches the server's listed form", func() {
			listed := &IndexDocument{
				Key: bson.D{{"tenant", int32(1)}, {"_fts", "text"}, {"_ftsx", int32(1)}},
				Options: bson.M{
					"v":                 int32(2),
					"name":              "tenant_1_title_text_content_text",
					"weights":           bson.D{{"content", int32(1)}, {"title", int32(5)}},
					"default_language":  "english",
					"language_override": "language",
					"textIndexVersion":  int32(3),
				},
			}

			desired := &IndexDocument{
				Key:     bson.D{{"tenant", 1}, {"title", "text"}, {"content", "text"}},
				Options: bson.M{"name": "tenant_1_title_text_content_text"},
			}
			So(desired.Drift(listed), ShouldBeEmpty)

			Convey("and only the declared weights are compared", func() {
				desired.Options["weights"] = bson.M{"title": 5}
				So(desired.Drift(listed), ShouldBeEmpty)

				desired.Options["weights"] = bson.M{"title": 10}
				diffs := desired.Drift(listed)
				So(diffs, ShouldHaveLength, 1)
				So(diffs[0], ShouldContainSubstring, "weights")
			})

			Convey("but a text field the server does not index is drift", func() {
				desired.Key = bson.D{{"tenant", 1}, {"summary", "text"}}
				diffs := desired.Drift(listed)
				So(diffs, ShouldHaveLength, 1)
				So(diffs[0], ShouldContainSubstring, "summary")
			})

			Convey("but moving the text fields is drift", func() {
				desired.Key = bson.D{{"title", "text"}, {"content", "text"}, {"tenant", 1}}
				diffs := desired.Drift(listed)
				So(diffs, ShouldHaveLength, 1)
				So(diffs[0], ShouldContainSubstring, "key")
			})
		})

		Convey("a collation is compared on the fields the descriptor sets", func() {
			listed := &IndexDocument{
				Key: bson.D{{"name", int32(1)}},
				Options: bson.M{
					"v":    int32(2),
					"name": "name_1",
					"collation": bson.D{
						{"locale", "fr"},
						{"caseLevel", false},
						{"caseFirst", "off"},
						{"strength", int32(3)},
						{"numericOrdering", false},
						{"alternate", "non-ignorable"},
						{"maxVariable", "punct"},
						{"normalization", false},
						{"backwards", false},
						{"version", "57.1"},
					},
				},
			}

			desired := &IndexDocument{Key: bson.D{{"name", 1}}, Options: bson.M{"collation": bson.D{{"locale", "fr"}}}}
			So(desired.Drift(listed), ShouldBeEmpty)

			desired.Options["collation"] = bson.D{{"locale", "fr"}, {"strength", 3}}
			So(desired.Drift(listed), ShouldBeEmpty)

			desired.Options["collation"] = bson.D{{"locale", "de"}}
			diffs := desired.Drift(listed)
			So(diffs, ShouldHaveLength, 1)
			So(diffs[0], ShouldContainSubstring, "collation")

			Convey("and the simple collation matches an index without one", func() {
				plain := &IndexDocument{Key: bson.D{{"name", int32(1)}}, Options: bson.M{"v": int32(2), "name": "name_1"}}
				simple := &IndexDocument{Key: bson.D{{"name", 1}}, Options: bson.M{"collation": bson.M{"locale": "simple"}}}
				So(simple.Drift(plain), ShouldBeEmpty)
			})
		})
	})
}
