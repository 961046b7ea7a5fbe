// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package idx

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mongodb/mongo-index-tools/common/bsonutil"
	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
	"go.mongodb.org/mongo-driver/bson"
)

// CollectionIndexCatalog stores the current view of all indexes of a single collection.
type CollectionIndexCatalog struct {
	// Maps index name to the raw index spec.
	indexes map[string]*IndexDocument
	// Index names in creation order.
	order []string
}

func (c *CollectionIndexCatalog) put(name string, index *IndexDocument) {
	if _, found := c.indexes[name]; !found {
		c.order = append(c.order, name)
	}
	c.indexes[name] = index
}

func (c *CollectionIndexCatalog) remove(name string) bool {
	if _, found := c.indexes[name]; !found {
		return false
	}
	delete(c.indexes, name)
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	return true
}

// IndexCatalog stores the current view of all indexes in all databases.
type IndexCatalog struct {
	sync.Mutex
	// Maps database name to collection name to CollectionIndexCatalog.
	indexes map[string]map[string]*CollectionIndexCatalog
}

// NewIndexCatalog inits an IndexCatalog
func NewIndexCatalog() *IndexCatalog {
	return &IndexCatalog{indexes: make(map[string]map[string]*CollectionIndexCatalog)}
}

// Namespaces returns all the namespaces in the IndexCatalog, sorted.
func (i *IndexCatalog) Namespaces() (namespaces []options.Namespace) {
	i.Lock()
	defer i.Unlock()
	for database, dbIndexMap := range i.indexes {
		for collection := range dbIndexMap {
			namespaces = append(namespaces, options.Namespace{DB: database, Collection: collection})
		}
	}
	slices.SortFunc(namespaces, func(a, b options.Namespace) int {
		return strings.Compare(a.String(), b.String())
	})
	return namespaces
}

func (i *IndexCatalog) getCollectionIndexCatalog(database, collection string) *CollectionIndexCatalog {
	dbIndexes, found := i.indexes[database]
	if !found {
		dbIndexes = make(map[string]*CollectionIndexCatalog)
		i.indexes[database] = dbIndexes
	}
	collIndexCatalog, found := dbIndexes[collection]
	if !found {
		collIndexCatalog = &CollectionIndexCatalog{
			indexes: make(map[string]*IndexDocument),
		}
		dbIndexes[collection] = collIndexCatalog
	}
	return collIndexCatalog
}

func (i *IndexCatalog) lookupCollection(database, collection string) (*CollectionIndexCatalog, bool) {
	dbIndexes, found := i.indexes[database]
	if !found {
		return nil, false
	}
	collIndexCatalog, found := dbIndexes[collection]
	return collIndexCatalog, found
}

// addIndex stores index under indexName. The stored document always carries
// indexName as its "name" option.
func (i *IndexCatalog) addIndex(database, collection, indexName string, index *IndexDocument) {
	if index.Options["name"] != indexName {
		index = index.Clone()
		index.Options["name"] = indexName
	}
	i.Lock()
	i.getCollectionIndexCatalog(database, collection).put(indexName, index)
	i.Unlock()
}

// AddIndex stores the given index into the index catalog under its name. An
// index stored under an existing name replaces it and keeps its position.
// An example index:
//
//	{
//		"v": 2,
//		"key": {
//			"lastModifiedDate": 1
//		},
//		"name": "lastModifiedDate_1"
//	}
func (i *IndexCatalog) AddIndex(database, collection string, index *IndexDocument) {
	i.addIndex(database, collection, index.Name(), index)
}

// AddIndexes stores the given indexes into the index catalog.
func (i *IndexCatalog) AddIndexes(database, collection string, indexes []*IndexDocument) {
	for _, index := range indexes {
		i.AddIndex(database, collection, index)
	}
}

// HasCollection reports whether the catalog knows the collection.
func (i *IndexCatalog) HasCollection(database, collection string) bool {
	i.Lock()
	defer i.Unlock()
	_, found := i.lookupCollection(database, collection)
	return found
}

// GetIndex returns an IndexDocument for a given index name
func (i *IndexCatalog) GetIndex(database, collection, indexName string) *IndexDocument {
	i.Lock()
	defer i.Unlock()
	collIndexCatalog, found := i.lookupCollection(database, collection)
	if !found {
		return nil
	}
	return collIndexCatalog.indexes[indexName]
}

// GetIndexes returns all the indexes for the given collection in the order
// they were added, or nil if the collection is unknown.
func (i *IndexCatalog) GetIndexes(database, collection string) []*IndexDocument {
	i.Lock()
	defer i.Unlock()
	collIndexCatalog, found := i.lookupCollection(database, collection)
	if !found {
		return nil
	}
	indexes := make([]*IndexDocument, 0, len(collIndexCatalog.order))
	for _, name := range collIndexCatalog.order {
		indexes = append(indexes, collIndexCatalog.indexes[name])
	}
	return indexes
}

// String formats the IndexCatalog for debugging purposes
func (i *IndexCatalog) String() string {
	var b strings.Builder
	b.WriteString("IndexCatalog:\n")
	for _, ns := range i.Namespaces() {
		b.WriteString(fmt.Sprintf("\t%s: \n", ns))
		for _, indexSpec := range i.GetIndexes(ns.DB, ns.Collection) {
			b.WriteString(fmt.Sprintf("\t\t%s: %+#v\n", indexSpec.Name(), indexSpec))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DropDatabase removes a database from the index catalog.
func (i *IndexCatalog) DropDatabase(database string) {
	i.Lock()
	defer i.Unlock()
	delete(i.indexes, database)
}

// DropCollection removes a collection from the index catalog.
func (i *IndexCatalog) DropCollection(database, collection string) {
	i.Lock()
	defer i.Unlock()
	delete(i.indexes[database], collection)
}

// DeleteIndexes removes indexes from the index catalog and returns the names
// removed. dropCmd has the shape of a dropIndexes command and may be,
// {"dropIndexes": "eventlog", "index": "*"}
// or,
// {"dropIndexes": "eventlog", "index": "name_1"}
// or,
// {"dropIndexes": "eventlog", "index": {"name": 1}}
// The _id_ index is never removed by "*".
func (i *IndexCatalog) DeleteIndexes(database, collection string, dropCmd bson.D) ([]string, error) {
	i.Lock()
	defer i.Unlock()

	collIndexCatalog, found := i.lookupCollection(database, collection)
	if !found || len(collIndexCatalog.indexes) == 0 {
		// We have no indexes to drop.
		return nil, nil
	}
	indexValue, keyError := bsonutil.FindValueByKey("index", &dropCmd)
	if keyError != nil {
		return nil, fmt.Errorf("could not drop index on %s.%s: missing 'index' in %v",
			database, collection, bsonutil.CreateExtJSONString(dropCmd))
	}

	var dropped []string
	switch indexToDrop := indexValue.(type) {
	case string:
		if indexToDrop != "*" {
			// Drop an index by name.
			if collIndexCatalog.remove(indexToDrop) {
				dropped = append(dropped, indexToDrop)
			}
			return dropped, nil
		}
		// Drop all non-id indexes for the collection.
		for _, name := range slices.Clone(collIndexCatalog.order) {
			if name == "_id_" {
				continue
			}
			collIndexCatalog.remove(name)
			dropped = append(dropped, name)
		}
		return dropped, nil
	case bson.D:
		// Drop an index by key pattern.
		for _, name := range slices.Clone(collIndexCatalog.order) {
			if bsonutil.IsIndexKeysEqual(indexToDrop, collIndexCatalog.indexes[name].Key) {
				collIndexCatalog.remove(name)
				dropped = append(dropped, name)
			}
		}
		log.Logvf(log.DebugHigh, "dropped index on %s.%s by key pattern %v: %v", database, collection, indexToDrop, dropped)
		return dropped, nil
	default:
		return nil, fmt.Errorf("could not drop index on %s.%s, could not handle %v: "+
			"expected string or object for 'index', found: %T, %v",
			database, collection, dropCmd[0].Key, indexToDrop, indexToDrop)
	}
}
