// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongoindexes

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/mongodb/mongo-index-tools/reconcile"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// yamlBindings mirrors the bindings file. Index specs stay as nodes so
// their field order survives decoding.
type yamlBindings struct {
	DB          string `yaml:"db"`
	Collections []struct {
		DB         string      `yaml:"db"`
		Collection string      `yaml:"collection"`
		Indexes    []yaml.Node `yaml:"indexes"`
	} `yaml:"collections"`
}

type tomlBindings struct {
	DB          string `toml:"db"`
	Collections []struct {
		DB         string                   `toml:"db"`
		Collection string                   `toml:"collection"`
		Indexes    []map[string]interface{} `toml:"indexes"`
	} `toml:"collections"`
}

// LoadBindings reads a bindings file of the given type. Collections without
// a database of their own use the file's db, or defaultDB when the file has
// none.
func LoadBindings(path, fileType, defaultDB string) ([]reconcile.Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading bindings file")
	}
	bindings, err := ParseBindings(data, fileType, defaultDB)
	if err != nil {
		return nil, errors.Wrapf(err, "error in bindings file %v", path)
	}
	return bindings, nil
}

// ParseBindings parses the contents of a bindings file.
func ParseBindings(data []byte, fileType, defaultDB string) ([]reconcile.Binding, error) {
	switch fileType {
	case YAML:
		return parseYAML(data, defaultDB)
	case TOML:
		return parseTOML(data, defaultDB)
	default:
		return nil, fmt.Errorf("unknown bindings file type %q", fileType)
	}
}

func parseYAML(data []byte, defaultDB string) ([]reconcile.Binding, error) {
	var file yamlBindings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "could not parse YAML")
	}
	if file.DB != "" {
		defaultDB = file.DB
	}

	bindings := make([]reconcile.Binding, 0, len(file.Collections))
	for i, coll := range file.Collections {
		ns, err := namespace(coll.DB, coll.Collection, defaultDB, i)
		if err != nil {
			return nil, err
		}
		binding := reconcile.Binding{Namespace: ns}
		for j := range coll.Indexes {
			value, err := yamlValue(&coll.Indexes[j])
			if err != nil {
				return nil, errors.Wrapf(err, "%v: index %d", ns, j)
			}
			spec, ok := value.(bson.D)
			if !ok {
				return nil, fmt.Errorf("%v: index %d: expected a mapping, found %T", ns, j, value)
			}
			index, err := indexFromSpec(spec)
			if err != nil {
				return nil, errors.Wrapf(err, "%v: index %d", ns, j)
			}
			binding.Indexes = append(binding.Indexes, index)
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

// yamlValue converts a node into the BSON value it denotes. Mappings become
// bson.D in document order.
func yamlValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.MappingNode:
		doc := make(bson.D, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: field names must be scalars", keyNode.Line)
			}
			value, err := yamlValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: keyNode.Value, Value: value})
		}
		return doc, nil
	case yaml.SequenceNode:
		array := make(bson.A, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := yamlValue(child)
			if err != nil {
				return nil, err
			}
			array = append(array, value)
		}
		return array, nil
	case yaml.ScalarNode:
		var value interface{}
		if err := node.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "line %d", node.Line)
		}
		return normalizeNumber(value), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func parseTOML(data []byte, defaultDB string) ([]reconcile.Binding, error) {
	var file tomlBindings
	meta, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse TOML")
	}
	// Index tables decode into maps whose keys toml never marks as decoded.
	// Their options are checked by Validate instead.
	undecoded := lo.Filter(meta.Undecoded(), func(key toml.Key, _ int) bool {
		return len(key) < 2 || key[0] != "collections" || key[1] != "indexes"
	})
	if len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown fields: %v", strings.Join(lo.Map(undecoded, func(key toml.Key, _ int) string {
			return key.String()
		}), ", "))
	}
	if meta.IsDefined("db") {
		defaultDB = file.DB
	}

	bindings := make([]reconcile.Binding, 0, len(file.Collections))
	for i, coll := range file.Collections {
		ns, err := namespace(coll.DB, coll.Collection, defaultDB, i)
		if err != nil {
			return nil, err
		}
		binding := reconcile.Binding{Namespace: ns}
		for j, table := range coll.Indexes {
			spec, err := tomlSpec(table)
			if err != nil {
				return nil, errors.Wrapf(err, "%v: index %d", ns, j)
			}
			index, err := indexFromSpec(spec)
			if err != nil {
				return nil, errors.Wrapf(err, "%v: index %d", ns, j)
			}
			binding.Indexes = append(binding.Indexes, index)
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

// tomlSpec converts a TOML index table. TOML tables are unordered, so a key
// pattern with more than one field must be an array of single-field tables.
func tomlSpec(table map[string]interface{}) (bson.D, error) {
	spec := bson.D{}
	for _, field := range sortedKeys(table) {
		value := table[field]
		if field == "key" {
			if keyTable, ok := value.(map[string]interface{}); ok && len(keyTable) > 1 {
				return nil, fmt.Errorf("compound key %v must be written as an array of single-field tables, "+
					"e.g. key = [{a = 1}, {b = 1}]", keyTable)
			}
		}
		spec = append(spec, bson.E{Key: field, Value: tomlValue(value)})
	}
	return spec, nil
}

func tomlValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		doc := make(bson.D, 0, len(v))
		for _, field := range sortedKeys(v) {
			doc = append(doc, bson.E{Key: field, Value: tomlValue(v[field])})
		}
		return doc
	case []map[string]interface{}:
		return bson.A(lo.Map(v, func(table map[string]interface{}, _ int) interface{} { return tomlValue(table) }))
	case []interface{}:
		return bson.A(lo.Map(v, func(elem interface{}, _ int) interface{} { return tomlValue(elem) }))
	default:
		return normalizeNumber(v)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// normalizeNumber stores integers as int32 when they fit, the way the shell
// writes them.
func normalizeNumber(value interface{}) interface{} {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	default:
		return value
	}
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return int32(n)
	}
	return n
}

// indexFromSpec builds a validated descriptor. A key may be a document or
// an array of single-field documents.
func indexFromSpec(spec bson.D) (*idx.IndexDocument, error) {
	for i, elem := range spec {
		if elem.Key != "key" {
			continue
		}
		key, err := flattenKey(elem.Value)
		if err != nil {
			return nil, err
		}
		spec[i].Value = key
	}

	index, err := idx.NewIndexDocumentFromD(spec)
	if err != nil {
		return nil, err
	}
	if err := index.Validate(); err != nil {
		return nil, err
	}
	return index, nil
}

func flattenKey(value interface{}) (bson.D, error) {
	switch v := value.(type) {
	case bson.D:
		return v, nil
	case bson.A:
		key := bson.D{}
		for _, elem := range v {
			field, ok := elem.(bson.D)
			if !ok || len(field) != 1 {
				return nil, fmt.Errorf("key array elements must be single-field documents, found %v", elem)
			}
			key = append(key, field[0])
		}
		return key, nil
	case []interface{}:
		return flattenKey(bson.A(v))
	default:
		return nil, fmt.Errorf("key must be a document or an array of single-field documents, found %T", value)
	}
}

func namespace(db, collection, defaultDB string, position int) (options.Namespace, error) {
	if db == "" {
		db = defaultDB
	}
	if db == "" {
		return options.Namespace{}, fmt.Errorf("collection %d (%v): no database given, set db in the file or use --db",
			position, collection)
	}
	if err := util.ValidateDBName(db); err != nil {
		return options.Namespace{}, errors.Wrapf(err, "collection %d", position)
	}
	if err := util.ValidateCollectionName(collection); err != nil {
		return options.Namespace{}, errors.Wrapf(err, "collection %d (%v)", position, collection)
	}
	return options.Namespace{DB: db, Collection: collection}, nil
}
