// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongoindexes

import (
	"fmt"
	"io"

	"github.com/mongodb/mongo-index-tools/common/bsonutil"
	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/mongodb/mongo-index-tools/reconcile"
)

// Report is the document printed by --json.
type Report struct {
	RunID   string             `bson:"runId"`
	DryRun  bool               `bson:"dryRun"`
	Results []CollectionReport `bson:"results"`
	Error   string             `bson:"error,omitempty"`
}

// CollectionReport is the outcome for one collection.
type CollectionReport struct {
	Namespace string   `bson:"namespace"`
	Created   []string `bson:"created"`
	Dropped   []string `bson:"dropped"`
	Skipped   bool     `bson:"skipped,omitempty"`
	Warnings  []string `bson:"warnings,omitempty"`
	Error     string   `bson:"error,omitempty"`
}

// NewReport summarizes a run.
func NewReport(runID string, dryRun bool, results reconcile.AggregateResult, err error) Report {
	report := Report{RunID: runID, DryRun: dryRun, Results: make([]CollectionReport, 0, len(results))}
	for _, result := range results {
		entry := CollectionReport{
			Namespace: result.Namespace.String(),
			Created:   nonNil(result.Created),
			Dropped:   nonNil(result.Dropped),
			Skipped:   result.Skipped,
			Warnings:  result.Warnings,
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
		report.Results = append(report.Results, entry)
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

// nonNil keeps empty lists as arrays rather than null in the output.
func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// WriteJSON writes the report as relaxed Extended JSON.
func (report Report) WriteJSON(out io.Writer) error {
	data, err := bsonutil.MarshalExtJSON(report, false, true)
	if err != nil {
		return fmt.Errorf("error formatting report: %v", err)
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

// logResults prints one line per collection and a run summary.
func logResults(runID string, results reconcile.AggregateResult) {
	for _, result := range results {
		log.Logv(log.Always, result.Summary())
	}
	created, dropped := results.Totals()
	failed := len(results.Failed())
	log.Logvf(log.Always, "run %v: %v %v created, %v %v dropped, %v %v failed",
		runID,
		created, util.Pluralize(created, "index", "indexes"),
		dropped, util.Pluralize(dropped, "index", "indexes"),
		failed, util.Pluralize(failed, "collection", "collections"))
}
