// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mongodb/mongo-index-tools/common/idx"
	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Binding associates a collection with the indexes it should have.
type Binding struct {
	Namespace options.Namespace
	Indexes   []*idx.IndexDocument
}

// Options control a run of the Orchestrator.
type Options struct {
	// ContinueOnError reconciles every binding even after one fails. Each
	// failure is recorded in its CollectionResult and ReconcileAll returns a
	// nil error.
	ContinueOnError bool

	// Filter restricts ReconcileAll and PlanAll to the bindings whose
	// database and collection match. Empty fields match everything.
	Filter options.Namespace
}

// Orchestrator owns a registry of bindings and reconciles them, one
// collection at a time, in the order they were first declared.
type Orchestrator struct {
	store    Store
	opts     Options
	bindings *util.DataGuard[[]Binding]
}

// NewOrchestrator returns an Orchestrator with an empty registry.
func NewOrchestrator(store Store, opts Options) *Orchestrator {
	return &Orchestrator{
		store:    store,
		opts:     opts,
		bindings: util.NewDataGuard[[]Binding](nil),
	}
}

// Declare registers the indexes a collection should have. Declaring a
// collection again replaces its indexes but keeps its place in the run
// order. Declare may be called concurrently.
func (o *Orchestrator) Declare(ns options.Namespace, indexes ...*idx.IndexDocument) {
	binding := Binding{
		Namespace: ns,
		Indexes: lo.Map(indexes, func(index *idx.IndexDocument, _ int) *idx.IndexDocument {
			return index.Clone()
		}),
	}
	o.bindings.Store(func(bindings []Binding) []Binding {
		bindings = slices.Clone(bindings)
		if i := slices.IndexFunc(bindings, func(b Binding) bool { return b.Namespace == ns }); i >= 0 {
			bindings[i] = binding
			return bindings
		}
		return append(bindings, binding)
	})
}

// Bindings returns the registered bindings in run order.
func (o *Orchestrator) Bindings() []Binding {
	return slices.Clone(o.bindings.GetValue())
}

func (o *Orchestrator) lookup(ns options.Namespace) Binding {
	binding, _ := lo.Find(o.bindings.GetValue(), func(b Binding) bool { return b.Namespace == ns })
	binding.Namespace = ns
	return binding
}

func (o *Orchestrator) selected() []Binding {
	filter := o.opts.Filter
	return lo.Filter(o.bindings.GetValue(), func(b Binding, _ int) bool {
		return (filter.DB == "" || filter.DB == b.Namespace.DB) &&
			(filter.Collection == "" || filter.Collection == b.Namespace.Collection)
	})
}

// Reconcile converges one collection to its declared indexes. A collection
// with no declared indexes is left untouched and reported as skipped.
func (o *Orchestrator) Reconcile(ctx context.Context, ns options.Namespace) (CollectionResult, error) {
	result := o.run(ctx, o.lookup(ns), false)
	return result, result.Err
}

// Plan reports what Reconcile would change without writing anything.
func (o *Orchestrator) Plan(ctx context.Context, ns options.Namespace) (CollectionResult, error) {
	result := o.run(ctx, o.lookup(ns), true)
	return result, result.Err
}

// ReconcileAll reconciles every selected binding in run order. Unless
// ContinueOnError is set, the first failure stops the run. The entries
// completed before it and the failed entry are returned along with the error.
func (o *Orchestrator) ReconcileAll(ctx context.Context) (AggregateResult, error) {
	return o.runAll(ctx, false)
}

// PlanAll reports what ReconcileAll would change without writing anything.
func (o *Orchestrator) PlanAll(ctx context.Context) (AggregateResult, error) {
	return o.runAll(ctx, true)
}

func (o *Orchestrator) runAll(ctx context.Context, dryRun bool) (AggregateResult, error) {
	bindings := o.selected()
	log.Logvf(log.DebugLow, "reconciling %v %v", len(bindings), util.Pluralize(len(bindings), "collection", "collections"))

	results := make(AggregateResult, 0, len(bindings))
	for _, binding := range bindings {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrapf(err, "stopped before %v", binding.Namespace)
		}
		result := o.run(ctx, binding, dryRun)
		results = append(results, result)
		if result.Err != nil && !o.opts.ContinueOnError {
			return results, result.Err
		}
	}
	return results, nil
}

// run drives one binding through the reconciliation states.
func (o *Orchestrator) run(ctx context.Context, binding Binding, dryRun bool) CollectionResult {
	ns := binding.Namespace
	result := CollectionResult{Namespace: ns, DryRun: dryRun}
	if len(binding.Indexes) == 0 {
		log.Logvf(log.Info, "no indexes declared for %v, skipping", ns)
		result.Skipped = true
		return result
	}

	state := Idle
	enter := func(next State) {
		log.Logvf(log.DebugHigh, "%v: %v -> %v", ns, state, next)
		state = next
	}
	fail := func(err error) CollectionResult {
		var rerr *Error
		if !errors.As(err, &rerr) {
			err = &Error{Namespace: ns, Stage: state, Err: err}
		}
		enter(Failed)
		result.Err = err
		return result
	}

	enter(ReadingSnapshot)
	existing, err := ListExistingIndexes(ctx, o.store, ns)
	if err != nil {
		return fail(err)
	}
	result.Warnings = driftWarnings(binding.Indexes, existing)
	for _, warning := range result.Warnings {
		log.Logvf(log.Always, "warning: %v: %v", ns, warning)
	}

	enter(Materializing)
	var materialized []string
	if dryRun {
		materialized = indexNames(binding.Indexes)
	} else {
		log.Logvf(log.Info, "ensuring %v %v on %v", len(binding.Indexes),
			util.Pluralize(len(binding.Indexes), "index", "indexes"), ns)
		materialized, err = EnsureIndexes(ctx, o.store, ns, binding.Indexes)
		if err != nil {
			return fail(err)
		}
	}

	enter(Diffing)
	plan := Diff(indexNames(existing), materialized)
	result.Created = plan.Created

	enter(Dropping)
	if dryRun {
		result.Dropped = plan.ToDrop
	} else {
		result.Dropped, err = DropAll(ctx, o.store, ns, plan.ToDrop)
		if err != nil {
			return fail(err)
		}
	}

	enter(Done)
	result.log()
	return result
}

// driftWarnings describes every declared index whose name already exists
// with a different structure. Such indexes are reported, never rebuilt.
func driftWarnings(desired, existing []*idx.IndexDocument) []string {
	byName := lo.KeyBy(existing, func(index *idx.IndexDocument) string { return index.Name() })

	var warnings []string
	for _, index := range desired {
		current, ok := byName[index.Name()]
		if !ok {
			continue
		}
		if diffs := index.Drift(current); len(diffs) > 0 {
			warnings = append(warnings, fmt.Sprintf("index %v differs from its declaration: %v",
				index.Name(), strings.Join(diffs, "; ")))
		}
	}
	return warnings
}
