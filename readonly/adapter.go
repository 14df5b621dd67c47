// Package readonly wraps content-type modules whose source of truth moved to
// the CMS. Reads pass through untouched; disabled operations report a
// deprecation and fail with a *DeprecatedError.
package readonly

import (
	"context"
	"encoding/json"
	"fmt"
)

// Ops is the call surface of a content-type module. Unset functions must be
// listed in the disabled set given to New.
type Ops[T any] struct {
	GetAll    func(ctx context.Context) ([]T, error)
	GetBySlug func(ctx context.Context, slug string) (T, error)
	GetByID   func(ctx context.Context, id string) (T, error)
	Create    func(ctx context.Context, item T) (T, error)
	Update    func(ctx context.Context, id string, item T) (T, error)
	Delete    func(ctx context.Context, id string) error
	Clone     func(ctx context.Context, id string) (T, error)
}

// Reporter receives one record per disabled-operation call.
type Reporter interface {
	Report(contentType string, op Op)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(contentType string, op Op)

// Report calls f.
func (f ReporterFunc) Report(contentType string, op Op) { f(contentType, op) }

type nopReporter struct{}

func (nopReporter) Report(string, Op) {}

// Invoker is the type-agnostic view of an Adapter, used where the content
// type is only known at runtime (admin routes).
type Invoker interface {
	ContentType() string
	Disabled(op Op) bool
	Invoke(ctx context.Context, op Op, key string, payload []byte) (any, error)
}

// Adapter exposes a content-type module with some operations disabled.
type Adapter[T any] struct {
	contentType string
	disabled    OpSet
	ops         Ops[T]
}

// New builds an Adapter for contentType. Every op in disabled is replaced by
// a stub, whether or not ops supplies it; every other op must be supplied.
func New[T any](contentType string, ops Ops[T], disabled OpSet, reporter Reporter) (*Adapter[T], error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if disabled == nil {
		disabled = NewOpSet()
	}
	a := &Adapter[T]{contentType: contentType, disabled: disabled}

	fail := func(op Op) error {
		reporter.Report(contentType, op)
		return &DeprecatedError{ContentType: contentType, Op: op}
	}

	failItem := func(op Op) (T, error) {
		var zero T
		return zero, fail(op)
	}

	if disabled.Has(OpGetAll) {
		ops.GetAll = func(context.Context) ([]T, error) { return nil, fail(OpGetAll) }
	}
	if disabled.Has(OpGetBySlug) {
		ops.GetBySlug = func(context.Context, string) (T, error) { return failItem(OpGetBySlug) }
	}
	if disabled.Has(OpGetByID) {
		ops.GetByID = func(context.Context, string) (T, error) { return failItem(OpGetByID) }
	}
	if disabled.Has(OpCreate) {
		ops.Create = func(context.Context, T) (T, error) { return failItem(OpCreate) }
	}
	if disabled.Has(OpUpdate) {
		ops.Update = func(context.Context, string, T) (T, error) { return failItem(OpUpdate) }
	}
	if disabled.Has(OpDelete) {
		ops.Delete = func(context.Context, string) error { return fail(OpDelete) }
	}
	if disabled.Has(OpClone) {
		ops.Clone = func(context.Context, string) (T, error) { return failItem(OpClone) }
	}

	missing := map[Op]bool{
		OpGetAll:    ops.GetAll == nil,
		OpGetBySlug: ops.GetBySlug == nil,
		OpGetByID:   ops.GetByID == nil,
		OpCreate:    ops.Create == nil,
		OpUpdate:    ops.Update == nil,
		OpDelete:    ops.Delete == nil,
		OpClone:     ops.Clone == nil,
	}
	for _, op := range AllOps() {
		if missing[op] {
			return nil, fmt.Errorf("readonly: %s.%s has no implementation and is not disabled", contentType, op)
		}
	}

	a.ops = ops
	return a, nil
}

// MustNew is New that panics on a construction error.
func MustNew[T any](contentType string, ops Ops[T], disabled OpSet, reporter Reporter) *Adapter[T] {
	a, err := New(contentType, ops, disabled, reporter)
	if err != nil {
		panic(err)
	}
	return a
}

// ContentType returns the name used in diagnostics.
func (a *Adapter[T]) ContentType() string { return a.contentType }

// Disabled reports whether op was disabled at construction.
func (a *Adapter[T]) Disabled(op Op) bool { return a.disabled.Has(op) }

func (a *Adapter[T]) GetAll(ctx context.Context) ([]T, error) {
	return a.ops.GetAll(ctx)
}

func (a *Adapter[T]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return a.ops.GetBySlug(ctx, slug)
}

func (a *Adapter[T]) GetByID(ctx context.Context, id string) (T, error) {
	return a.ops.GetByID(ctx, id)
}

func (a *Adapter[T]) Create(ctx context.Context, item T) (T, error) {
	return a.ops.Create(ctx, item)
}

func (a *Adapter[T]) Update(ctx context.Context, id string, item T) (T, error) {
	return a.ops.Update(ctx, id, item)
}

func (a *Adapter[T]) Delete(ctx context.Context, id string) error {
	return a.ops.Delete(ctx, id)
}

func (a *Adapter[T]) Clone(ctx context.Context, id string) (T, error) {
	return a.ops.Clone(ctx, id)
}

// Invoke dispatches op by name. key is the slug or id the op expects and
// payload is the JSON body for create and update. Disabled ops fail before
// payload is looked at.
func (a *Adapter[T]) Invoke(ctx context.Context, op Op, key string, payload []byte) (any, error) {
	var item T
	if !a.disabled.Has(op) && (op == OpCreate || op == OpUpdate) {
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", a.contentType, err)
		}
	}
	switch op {
	case OpGetAll:
		return a.GetAll(ctx)
	case OpGetBySlug:
		return a.GetBySlug(ctx, key)
	case OpGetByID:
		return a.GetByID(ctx, key)
	case OpCreate:
		return a.Create(ctx, item)
	case OpUpdate:
		return a.Update(ctx, key, item)
	case OpDelete:
		return nil, a.Delete(ctx, key)
	case OpClone:
		return a.Clone(ctx, key)
	default:
		return nil, fmt.Errorf("%s.%s: %w", a.contentType, op, ErrUnknownOp)
	}
}
