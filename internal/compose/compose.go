// Package compose implements the test-composition layer described in
// SPEC_FULL.md §6.10 (spec.md §4.10/§5, C10): generic synchronous
// combinators (Compose2..4, SequentialOperation) that chain Func stages
// into a measurement test's main(), plus the Task context in async.go
// that hands callbacks to a reactor. There is no combinator that chains
// callback-style asynchronous steps; each Func stage returns before the
// next one starts.
//
// Grounded on the Func[A,B]/Compose2..8 idiom surveyed in
// _examples/other_examples/bassosimone-nop (reference-only, not the
// teacher), keeping its context-passing synchronous Call contract and
// returning *errs.Error values instead of plain Go errors.
package compose

import (
	"context"

	"github.com/TheTorProject/libight/internal/errs"
)

// Func is one pipeline stage: takes an A, produces a B or an *errs.Error.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, *errs.Error)
}

// FuncAdapter lifts a plain function into a Func.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, *errs.Error)

// Call implements Func.
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, *errs.Error) {
	return f(ctx, input)
}

// ConstFunc lifts a fixed value into a Func that ignores its input.
func ConstFunc[A, B any](value B) Func[A, B] {
	return FuncAdapter[A, B](func(ctx context.Context, _ A) (B, *errs.Error) {
		return value, nil
	})
}

// Compose2 chains two stages: A→B then B→C.
func Compose2[A, B, C any](f1 Func[A, B], f2 Func[B, C]) Func[A, C] {
	return FuncAdapter[A, C](func(ctx context.Context, input A) (C, *errs.Error) {
		var zero C
		b, err := f1.Call(ctx, input)
		if err != nil {
			return zero, err
		}
		return f2.Call(ctx, b)
	})
}

// Compose3 chains three stages.
func Compose3[A, B, C, D any](f1 Func[A, B], f2 Func[B, C], f3 Func[C, D]) Func[A, D] {
	return Compose2(Compose2(f1, f2), f3)
}

// Compose4 chains four stages.
func Compose4[A, B, C, D, E any](f1 Func[A, B], f2 Func[B, C], f3 Func[C, D], f4 Func[D, E]) Func[A, E] {
	return Compose2(Compose3(f1, f2, f3), f4)
}

// SequentialOperation runs fs in order against the same input and
// returns the output and index of the first stage that succeeds; later
// stages are not run. When every stage fails it returns index -1 and a
// SequentialOperationError whose children are the stages' errors in
// order, per spec.md §4.9 policy (c).
func SequentialOperation[A, B any](ctx context.Context, input A, fs ...Func[A, B]) (B, int, *errs.Error) {
	var zero B
	var children []*errs.Error
	for i, f := range fs {
		out, err := f.Call(ctx, input)
		if err == nil {
			return out, i, nil
		}
		children = append(children, err)
	}
	return zero, -1, errs.SequentialOperation(children...)
}
