// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package deque provides the queue topology of a work-stealing scheduler: a
// lock-free global [Injector] shared by every worker, a [Worker] deque owned by
// a single goroutine, and a [Stealer] through which other goroutines may take
// values from a Worker. Steal operations never block. Each returns a [Steal]
// that distinguishes an empty source from one that was contended and should
// be retried.
//
// All queues store pointers. A nil pointer is never a valid value.
package deque

type stealKind uint8

const (
	stealEmpty stealKind = iota
	stealSuccess
	stealRetry
)

// Steal is the outcome of a steal attempt. The zero value is an empty
// outcome.
type Steal[T any] struct {
	kind  stealKind
	value *T
}

// Empty returns an outcome meaning that the source had nothing to steal.
func Empty[T any]() Steal[T] {
	return Steal[T]{}
}

// Success returns an outcome carrying a stolen value.
func Success[T any](v *T) Steal[T] {
	if v == nil {
		panic("successful steal must carry a value")
	}
	return Steal[T]{kind: stealSuccess, value: v}
}

// Retry returns an outcome meaning that the attempt lost a race and the
// source may or may not be empty.
func Retry[T any]() Steal[T] {
	return Steal[T]{kind: stealRetry}
}

func (s Steal[T]) IsEmpty() bool {
	return s.kind == stealEmpty
}

func (s Steal[T]) IsSuccess() bool {
	return s.kind == stealSuccess
}

func (s Steal[T]) IsRetry() bool {
	return s.kind == stealRetry
}

// Success returns the stolen value, or nil if the steal did not succeed.
func (s Steal[T]) Success() *T {
	return s.value
}

// OrElse returns s if it is a success. Otherwise it evaluates f: an empty s is
// replaced by whatever f returns, while a retry s stays a retry unless f
// succeeds, so that contention is never downgraded to emptiness.
func (s Steal[T]) OrElse(f func() Steal[T]) Steal[T] {
	switch s.kind {
	case stealSuccess:
		return s
	case stealEmpty:
		return f()
	default:
		if r := f(); r.IsSuccess() {
			return r
		}
		return s
	}
}

// StealFirst attempts to steal from each stealer in order and returns the
// first success. If none succeeds the result is a retry if any attempt
// needed one, and empty otherwise.
func StealFirst[T any](stealers []*Stealer[T]) Steal[T] {
	retry := false
	for _, st := range stealers {
		switch s := st.Steal(); s.kind {
		case stealSuccess:
			return s
		case stealRetry:
			retry = true
		}
	}
	if retry {
		return Retry[T]()
	}
	return Empty[T]()
}
