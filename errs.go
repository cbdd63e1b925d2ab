// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"fmt"
)

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrTaskPanic is matched by [errors.Is] for every [*PanicError].
const ErrTaskPanic = constError("task panicked")

// ErrNotReady is returned by [Handle.Result] while the task is still pending.
const ErrNotReady = constError("task not ready")

// A PanicError carries a value recovered from a panic raised while a worker
// was polling a task, along with the stack of the panicking goroutine at the
// point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTaskPanic, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrTaskPanic
}
