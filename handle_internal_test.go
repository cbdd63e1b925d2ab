// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHandleCompleteTwicePanics(t *testing.T) {
	chk := require.New(t)
	h := newHandle[int]()
	h.complete(&outcome[int]{value: 1})
	chk.PanicsWithValue("task completed more than once", func() {
		h.complete(&outcome[int]{value: 2})
	})
	v, err := h.Result()
	chk.NoError(err)
	chk.Equal(1, v)
}

func TestHandleWakesRegisteredWakers(t *testing.T) {
	chk := require.New(t)
	h := newHandle[string]()
	wakes := 0
	cx := NewContext(NewWaker(func() { wakes++ }))

	_, ok := h.Poll(cx)
	chk.False(ok)
	_, ok = h.Poll(cx)
	chk.False(ok)
	chk.Zero(wakes)

	h.complete(&outcome[string]{value: "done"})
	chk.Equal(2, wakes)

	v, ok := h.Poll(cx)
	chk.True(ok)
	chk.Equal("done", v)
	chk.Equal(2, wakes)

	v, err := h.Wait(context.Background())
	chk.NoError(err)
	chk.Equal("done", v)
}

// TestHandleWithRapid checks that a handle observed through any mix of its
// methods reports pending until it is completed and the same outcome ever
// after.
func TestHandleWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := newHandle[int]()
		var completed *outcome[int]
		registered := 0
		wakes := 0
		cx := NewContext(NewWaker(func() { wakes++ }))

		t.Repeat(map[string]func(*rapid.T){
			"complete": func(t *rapid.T) {
				if completed != nil {
					t.Skip("already completed")
				}
				o := &outcome[int]{value: rapid.Int().Draw(t, "value")}
				if rapid.Bool().Draw(t, "panicked") {
					o.err = &PanicError{Value: "simulated"}
				}
				h.complete(o)
				completed = o
				require.Equal(t, registered, wakes)
			},
			"poll": func(t *rapid.T) {
				if completed == nil {
					_, ok := h.Poll(cx)
					require.False(t, ok)
					registered++
					return
				}
				if completed.err != nil {
					require.PanicsWithValue(t, completed.err, func() { h.Poll(cx) })
					return
				}
				v, ok := h.Poll(cx)
				require.True(t, ok)
				require.Equal(t, completed.value, v)
			},
			"result": func(t *rapid.T) {
				v, err := h.Result()
				switch {
				case completed == nil:
					require.ErrorIs(t, err, ErrNotReady)
				case completed.err != nil:
					require.Equal(t, error(completed.err), err)
				default:
					require.NoError(t, err)
					require.Equal(t, completed.value, v)
				}
			},
			"": func(t *rapid.T) {
				select {
				case <-h.Done():
					require.NotNil(t, completed)
				default:
					require.Nil(t, completed)
				}
			},
		})
	})
}
