package helpers

import "context"

// CallWithContext runs fn and returns its result, or ctx.Err() once ctx is done.
// fn keeps running in the background after ctx expires, so it must be bounded by
// its own client timeout.
func CallWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
