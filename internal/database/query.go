package database

import "context"

// Call submits fn to the runner as one unit of work, wrapped in the client's
// scope guard, and returns its typed result.
//
// This is the entry point repositories use: the guard supplies a live
// connection (reconnecting per its contract), the runner serializes the work,
// and fn's error comes back exactly as fn returned it.
func Call[T any](ctx context.Context, r *Runner, fn func(ctx context.Context, q Querier) (T, error)) (T, error) {
	res, err := r.Submit(ctx, func(ctx context.Context) (any, error) {
		var out T
		err := r.client.WithConn(ctx, func(ctx context.Context, q Querier) error {
			var err error
			out, err = fn(ctx, q)
			return err
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
