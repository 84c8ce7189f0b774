// Package blobrefs stores how many file records point at each stored blob.
package blobrefs

import "context"

type Repository interface {
	// Insert registers a new storage name with a count of one.
	Insert(ctx context.Context, ref string) error
	// Increment fails with common.ErrorNotFound when ref is not registered.
	Increment(ctx context.Context, ref string) error
	// Decrement returns the remaining count; the row is dropped at zero.
	Decrement(ctx context.Context, ref string) (int64, error)
	// Lock returns the current count (0 if absent) and holds a row lock.
	Lock(ctx context.Context, ref string) (int64, error)
	Count(ctx context.Context, ref string) (int64, error)
}
