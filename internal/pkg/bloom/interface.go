package bloom

import "context"

// BitSetProvider is the bitset backend behind a Filter.
type BitSetProvider interface {
	Check(ctx context.Context, offsets []uint) (bool, error)
	Set(ctx context.Context, offsets []uint) error
	Del(ctx context.Context) error
}
