package tx

import (
	"context"
	"fmt"
)

// IsolationLevel names the isolation guarantees a transaction runs with.
type IsolationLevel string

const (
	ReadCommitted  IsolationLevel = "read committed"
	RepeatableRead IsolationLevel = "repeatable read"
	Serializable   IsolationLevel = "serializable"
)

func (l IsolationLevel) rank() int {
	switch l {
	case ReadCommitted:
		return 1
	case RepeatableRead:
		return 2
	case Serializable:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is as strict as other.
func (l IsolationLevel) AtLeast(other IsolationLevel) bool {
	return l.rank() >= other.rank()
}

// Validate rejects unknown levels.
func (l IsolationLevel) Validate() error {
	if l.rank() == 0 {
		return fmt.Errorf("unknown isolation level %q", string(l))
	}
	return nil
}

// Options configures a transaction.
type Options struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// DefaultOptions is read committed, read-write.
func DefaultOptions() Options {
	return Options{Isolation: ReadCommitted}
}

// SerializableOptions is used by sequence allocation and posting.
func SerializableOptions() Options {
	return Options{Isolation: Serializable}
}

// ReadOnlyOptions is used by diagnostics; it never blocks writers.
func ReadOnlyOptions() Options {
	return Options{Isolation: ReadCommitted, ReadOnly: true}
}

// Info describes the transaction carried by a context.
type Info struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

type infoKey struct{}

// WithInfo marks ctx as running inside a transaction.
// Managers call this; domain code only reads it.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

// InfoFromContext returns the active transaction description.
func InfoFromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey{}).(Info)
	return info, ok
}

// CheckNested validates that a nested request can join the outer transaction.
func CheckNested(outer Info, requested Options) error {
	if !outer.Isolation.AtLeast(requested.Isolation) {
		return fmt.Errorf("nested transaction requests %s inside %s", requested.Isolation, outer.Isolation)
	}
	if outer.ReadOnly && !requested.ReadOnly {
		return fmt.Errorf("nested read-write transaction inside read-only transaction")
	}
	return nil
}
