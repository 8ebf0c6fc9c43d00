package result

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidArgument is stored in the failure branch when a Result is
// constructed in a way that would lose error identity: a nil error, an
// error interface holding a typed nil pointer, or access to the zero
// Result which holds neither branch.
var ErrInvalidArgument = errors.New("result: invalid argument")

// Result holds either a value of type T or a captured error, never both.
// The zero Result is invalid; use Success, Failure, FailureOf, or FromFunc.
//
// Result values may be copied freely. Copies share the captured error
// (errors are immutable by convention) and copy the value with Go's usual
// value semantics.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Success returns a Result holding the given value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Failure returns a Result holding the given error.
//
// A nil error, or an error interface wrapping a nil concrete pointer,
// carries no identity to match against later; such arguments are replaced
// with ErrInvalidArgument so the misuse is observable instead of silent.
func Failure[T any](err error) Result[T] {
	if err == nil {
		return Result[T]{err: fmt.Errorf("%w: nil error", ErrInvalidArgument)}
	}
	if v := reflect.ValueOf(err); v.Kind() == reflect.Pointer && v.IsNil() {
		return Result[T]{err: fmt.Errorf("%w: typed nil %T", ErrInvalidArgument, err)}
	}
	return Result[T]{err: err}
}

// FailureOf returns a Result holding err, declared as kind E.
// When E is an interface type the dynamic value must be non-nil,
// otherwise the declared kind and the runtime kind diverge and the
// failure is rejected with ErrInvalidArgument.
func FailureOf[T any, E error](err E) Result[T] {
	if reflect.TypeOf((*E)(nil)).Elem().Kind() == reflect.Interface {
		if any(err) == nil {
			return Result[T]{err: fmt.Errorf("%w: nil dynamic value for declared kind %s",
				ErrInvalidArgument, reflect.TypeOf((*E)(nil)).Elem())}
		}
	}
	return Failure[T](err)
}

// FromFunc executes fn and captures its outcome: a normal return wraps
// the returned value or error, and a panic raised during fn is recovered
// into the failure branch. A panic value that is itself an error is
// captured verbatim so its kind survives; any other panic value is
// wrapped into an opaque error.
func FromFunc[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			if err, isErr := r.(error); isErr {
				res = Failure[T](err)
				return
			}
			res = Failure[T](fmt.Errorf("recovered panic: %v", r))
		}
	}()

	v, err := fn()
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether the value branch is live. It has no side effects.
func (r Result[T]) IsSuccess() bool {
	return r.ok
}

// IsFailure reports whether the failure branch is live.
func (r Result[T]) IsFailure() bool {
	return !r.ok
}

// Get returns the stored value, or propagates the captured error verbatim
// when the failure branch is live. Callers should check IsSuccess first
// unless deliberate propagation is intended.
func (r Result[T]) Get() (T, error) {
	if !r.ok {
		return r.value, r.failure()
	}
	return r.value, nil
}

// MustGet returns the stored value and panics with the captured error when
// the failure branch is live. It exists for call sites where a failure is
// a programming error, such as tests and init paths.
func (r Result[T]) MustGet() T {
	if !r.ok {
		panic(r.failure())
	}
	return r.value
}

// Err returns the captured error, or nil when the value branch is live.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	return r.failure()
}

// FailureIs reports whether the captured error matches target per
// errors.Is. It returns false for a success and never propagates.
func (r Result[T]) FailureIs(target error) bool {
	return !r.ok && errors.Is(r.failure(), target)
}

// HasFailureOf reports whether r holds a failure whose chain contains an
// error of kind E. It returns false for a success and never propagates.
func HasFailureOf[E error, T any](r Result[T]) bool {
	if r.ok {
		return false
	}
	var target E
	return errors.As(r.failure(), &target)
}

// Swap exchanges the live branches of r and other. Both instances end up
// holding what the other held before, across all four success/failure
// combinations. Swapping twice restores the original states.
func (r *Result[T]) Swap(other *Result[T]) {
	if r == other {
		return
	}
	r.value, other.value = other.value, r.value
	r.err, other.err = other.err, r.err
	r.ok, other.ok = other.ok, r.ok
}

// failure returns the live error, guarding the invalid zero Result.
func (r Result[T]) failure() error {
	if r.err == nil {
		return fmt.Errorf("%w: zero Result holds no branch", ErrInvalidArgument)
	}
	return r.err
}
