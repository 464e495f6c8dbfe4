package option

import "fmt"

// Option holds a value that may be absent. The zero Option is Nothing.
type Option[T any] struct {
	val   T
	valid bool
}

// Some wraps a present value.
func Some[T any](val T) Option[T] {
	return Option[T]{val: val, valid: true}
}

// Nothing returns an absent value.
func Nothing[T any]() Option[T] {
	return Option[T]{}
}

// FromPtr returns Nothing for a nil pointer and Some of the pointee otherwise.
func FromPtr[T any](p *T) Option[T] {
	if p == nil {
		return Nothing[T]()
	}
	return Some(*p)
}

// FromOk adapts the comma-ok idiom.
func FromOk[T any](val T, ok bool) Option[T] {
	if !ok {
		return Nothing[T]()
	}
	return Some(val)
}

func (o Option[T]) IsSome() bool {
	return o.valid
}

func (o Option[T]) IsNothing() bool {
	return !o.valid
}

// Unwrap returns the contained value and panics on Nothing.
func (o Option[T]) Unwrap() T {
	if !o.valid {
		panic("called Unwrap on a Nothing Option")
	}
	return o.val
}

func (o Option[T]) UnwrapOr(def T) T {
	if o.valid {
		return o.val
	}
	return def
}

func (o Option[T]) UnwrapOrZero() T {
	return o.val
}

// Get mirrors a map lookup.
func (o Option[T]) Get() (T, bool) {
	return o.val, o.valid
}

// Ptr returns nil for Nothing, which is what encoders and database drivers expect for NULL.
func (o Option[T]) Ptr() *T {
	if !o.valid {
		return nil
	}
	v := o.val
	return &v
}

// Any returns the value boxed, or nil for Nothing.
func (o Option[T]) Any() any {
	if !o.valid {
		return nil
	}
	return o.val
}

func Map[T any, U any](o Option[T], f func(T) U) Option[U] {
	if o.valid {
		return Some(f(o.val))
	}
	return Nothing[U]()
}

func (o Option[T]) Or(optb Option[T]) Option[T] {
	if o.valid {
		return o
	}
	return optb
}

func (o Option[T]) String() string {
	if o.valid {
		return fmt.Sprintf("Some(%v)", o.val)
	}
	return "Nothing"
}
