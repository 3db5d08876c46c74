package generic

// An Option[T] is either Some(value) or None. The zero value is None.
type Option[T any] struct {
	value    T
	hasValue bool
}

// Some constructs an Option[T] that has a value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, hasValue: true}
}

// None constructs an Option[T] that does not have a value.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Expect returns the contained value, or panics with the supplied message if there is no value.
func (o Option[T]) Expect(msg string) T {
	if o.hasValue {
		return o.value
	} else {
		panic(msg)
	}
}

// Get returns the contained value (or the zero value of T) and whether there was a value, like a map lookup.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.hasValue
}

// IsNone returns true if this Option[T] does not have a value.
func (o Option[T]) IsNone() bool {
	return !o.hasValue
}

// IsSome returns true if this Option[T] has a value.
func (o Option[T]) IsSome() bool {
	return o.hasValue
}

// Or returns the option itself if it has a value, otherwise it returns other.
func (o Option[T]) Or(other Option[T]) Option[T] {
	if o.hasValue {
		return o
	} else {
		return other
	}
}

// Unwrap returns the contained value, or panics if there is no value.
func (o Option[T]) Unwrap() T {
	return o.Expect("tried to Unwrap() a None")
}

// UnwrapOr returns the contained value, or other if there is no value.
func (o Option[T]) UnwrapOr(other T) T {
	if o.hasValue {
		return o.value
	} else {
		return other
	}
}

// UnwrapOrDefault returns the contained value, or the "zero value" for T if there is no value.
func (o Option[T]) UnwrapOrDefault() T {
	var other T
	return o.UnwrapOr(other)
}

// AndThen applies f to the contained value, if any; f may itself decide there is no value.
func AndThen[T any, U any](o Option[T], f func(T) Option[U]) Option[U] {
	if o.hasValue {
		return f(o.value)
	}
	return None[U]()
}
