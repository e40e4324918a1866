package vko

// DestroyFunc releases the native object owned by a Unique handle. It is
// bound when the handle is created and never looked up afterwards.
type DestroyFunc func()

// Unique owns a single native Vulkan object. The deleter runs exactly once,
// either from Destroy or not at all if the handle is released first. The
// zero value is an empty handle that owns nothing.
//
// Unique values are not safe to copy once populated- treat them the way you
// would treat a file handle and keep a single owner.
type Unique[T any] struct {
	handle  T
	destroy DestroyFunc
	valid   bool
}

// NewUnique binds a native handle to the deleter that frees it.
func NewUnique[T any](handle T, destroy DestroyFunc) Unique[T] {
	if destroy == nil {
		panic("vko: attempting to create a unique handle without a deleter")
	}

	return Unique[T]{
		handle:  handle,
		destroy: destroy,
		valid:   true,
	}
}

// Handle returns the owned native object, or the zero value for an empty
// handle.
func (u *Unique[T]) Handle() T {
	return u.handle
}

// IsValid returns true if this handle currently owns a native object.
func (u *Unique[T]) IsValid() bool {
	return u.valid
}

// Release disowns and returns the native object without destroying it. The
// caller becomes responsible for the object's lifetime.
func (u *Unique[T]) Release() T {
	handle := u.handle

	var empty T
	u.handle = empty
	u.destroy = nil
	u.valid = false

	return handle
}

// Destroy runs the bound deleter. Calling Destroy on an empty or
// already-destroyed handle is a no-op, so deferred destruction of
// conditionally-populated handles is safe.
func (u *Unique[T]) Destroy() {
	if !u.valid {
		return
	}

	u.destroy()

	var empty T
	u.handle = empty
	u.destroy = nil
	u.valid = false
}
