// Package container provides a small typed service container with singleton
// and transient lifetimes and ordered disposal.
package container

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

type lifetime int

const (
	lifetimeSingleton lifetime = iota
	lifetimeTransient
)

type registration struct {
	lifetime lifetime
	factory  func(c *Container) (any, error)

	// buildMu serializes singleton construction so the factory runs at most
	// once. It is never held while taking the container lock first, so
	// factories may resolve other services.
	buildMu sync.Mutex
	// built flips after a successful factory call; factory errors are not
	// memoized and a later resolve retries.
	built    bool
	instance any
}

// Container is a service registry keyed by service name. Singletons are
// built once on first resolve with double-checked locking; transients run
// their factory on every resolve.
//
// Dispose closes resolved singletons that implement io.Closer, in reverse
// resolution order, and aggregates their errors. It is idempotent.
type Container struct {
	mu       sync.Mutex
	services map[string]*registration

	// resolvedOrder tracks singleton build order for reverse disposal.
	resolvedOrder []string
	disposed      bool
}

// New creates an empty container.
func New() *Container {
	return &Container{services: make(map[string]*registration)}
}

// RegisterSingleton registers a service built at most once. Registering an
// existing name replaces the registration and drops any built instance.
func RegisterSingleton[T any](c *Container, name string, factory func(c *Container) (T, error)) {
	c.register(name, lifetimeSingleton, wrapFactory(factory))
}

// RegisterTransient registers a service built on every resolve.
func RegisterTransient[T any](c *Container, name string, factory func(c *Container) (T, error)) {
	c.register(name, lifetimeTransient, wrapFactory(factory))
}

func wrapFactory[T any](factory func(c *Container) (T, error)) func(c *Container) (any, error) {
	return func(c *Container) (any, error) {
		v, err := factory(c)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (c *Container) register(name string, lt lifetime, factory func(c *Container) (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = &registration{lifetime: lt, factory: factory}
}

// Resolve returns the service registered under name, built if necessary.
// Resolving an unknown name or a service of the wrong type is an error.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return zero, fmt.Errorf("container: resolve %q on disposed container", name)
	}
	reg, ok := c.services[name]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("container: service %q is not registered", name)
	}

	if reg.lifetime == lifetimeSingleton && reg.built {
		instance := reg.instance
		c.mu.Unlock()
		return castService[T](name, instance)
	}
	c.mu.Unlock()

	if reg.lifetime == lifetimeTransient {
		// Transients build outside any lock, on every resolve.
		instance, err := reg.factory(c)
		if err != nil {
			return zero, fmt.Errorf("container: building %q: %w", name, err)
		}
		return castService[T](name, instance)
	}

	// Double-checked: the fast path above, and a re-check under the build
	// lock. Holding buildMu (not the container lock) while the factory runs
	// lets the factory resolve other services.
	reg.buildMu.Lock()
	defer reg.buildMu.Unlock()

	c.mu.Lock()
	built, instance := reg.built, reg.instance
	c.mu.Unlock()
	if built {
		return castService[T](name, instance)
	}

	instance, err := reg.factory(c)
	if err != nil {
		return zero, fmt.Errorf("container: building %q: %w", name, err)
	}

	c.mu.Lock()
	reg.instance = instance
	reg.built = true
	c.resolvedOrder = append(c.resolvedOrder, name)
	c.mu.Unlock()

	return castService[T](name, instance)
}

// MustResolve is Resolve that panics on error. For wiring code where a
// missing service is a programming bug.
func MustResolve[T any](c *Container, name string) T {
	v, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

func castService[T any](name string, instance any) (T, error) {
	v, ok := instance.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("container: service %q is %T, not %T", name, instance, zero)
	}
	return v, nil
}

// Has reports whether a service name is registered.
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.services[name]
	return ok
}

// Dispose closes all built singletons that implement io.Closer, in reverse
// resolution order. Every closer is attempted even when earlier ones fail;
// errors are joined. Subsequent calls are no-ops.
func (c *Container) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true

	var closers []io.Closer
	for i := len(c.resolvedOrder) - 1; i >= 0; i-- {
		reg := c.services[c.resolvedOrder[i]]
		if closer, ok := reg.instance.(io.Closer); ok {
			closers = append(closers, closer)
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
