package magnet

import (
	"sync"
)

type compileFunc func(key MethodKey, decl *MethodDecl) (*MethodDescriptor, error)

// dispatcher caches method descriptors by declaration, so services that
// share a name keep their own descriptors. Hits are lock-free; misses are
// serialized by a single mutex and re-checked under it, so a method is
// compiled at most once even when first called from many goroutines.
// Failed compilations are not cached.
type dispatcher struct {
	cache   sync.Map // *MethodDecl -> *MethodDescriptor
	mu      sync.Mutex
	compile compileFunc
}

func newDispatcher(compile compileFunc) *dispatcher {
	return &dispatcher{
		compile: compile,
	}
}

func (d *dispatcher) resolve(key MethodKey, decl *MethodDecl) (*MethodDescriptor, error) {
	if v, has := d.cache.Load(decl); has {
		return v.(*MethodDescriptor), nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if v, has := d.cache.Load(decl); has {
		return v.(*MethodDescriptor), nil
	}
	desc, err := d.compile(key, decl)
	if err != nil {
		return nil, err
	}
	d.cache.Store(decl, desc)
	return desc, nil
}
