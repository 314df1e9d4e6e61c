// Package registry is the kernel's one piece of naming: a lock-guarded
// map from a string service name to the task that owns it, so tasks can
// find each other's mailboxes without a global well-known task id scheme.
package registry

import (
	"microkernel/internal/spinlock"
	"microkernel/internal/task"
)

type Registry struct {
	lock  spinlock.SpinLock
	names map[string]task.Id
}

func New() *Registry {
	return &Registry{names: make(map[string]task.Id)}
}

// Register binds name to id, overwriting any previous owner.
func (r *Registry) Register(name string, id task.Id) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.names[name] = id
}

// Lookup returns the task registered under name, if any.
func (r *Registry) Lookup(name string) (task.Id, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	id, ok := r.names[name]
	return id, ok
}

// Unregister removes name, if present.
func (r *Registry) Unregister(name string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.names, name)
}
