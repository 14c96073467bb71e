// Package registry maps tracks to the adapter for their source.
package registry

import (
	"errors"
	"fmt"

	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

// Registry is immutable after construction.
type Registry struct {
	adapters []core.Adapter
}

// New builds a registry. Two adapters for the same source are an error.
func New(adapters ...core.Adapter) (*Registry, error) {
	seen := make(map[core.Source]bool, len(adapters))
	for _, a := range adapters {
		if seen[a.Source()] {
			return nil, fmt.Errorf("duplicate adapter for source %q", a.Source())
		}
		seen[a.Source()] = true
	}
	return &Registry{adapters: append([]core.Adapter(nil), adapters...)}, nil
}

// Resolve returns the adapter that accepts track. It fails with
// ErrUnknownSource when none does.
func (r *Registry) Resolve(track core.Track) (core.Adapter, error) {
	for _, a := range r.adapters {
		if a.IsApplicable(track) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownSource, track.Source)
}

// Adapters returns every registered adapter in registration order.
func (r *Registry) Adapters() []core.Adapter {
	return append([]core.Adapter(nil), r.adapters...)
}

// Sources returns the sources with a registered adapter.
func (r *Registry) Sources() []core.Source {
	sources := make([]core.Source, 0, len(r.adapters))
	for _, a := range r.adapters {
		sources = append(sources, a.Source())
	}
	return sources
}

// Close tears down every adapter.
func (r *Registry) Close() error {
	var errs []error
	for _, a := range r.adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", a.Source(), err))
		}
	}
	return errors.Join(errs...)
}
