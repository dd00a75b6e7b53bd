// Package registry maps machine names to hardware addresses and persists them.
//
// A Registry is safe for concurrent use within one process. There is no
// locking across processes: two invocations mutating the same file race and
// the last save wins.
package registry

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/fgeck/gowake/internal/models"
	"github.com/rs/zerolog"
)

// Registry is an ordered set of machines backed by a Store.
type Registry struct {
	mu       sync.RWMutex
	store    Store
	machines []models.Machine
	index    map[string]int
	logger   zerolog.Logger
}

// Open loads the registry from store.
func Open(store Store, logger zerolog.Logger) (*Registry, error) {
	machines, err := store.Load()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		store:    store,
		machines: machines,
		logger:   logger,
	}
	r.reindex()

	logger.Debug().
		Str("path", store.Path()).
		Int("machines", len(machines)).
		Msg("registry loaded")

	return r, nil
}

// Add inserts a new machine and saves the registry.
func (r *Registry) Add(name string, mac models.MACAddress) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	r.machines = append(r.machines, models.Machine{Name: name, MAC: mac})
	r.index[name] = len(r.machines) - 1

	r.logger.Info().Str("name", name).Str("mac", mac.String()).Msg("machine added")
	return r.save()
}

// Edit replaces the address of an existing machine and saves the registry.
func (r *Registry) Edit(name string, mac models.MACAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	old := r.machines[i].MAC
	r.machines[i].MAC = mac

	r.logger.Info().
		Str("name", name).
		Str("old_mac", old.String()).
		Str("mac", mac.String()).
		Msg("machine updated")
	return r.save()
}

// Remove deletes every named machine that exists and saves the remaining
// entries. Names that do not exist are reported in a *NotFoundError after
// the others have been removed.
func (r *Registry) Remove(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[string]bool, len(names))
	var missing []string
	for _, name := range names {
		if drop[name] {
			continue
		}
		if _, ok := r.index[name]; !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			continue
		}
		drop[name] = true
	}

	var saveErr error
	if len(drop) > 0 {
		kept := make([]models.Machine, 0, len(r.machines))
		for _, m := range r.machines {
			if drop[m.Name] {
				r.logger.Info().Str("name", m.Name).Msg("machine removed")
				continue
			}
			kept = append(kept, m)
		}
		r.machines = kept
		r.reindex()
		saveErr = r.save()
	}

	if len(missing) > 0 {
		notFound := &NotFoundError{Names: missing}
		if saveErr != nil {
			return fmt.Errorf("%w; %w", notFound, saveErr)
		}
		return notFound
	}
	return saveErr
}

// List yields the machines in insertion order. The sequence reads a snapshot
// taken when iteration starts and may be ranged over repeatedly.
func (r *Registry) List() iter.Seq[models.Machine] {
	return func(yield func(models.Machine) bool) {
		r.mu.RLock()
		snapshot := make([]models.Machine, len(r.machines))
		copy(snapshot, r.machines)
		r.mu.RUnlock()

		for _, m := range snapshot {
			if !yield(m) {
				return
			}
		}
	}
}

// Lookup returns the address registered under name.
func (r *Registry) Lookup(name string) (models.MACAddress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return models.MACAddress{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.machines[i].MAC, nil
}

// NamesFor returns the names of all machines registered with mac.
func (r *Registry) NamesFor(mac models.MACAddress) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, m := range r.machines {
		if m.MAC == mac {
			names = append(names, m.Name)
		}
	}
	return names
}

// Len returns the number of machines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}

// Path returns the location the registry is saved to.
func (r *Registry) Path() string {
	return r.store.Path()
}

func (r *Registry) save() error {
	if err := r.store.Save(r.machines); err != nil {
		return &PersistenceError{Path: r.store.Path(), Err: err}
	}
	r.logger.Debug().Str("path", r.store.Path()).Int("machines", len(r.machines)).Msg("registry saved")
	return nil
}

func (r *Registry) reindex() {
	r.index = make(map[string]int, len(r.machines))
	for i, m := range r.machines {
		r.index[m.Name] = i
	}
}
