// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package speedy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateFactory is returned when an owner is registered twice.
var ErrDuplicateFactory = errors.New("factory already registered")

// Name is the display name of the adapter.
const Name = "Speedy (Speed/Pitch)"

// Factory creates adapters of one kind from their presets.
type Factory struct {
	Owner         Owner
	Name          string
	DefaultPreset Preset
	New           func(Preset) *Adapter
}

// Registry maps preset owners to factories. Hosts fill it once during
// startup and look factories up when restoring presets.
type Registry struct {
	mu        sync.RWMutex
	factories map[Owner]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Owner]Factory)}
}

// Register adds f. Registering the same owner twice fails.
func (r *Registry) Register(f Factory) error {
	if f.New == nil {
		return fmt.Errorf("register %q: nil constructor", f.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.factories[f.Owner]; ok {
		return fmt.Errorf("%w: %v (%s)", ErrDuplicateFactory, f.Owner, prev.Name)
	}
	r.factories[f.Owner] = f
	return nil
}

// Lookup returns the factory registered for owner.
func (r *Registry) Lookup(owner Owner) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[owner]
	return f, ok
}

// Open creates an adapter from a preset using the factory of its owner.
func (r *Registry) Open(pr Preset) (*Adapter, error) {
	f, ok := r.Lookup(pr.Owner)
	if !ok {
		return nil, fmt.Errorf("%w: no factory for %v", ErrForeignPreset, pr.Owner)
	}
	return f.New(pr), nil
}

// Names returns the names of all registered factories, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for _, f := range r.factories {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// SpeedyFactory returns the factory for this package's adapter. Presets
// that fail to parse yield default params.
func SpeedyFactory(opts ...Option) Factory {
	return Factory{
		Owner:         SpeedyOwner,
		Name:          Name,
		DefaultPreset: DefaultParams().Preset(),
		New: func(pr Preset) *Adapter {
			return New(LoadPreset(pr, SpeedyOwner), opts...)
		},
	}
}
