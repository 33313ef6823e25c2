package chain

import (
	"fmt"
	"sync"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// Registry is the engine's only other piece of shared mutable state
// besides the queue itself (spec.md §9, "Global state: only the queue
// and the adapter registry"). Lookups happen on every dispatch, so
// reads take the cheap path; registration only happens at startup.
type Registry struct {
	mu       sync.RWMutex
	adapters map[message.ChainID]Adapter
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[message.ChainID]Adapter)}
}

// Register installs adapter under its own ChainID. Called once per
// configured chain at startup; panics on a duplicate ChainID since that
// always indicates a config mistake, not a runtime condition to
// recover from.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := adapter.ChainID()
	if _, exists := r.adapters[id]; exists {
		panic(fmt.Sprintf("chain: duplicate adapter registered for chain %s", id))
	}
	r.adapters[id] = adapter
}

// Get returns the adapter for id, or false if no chain with that id is
// configured -- the reducer turns a miss into a ChainQueryError since
// it is never expected once the config has validated successfully.
func (r *Registry) Get(id message.ChainID) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// ChainForLightClient returns the ChainID of the registered adapter
// backing light client kind lc, i.e. the chain whose Adapter.LightClient
// equals lc. Used to resolve the destination chain a choreography row's
// outbound message is addressed to, given only the light client kind
// its own Sequence/Aggregate construction already carries.
func (r *Registry) ChainForLightClient(lc message.LightClientKind) (message.ChainID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, a := range r.adapters {
		if a.LightClient() == lc {
			return id, true
		}
	}
	return "", false
}

// All returns a snapshot slice of every registered adapter, used by
// the ingress fan-in to start one event subscription per chain.
func (r *Registry) All() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}
