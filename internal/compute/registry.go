package compute

import (
	"fmt"
	"sort"
	"sync"
)

// Request carries the parameters of one compute invocation. Each kind reads
// the fields relevant to it and validates the rest away.
type Request struct {
	Operation string `json:"operation"`
	ValueA    uint64 `json:"value_a,omitempty"`
	ValueB    uint64 `json:"value_b,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Cols      int    `json:"cols,omitempty"`
	Qubits    int    `json:"qubits,omitempty"`
	Target    int    `json:"target,omitempty"`
	Seed      int64  `json:"seed,omitempty"`
}

// Kind is one family of compute operations. Run may use scratch as working
// memory when the engine leased a block; scratch may be nil or smaller than
// needed, and implementations must degrade to their own allocations.
type Kind interface {
	Name() string
	Operations() []string
	Run(req Request, scratch []byte) (any, error)
}

// KindInfo describes a registered kind for API listings.
type KindInfo struct {
	Name       string   `json:"name"`
	Operations []string `json:"operations"`
}

// Registry holds the registered compute kinds and resolves submission
// requests to one of them.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Register adds a kind under its own name.
func (r *Registry) Register(k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name()] = k
}

// Resolve returns the kind registered under name.
func (r *Registry) Resolve(name string) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	if !ok {
		return nil, fmt.Errorf("compute kind %q is not registered", name)
	}
	return k, nil
}

// List returns information about all registered kinds, sorted by name for a
// stable API response.
func (r *Registry) List() []KindInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]KindInfo, 0, len(r.kinds))
	for _, k := range r.kinds {
		infos = append(infos, KindInfo{
			Name:       k.Name(),
			Operations: k.Operations(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// DefaultRegistry returns a registry with every built-in kind registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Binary{})
	r.Register(Hash{})
	r.Register(Matrix{})
	r.Register(Quantum{})
	return r
}
