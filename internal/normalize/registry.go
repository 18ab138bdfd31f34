package normalize

import (
	"strings"

	"github.com/cleared-dev/rollcheck/internal/model"
)

// Registry holds normalizers by roll kind.
type Registry struct {
	normalizers map[model.RollKind]Normalizer
}

// NewRegistry creates an empty normalizer registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[model.RollKind]Normalizer)}
}

// Register adds a normalizer. Panics on duplicate kind.
func (r *Registry) Register(n Normalizer) {
	key := model.RollKind(strings.ToLower(string(n.Kind())))
	if _, ok := r.normalizers[key]; ok {
		panic("duplicate normalizer kind: " + string(key))
	}
	r.normalizers[key] = n
}

// Get returns the normalizer for kind, or nil.
func (r *Registry) Get(kind model.RollKind) Normalizer {
	return r.normalizers[model.RollKind(strings.ToLower(string(kind)))]
}

// DefaultRegistry returns a registry with the actual and Argus normalizers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ActualNormalizer{})
	r.Register(&ArgusNormalizer{})
	return r
}
