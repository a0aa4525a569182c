package parser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vitorcapdeville/financas/pkg/models"
)

// Registry maps parser ids to parsers. It is filled once at startup and only
// read afterwards.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds p. Registering an id twice is an error and keeps the first.
func (r *Registry) Register(p Parser) error {
	id := p.ID()
	if _, ok := r.parsers[id]; ok {
		return fmt.Errorf("parser %q already registered", id)
	}
	r.parsers[id] = p
	r.order = append(r.order, id)
	return nil
}

// Resolve returns the parser registered under id.
func (r *Registry) Resolve(id string) (Parser, error) {
	p, ok := r.parsers[id]
	if !ok {
		return nil, models.NewValidationError("parser %q not found, available: %s", id, strings.Join(r.order, ", "))
	}
	return p, nil
}

// Available lists registered ids in registration order.
func (r *Registry) Available() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe lists metadata for every registered parser.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, describe(r.parsers[id]))
	}
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry(logger *log.Logger) *Registry {
	r := NewRegistry()
	for _, p := range []Parser{
		NewBTGStatement(logger),
		NewBTGInvoice(logger),
		NewNubankStatement(logger),
		NewNubankInvoice(logger),
		NewGeneric(logger),
	} {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}
